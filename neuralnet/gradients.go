package neuralnet

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// NeuronDerivative holds the loss derivatives of one neuron: with respect to
// its bias, to its weighted sum (the delta) and to each incoming weight.
type NeuronDerivative struct {
	Bias    float64
	Output  float64
	Weights []float64
}

// Gradients mirrors a network's shape and accumulates derivatives over the
// samples of a mini-batch. It never averages; SGD.Apply does the scaling.
type Gradients struct {
	numInputs int
	bias      []*mat.VecDense
	output    []*mat.VecDense
	weights   []*mat.Dense
}

// NewGradients returns zeroed gradients for a network of the given shape.
func NewGradients(layerShape []int, numInputs int) (*Gradients, error) {
	if len(layerShape) == 0 || numInputs <= 0 {
		return nil, fmt.Errorf("NewGradients: %w: shape %v with %d inputs", ErrInvalidShape, layerShape, numInputs)
	}
	g := &Gradients{
		numInputs: numInputs,
		bias:      make([]*mat.VecDense, len(layerShape)),
		output:    make([]*mat.VecDense, len(layerShape)),
		weights:   make([]*mat.Dense, len(layerShape)),
	}
	fanIn := numInputs
	for l, size := range layerShape {
		if size <= 0 {
			return nil, fmt.Errorf("NewGradients: %w: layer %d has %d neurons", ErrInvalidShape, l, size)
		}
		g.bias[l] = mat.NewVecDense(size, nil)
		g.output[l] = mat.NewVecDense(size, nil)
		g.weights[l] = mat.NewDense(size, fanIn, nil)
		fanIn = size
	}
	return g, nil
}

func (g *Gradients) NumInputs() int {
	return g.numInputs
}

func (g *Gradients) LayerShape() []int {
	shape := make([]int, len(g.bias))
	for l, b := range g.bias {
		shape[l] = b.Len()
	}
	return shape
}

// For one neuron
func (g *Gradients) SetOutputDerivative(layer, neuron int, value float64) {
	g.output[layer].SetVec(neuron, value)
}

// For one neuron
func (g *Gradients) SetBiasDerivative(layer, neuron int, value float64) {
	g.bias[layer].SetVec(neuron, value)
}

// For one neuron connection
func (g *Gradients) SetWeightDerivative(layer, neuron, conn int, value float64) {
	g.weights[layer].Set(neuron, conn, value)
}

// SetLayerOfDerivatives replaces every derivative of one layer.
func (g *Gradients) SetLayerOfDerivatives(values []NeuronDerivative, layer int) error {
	const op = "Gradients.SetLayerOfDerivatives"
	neurons, fanIn := g.weights[layer].Dims()
	if len(values) != neurons {
		return shapeError(op, fmt.Sprintf("neurons in layer %d", layer), neurons, len(values))
	}
	for n, v := range values {
		if len(v.Weights) != fanIn {
			return shapeError(op, fmt.Sprintf("weights of neuron %d", n), fanIn, len(v.Weights))
		}
	}
	for n, v := range values {
		g.bias[layer].SetVec(n, v.Bias)
		g.output[layer].SetVec(n, v.Output)
		g.weights[layer].SetRow(n, v.Weights)
	}
	return nil
}

// NeuronDerivatives returns a copy of every derivative, indexed [layer][neuron].
func (g *Gradients) NeuronDerivatives() [][]NeuronDerivative {
	out := make([][]NeuronDerivative, len(g.weights))
	for l := range g.weights {
		out[l] = make([]NeuronDerivative, g.bias[l].Len())
		for n := range out[l] {
			out[l][n] = NeuronDerivative{
				Bias:    g.bias[l].AtVec(n),
				Output:  g.output[l].AtVec(n),
				Weights: mat.Row(nil, n, g.weights[l]),
			}
		}
	}
	return out
}

// accumulate adds one sample's contribution to a layer: delta to the bias and
// output derivatives, delta[n]*input[j] to weight (n, j).
func (g *Gradients) accumulate(layer int, delta, input *mat.VecDense) {
	g.bias[layer].AddVec(g.bias[layer], delta)
	g.output[layer].AddVec(g.output[layer], delta)
	g.weights[layer].RankOne(g.weights[layer], 1, delta, input)
}

func (g *Gradients) matches(nn *NeuralNetwork) error {
	if g.numInputs != nn.NumInputs() {
		return shapeError("Gradients", "network inputs", nn.NumInputs(), g.numInputs)
	}
	shape := nn.LayerShape()
	if len(shape) != len(g.bias) {
		return shapeError("Gradients", "layers", len(shape), len(g.bias))
	}
	for l, size := range shape {
		if g.bias[l].Len() != size {
			return shapeError("Gradients", fmt.Sprintf("neurons in layer %d", l), size, g.bias[l].Len())
		}
	}
	return nil
}
