package neuralnet

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Layer is one dense stage of neurons. Row n of weights holds the weights
// from every input to neuron n.
type Layer struct {
	weights    *mat.Dense    // numNeurons x numInputs
	biases     *mat.VecDense // numNeurons
	activation ActivationFunction
}

// NewLayer builds a layer from explicit neuron-major weights and biases.
// A nil activation defaults to ReLU.
func NewLayer(weights [][]float64, biases []float64, activation ActivationFunction) (*Layer, error) {
	if len(weights) == 0 {
		return nil, fmt.Errorf("NewLayer: %w: layer needs at least one neuron", ErrInvalidShape)
	}
	numInputs := len(weights[0])
	if numInputs == 0 {
		return nil, fmt.Errorf("NewLayer: %w: neuron needs at least one weight", ErrInvalidShape)
	}
	if len(biases) != len(weights) {
		return nil, shapeError("NewLayer", "bias count", len(weights), len(biases))
	}
	data := make([]float64, 0, len(weights)*numInputs)
	for n, row := range weights {
		if len(row) != numInputs {
			return nil, shapeError("NewLayer", fmt.Sprintf("weights of neuron %d", n), numInputs, len(row))
		}
		data = append(data, row...)
	}
	if activation == nil {
		activation = ReLU{}
	}
	return &Layer{
		weights:    mat.NewDense(len(weights), numInputs, data),
		biases:     mat.NewVecDense(len(biases), append([]float64(nil), biases...)),
		activation: activation,
	}, nil
}

// NewConstantLayer builds a ReLU layer whose biases and weights all hold the
// same value.
func NewConstantLayer(numNeurons, numInputs int, bias, weight float64) (*Layer, error) {
	if numNeurons <= 0 || numInputs <= 0 {
		return nil, fmt.Errorf("NewConstantLayer: %w: %d neurons, %d inputs", ErrInvalidShape, numNeurons, numInputs)
	}
	weights := mat.NewDense(numNeurons, numInputs, nil)
	weights.Apply(func(_, _ int, _ float64) float64 { return weight }, weights)
	biases := mat.NewVecDense(numNeurons, nil)
	for n := 0; n < numNeurons; n++ {
		biases.SetVec(n, bias)
	}
	return &Layer{weights: weights, biases: biases, activation: ReLU{}}, nil
}

// Forward computes pre[n] = bias[n] + sum_j weight[n][j]*input[j] and
// post[n] = activation(pre[n]). The layer keeps no state between calls.
func (l *Layer) Forward(input []float64) (pre, post []float64, err error) {
	if l.activation == nil {
		return nil, nil, fmt.Errorf("Layer.Forward: %w", ErrMissingActivation)
	}
	if len(input) != l.NumInputs() {
		return nil, nil, shapeError("Layer.Forward", "input length", l.NumInputs(), len(input))
	}
	sum := mat.NewVecDense(l.NumNeurons(), nil)
	sum.MulVec(l.weights, mat.NewVecDense(len(input), input))
	sum.AddVec(l.biases, sum)

	pre = make([]float64, l.NumNeurons())
	post = make([]float64, l.NumNeurons())
	for n := range pre {
		pre[n] = sum.AtVec(n)
		post[n] = l.activation.Activate(pre[n])
	}
	return pre, post, nil
}

func (l *Layer) NumNeurons() int {
	r, _ := l.weights.Dims()
	return r
}

func (l *Layer) NumInputs() int {
	_, c := l.weights.Dims()
	return c
}

func (l *Layer) Activation() ActivationFunction {
	return l.activation
}

// SetActivation swaps the activation (function and derivative together).
func (l *Layer) SetActivation(activation ActivationFunction) {
	l.activation = activation
}

// Weights returns a copy of the weight rows.
func (l *Layer) Weights() [][]float64 {
	out := make([][]float64, l.NumNeurons())
	for n := range out {
		out[n] = mat.Row(nil, n, l.weights)
	}
	return out
}

// Biases returns a copy of the biases.
func (l *Layer) Biases() []float64 {
	return mat.Col(nil, 0, l.biases)
}

func (l *Layer) Weight(neuron, input int) float64 {
	return l.weights.At(neuron, input)
}

func (l *Layer) Bias(neuron int) float64 {
	return l.biases.AtVec(neuron)
}

// SetWeight does no bounds checking of its own; out of range indices panic.
func (l *Layer) SetWeight(neuron, input int, value float64) {
	l.weights.Set(neuron, input, value)
}

// SetBias does no bounds checking of its own; out of range indices panic.
func (l *Layer) SetBias(neuron int, value float64) {
	l.biases.SetVec(neuron, value)
}

func (l *Layer) clone() *Layer {
	return &Layer{
		weights:    mat.DenseCopyOf(l.weights),
		biases:     mat.VecDenseCopyOf(l.biases),
		activation: l.activation,
	}
}

// Debug
func (l *Layer) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d inputs -> %d neurons (%v)\n", l.NumInputs(), l.NumNeurons(), l.activation))
	for n := 0; n < l.NumNeurons(); n++ {
		sb.WriteString(fmt.Sprintf("Neuron %d: bias=%.4f weights=%.4f\n", n, l.Bias(n), mat.Row(nil, n, l.weights)))
	}
	return sb.String()
}
