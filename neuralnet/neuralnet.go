package neuralnet

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Represents the simplest NN: a stack of dense layers.
type NeuralNetwork struct {
	layers    []*Layer
	numInputs int
}

// Initializer chooses the starting value of every bias and weight of a
// network built by NewNeuralNetwork. It is called in layer order, and within a
// layer neuron by neuron: the bias first, then the neuron's weights.
type Initializer interface {
	Bias(layer, neuron int) float64
	Weight(layer, neuron, input int) float64
}

// ConstantInit gives every neuron the same bias and every connection the same weight.
type ConstantInit struct {
	BiasValue   float64
	WeightValue float64
}

func (c ConstantInit) Bias(_, _ int) float64 {
	return c.BiasValue
}

func (c ConstantInit) Weight(_, _, _ int) float64 {
	return c.WeightValue
}

// UniformInit draws weights from [-WeightSpread, WeightSpread] and biases from
// [-BiasSpread, BiasSpread], reading the spreads at every draw. All draws share
// Src; a nil Src is left nil and a private clock-seeded source is used instead.
type UniformInit struct {
	WeightSpread float64
	BiasSpread   float64
	Src          rand.Source

	clock rand.Source
}

func (u *UniformInit) source() rand.Source {
	if u.Src != nil {
		return u.Src
	}
	if u.clock == nil {
		u.clock = rand.NewSource(uint64(time.Now().UnixNano()))
	}
	return u.clock
}

func (u *UniformInit) Bias(_, _ int) float64 {
	return distuv.Uniform{Min: -u.BiasSpread, Max: u.BiasSpread, Src: u.source()}.Rand()
}

func (u *UniformInit) Weight(_, _, _ int) float64 {
	return distuv.Uniform{Min: -u.WeightSpread, Max: u.WeightSpread, Src: u.source()}.Rand()
}

// NewNeuralNetwork builds a network with layerShape[i] neurons in layer i.
// Layer 0 reads numInputs values, every later layer reads the previous
// layer's outputs. All layers start with ReLU.
func NewNeuralNetwork(layerShape []int, numInputs int, init Initializer) (*NeuralNetwork, error) {
	if len(layerShape) == 0 {
		return nil, fmt.Errorf("NewNeuralNetwork: %w: network needs at least one layer", ErrInvalidShape)
	}
	if numInputs <= 0 {
		return nil, fmt.Errorf("NewNeuralNetwork: %w: %d inputs", ErrInvalidShape, numInputs)
	}
	if init == nil {
		init = ConstantInit{}
	}

	nn := &NeuralNetwork{
		layers:    make([]*Layer, len(layerShape)),
		numInputs: numInputs,
	}
	fanIn := numInputs
	for l, size := range layerShape {
		if size <= 0 {
			return nil, fmt.Errorf("NewNeuralNetwork: %w: layer %d has %d neurons", ErrInvalidShape, l, size)
		}
		weights := make([][]float64, size)
		biases := make([]float64, size)
		for n := range weights {
			biases[n] = init.Bias(l, n)
			weights[n] = make([]float64, fanIn)
			for j := range weights[n] {
				weights[n][j] = init.Weight(l, n, j)
			}
		}
		layer, err := NewLayer(weights, biases, ReLU{})
		if err != nil {
			return nil, err
		}
		nn.layers[l] = layer
		fanIn = size
	}
	return nn, nil
}

// NewRandomNeuralNetwork draws every weight and bias uniformly from
// [-weightSpread, weightSpread] and [-biasSpread, biasSpread] with one freshly
// seeded generator.
func NewRandomNeuralNetwork(layerShape []int, numInputs int, weightSpread, biasSpread float64) (*NeuralNetwork, error) {
	return NewNeuralNetwork(layerShape, numInputs, &UniformInit{
		WeightSpread: weightSpread,
		BiasSpread:   biasSpread,
	})
}

// NewNeuralNetworkFromLayers takes ownership of already built layers.
func NewNeuralNetworkFromLayers(layers []*Layer, numInputs int) (*NeuralNetwork, error) {
	if len(layers) == 0 {
		return nil, fmt.Errorf("NewNeuralNetworkFromLayers: %w: network needs at least one layer", ErrInvalidShape)
	}
	fanIn := numInputs
	for l, layer := range layers {
		if layer == nil {
			return nil, fmt.Errorf("NewNeuralNetworkFromLayers: %w: layer %d is nil", ErrInvalidShape, l)
		}
		if layer.NumInputs() != fanIn {
			return nil, shapeError("NewNeuralNetworkFromLayers", fmt.Sprintf("inputs of layer %d", l), fanIn, layer.NumInputs())
		}
		fanIn = layer.NumNeurons()
	}
	return &NeuralNetwork{
		layers:    append([]*Layer(nil), layers...),
		numInputs: numInputs,
	}, nil
}

// NewNeuralNetworkFromWeights builds a network from explicit neuron-major
// weight matrices and bias vectors, checked against layerShape.
func NewNeuralNetworkFromWeights(layerShape []int, numInputs int, weights [][][]float64, biases [][]float64) (*NeuralNetwork, error) {
	const op = "NewNeuralNetworkFromWeights"
	if len(weights) != len(layerShape) {
		return nil, shapeError(op, "weight matrix count", len(layerShape), len(weights))
	}
	if len(biases) != len(layerShape) {
		return nil, shapeError(op, "bias vector count", len(layerShape), len(biases))
	}
	layers := make([]*Layer, len(layerShape))
	for l, size := range layerShape {
		if len(weights[l]) != size {
			return nil, shapeError(op, fmt.Sprintf("neurons in layer %d", l), size, len(weights[l]))
		}
		layer, err := NewLayer(weights[l], biases[l], ReLU{})
		if err != nil {
			return nil, fmt.Errorf("%s: layer %d: %w", op, l, err)
		}
		layers[l] = layer
	}
	return NewNeuralNetworkFromLayers(layers, numInputs)
}

// Trace records one forward pass: the sample input and, per layer, the
// weighted sums before and the outputs after the activation.
type Trace struct {
	Input []float64
	Pre   [][]float64
	Post  [][]float64
}

// Output returns the final layer's activations.
func (t *Trace) Output() []float64 {
	return t.Post[len(t.Post)-1]
}

// LayerInput returns what layer l read: the sample input for layer 0,
// otherwise the previous layer's activations.
func (t *Trace) LayerInput(l int) []float64 {
	if l == 0 {
		return t.Input
	}
	return t.Post[l-1]
}

// Run feeds input through every layer and returns the last layer's output.
func (nn *NeuralNetwork) Run(input []float64) ([]float64, error) {
	out := input
	for i, layer := range nn.layers {
		_, post, err := layer.Forward(out)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		out = post
	}
	return out, nil
}

// FeedForward is Run that also keeps every layer's pre- and post-activation
// values, as needed by the backward pass.
func (nn *NeuralNetwork) FeedForward(input []float64) (*Trace, error) {
	trace := &Trace{
		Input: append([]float64(nil), input...),
		Pre:   make([][]float64, len(nn.layers)),
		Post:  make([][]float64, len(nn.layers)),
	}
	out := trace.Input
	for i, layer := range nn.layers {
		pre, post, err := layer.Forward(out)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		trace.Pre[i], trace.Post[i] = pre, post
		out = post
	}
	return trace, nil
}

func (nn *NeuralNetwork) NumInputs() int {
	return nn.numInputs
}

// LayerShape returns the neuron count of every layer.
func (nn *NeuralNetwork) LayerShape() []int {
	shape := make([]int, len(nn.layers))
	for i, layer := range nn.layers {
		shape[i] = layer.NumNeurons()
	}
	return shape
}

func (nn *NeuralNetwork) NumLayers() int {
	return len(nn.layers)
}

func (nn *NeuralNetwork) Layer(i int) *Layer {
	return nn.layers[i]
}

// Layers returns the network's layers. The slice is a copy, the layers are not.
func (nn *NeuralNetwork) Layers() []*Layer {
	return append([]*Layer(nil), nn.layers...)
}

func (nn *NeuralNetwork) SetActivation(layerIndex int, activation ActivationFunction) {
	nn.layers[layerIndex].SetActivation(activation)
}

func (nn *NeuralNetwork) SetActivationForAllLayers(activation ActivationFunction) {
	for _, layer := range nn.layers {
		layer.SetActivation(activation)
	}
}

func (nn *NeuralNetwork) SetLayerWeight(layerIndex, neuron, input int, value float64) {
	nn.layers[layerIndex].SetWeight(neuron, input, value)
}

func (nn *NeuralNetwork) SetLayerBias(layerIndex, neuron int, value float64) {
	nn.layers[layerIndex].SetBias(neuron, value)
}

// Clone deep-copies weights and biases. Activations are shared values.
func (nn *NeuralNetwork) Clone() *NeuralNetwork {
	c := &NeuralNetwork{
		layers:    make([]*Layer, len(nn.layers)),
		numInputs: nn.numInputs,
	}
	for i, layer := range nn.layers {
		c.layers[i] = layer.clone()
	}
	return c
}

func (nn *NeuralNetwork) activations() []ActivationFunction {
	acts := make([]ActivationFunction, len(nn.layers))
	for i, layer := range nn.layers {
		acts[i] = layer.activation
	}
	return acts
}

// Define the String() method for the NeuralNetwork type
func (nn *NeuralNetwork) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Inputs: %d\n", nn.numInputs))
	for i, layer := range nn.layers {
		sb.WriteString(fmt.Sprintf("Layer %d: %s\n", i, layer.String()))
	}
	return sb.String()
}
