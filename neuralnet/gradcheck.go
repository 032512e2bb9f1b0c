package neuralnet

import (
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

// NumericalGradient estimates the same gradient as Backprop with centered
// finite differences of MSE over every bias and weight. It is slow and meant
// for checking Backprop.
func (nn *NeuralNetwork) NumericalGradient(input, expected []float64) (*Gradients, error) {
	out, err := nn.Run(input)
	if err != nil {
		return nil, err
	}
	if len(expected) != len(out) {
		return nil, shapeError("NumericalGradient", "expected output length", len(out), len(expected))
	}

	probe := nn.Clone()
	params := probe.parameters()
	loss := func(x []float64) float64 {
		probe.setParameters(x)
		out, err := probe.Run(input)
		if err != nil {
			return math.NaN()
		}
		return MSE{}.Compute(out, expected)
	}
	// probe is shared by every evaluation, so they must not run concurrently.
	grad := fd.Gradient(nil, loss, params, &fd.Settings{
		Formula:    fd.Central,
		Concurrent: false,
	})

	grads, err := NewGradients(nn.LayerShape(), nn.NumInputs())
	if err != nil {
		return nil, err
	}
	i := 0
	for l, layer := range nn.layers {
		neurons, fanIn := layer.weights.Dims()
		for n := 0; n < neurons; n++ {
			grads.SetBiasDerivative(l, n, grad[i])
			grads.SetOutputDerivative(l, n, grad[i])
			i++
		}
		grads.weights[l].Copy(mat.NewDense(neurons, fanIn, grad[i:i+neurons*fanIn]))
		i += neurons * fanIn
	}
	return grads, nil
}

// parameters flattens the network in file order: per layer, the biases and
// then the weights neuron by neuron.
func (nn *NeuralNetwork) parameters() []float64 {
	var params []float64
	for _, layer := range nn.layers {
		params = append(params, layer.biases.RawVector().Data...)
		params = append(params, layer.weights.RawMatrix().Data...)
	}
	return params
}

func (nn *NeuralNetwork) setParameters(params []float64) {
	i := 0
	for _, layer := range nn.layers {
		neurons, fanIn := layer.weights.Dims()
		for n := 0; n < neurons; n++ {
			layer.biases.SetVec(n, params[i])
			i++
		}
		for n := 0; n < neurons; n++ {
			layer.weights.SetRow(n, params[i:i+fanIn])
			i += fanIn
		}
	}
}
