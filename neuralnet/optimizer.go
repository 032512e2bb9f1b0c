package neuralnet

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// SGD implements plain stochastic gradient descent.
type SGD struct {
	LearningRate float64
}

// Apply subtracts (LearningRate/batchSize) times the summed gradients from
// every weight and bias of nn, once.
func (o *SGD) Apply(nn *NeuralNetwork, grads *Gradients, batchSize int) error {
	if batchSize <= 0 {
		return fmt.Errorf("%w: invalid batch size %d", ErrInvalidConfig, batchSize)
	}
	if err := grads.matches(nn); err != nil {
		return err
	}
	scale := o.LearningRate / float64(batchSize)
	for l, layer := range nn.layers {
		var weightStep mat.Dense
		weightStep.Scale(scale, grads.weights[l])
		layer.weights.Sub(layer.weights, &weightStep)

		var biasStep mat.VecDense
		biasStep.ScaleVec(scale, grads.bias[l])
		layer.biases.SubVec(layer.biases, &biasStep)
	}
	return nil
}
