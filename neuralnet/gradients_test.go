package neuralnet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestNewGradientsIsZero(t *testing.T) {
	g, err := NewGradients([]int{3, 2}, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, g.NumInputs())
	assert.Equal(t, []int{3, 2}, g.LayerShape())

	derivs := g.NeuronDerivatives()
	require.Len(t, derivs, 2)
	require.Len(t, derivs[0], 3)
	require.Len(t, derivs[1], 2)
	for _, layer := range derivs {
		for _, d := range layer {
			assert.Zero(t, d.Bias)
			assert.Zero(t, d.Output)
			for _, w := range d.Weights {
				assert.Zero(t, w)
			}
		}
	}
	assert.Len(t, derivs[0][0].Weights, 4)
	assert.Len(t, derivs[1][0].Weights, 3)
}

func TestNewGradientsInvalidShape(t *testing.T) {
	_, err := NewGradients(nil, 2)
	assert.ErrorIs(t, err, ErrInvalidShape)
	_, err = NewGradients([]int{-1}, 2)
	assert.ErrorIs(t, err, ErrInvalidShape)
}

func TestGradientsSetters(t *testing.T) {
	g, err := NewGradients([]int{2}, 2)
	require.NoError(t, err)

	g.SetBiasDerivative(0, 1, 0.5)
	g.SetOutputDerivative(0, 1, 0.25)
	g.SetWeightDerivative(0, 0, 1, -1)

	derivs := g.NeuronDerivatives()
	assert.Equal(t, NeuronDerivative{Bias: 0, Output: 0, Weights: []float64{0, -1}}, derivs[0][0])
	assert.Equal(t, NeuronDerivative{Bias: 0.5, Output: 0.25, Weights: []float64{0, 0}}, derivs[0][1])

	// The returned values are copies.
	derivs[0][0].Weights[1] = 7
	assert.Equal(t, -1.0, g.NeuronDerivatives()[0][0].Weights[1])
}

func TestSetLayerOfDerivatives(t *testing.T) {
	g, err := NewGradients([]int{2, 1}, 3)
	require.NoError(t, err)

	values := []NeuronDerivative{
		{Bias: 1, Output: 1, Weights: []float64{1, 2, 3}},
		{Bias: 2, Output: 2, Weights: []float64{4, 5, 6}},
	}
	require.NoError(t, g.SetLayerOfDerivatives(values, 0))
	assert.Equal(t, values, g.NeuronDerivatives()[0])

	err = g.SetLayerOfDerivatives(values, 1)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	err = g.SetLayerOfDerivatives([]NeuronDerivative{{Weights: []float64{1}}}, 1)
	assert.ErrorIs(t, err, ErrShapeMismatch)
	// A rejected call leaves the layer untouched.
	assert.Equal(t, []float64{0, 0}, g.NeuronDerivatives()[1][0].Weights)
}

func TestGradientsAccumulate(t *testing.T) {
	g, err := NewGradients([]int{2}, 3)
	require.NoError(t, err)

	delta := mat.NewVecDense(2, []float64{0.5, -1})
	input := mat.NewVecDense(3, []float64{1, 2, 3})
	g.accumulate(0, delta, input)
	g.accumulate(0, delta, input)

	derivs := g.NeuronDerivatives()[0]
	assert.Equal(t, NeuronDerivative{Bias: 1, Output: 1, Weights: []float64{1, 2, 3}}, derivs[0])
	assert.Equal(t, NeuronDerivative{Bias: -2, Output: -2, Weights: []float64{-2, -4, -6}}, derivs[1])
}
