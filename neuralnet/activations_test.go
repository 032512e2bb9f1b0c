package neuralnet

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReLUActivate(t *testing.T) {
	r := ReLU{}
	assert.Equal(t, 0.0, r.Activate(-1))
	assert.Equal(t, 2.0, r.Activate(2))
	assert.Equal(t, 0.0, r.Derivative(0), "derivative at 0 is 0 by convention")
	assert.Equal(t, 1.0, r.Derivative(0.5))
	assert.Equal(t, 0.0, r.Derivative(-3))
}

func TestLeakyReLUActivate(t *testing.T) {
	l := NewLeakyReLU(0.1)
	assert.Equal(t, 2.0, l.Activate(2))
	assert.InDelta(t, -0.2, l.Activate(-2), 1e-12)
	assert.Equal(t, 1.0, l.Derivative(3))
	assert.Equal(t, 0.1, l.Derivative(-3))
	assert.Equal(t, "leakyrelu(0.1)", l.String())
}

func TestSigmoidActivate(t *testing.T) {
	s := Sigmoid{}
	assert.InDelta(t, 0.5, s.Activate(0), 1e-12)
	assert.InDelta(t, 0.25, s.Derivative(0), 1e-12)
	assert.InDelta(t, 1/(1+math.Exp(-2)), s.Activate(2), 1e-12)
}

func TestTanhActivate(t *testing.T) {
	th := Tanh{}
	assert.Equal(t, 0.0, th.Activate(0))
	assert.InDelta(t, 1.0, th.Derivative(0), 1e-12)
	x := 0.7
	assert.InDelta(t, 1-math.Tanh(x)*math.Tanh(x), th.Derivative(x), 1e-12)
}

func TestLinearActivate(t *testing.T) {
	l := Linear{}
	input := 3.14
	assert.Equal(t, input, l.Activate(input))
	assert.Equal(t, 1.0, l.Derivative(input))
}

// Each derivative must agree with a centered difference of its function.
func TestActivationDerivativesMatchFunctions(t *testing.T) {
	const h = 1e-6
	for _, act := range []ActivationFunction{Linear{}, ReLU{}, NewLeakyReLU(0.2), Sigmoid{}, Tanh{}} {
		for _, x := range []float64{-2.5, -0.3, 0.4, 1.7} {
			numeric := (act.Activate(x+h) - act.Activate(x-h)) / (2 * h)
			assert.InDelta(t, numeric, act.Derivative(x), 1e-6, "%v at %v", act, x)
		}
	}
}

func TestParseActivation(t *testing.T) {
	for name, want := range map[string]ActivationFunction{
		"linear":    Linear{},
		"ReLU":      ReLU{},
		" sigmoid":  Sigmoid{},
		"tanh":      Tanh{},
		"leakyrelu": NewLeakyReLU(0.01),
	} {
		got, err := ParseActivation(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseActivation("softmax")
	assert.ErrorIs(t, err, ErrUnknownActivation)
}
