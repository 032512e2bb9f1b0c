package neuralnet

import (
	"fmt"
	"math"
	"strings"
)

// ActivationFunction pairs an activation with its derivative so the two can
// never be configured apart. Derivative takes the pre-activation value.
type ActivationFunction interface {
	Activate(x float64) float64
	Derivative(x float64) float64
	String() string
}

type ReLU struct{}

func (r ReLU) Activate(x float64) float64 {
	return math.Max(x, 0)
}

// Derivative is 0 at x == 0.
func (r ReLU) Derivative(x float64) float64 {
	if x > 0 {
		return 1
	}
	return 0
}

func (r ReLU) String() string {
	return "relu"
}

// LeakyReLU lets Alpha*x through for negative x.
type LeakyReLU struct {
	Alpha float64
}

func NewLeakyReLU(alpha float64) LeakyReLU {
	return LeakyReLU{Alpha: alpha}
}

func (l LeakyReLU) Activate(x float64) float64 {
	if x > 0 {
		return x
	}
	return l.Alpha * x
}

func (l LeakyReLU) Derivative(x float64) float64 {
	if x > 0 {
		return 1
	}
	return l.Alpha
}

func (l LeakyReLU) String() string {
	return fmt.Sprintf("leakyrelu(%g)", l.Alpha)
}

type Sigmoid struct{}

func (s Sigmoid) Activate(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func (s Sigmoid) Derivative(x float64) float64 {
	sigmoid := s.Activate(x)
	return sigmoid * (1 - sigmoid)
}

func (s Sigmoid) String() string {
	return "sigmoid"
}

type Tanh struct{}

func (t Tanh) Activate(x float64) float64 {
	return math.Tanh(x)
}

func (t Tanh) Derivative(x float64) float64 {
	cosh := math.Cosh(x)
	return 1 / (cosh * cosh)
}

func (t Tanh) String() string {
	return "tanh"
}

type Linear struct{}

func (t Linear) Activate(x float64) float64 {
	return x
}

func (t Linear) Derivative(x float64) float64 {
	return 1
}

func (t Linear) String() string {
	return "linear"
}

// ParseActivation returns the activation registered under name.
func ParseActivation(name string) (ActivationFunction, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "linear":
		return Linear{}, nil
	case "relu":
		return ReLU{}, nil
	case "leakyrelu":
		return NewLeakyReLU(0.01), nil
	case "sigmoid":
		return Sigmoid{}, nil
	case "tanh":
		return Tanh{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownActivation, name)
}
