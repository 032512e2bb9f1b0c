// Package dataset provides in-memory training sources for neuralnet.
package dataset

import (
	"errors"
	"fmt"

	"gorgonia.org/tensor"
)

var (
	ErrIndexOutOfRange = errors.New("sample index out of range")
	ErrInvalidData     = errors.New("invalid dataset")
)

// Tensors holds one sample per row of two 2-D float64 tensors: the network
// inputs and the expected outputs. Its Input and Expected methods have the
// shape of neuralnet.SampleFunc.
type Tensors struct {
	inputs  *tensor.Dense
	targets *tensor.Dense
}

// NewTensors copies rows into a Tensors. Every input row must have the same
// width, likewise every target row.
func NewTensors(inputs, targets [][]float64) (*Tensors, error) {
	in, err := denseFromRows(inputs)
	if err != nil {
		return nil, fmt.Errorf("inputs: %w", err)
	}
	out, err := denseFromRows(targets)
	if err != nil {
		return nil, fmt.Errorf("targets: %w", err)
	}
	return FromDense(in, out)
}

// FromDense wraps existing (samples x width) float64 tensors without copying
// them, unless they are views.
func FromDense(inputs, targets *tensor.Dense) (*Tensors, error) {
	in, err := checkDense(inputs)
	if err != nil {
		return nil, fmt.Errorf("inputs: %w", err)
	}
	out, err := checkDense(targets)
	if err != nil {
		return nil, fmt.Errorf("targets: %w", err)
	}
	if in.Shape()[0] != out.Shape()[0] {
		return nil, fmt.Errorf("%w: %d input rows but %d target rows", ErrInvalidData, in.Shape()[0], out.Shape()[0])
	}
	return &Tensors{inputs: in, targets: out}, nil
}

// Len is the number of samples.
func (t *Tensors) Len() int {
	return t.inputs.Shape()[0]
}

func (t *Tensors) InputWidth() int {
	return t.inputs.Shape()[1]
}

func (t *Tensors) TargetWidth() int {
	return t.targets.Shape()[1]
}

// Input returns a copy of sample i's input row.
func (t *Tensors) Input(i int) ([]float64, error) {
	return row(t.inputs, i)
}

// Expected returns a copy of sample i's target row.
func (t *Tensors) Expected(i int) ([]float64, error) {
	return row(t.targets, i)
}

// OneHot encodes class labels as rows of numClasses values with a single 1.
func OneHot(labels []int, numClasses int) (*tensor.Dense, error) {
	if len(labels) == 0 || numClasses <= 0 {
		return nil, fmt.Errorf("%w: %d labels, %d classes", ErrInvalidData, len(labels), numClasses)
	}
	backing := make([]float64, len(labels)*numClasses)
	for i, label := range labels {
		if label < 0 || label >= numClasses {
			return nil, fmt.Errorf("%w: label %d of sample %d outside [0, %d)", ErrInvalidData, label, i, numClasses)
		}
		backing[i*numClasses+label] = 1.0
	}
	return tensor.New(tensor.Of(tensor.Float64), tensor.WithShape(len(labels), numClasses), tensor.WithBacking(backing)), nil
}

func row(d *tensor.Dense, i int) ([]float64, error) {
	shape := d.Shape()
	if i < 0 || i >= shape[0] {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, i, shape[0])
	}
	width := shape[1]
	data := d.Data().([]float64)
	return append([]float64(nil), data[i*width:(i+1)*width]...), nil
}

func denseFromRows(rows [][]float64) (*tensor.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: no samples", ErrInvalidData)
	}
	width := len(rows[0])
	backing := make([]float64, 0, len(rows)*width)
	for i, r := range rows {
		if len(r) != width {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrInvalidData, i, len(r), width)
		}
		backing = append(backing, r...)
	}
	return tensor.New(tensor.Of(tensor.Float64), tensor.WithShape(len(rows), width), tensor.WithBacking(backing)), nil
}

func checkDense(d *tensor.Dense) (*tensor.Dense, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: nil tensor", ErrInvalidData)
	}
	if d.Dtype() != tensor.Float64 {
		return nil, fmt.Errorf("%w: dtype %v, want float64", ErrInvalidData, d.Dtype())
	}
	if d.Dims() != 2 || d.Shape()[0] == 0 || d.Shape()[1] == 0 {
		return nil, fmt.Errorf("%w: shape %v, want (samples, width)", ErrInvalidData, d.Shape())
	}
	if d.IsView() {
		m, ok := d.Materialize().(*tensor.Dense)
		if !ok {
			return nil, fmt.Errorf("%w: cannot materialize view", ErrInvalidData)
		}
		d = m
	}
	return d, nil
}
