package neuralnet

import (
	"errors"
	"fmt"
)

var (
	ErrShapeMismatch     = errors.New("shape mismatch")
	ErrInvalidShape      = errors.New("invalid shape")
	ErrMissingActivation = errors.New("missing activation function")
	ErrInvalidConfig     = errors.New("invalid training config")
	ErrUnknownActivation = errors.New("unknown activation function")
)

// ShapeError reports a length disagreement between vectors, matrices or layers.
type ShapeError struct {
	Op   string // operation that failed, e.g. "Layer.Forward"
	What string // what was measured, e.g. "input length"
	Want int
	Got  int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: %s: %s: want %d, got %d", e.Op, ErrShapeMismatch, e.What, e.Want, e.Got)
}

func (e *ShapeError) Unwrap() error {
	return ErrShapeMismatch
}

func shapeError(op, what string, want, got int) error {
	return &ShapeError{Op: op, What: what, Want: want, Got: got}
}

// IOError wraps a failure to open, create or close a network file.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
