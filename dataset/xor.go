package dataset

// XOR returns the four samples of the two-input exclusive or, with a single
// target value each.
func XOR() *Tensors {
	t, err := NewTensors(
		[][]float64{{0, 0}, {0, 1}, {1, 0}, {1, 1}},
		[][]float64{{0}, {1}, {1}, {0}},
	)
	if err != nil {
		panic(err)
	}
	return t
}
