package neuralnet

// MSE is the summed squared error of one sample. It is not divided by the
// number of outputs; the trainer averages over samples only.
type MSE struct{}

// Compute returns sum_i (output[i] - target[i])^2.
func (MSE) Compute(output []float64, target []float64) float64 {
	var loss float64
	for i := range output {
		diff := output[i] - target[i]
		loss += diff * diff
	}
	return loss
}

// Gradient returns the derivative of Compute with respect to each output: 2*(output - target).
func (MSE) Gradient(output []float64, target []float64) []float64 {
	grad := make([]float64, len(output))
	for i := range output {
		grad[i] = 2 * (output[i] - target[i])
	}
	return grad
}
