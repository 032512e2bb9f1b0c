package neuralnet

import (
	"fmt"
	"io"
	"os"
	"time"

	"gonum.org/v1/gonum/mat"
)

// SampleFunc produces the vector for one training sample index. Input
// vectors must match the network's input count, expected vectors its final
// layer width.
type SampleFunc func(index int) ([]float64, error)

// TrainConfig holds configuration for mini-batch training.
type TrainConfig struct {
	Batches      int     // mini-batches per epoch
	Samples      int     // training samples; Samples % Batches trailing samples are never visited
	Epochs       int
	LearningRate float64

	ShowProgress     bool
	ProgressInterval int // samples between progress records inside a batch (0 = batch summaries only)

	Output   io.Writer      // where progress lines go when Reporter is nil (default os.Stdout)
	Reporter func(Progress) // receives progress records instead of Output when set
}

// DefaultTrainConfig returns the stock training setup: 11 epochs
// at learning rate 0.1 with a progress line every 100 samples.
func DefaultTrainConfig(batches, samples int) TrainConfig {
	return TrainConfig{
		Batches:          batches,
		Samples:          samples,
		Epochs:           11,
		LearningRate:     0.1,
		ShowProgress:     true,
		ProgressInterval: 100,
	}
}

// Validate checks that the config describes at least one sample per batch.
func (c TrainConfig) Validate() error {
	if c.Batches <= 0 {
		return fmt.Errorf("%w: Batches must be > 0, got %d", ErrInvalidConfig, c.Batches)
	}
	if c.Samples < c.Batches {
		return fmt.Errorf("%w: Samples (%d) must be >= Batches (%d)", ErrInvalidConfig, c.Samples, c.Batches)
	}
	if c.Epochs <= 0 {
		return fmt.Errorf("%w: Epochs must be > 0, got %d", ErrInvalidConfig, c.Epochs)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("%w: LearningRate must be > 0, got %g", ErrInvalidConfig, c.LearningRate)
	}
	if c.ProgressInterval < 0 {
		return fmt.Errorf("%w: ProgressInterval must be >= 0, got %d", ErrInvalidConfig, c.ProgressInterval)
	}
	return nil
}

// Progress is one training progress record. Epoch, Batch and Sample are 1-based.
type Progress struct {
	Epoch   int
	Batch   int
	Sample  int           // global sample index + 1; 0 for batch summaries
	Samples int           // samples of the batch visited so far
	Cost    float64       // summed squared error averaged over Samples, the visited samples of this batch only
	Elapsed time.Duration // since the batch started
	Done    bool          // batch summary, emitted after the batch's update
}

func (p Progress) String() string {
	if p.Done {
		return fmt.Sprintf("Epoch: %d\tBatch: %d\tCost: %g\tTime elapsed: %s\tSamples: %d",
			p.Epoch, p.Batch, p.Cost, p.Elapsed.Round(time.Millisecond), p.Samples)
	}
	return fmt.Sprintf("Epoch: %d\tBatch: %d\tSample: %d\tCost: %g\tTime elapsed: %s",
		p.Epoch, p.Batch, p.Sample, p.Cost, p.Elapsed.Round(time.Millisecond))
}

func (c TrainConfig) reporter() func(Progress) {
	if c.Reporter != nil {
		return c.Reporter
	}
	out := c.Output
	if out == nil {
		out = os.Stdout
	}
	return func(p Progress) {
		fmt.Fprintln(out, p.String())
	}
}

// TrainMiniBatch runs mini-batch gradient descent on MSE and returns the
// trained network. nn itself is never modified: training works on a copy, and
// the activation derivatives used by the backward pass are the ones nn holds
// when training starts.
func (nn *NeuralNetwork) TrainMiniBatch(input, expected SampleFunc, cfg TrainConfig) (*NeuralNetwork, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if input == nil || expected == nil {
		return nil, fmt.Errorf("%w: nil sample function", ErrInvalidConfig)
	}
	acts := nn.activations()
	for l, act := range acts {
		if act == nil {
			return nil, fmt.Errorf("layer %d: %w", l, ErrMissingActivation)
		}
	}

	samplesPerBatch := cfg.Samples / cfg.Batches
	optimizer := &SGD{LearningRate: cfg.LearningRate}
	report := cfg.reporter()
	model := nn.Clone()

	sinceReport := 0
	for e := 1; e <= cfg.Epochs; e++ {
		for batch := 0; batch < cfg.Batches; batch++ {
			started := time.Now()
			var cost float64

			grads, err := NewGradients(model.LayerShape(), model.NumInputs())
			if err != nil {
				return nil, err
			}
			first := batch * samplesPerBatch
			for sample := first; sample < first+samplesPerBatch; sample++ {
				loss, err := model.trainSample(acts, input, expected, sample, grads)
				if err != nil {
					return nil, fmt.Errorf("epoch %d, batch %d: %w", e, batch+1, err)
				}
				if !cfg.ShowProgress {
					continue
				}
				cost += loss
				sinceReport++
				if cfg.ProgressInterval > 0 && sinceReport >= cfg.ProgressInterval {
					sinceReport = 0
					visited := sample - first + 1
					report(Progress{
						Epoch:   e,
						Batch:   batch + 1,
						Sample:  sample + 1,
						Samples: visited,
						Cost:    cost / float64(visited),
						Elapsed: time.Since(started),
					})
				}
			}

			if err := optimizer.Apply(model, grads, samplesPerBatch); err != nil {
				return nil, err
			}
			if cfg.ShowProgress {
				report(Progress{
					Epoch:   e,
					Batch:   batch + 1,
					Samples: samplesPerBatch,
					Cost:    cost / float64(samplesPerBatch),
					Elapsed: time.Since(started),
					Done:    true,
				})
			}
		}
	}
	return model, nil
}

// TrainSGD updates after every sample (one sample per mini-batch).
func (nn *NeuralNetwork) TrainSGD(input, expected SampleFunc, cfg TrainConfig) (*NeuralNetwork, error) {
	cfg.Batches = cfg.Samples
	return nn.TrainMiniBatch(input, expected, cfg)
}

// TrainBatch updates once per epoch with the gradient of the whole training set.
func (nn *NeuralNetwork) TrainBatch(input, expected SampleFunc, cfg TrainConfig) (*NeuralNetwork, error) {
	cfg.Batches = 1
	return nn.TrainMiniBatch(input, expected, cfg)
}

// trainSample runs one forward and backward pass and adds the sample's
// gradient to grads. It returns the sample's summed squared error.
func (nn *NeuralNetwork) trainSample(acts []ActivationFunction, input, expected SampleFunc, index int, grads *Gradients) (float64, error) {
	in, err := input(index)
	if err != nil {
		return 0, fmt.Errorf("sample %d: input: %w", index, err)
	}
	want, err := expected(index)
	if err != nil {
		return 0, fmt.Errorf("sample %d: expected output: %w", index, err)
	}
	trace, err := nn.FeedForward(in)
	if err != nil {
		return 0, fmt.Errorf("sample %d: %w", index, err)
	}
	if err := nn.backpropagate(acts, trace, want, grads); err != nil {
		return 0, fmt.Errorf("sample %d: %w", index, err)
	}
	return MSE{}.Compute(trace.Output(), want), nil
}

// Backprop returns the gradient of one sample's summed squared error with
// respect to every bias and weight of nn.
func (nn *NeuralNetwork) Backprop(input, expected []float64) (*Gradients, error) {
	grads, err := NewGradients(nn.LayerShape(), nn.NumInputs())
	if err != nil {
		return nil, err
	}
	trace, err := nn.FeedForward(input)
	if err != nil {
		return nil, err
	}
	if err := nn.backpropagate(nn.activations(), trace, expected, grads); err != nil {
		return nil, err
	}
	return grads, nil
}

// backpropagate walks the layers from last to first. The output delta is
// f'(pre) * 2*(out - want); a hidden delta is f'(pre) times the next layer's
// deltas weighted by the next layer's weights: (W_{l+1}^T delta_{l+1})[n].
func (nn *NeuralNetwork) backpropagate(acts []ActivationFunction, trace *Trace, want []float64, grads *Gradients) error {
	last := len(nn.layers) - 1
	if len(want) != nn.layers[last].NumNeurons() {
		return shapeError("backpropagate", "expected output length", nn.layers[last].NumNeurons(), len(want))
	}

	var next *mat.VecDense
	for l := last; l >= 0; l-- {
		pre := trace.Pre[l]
		derivative := acts[l].Derivative
		delta := mat.NewVecDense(len(pre), nil)
		if l == last {
			lossGrad := MSE{}.Gradient(trace.Output(), want)
			for n := range pre {
				delta.SetVec(n, derivative(pre[n])*lossGrad[n])
			}
		} else {
			delta.MulVec(nn.layers[l+1].weights.T(), next)
			for n := range pre {
				delta.SetVec(n, derivative(pre[n])*delta.AtVec(n))
			}
		}
		in := trace.LayerInput(l)
		grads.accumulate(l, delta, mat.NewVecDense(len(in), in))
		next = delta
	}
	return nil
}
