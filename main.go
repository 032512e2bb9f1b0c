package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gon/dataset"
	"gon/neuralnet"
)

type options struct {
	images, labels string
	shape          []int
	activation     neuralnet.ActivationFunction
	weightSpread   float64
	biasSpread     float64
	train          neuralnet.TrainConfig
	binaryOut      string
	textOut        string
}

func parseShape(s string) ([]int, error) {
	var shape []int
	for _, field := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return nil, fmt.Errorf("invalid layer size %q: %w", field, err)
		}
		if n <= 0 {
			return nil, fmt.Errorf("invalid layer size %d", n)
		}
		shape = append(shape, n)
	}
	return shape, nil
}

func parseFlags(args []string) (*options, error) {
	fs := flag.NewFlagSet("gon", flag.ContinueOnError)
	images := fs.String("images", "MNIST_DATA/train-images.idx3-ubyte", "IDX image file")
	labels := fs.String("labels", "MNIST_DATA/train-labels.idx1-ubyte", "IDX label file")
	shape := fs.String("shape", "30,10", "comma separated neuron count of every layer")
	activation := fs.String("activation", "sigmoid", "activation of every layer (linear, relu, leakyrelu, sigmoid, tanh)")
	weightSpread := fs.Float64("weight-spread", 1, "initial weights are drawn from [-spread, spread]")
	biasSpread := fs.Float64("bias-spread", 0, "initial biases are drawn from [-spread, spread]")
	batches := fs.Int("batches", 3000, "mini-batches per epoch")
	samples := fs.Int("samples", 60000, "training samples to use")
	epochs := fs.Int("epochs", 3, "passes over the training samples")
	lr := fs.Float64("lr", 1.5, "learning rate")
	progress := fs.Bool("progress", true, "print training progress")
	interval := fs.Int("interval", 60001, "samples between progress lines inside a batch")
	binaryOut := fs.String("out", "mnist_network.bin", "binary network output file")
	textOut := fs.String("text", "mnist_network.txt", "text network dump, empty to skip")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	opts := &options{
		images:       *images,
		labels:       *labels,
		weightSpread: *weightSpread,
		biasSpread:   *biasSpread,
		binaryOut:    *binaryOut,
		textOut:      *textOut,
		train: neuralnet.TrainConfig{
			Batches:          *batches,
			Samples:          *samples,
			Epochs:           *epochs,
			LearningRate:     *lr,
			ShowProgress:     *progress,
			ProgressInterval: *interval,
			Output:           os.Stdout,
		},
	}
	var err error
	if opts.shape, err = parseShape(*shape); err != nil {
		return nil, err
	}
	if opts.activation, err = neuralnet.ParseActivation(*activation); err != nil {
		return nil, err
	}
	if err := opts.train.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

func run(opts *options) error {
	data, err := dataset.ReadMNIST(opts.images, opts.labels)
	if err != nil {
		return fmt.Errorf("loading MNIST: %w", err)
	}
	if opts.train.Samples > data.Len() {
		return fmt.Errorf("%d samples requested but %s holds %d", opts.train.Samples, opts.images, data.Len())
	}
	if last := opts.shape[len(opts.shape)-1]; last != data.TargetWidth() {
		return fmt.Errorf("output layer has %d neurons, labels need %d", last, data.TargetWidth())
	}

	network, err := neuralnet.NewRandomNeuralNetwork(opts.shape, data.InputWidth(), opts.weightSpread, opts.biasSpread)
	if err != nil {
		return err
	}
	network.SetActivationForAllLayers(opts.activation)

	network, err = network.TrainMiniBatch(data.Input, data.Expected, opts.train)
	if err != nil {
		return fmt.Errorf("training: %w", err)
	}

	if err := network.WriteBinaryFile(opts.binaryOut); err != nil {
		return err
	}
	if opts.textOut != "" {
		if err := network.WriteTextFile(opts.textOut); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if err == flag.ErrHelp {
			return
		}
		fmt.Println("Error:", err)
		os.Exit(2)
	}

	fmt.Println("Training Network - MNIST")
	if err := run(opts); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	fmt.Println("Done!")
}
