package neuralnet

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strconv"
)

// Binary network layout, all values little-endian:
//
//	int32 numLayers
//	per layer:
//	  int32   numNeurons
//	  int32   numInputs
//	  float64 biases[numNeurons]
//	  float64 weights[numNeurons*numInputs] (neuron-major)
//
// There is no header, version or checksum.

// Bounds on what a file may declare, so a corrupt count cannot trigger a
// huge allocation.
const (
	maxLayers          = 1 << 16
	maxLayerParameters = 1 << 28
)

var byteOrder = binary.LittleEndian

// WriteBinary writes nn in the binary network layout.
func (nn *NeuralNetwork) WriteBinary(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, byteOrder, int32(len(nn.layers))); err != nil {
		return fmt.Errorf("failed to write layer count: %w", err)
	}
	for l, layer := range nn.layers {
		header := [2]int32{int32(layer.NumNeurons()), int32(layer.NumInputs())}
		if err := binary.Write(bw, byteOrder, header); err != nil {
			return fmt.Errorf("failed to write layer %d header: %w", l, err)
		}
		if err := binary.Write(bw, byteOrder, layer.biases.RawVector().Data[:layer.NumNeurons()]); err != nil {
			return fmt.Errorf("failed to write layer %d biases: %w", l, err)
		}
		for n := 0; n < layer.NumNeurons(); n++ {
			if err := binary.Write(bw, byteOrder, layer.weights.RawRowView(n)); err != nil {
				return fmt.Errorf("failed to write layer %d weights: %w", l, err)
			}
		}
	}
	return bw.Flush()
}

// WriteBinaryFile writes nn to path, replacing any existing file.
func (nn *NeuralNetwork) WriteBinaryFile(path string) error {
	return writeFile(path, nn.WriteBinary)
}

// ReadBinary reads a network in the binary network layout. Every layer gets
// the default ReLU activation; activations are not part of the file.
func ReadBinary(r io.Reader) (*NeuralNetwork, error) {
	const op = "ReadBinary"
	br := bufio.NewReader(r)

	var numLayers int32
	if err := readValues(br, &numLayers); err != nil {
		return nil, fmt.Errorf("failed to read layer count: %w", err)
	}
	if numLayers <= 0 || numLayers > maxLayers {
		return nil, fmt.Errorf("%s: %w: %d layers", op, ErrInvalidShape, numLayers)
	}

	var layers []*Layer
	for l := 0; l < int(numLayers); l++ {
		var header [2]int32
		if err := readValues(br, &header); err != nil {
			return nil, fmt.Errorf("failed to read layer %d header: %w", l, err)
		}
		neurons, inputs := int(header[0]), int(header[1])
		if neurons <= 0 || inputs <= 0 || neurons*inputs > maxLayerParameters {
			return nil, fmt.Errorf("%s: %w: layer %d has %d neurons and %d inputs", op, ErrInvalidShape, l, neurons, inputs)
		}
		if l > 0 && inputs != layers[l-1].NumNeurons() {
			return nil, shapeError(op, fmt.Sprintf("inputs of layer %d", l), layers[l-1].NumNeurons(), inputs)
		}

		biases := make([]float64, neurons)
		if err := readValues(br, biases); err != nil {
			return nil, fmt.Errorf("failed to read layer %d biases: %w", l, err)
		}
		weights := make([][]float64, neurons)
		for n := range weights {
			weights[n] = make([]float64, inputs)
			if err := readValues(br, weights[n]); err != nil {
				return nil, fmt.Errorf("failed to read layer %d weights: %w", l, err)
			}
		}

		layer, err := NewLayer(weights, biases, ReLU{})
		if err != nil {
			return nil, err
		}
		layers = append(layers, layer)
	}
	return NewNeuralNetworkFromLayers(layers, layers[0].NumInputs())
}

// ReadBinaryFile reads a network written by WriteBinaryFile. A file that
// cannot be opened is an *IOError, never an empty network.
func ReadBinaryFile(path string) (*NeuralNetwork, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}
	defer file.Close()

	nn, err := ReadBinary(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return nn, nil
}

// WriteText writes a human readable dump of nn. There is no reader for it.
func (nn *NeuralNetwork) WriteText(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "Number of inputs: %d\n", nn.numInputs)
	for l, layer := range nn.layers {
		fmt.Fprintf(bw, "Layer: %d\nBiases:\n", l+1)
		for _, b := range layer.Biases() {
			bw.WriteString(formatValue(b))
		}
		bw.WriteString("\nWeights:\n")
		for _, row := range layer.Weights() {
			for _, w := range row {
				bw.WriteString(formatValue(w))
			}
			bw.WriteString("\n")
		}
		bw.WriteString("\n")
	}
	return bw.Flush()
}

// WriteTextFile writes the text dump to path, replacing any existing file.
func (nn *NeuralNetwork) WriteTextFile(path string) error {
	return writeFile(path, nn.WriteText)
}

// readValues is binary.Read that treats a clean EOF as truncation: every
// value the layout asks for must be present.
func readValues(r io.Reader, data any) error {
	err := binary.Read(r, byteOrder, data)
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64) + " "
}

func writeFile(path string, write func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return &IOError{Op: "create", Path: path, Err: err}
	}
	if err := write(file); err != nil {
		file.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return &IOError{Op: "close", Path: path, Err: err}
	}
	return nil
}
