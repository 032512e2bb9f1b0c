package dataset

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"gonum.org/v1/gonum/floats"
	"gorgonia.org/tensor"
)

const (
	imagesMagic = 2051
	labelsMagic = 2049

	// MNISTClasses is the width of the one-hot label rows.
	MNISTClasses = 10

	maxIDXBytes = 1 << 30
)

// ReadMNIST loads an IDX image file and its IDX label file. Pixels are scaled
// to [0, 1] and each image is flattened row by row; labels become one-hot
// rows of MNISTClasses values.
func ReadMNIST(imagesPath, labelsPath string) (*Tensors, error) {
	images, err := os.Open(imagesPath)
	if err != nil {
		return nil, err
	}
	defer images.Close()

	labels, err := os.Open(labelsPath)
	if err != nil {
		return nil, err
	}
	defer labels.Close()

	return DecodeMNIST(bufio.NewReader(images), bufio.NewReader(labels))
}

// DecodeMNIST is ReadMNIST over already opened streams.
func DecodeMNIST(images, labels io.Reader) (*Tensors, error) {
	pixels, err := readIDXImages(images)
	if err != nil {
		return nil, fmt.Errorf("images: %w", err)
	}
	classes, err := readIDXLabels(labels)
	if err != nil {
		return nil, fmt.Errorf("labels: %w", err)
	}
	if pixels.Shape()[0] != len(classes) {
		return nil, fmt.Errorf("%w: %d images but %d labels", ErrInvalidData, pixels.Shape()[0], len(classes))
	}
	targets, err := OneHot(classes, MNISTClasses)
	if err != nil {
		return nil, err
	}
	return FromDense(pixels, targets)
}

// IDX images:
//
//	uint32 magic (2051), count, rows, cols, all big-endian
//	count*rows*cols unsigned bytes
func readIDXImages(r io.Reader) (*tensor.Dense, error) {
	var header [4]uint32
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if header[0] != imagesMagic {
		return nil, fmt.Errorf("%w: magic number %d, want %d", ErrInvalidData, header[0], imagesMagic)
	}
	count, size := uint64(header[1]), uint64(header[2])*uint64(header[3])
	if count == 0 || size == 0 || size > maxIDXBytes || count > maxIDXBytes/size {
		return nil, fmt.Errorf("%w: %d images of %dx%d", ErrInvalidData, count, header[2], header[3])
	}

	raw := make([]byte, count*size)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("failed to read pixels: %w", err)
	}
	backing := make([]float64, len(raw))
	for i, p := range raw {
		backing[i] = float64(p)
	}
	floats.Scale(1.0/255.0, backing)

	return tensor.New(tensor.Of(tensor.Float64), tensor.WithShape(int(count), int(size)), tensor.WithBacking(backing)), nil
}

// IDX labels:
//
//	uint32 magic (2049), count, both big-endian
//	count unsigned bytes
func readIDXLabels(r io.Reader) ([]int, error) {
	var header [2]uint32
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if header[0] != labelsMagic {
		return nil, fmt.Errorf("%w: magic number %d, want %d", ErrInvalidData, header[0], labelsMagic)
	}
	count := int(header[1])
	if count == 0 || count > maxIDXBytes {
		return nil, fmt.Errorf("%w: %d labels", ErrInvalidData, count)
	}

	raw := make([]byte, count)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("failed to read labels: %w", err)
	}
	labels := make([]int, count)
	for i, b := range raw {
		labels[i] = int(b)
	}
	return labels, nil
}
