package dataset

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gorgonia.org/tensor"
)

func idxImages(t *testing.T, magic uint32, rows, cols int, images ...[]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	header := []uint32{magic, uint32(len(images)), uint32(rows), uint32(cols)}
	require.NoError(t, binary.Write(&buf, binary.BigEndian, header))
	for _, img := range images {
		buf.Write(img)
	}
	return buf.Bytes()
}

func idxLabels(t *testing.T, magic uint32, labels ...byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.BigEndian, []uint32{magic, uint32(len(labels))}))
	buf.Write(labels)
	return buf.Bytes()
}

func TestNewTensors(t *testing.T) {
	ds, err := NewTensors(
		[][]float64{{1, 2, 3}, {4, 5, 6}},
		[][]float64{{0}, {1}},
	)
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Len())
	assert.Equal(t, 3, ds.InputWidth())
	assert.Equal(t, 1, ds.TargetWidth())

	in, err := ds.Input(1)
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 5, 6}, in)
	want, err := ds.Expected(1)
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, want)

	// Rows are copies.
	in[0] = 100
	again, err := ds.Input(1)
	require.NoError(t, err)
	assert.Equal(t, 4.0, again[0])

	_, err = ds.Input(2)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = ds.Expected(-1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestNewTensorsInvalid(t *testing.T) {
	_, err := NewTensors(nil, nil)
	assert.ErrorIs(t, err, ErrInvalidData)
	_, err = NewTensors([][]float64{{1, 2}, {3}}, [][]float64{{0}, {1}})
	assert.ErrorIs(t, err, ErrInvalidData)
	_, err = NewTensors([][]float64{{1}, {2}}, [][]float64{{0}})
	assert.ErrorIs(t, err, ErrInvalidData)
}

func TestFromDenseRejectsWrongType(t *testing.T) {
	f32 := tensor.New(tensor.Of(tensor.Float32), tensor.WithShape(2, 2), tensor.WithBacking([]float32{1, 2, 3, 4}))
	f64 := tensor.New(tensor.Of(tensor.Float64), tensor.WithShape(2, 1), tensor.WithBacking([]float64{0, 1}))
	_, err := FromDense(f32, f64)
	assert.ErrorIs(t, err, ErrInvalidData)

	flat := tensor.New(tensor.Of(tensor.Float64), tensor.WithShape(2), tensor.WithBacking([]float64{0, 1}))
	_, err = FromDense(flat, f64)
	assert.ErrorIs(t, err, ErrInvalidData)
}

func TestOneHot(t *testing.T) {
	d, err := OneHot([]int{2, 0}, 3)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 3}, d.Shape())
	assert.Equal(t, []float64{0, 0, 1, 1, 0, 0}, d.Data())

	_, err = OneHot([]int{3}, 3)
	assert.ErrorIs(t, err, ErrInvalidData)
}

func TestXOR(t *testing.T) {
	ds := XOR()
	require.Equal(t, 4, ds.Len())
	for i := 0; i < ds.Len(); i++ {
		in, err := ds.Input(i)
		require.NoError(t, err)
		want, err := ds.Expected(i)
		require.NoError(t, err)
		xor := 0.0
		if in[0] != in[1] {
			xor = 1
		}
		assert.Equal(t, []float64{xor}, want)
	}
}

func TestDecodeMNIST(t *testing.T) {
	images := idxImages(t, imagesMagic, 2, 2,
		[]byte{0, 255, 51, 102},
		[]byte{255, 255, 0, 0},
	)
	labels := idxLabels(t, labelsMagic, 7, 0)

	ds, err := DecodeMNIST(bytes.NewReader(images), bytes.NewReader(labels))
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Len())
	assert.Equal(t, 4, ds.InputWidth())
	assert.Equal(t, MNISTClasses, ds.TargetWidth())

	in, err := ds.Input(0)
	require.NoError(t, err)
	assert.True(t, floats.EqualApprox([]float64{0, 1, 0.2, 0.4}, in, 1e-12), "got %v", in)

	want, err := ds.Expected(0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, want[7])
	assert.Equal(t, 1.0, floats.Sum(want))

	want, err = ds.Expected(1)
	require.NoError(t, err)
	assert.Equal(t, 1.0, want[0])
}

func TestDecodeMNISTErrors(t *testing.T) {
	goodImages := idxImages(t, imagesMagic, 1, 2, []byte{1, 2})
	goodLabels := idxLabels(t, labelsMagic, 1)

	tests := []struct {
		description string
		images      []byte
		labels      []byte
		wantErr     error
	}{
		{"bad image magic", idxImages(t, labelsMagic, 1, 2, []byte{1, 2}), goodLabels, ErrInvalidData},
		{"bad label magic", goodImages, idxLabels(t, imagesMagic, 1), ErrInvalidData},
		{"count mismatch", goodImages, idxLabels(t, labelsMagic, 1, 2), ErrInvalidData},
		{"label out of range", goodImages, idxLabels(t, labelsMagic, 10), ErrInvalidData},
		{"truncated pixels", goodImages[:len(goodImages)-1], goodLabels, io.ErrUnexpectedEOF},
		{"truncated header", goodLabels[:6], goodLabels, io.ErrUnexpectedEOF},
		{"huge dimensions", idxImages(t, imagesMagic, 0xffffffff, 0xffffffff, []byte{1}), goodLabels, ErrInvalidData},
		{"too many images", idxImages(t, imagesMagic, 1<<15, 1<<15, []byte{1}, []byte{2}), goodLabels, ErrInvalidData},
	}
	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			_, err := DecodeMNIST(bytes.NewReader(tt.images), bytes.NewReader(tt.labels))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestReadMNISTFiles(t *testing.T) {
	dir := t.TempDir()
	imagesPath := filepath.Join(dir, "images.idx3-ubyte")
	labelsPath := filepath.Join(dir, "labels.idx1-ubyte")
	require.NoError(t, os.WriteFile(imagesPath, idxImages(t, imagesMagic, 1, 3, []byte{0, 0, 255}), 0o644))
	require.NoError(t, os.WriteFile(labelsPath, idxLabels(t, labelsMagic, 3), 0o644))

	ds, err := ReadMNIST(imagesPath, labelsPath)
	require.NoError(t, err)
	in, err := ds.Input(0)
	require.NoError(t, err)
	assert.True(t, floats.EqualApprox([]float64{0, 0, 1}, in, 1e-12), "got %v", in)

	_, err = ReadMNIST(filepath.Join(dir, "missing"), labelsPath)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
