// Package model implements interfaces.TensorSource over a safetensors-style
// container: an 8-byte little-endian header length, a JSON header describing
// each tensor's dtype/shape/byte offsets, followed by the raw tensor bytes.
// spec.md §6 bullet 2. Grounded on the teacher's internal/embedding binary
// codec (spaces.go's saveCache/loadCache: little-endian binary.Write/Read
// framing of a float32 matrix) generalized from a bespoke cache format to
// the safetensors wire format, since the extractor reads real model
// checkpoints rather than a private embedding cache.
package model

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/hartonomous/substrate/internal/interfaces"
	"github.com/hartonomous/substrate/internal/substrate"
)

// tensorHeader is one entry in the safetensors JSON header.
type tensorHeader struct {
	DType       string   `json:"dtype"`
	Shape       []int    `json:"shape"`
	DataOffsets [2]uint64 `json:"data_offsets"`
}

// Container is a memory-mapped-in-spirit (actually fully read) safetensors
// file: a header describing each tensor's location and dtype, plus the raw
// byte buffer the offsets index into.
type Container struct {
	path    string
	headers map[string]tensorHeader
	order   []string // header insertion order, __metadata__ excluded
	data    []byte
	vocab   map[string]int
}

// Open reads and parses a single safetensors file.
func Open(path string) (*Container, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open tensor file %s: %v", substrate.ErrPersistence, path, err)
	}
	defer f.Close()

	var lenBuf [8]byte
	if _, err := io.ReadFull(f, lenBuf[:]); err != nil {
		return nil, fmt.Errorf("%w: read header length of %s: %v", substrate.ErrCorruption, path, err)
	}
	headerLen := binary.LittleEndian.Uint64(lenBuf[:])

	headerBytes := make([]byte, headerLen)
	if _, err := io.ReadFull(f, headerBytes); err != nil {
		return nil, fmt.Errorf("%w: read header of %s: %v", substrate.ErrCorruption, path, err)
	}

	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(headerBytes, &raw); err != nil {
		return nil, fmt.Errorf("%w: parse header json of %s: %v", substrate.ErrCorruption, path, err)
	}

	headers := make(map[string]tensorHeader, len(raw))
	order := make([]string, 0, len(raw))
	for name, msg := range raw {
		if name == "__metadata__" {
			continue
		}
		var h tensorHeader
		if err := json.Unmarshal(msg, &h); err != nil {
			return nil, fmt.Errorf("%w: parse tensor header %q in %s: %v", substrate.ErrCorruption, name, path, err)
		}
		headers[name] = h
		order = append(order, name)
	}

	rest, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("%w: read tensor data of %s: %v", substrate.ErrCorruption, path, err)
	}

	return &Container{path: path, headers: headers, order: order, data: rest}, nil
}

// Tensors implements interfaces.TensorSource.
func (c *Container) Tensors() []interfaces.TensorInfo {
	out := make([]interfaces.TensorInfo, 0, len(c.order))
	for _, name := range c.order {
		h := c.headers[name]
		out = append(out, interfaces.TensorInfo{
			Name:    name,
			DType:   interfaces.DType(h.DType),
			Shape:   h.Shape,
			Offsets: h.DataOffsets,
		})
	}
	return out
}

// SetVocabulary attaches a vocabulary map (loaded separately, e.g. from a
// tokenizer.json alongside the safetensors file) for Vocabulary() to return.
func (c *Container) SetVocabulary(v map[string]int) { c.vocab = v }

// Vocabulary implements interfaces.TensorSource.
func (c *Container) Vocabulary() map[string]int { return c.vocab }

// Matrix implements interfaces.TensorSource: decodes the named 2D tensor
// into a row-major [][]float32, converting from its native dtype.
func (c *Container) Matrix(name string) ([][]float32, error) {
	h, ok := c.headers[name]
	if !ok {
		return nil, fmt.Errorf("%w: tensor %q not found in %s", substrate.ErrNotFound, name, c.path)
	}
	if len(h.Shape) != 2 {
		return nil, fmt.Errorf("%w: tensor %q has rank %d, want 2", substrate.ErrInvalidInput, name, len(h.Shape))
	}
	rows, cols := h.Shape[0], h.Shape[1]
	start, end := h.DataOffsets[0], h.DataOffsets[1]
	if end > uint64(len(c.data)) || start > end {
		return nil, fmt.Errorf("%w: tensor %q offsets [%d,%d) out of bounds (data len %d)",
			substrate.ErrCorruption, name, start, end, len(c.data))
	}
	raw := c.data[start:end]

	conv, elemSize, err := converterFor(interfaces.DType(h.DType))
	if err != nil {
		return nil, fmt.Errorf("%w: tensor %q: %v", substrate.ErrInvalidInput, name, err)
	}
	if uint64(rows*cols*elemSize) != end-start {
		return nil, fmt.Errorf("%w: tensor %q byte length %d doesn't match shape %v at %d bytes/elem",
			substrate.ErrCorruption, name, end-start, h.Shape, elemSize)
	}

	out := make([][]float32, rows)
	for r := 0; r < rows; r++ {
		row := make([]float32, cols)
		rowBytes := raw[r*cols*elemSize : (r+1)*cols*elemSize]
		for col := 0; col < cols; col++ {
			row[col] = conv(rowBytes[col*elemSize : (col+1)*elemSize])
		}
		out[r] = row
	}
	return out, nil
}
