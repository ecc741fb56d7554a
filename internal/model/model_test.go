package model

import (
	"encoding/binary"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"
)

// writeSafetensors builds a minimal valid safetensors file with one F32
// tensor of the given shape and row-major data, for round-trip testing.
func writeSafetensors(t *testing.T, path, name string, shape []int, data []float32) {
	t.Helper()
	raw := make([]byte, len(data)*4)
	for i, f := range data {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(f))
	}
	header := map[string]any{
		name: map[string]any{
			"dtype":        "F32",
			"shape":        shape,
			"data_offsets": [2]int{0, len(raw)},
		},
	}
	headerJSON, err := json.Marshal(header)
	if err != nil {
		t.Fatal(err)
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(headerJSON)))
	if _, err := f.Write(lenBuf[:]); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Write(headerJSON); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Write(raw); err != nil {
		t.Fatal(err)
	}
}

func TestOpenAndMatrixRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.safetensors")
	writeSafetensors(t, path, "embed_tokens.weight", []int{2, 3}, []float32{1, 2, 3, 4, 5, 6})

	c, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	infos := c.Tensors()
	if len(infos) != 1 || infos[0].Name != "embed_tokens.weight" {
		t.Fatalf("unexpected tensors: %+v", infos)
	}

	m, err := c.Matrix("embed_tokens.weight")
	if err != nil {
		t.Fatalf("Matrix: %v", err)
	}
	if len(m) != 2 || len(m[0]) != 3 {
		t.Fatalf("unexpected shape: %v", m)
	}
	if m[0][0] != 1 || m[1][2] != 6 {
		t.Fatalf("unexpected values: %v", m)
	}
}

func TestMatrixMissingTensor(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.safetensors")
	writeSafetensors(t, path, "embed_tokens.weight", []int{1, 1}, []float32{1})

	c, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := c.Matrix("does.not.exist"); err == nil {
		t.Fatal("expected error for missing tensor")
	}
}

func TestClassifyTensor(t *testing.T) {
	cases := map[string]Kind{
		"model.embed_tokens.weight":                KindEmbedding,
		"model.layers.0.self_attn.q_proj.weight":   KindAttention,
		"model.layers.0.self_attn.k_proj.weight":   KindAttention,
		"model.layers.0.mlp.gate_proj.weight":      KindFFN,
		"model.layers.0.input_layernorm.weight":    KindUnknown,
	}
	for name, want := range cases {
		if got := ClassifyTensor(name); got != want {
			t.Errorf("ClassifyTensor(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestDecodeF16AndBF16(t *testing.T) {
	// 1.0 in binary16 is 0x3C00.
	var half [2]byte
	binary.LittleEndian.PutUint16(half[:], 0x3C00)
	if got := decodeF16(half[:]); got != 1.0 {
		t.Errorf("decodeF16(1.0) = %v, want 1.0", got)
	}

	// 1.0 in bfloat16 is the top 16 bits of float32(1.0) = 0x3F80.
	var bf [2]byte
	binary.LittleEndian.PutUint16(bf[:], 0x3F80)
	if got := decodeBF16(bf[:]); got != 1.0 {
		t.Errorf("decodeBF16(1.0) = %v, want 1.0", got)
	}
}
