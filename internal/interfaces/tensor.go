package interfaces

// DType is a tensor element type as found in a safetensors-style header.
// All of them are converted to F32 before the extractor sees the data.
// spec.md §6 bullet 2.
type DType string

const (
	DTypeF32 DType = "F32"
	DTypeF16 DType = "F16"
	DTypeBF16 DType = "BF16"
	DTypeF64 DType = "F64"
	DTypeI32 DType = "I32"
	DTypeI64 DType = "I64"
)

// TensorInfo describes one named tensor inside a container: its dtype,
// shape, and byte-offset range within the container's data section.
type TensorInfo struct {
	Name    string
	DType   DType
	Shape   []int
	Offsets [2]uint64 // [start, end) into the data section
}

// TensorSource is the model-artifact contract: given a tensor name, it
// yields a row-major F32 matrix reshaped to [rows][cols], already
// converted from the container's native dtype. spec.md §6 bullet 2.
type TensorSource interface {
	// Tensors lists every tensor available, across shards.
	Tensors() []TensorInfo

	// Matrix returns the named tensor as F32, reshaped to rows x cols.
	// Tensors that aren't 2D are reshaped to (n, last-dim).
	Matrix(name string) (rows [][]float32, err error)

	// Vocabulary returns the tokenizer vocabulary: token text to integer
	// id, as parsed from the artifact's tokenizer JSON.
	Vocabulary() map[string]int
}
