package store

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/hartonomous/substrate/internal/substrate"
)

// EncodeFloat64 serializes a float64 as 8 big-endian bytes, the building
// block for the trajectory BLOB column (a flat run of S3Point quadruples).
func EncodeFloat64(f float64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], math.Float64bits(f))
	return buf[:]
}

// DecodeFloat64 is the inverse of EncodeFloat64.
func DecodeFloat64(b []byte) float64 {
	return math.Float64frombits(binary.BigEndian.Uint64(b))
}

// EncodeAtomSequence serializes a composition's run-length atom sequence
// into the flat byte blob stored in composition.atom_sequence: each run is
// a 32-byte atom hash followed by a big-endian uint32 run length.
func EncodeAtomSequence(runs []substrate.AtomRun) []byte {
	out := make([]byte, 0, len(runs)*(32+4))
	for _, r := range runs {
		out = append(out, r.AtomHash[:]...)
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], r.RunLength)
		out = append(out, lenBuf[:]...)
	}
	return out
}

// DecodeAtomSequence is the inverse of EncodeAtomSequence.
func DecodeAtomSequence(b []byte) ([]substrate.AtomRun, error) {
	const stride = 32 + 4
	if len(b)%stride != 0 {
		return nil, fmt.Errorf("%w: atom sequence length %d not a multiple of %d", substrate.ErrCorruption, len(b), stride)
	}
	n := len(b) / stride
	runs := make([]substrate.AtomRun, n)
	for i := 0; i < n; i++ {
		off := i * stride
		var hash substrate.Hash
		copy(hash[:], b[off:off+32])
		runs[i] = substrate.AtomRun{
			AtomHash:  hash,
			RunLength: binary.BigEndian.Uint32(b[off+32 : off+36]),
		}
	}
	return runs, nil
}
