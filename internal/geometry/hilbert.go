package geometry

import (
	"fmt"
	"math/big"
)

// Hilbert128 is a u128 Hilbert index, represented as a big.Int constrained
// to 128 bits. We use math/big rather than a [2]uint64 pair because the
// Gray-code transposition below is most naturally expressed as bit-shifts
// over the whole index, and nothing on the hot path needs this to be a
// value type.
type Hilbert128 struct {
	v *big.Int
}

// NewHilbert128 wraps a big.Int, masking it to 128 bits.
func NewHilbert128(v *big.Int) Hilbert128 {
	mask := new(big.Int).Lsh(big.NewInt(1), 128)
	mask.Sub(mask, big.NewInt(1))
	return Hilbert128{v: new(big.Int).And(v, mask)}
}

// Int returns the underlying value.
func (h Hilbert128) Int() *big.Int { return h.v }

// Cmp compares two Hilbert128 values.
func (h Hilbert128) Cmp(o Hilbert128) int { return h.v.Cmp(o.v) }

// Bytes returns the big-endian 16-byte representation.
func (h Hilbert128) Bytes() [16]byte {
	var out [16]byte
	b := h.v.Bytes()
	copy(out[16-len(b):], b)
	return out
}

// Halves returns the big-endian hex encoding of the high and low 8-byte
// halves, the column pair the persistence adapter stores a Hilbert index
// as (a single u128 column isn't portable across the stores spec.md §6
// leaves implementation-defined).
func (h Hilbert128) Halves() (hi, lo string) {
	b := h.Bytes()
	return fmt.Sprintf("%x", b[:8]), fmt.Sprintf("%x", b[8:])
}

// Hilbert4DEncode maps a point p ∈ [0,1]^4 to a 128-bit Hilbert index using
// the standard Gray-code "transpose to Hilbert" algorithm (Skilling's
// method) generalized to 4 dimensions, at `bits` bits of precision per
// axis (default 32, for a 128-bit bit-interleaved index). Deterministic and
// monotone under a fixed axis order: spec.md §4.2.
func Hilbert4DEncode(p [4]float64, bits int) Hilbert128 {
	if bits <= 0 || bits > 32 {
		bits = 32
	}
	maxCoord := uint64(1)<<uint(bits) - 1

	var x [4]uint64
	for i, c := range p {
		cc := Clamp(c, 0, 1)
		x[i] = uint64(cc * float64(maxCoord))
		if x[i] > maxCoord {
			x[i] = maxCoord
		}
	}

	hilbertTransposeToIndex(x[:], bits)

	// Interleave the transposed axis words into one integer of 4*bits bits
	// (128 at the default 32 bits per axis): from the most significant bit
	// level down, append that level's bit of axis 0, then axes 1, 2 and 3.
	result := new(big.Int)
	for b := bits - 1; b >= 0; b-- {
		for _, axis := range x {
			result.Lsh(result, 1)
			if (axis>>uint(b))&1 == 1 {
				result.SetBit(result, 0, 1)
			}
		}
	}
	return NewHilbert128(result)
}

// hilbertTransposeToIndex implements Skilling's axes-to-transpose algorithm
// in place: on return, x holds the bit-interleaved Gray-code transpose of
// the input coordinates, ready for bit-interleaving into an index.
func hilbertTransposeToIndex(x []uint64, bits int) {
	n := len(x)
	m := uint64(1) << uint(bits-1)

	// Inverse undo
	for q := m; q > 1; q >>= 1 {
		p := q - 1
		for i := 0; i < n; i++ {
			if x[i]&q != 0 {
				x[0] ^= p // invert
			} else {
				t := (x[0] ^ x[i]) & p
				x[0] ^= t
				x[i] ^= t
			}
		}
	}

	// Gray encode
	for i := 1; i < n; i++ {
		x[i] ^= x[i-1]
	}
	t := uint64(0)
	for q := m; q > 1; q >>= 1 {
		if x[n-1]&q != 0 {
			t ^= q - 1
		}
	}
	for i := range x {
		x[i] ^= t
	}
}
