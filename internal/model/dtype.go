package model

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/hartonomous/substrate/internal/interfaces"
)

// converterFor returns a function decoding one element's raw bytes to
// float32, plus that dtype's element size, for every dtype spec.md §6
// names: F32, F16, BF16, F64, I32, I64.
func converterFor(dt interfaces.DType) (func([]byte) float32, int, error) {
	switch dt {
	case interfaces.DTypeF32:
		return decodeF32, 4, nil
	case interfaces.DTypeF16:
		return decodeF16, 2, nil
	case interfaces.DTypeBF16:
		return decodeBF16, 2, nil
	case interfaces.DTypeF64:
		return decodeF64, 8, nil
	case interfaces.DTypeI32:
		return decodeI32, 4, nil
	case interfaces.DTypeI64:
		return decodeI64, 8, nil
	default:
		return nil, 0, fmt.Errorf("unsupported dtype %q", dt)
	}
}

func decodeF32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

func decodeF64(b []byte) float32 {
	return float32(math.Float64frombits(binary.LittleEndian.Uint64(b)))
}

func decodeI32(b []byte) float32 {
	return float32(int32(binary.LittleEndian.Uint32(b)))
}

func decodeI64(b []byte) float32 {
	return float32(int64(binary.LittleEndian.Uint64(b)))
}

// decodeF16 converts an IEEE-754 binary16 half float to float32.
func decodeF16(b []byte) float32 {
	h := binary.LittleEndian.Uint16(b)
	sign := uint32(h&0x8000) << 16
	exp := uint32(h&0x7c00) >> 10
	frac := uint32(h & 0x03ff)

	switch exp {
	case 0:
		if frac == 0 {
			return math.Float32frombits(sign)
		}
		// subnormal: normalize
		e := -1
		for frac&0x0400 == 0 {
			frac <<= 1
			e++
		}
		frac &= 0x03ff
		exp32 := uint32(127 - 15 - e)
		return math.Float32frombits(sign | exp32<<23 | frac<<13)
	case 0x1f:
		if frac == 0 {
			return math.Float32frombits(sign | 0x7f800000)
		}
		return math.Float32frombits(sign | 0x7fc00000)
	default:
		exp32 := exp - 15 + 127
		return math.Float32frombits(sign | exp32<<23 | frac<<13)
	}
}

// decodeBF16 converts bfloat16 (the top 16 bits of a float32) to float32.
func decodeBF16(b []byte) float32 {
	h := binary.LittleEndian.Uint16(b)
	return math.Float32frombits(uint32(h) << 16)
}
