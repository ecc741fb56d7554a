package hashid

import (
	"encoding/hex"
	"fmt"

	"github.com/hartonomous/substrate/internal/substrate"
)

// ToHex renders a hash as lowercase 64-char hex.
func ToHex(h substrate.Hash) string {
	return hex.EncodeToString(h[:])
}

// FromHex parses a 64-char lowercase-hex string into a hash. It is total
// on well-formed input and fails (wrapping substrate.ErrInvalidInput)
// otherwise. spec.md §4.1.
func FromHex(s string) (substrate.Hash, error) {
	var h substrate.Hash
	if len(s) != 64 {
		return h, fmt.Errorf("%w: hash hex must be 64 chars, got %d", substrate.ErrInvalidInput, len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("%w: decode hash hex: %v", substrate.ErrInvalidInput, err)
	}
	copy(h[:], b)
	return h, nil
}
