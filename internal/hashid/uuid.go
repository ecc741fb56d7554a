package hashid

import (
	"github.com/google/uuid"
	"github.com/hartonomous/substrate/internal/substrate"
)

// ToUUID truncates a hash to its first 16 bytes and renders it in the
// standard dashed UUID layout. spec.md §4.1. Uses google/uuid (a teacher
// direct dependency) purely as a formatter — the 16 bytes are not a
// real v4/v5 UUID, just content-hash bytes laid out the same way.
func ToUUID(h substrate.Hash) uuid.UUID {
	var u uuid.UUID
	copy(u[:], h[:16])
	return u
}
