// Package hashid implements the hash & ID layer: tagged BLAKE3-256 content
// hashes and their hex/UUID encodings. spec.md §4.1.
//
// BLAKE3 is lukechampine.com/blake3, the same hashing library erigon
// (AKJUS-bsc-erigon) carries as an indirect dependency for its own
// content-addressed state; here it is the primary identity function for
// every entity in the substrate.
package hashid

import (
	"github.com/hartonomous/substrate/internal/substrate"
	"lukechampine.com/blake3"
)

// Tag is a single byte that partitions the hash namespace by entity kind,
// so identically-shaped payloads from different entity kinds never collide.
type Tag byte

const (
	TagAtom             Tag = 'A'
	TagPhysicality      Tag = 'P'
	TagComposition      Tag = 'C'
	TagCompositionSeq   Tag = 'S'
	TagRelation         Tag = 'R'
	TagRelationSequence Tag = 'T'
	TagContent          Tag = 'N' // not part of spec.md's tag list; content ids
	// are derived the same tagged way for consistency, tag chosen to avoid
	// colliding with the six listed in spec.md §4.1.
)

// H derives a tagged content hash: BLAKE3(tag || payload). spec.md §4.1.
func H(tag Tag, payload []byte) substrate.Hash {
	buf := make([]byte, 0, len(payload)+1)
	buf = append(buf, byte(tag))
	buf = append(buf, payload...)
	sum := blake3.Sum256(buf)
	return substrate.Hash(sum)
}

// Concat is a small helper for building multi-field payloads in a fixed,
// unambiguous order (e.g. the canonicalized pair of composition ids for a
// relation's identity).
func Concat(parts ...[]byte) []byte {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
