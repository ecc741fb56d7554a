package ingest

import (
	"github.com/hartonomous/substrate/internal/dag"
	"github.com/hartonomous/substrate/internal/geometry"
	"github.com/hartonomous/substrate/internal/hashid"
	"github.com/hartonomous/substrate/internal/store"
	"github.com/hartonomous/substrate/internal/substrate"
)

// Compose builds the Composition and its backing Physicality for a single
// token's text, enqueuing both into loc, and returns the Composition along
// with the Physicality's resolved centroid (so callers building a relation
// between two compositions can derive the relation's own midpoint
// centroid without a second store round-trip). Atoms are assumed already
// seeded (see seed.go); Compose still derives their identity/position
// itself via project, since atoms are immutable and content-addressed —
// deriving is equivalent to looking up.
func Compose(loc *dag.ThreadLocalRecords, token string) (substrate.Composition, geometry.S3Point) {
	runes := []rune(token)
	runs := make([]substrate.AtomRun, 0, len(runes))
	points := make([]geometry.S3Point, 0, len(runes))

	var i int
	for i < len(runes) {
		j := i + 1
		for j < len(runes) && runes[j] == runes[i] {
			j++
		}
		atom := project(runes[i])
		runs = append(runs, substrate.AtomRun{AtomHash: atom.Hash, RunLength: uint32(j - i)})
		for k := i; k < j; k++ {
			points = append(points, atom.Position)
		}
		i = j
	}

	centroid := geometry.Centroid(points)
	phys := PhysicalityFor(centroid)
	loc.AddPhysicality(phys)

	seqHash := hashid.H(hashid.TagComposition, store.EncodeAtomSequence(runs))
	comp := substrate.Composition{
		Hash:          seqHash,
		PhysicalityID: phys.Hash,
		Atoms:         runs,
		Text:          token,
	}
	return comp, centroid
}

// PhysicalityFor derives the deduplicated-by-hash Physicality record for a
// given centroid: spec.md §3 "Physicality ... deduplicated by hash". Shared
// with internal/extract, which derives a layer edge's relation physicality
// from the same centroid-hashing rule.
func PhysicalityFor(centroid geometry.S3Point) substrate.Physicality {
	physHash := hashid.H(hashid.TagPhysicality, hashid.Concat(f64bytes(centroid.X), f64bytes(centroid.Y), f64bytes(centroid.Z), f64bytes(centroid.W)))
	return substrate.Physicality{
		Hash:     physHash,
		Centroid: centroid,
		Hilbert: geometry.Hilbert4DEncode([4]float64{
			unitToCube(centroid.X), unitToCube(centroid.Y), unitToCube(centroid.Z), unitToCube(centroid.W),
		}, 32),
	}
}

func f64bytes(f float64) []byte {
	return store.EncodeFloat64(f)
}

// ComposeCandidate computes the Composition (and its hash) a token would
// resolve to if ingested, without writing anything. spec.md §4.6's
// "generation from a free-text prompt" and §4.7's search-by-text variants
// both "look up each in the composition table" — since composition/atom
// identity is a pure function of the token text (atoms are content-
// addressed, not row-allocated), the lookup key is computed here and the
// caller only needs to check whether that id actually has a row.
func ComposeCandidate(token string) substrate.Composition {
	loc := dag.NewThreadLocalRecords()
	comp, _ := Compose(loc, token)
	return comp
}
