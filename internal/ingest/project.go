// Package ingest turns raw text (and, via seed.go, raw Unicode ranges) into
// substrate entities: atoms, compositions, and the bigram relations between
// adjacent compositions, flushed through internal/dag the same way
// internal/extract flushes model-derived relations. spec.md's data-flow
// diagram (§2) names this stage but leaves it unspecified beyond "assumed to
// exist"; SPEC_FULL.md §4.11/§4.12 fill it in.
package ingest

import (
	"encoding/binary"

	"github.com/hartonomous/substrate/internal/geometry"
	"github.com/hartonomous/substrate/internal/hashid"
	"github.com/hartonomous/substrate/internal/substrate"
)

// project maps a single Unicode codepoint to its Atom, deterministically
// and reproducibly. spec.md §4.2 treats `project` as an external pure
// function without specifying its placement formula; this implementation
// hashes the codepoint into four independent float64 lanes via splitmix64
// and normalizes the result to a unit S3Point. Non-uniform (splitmix64 is
// not a measure-preserving map to the sphere) but fully deterministic,
// collision-resistant across the whole codepoint range, and cheap — the
// properties spec.md's invariants actually require (unit norm, determinism,
// monotone Hilbert ordering), not true uniformity. See DESIGN.md.
func project(codepoint rune) substrate.Atom {
	var cpBytes [4]byte
	binary.BigEndian.PutUint32(cpBytes[:], uint32(codepoint))
	hash := hashid.H(hashid.TagAtom, cpBytes[:])

	seed := uint64(codepoint)
	var lanes [4]float64
	for i := range lanes {
		seed = splitmix64(seed)
		lanes[i] = laneToUnitFloat(seed)
	}
	pos := geometry.Normalize(geometry.S3Point{X: lanes[0], Y: lanes[1], Z: lanes[2], W: lanes[3]})

	hb := geometry.Hilbert4DEncode([4]float64{
		unitToCube(pos.X), unitToCube(pos.Y), unitToCube(pos.Z), unitToCube(pos.W),
	}, 32)

	return substrate.Atom{Hash: hash, Codepoint: codepoint, Position: pos, Hilbert: hb}
}

// splitmix64 is the standard SplitMix64 PRNG step, used here purely as a
// deterministic integer-to-integer mixing function, not as a stateful RNG.
func splitmix64(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	z := x
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// laneToUnitFloat maps a mixed 64-bit value to a float64 in [-1, 1].
func laneToUnitFloat(x uint64) float64 {
	const mantissaBits = 53
	frac := float64(x>>(64-mantissaBits)) / float64(uint64(1)<<mantissaBits)
	return frac*2 - 1
}

// unitToCube maps a [-1,1] coordinate into [0,1] for Hilbert4DEncode, which
// expects its input cube normalized to [0,1]^4.
func unitToCube(v float64) float64 {
	return (v + 1) / 2
}
