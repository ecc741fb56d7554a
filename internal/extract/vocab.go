package extract

import (
	"strings"

	"github.com/hartonomous/substrate/internal/dag"
	"github.com/hartonomous/substrate/internal/geometry"
	"github.com/hartonomous/substrate/internal/ingest"
	"github.com/hartonomous/substrate/internal/substrate"
)

// vocabEntry pairs a vocabulary token's resolved Composition with its
// Physicality's centroid, keyed by the tensor-row index it occupies.
type vocabEntry struct {
	comp     substrate.Composition
	centroid geometry.S3Point
}

// buildVocabIndex resolves every vocabulary token to the same
// Composition/Physicality identity the text ingester would derive for it
// (ingest.Compose, lower-cased to match spec.md §4.6's "exact, then
// lower-case" composition lookup rule), enqueuing each into loc. The
// returned map is keyed by tensor row index, since that's what the
// extractor's (i, j) pairs are expressed in.
func buildVocabIndex(loc *dag.ThreadLocalRecords, vocab map[string]int) map[int]vocabEntry {
	out := make(map[int]vocabEntry, len(vocab))
	for token, id := range vocab {
		comp, centroid := ingest.Compose(loc, strings.ToLower(token))
		loc.AddComposition(comp)
		out[id] = vocabEntry{comp: comp, centroid: centroid}
	}
	return out
}
