package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/hartonomous/substrate/internal/dag"
	"github.com/hartonomous/substrate/internal/geometry"
	"github.com/hartonomous/substrate/internal/hashid"
	"github.com/hartonomous/substrate/internal/interfaces"
	"github.com/hartonomous/substrate/internal/logger"
	"github.com/hartonomous/substrate/internal/substrate"
)

// Stats summarizes one Ingest call for CLI/log reporting.
type Stats struct {
	Tokens       int
	Compositions int
	Relations    int
}

// tokenComp pairs a composed token with the centroid of its Physicality,
// so adjacent pairs can derive their bigram relation's own midpoint
// centroid without re-reading the store.
type tokenComp struct {
	comp     substrate.Composition
	centroid geometry.S3Point
}

// Ingest tokenizes text into sentences, then words within each sentence,
// composes each word into a Composition, and emits a bigram Relation
// between every pair of adjacent compositions within the same sentence —
// the data-flow §2 names but §4 leaves to "the text ingester". Bigrams
// never bridge a sentence boundary, so the last content word of one
// sentence and the first word of the next are never linked directly.
// spec.md §8 scenario 2 (Moby-Dick bridge walk) exercises exactly this
// path.
func Ingest(ctx context.Context, persist interfaces.Persistence, content substrate.Content, text string) (Stats, error) {
	writer := dag.NewWriter(persist)
	loc := dag.NewThreadLocalRecords()

	totalTokens := 0
	for _, sentence := range Sentences(text) {
		tokens := Words(sentence)
		totalTokens += len(tokens)
		var prev *tokenComp
		for _, tok := range tokens {
			comp, centroid := Compose(loc, strings.ToLower(tok))
			loc.AddComposition(comp)
			cur := tokenComp{comp: comp, centroid: centroid}

			if prev != nil {
				emitBigram(loc, content, *prev, cur)
			}
			prev = &cur
		}
	}

	stats, err := writer.Flush(ctx, []*dag.ThreadLocalRecords{loc})
	if err != nil {
		return Stats{}, fmt.Errorf("ingest text: %w", err)
	}

	logger.Info("ingest: flushed text", "tokens", totalTokens, "compositions", stats.CompositionsWritten, "relations", stats.RelationsWritten)
	return Stats{Tokens: totalTokens, Compositions: stats.CompositionsWritten, Relations: stats.RelationsWritten}, nil
}

// emitBigram builds the canonical Relation between two adjacent
// compositions, its own deduplicated Physicality, two RelationSequence
// membership rows, an initial ELO delta, and one evidence row tying the
// observation back to the source content.
func emitBigram(loc *dag.ThreadLocalRecords, content substrate.Content, a, b tokenComp) {
	lo, hi := a.comp.Hash, b.comp.Hash
	if lexCompare(hi[:], lo[:]) < 0 {
		lo, hi = hi, lo
	}
	relHash := hashid.H(hashid.TagRelation, hashid.Concat(lo[:], hi[:]))

	relCentroid := geometry.Midpoint(a.centroid, b.centroid)
	relPhys := PhysicalityFor(relCentroid)
	loc.AddPhysicality(relPhys)

	rel := substrate.Relation{Hash: relHash, PhysicalityID: relPhys.Hash, Low: lo, High: hi}
	loc.AddRelation(rel)
	loc.AddRelationSequence(substrate.RelationSequence{RelationID: rel.Hash, CompositionID: lo, Ordinal: 0, Occurrences: 1})
	loc.AddRelationSequence(substrate.RelationSequence{RelationID: rel.Hash, CompositionID: hi, Ordinal: 1, Occurrences: 1})
	loc.AddRating(dag.RatingDelta{RelationID: rel.Hash, Elo: 1200, KFactor: 32})
	loc.AddEvidence(substrate.RelationEvidence{
		Hash:            hashid.H(hashid.TagRelationSequence, hashid.Concat(rel.Hash[:], content.Hash[:])),
		SourceContentID: content.Hash,
		RelationID:      rel.Hash,
		IsPositive:      true,
		Strength:        1,
		Weight:          1,
	})
}

func lexCompare(a, b []byte) int {
	for i := range a {
		if a[i] != b[i] {
			return int(a[i]) - int(b[i])
		}
	}
	return 0
}
