package extract

import (
	"bytes"
	"encoding/binary"

	"github.com/hartonomous/substrate/internal/dag"
	"github.com/hartonomous/substrate/internal/geometry"
	"github.com/hartonomous/substrate/internal/hashid"
	"github.com/hartonomous/substrate/internal/ingest"
	"github.com/hartonomous/substrate/internal/substrate"
)

// emitEdge builds the canonical Relation between two vocabulary entries
// accepted by the GEMM scan, its own deduplicated Physicality, two
// RelationSequence rows, an ELO delta sized by policy, and one evidence
// row. spec.md §4.5 step 5.
func emitEdge(loc *dag.ThreadLocalRecords, a, b vocabEntry, sim float64, task layerTask, policy edgePolicy, content substrate.Content) {
	lo, hi := a.comp.Hash, b.comp.Hash
	if bytes.Compare(hi[:], lo[:]) < 0 {
		lo, hi = hi, lo
	}
	relHash := hashid.H(hashid.TagRelation, hashid.Concat(lo[:], hi[:]))

	relCentroid := geometry.Midpoint(a.centroid, b.centroid)
	relPhys := ingest.PhysicalityFor(relCentroid)
	loc.AddPhysicality(relPhys)

	rel := substrate.Relation{Hash: relHash, PhysicalityID: relPhys.Hash, Low: lo, High: hi}
	loc.AddRelation(rel)
	loc.AddRelationSequence(substrate.RelationSequence{RelationID: rel.Hash, CompositionID: lo, Ordinal: 0, Occurrences: 1})
	loc.AddRelationSequence(substrate.RelationSequence{RelationID: rel.Hash, CompositionID: hi, Ordinal: 1, Occurrences: 1})
	loc.AddRating(dag.RatingDelta{RelationID: rel.Hash, Elo: policy.eloFor(sim), KFactor: policy.kfactor})
	loc.AddEvidence(substrate.RelationEvidence{
		Hash:            evidenceHash(rel.Hash, content.Hash, task.layerIndex),
		SourceContentID: content.Hash,
		RelationID:      rel.Hash,
		IsPositive:      true,
		Strength:        sim,
		Weight:          1,
	})
}

// evidenceHash includes the layer index (for attention/FFN) in the
// evidence identity so evidence from different layers of the same model
// extracting the same relation doesn't collide. spec.md §4.5 step 5. The
// embedding layer has no index (layerIndex == -1) and is left out of the
// suffix.
func evidenceHash(relHash, contentHash substrate.Hash, layerIndex int) substrate.Hash {
	parts := [][]byte{relHash[:], contentHash[:]}
	if layerIndex >= 0 {
		var buf [4]byte
		binary.BigEndian.PutUint32(buf[:], uint32(layerIndex))
		parts = append(parts, buf[:])
	}
	return hashid.H(hashid.TagRelationSequence, hashid.Concat(parts...))
}
