package dag

import (
	"context"
	"fmt"
	"sync"

	"github.com/hartonomous/substrate/internal/geometry"
	"github.com/hartonomous/substrate/internal/hashid"
	"github.com/hartonomous/substrate/internal/interfaces"
	"github.com/hartonomous/substrate/internal/logger"
	"github.com/hartonomous/substrate/internal/store"
	"github.com/hartonomous/substrate/internal/substrate"
)

// FlushStats reports what a Flush actually wrote, for ingestion logging.
type FlushStats struct {
	PhysicalitiesWritten int
	CompositionsWritten  int
	CompositionsDeduped  int
	RelationsWritten     int
	RelationsDeduped     int
	RelationSeqsWritten  int
	RatingsApplied       int
	EvidenceWritten      int
}

// Writer owns the session-wide dedup sets and drives the flush protocol.
// Only the goroutine calling Flush ever touches the session-wide sets —
// concurrent extractor tasks only ever see their own ThreadLocalRecords —
// so the mutex here guards against a caller flushing concurrently from two
// goroutines, not against extraction workers (spec.md §5: "Concurrent
// extractors contribute to the same session-wide session_rel_seen only via
// the single-threaded flush step").
type Writer struct {
	persist interfaces.Persistence

	mu              sync.Mutex
	sessionRelSeen  map[substrate.Hash]bool
	sessionPhysSeen map[substrate.Hash]bool
	sessionCompSeen map[substrate.Hash]bool
}

// NewWriter creates a Writer over the given persistence adapter.
func NewWriter(persist interfaces.Persistence) *Writer {
	return &Writer{
		persist:         persist,
		sessionRelSeen:  make(map[substrate.Hash]bool),
		sessionPhysSeen: make(map[substrate.Hash]bool),
		sessionCompSeen: make(map[substrate.Hash]bool),
	}
}

// Flush merges the given thread-local accumulators, then commits them to
// the persistence adapter in one transaction, in the fixed order
// physicality -> composition -> relation -> relation_sequence -> rating ->
// evidence. spec.md §4.4 lists the first and last four explicitly;
// composition is inserted between physicality and relation because a
// relation's low/high composition ids are foreign keys into it, and
// spec.md §3 gives compositions the same set-once dedup lifecycle as a
// physicality even though §4.4 doesn't separately name them. See DESIGN.md.
func (w *Writer) Flush(ctx context.Context, locals []*ThreadLocalRecords) (FlushStats, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var stats FlushStats

	// Step 1: build the filtered row sets to write, checking each hash
	// against the session-wide sets and this flush's own batch sets. A
	// physicality/composition/relation is written only the first time its
	// hash is seen across the whole session (including earlier flushes and
	// earlier accumulators within this very flush); duplicates still
	// contribute their relation_sequence/rating/evidence rows. The
	// session-wide sets are updated only in step 5, after a successful
	// commit.
	var physRows []substrate.Physicality
	var compRows []substrate.Composition
	var relRows []substrate.Relation
	var seqRows []substrate.RelationSequence
	var ratingRows []RatingDelta
	var evidenceRows []substrate.RelationEvidence

	batchPhysSeen := make(map[substrate.Hash]bool)
	batchCompSeen := make(map[substrate.Hash]bool)
	batchRelSeen := make(map[substrate.Hash]bool)

	for _, loc := range locals {
		for _, p := range loc.Physicalities {
			if w.sessionPhysSeen[p.Hash] || batchPhysSeen[p.Hash] {
				continue
			}
			batchPhysSeen[p.Hash] = true
			physRows = append(physRows, p)
		}
		for _, c := range loc.Compositions {
			if w.sessionCompSeen[c.Hash] || batchCompSeen[c.Hash] {
				stats.CompositionsDeduped++
				continue
			}
			batchCompSeen[c.Hash] = true
			compRows = append(compRows, c)
		}
		for _, r := range loc.Relations {
			if w.sessionRelSeen[r.Hash] || batchRelSeen[r.Hash] {
				stats.RelationsDeduped++
				continue
			}
			batchRelSeen[r.Hash] = true
			relRows = append(relRows, r)
		}
		seqRows = append(seqRows, loc.RelationSeqs...)
		ratingRows = append(ratingRows, loc.Ratings...)
		evidenceRows = append(evidenceRows, loc.Evidences...)
	}

	// Step 2-4: scope-bound transaction, bulk-copy in fixed order, commit
	// on normal exit.
	err := w.persist.Transaction(ctx, func(tx interfaces.Persistence) error {
		if err := bulkCopyPhysicalities(ctx, tx, physRows); err != nil {
			return &substrate.IngestError{Stage: substrate.StagePhysicality, Err: err}
		}
		stats.PhysicalitiesWritten = len(physRows)

		if err := bulkCopyCompositions(ctx, tx, compRows); err != nil {
			return &substrate.IngestError{Stage: substrate.StageComposition, Err: err}
		}
		stats.CompositionsWritten = len(compRows)

		if err := bulkCopyRelations(ctx, tx, relRows); err != nil {
			return &substrate.IngestError{Stage: substrate.StageRelation, Err: err}
		}
		stats.RelationsWritten = len(relRows)

		if err := bulkCopyRelationSeqs(ctx, tx, seqRows); err != nil {
			return &substrate.IngestError{Stage: substrate.StageRelationSeq, Err: err}
		}
		stats.RelationSeqsWritten = len(seqRows)

		applied, err := applyRatings(ctx, tx, ratingRows)
		if err != nil {
			return &substrate.IngestError{Stage: substrate.StageRelationRating, Err: err}
		}
		stats.RatingsApplied = applied

		if err := bulkCopyEvidence(ctx, tx, evidenceRows); err != nil {
			return &substrate.IngestError{Stage: substrate.StageRelationEvidence, Err: err}
		}
		stats.EvidenceWritten = len(evidenceRows)
		return nil
	})
	if err != nil {
		logger.Warn("dag: flush rolled back", "error", err)
		return FlushStats{}, err
	}

	// Step 5 (on success): promote this batch's identities into the
	// session-wide sets so later flushes treat them as already created.
	for h := range batchPhysSeen {
		w.sessionPhysSeen[h] = true
	}
	for h := range batchCompSeen {
		w.sessionCompSeen[h] = true
	}
	for h := range batchRelSeen {
		w.sessionRelSeen[h] = true
	}

	logger.Debug("dag: flush committed",
		"physicalities", stats.PhysicalitiesWritten,
		"compositions", stats.CompositionsWritten,
		"relations", stats.RelationsWritten,
		"relations_deduped", stats.RelationsDeduped,
		"ratings", stats.RatingsApplied,
		"evidence", stats.EvidenceWritten,
	)
	return stats, nil
}

func bulkCopyPhysicalities(ctx context.Context, tx interfaces.Persistence, rows []substrate.Physicality) error {
	if len(rows) == 0 {
		return nil
	}
	data := make([][]any, len(rows))
	for i, p := range rows {
		hi, lo := p.Hilbert.Halves()
		data[i] = []any{hashid.ToHex(p.Hash), p.Centroid.X, p.Centroid.Y, p.Centroid.Z, p.Centroid.W, hi, lo, encodeTrajectory(p.Trajectory)}
	}
	return tx.BulkCopy(ctx, "physicality", []string{"id", "x", "y", "z", "m", "hilbert_hi", "hilbert_lo", "trajectory"}, data)
}

func bulkCopyCompositions(ctx context.Context, tx interfaces.Persistence, rows []substrate.Composition) error {
	if len(rows) == 0 {
		return nil
	}
	data := make([][]any, len(rows))
	for i, c := range rows {
		data[i] = []any{hashid.ToHex(c.Hash), hashid.ToHex(c.PhysicalityID), store.EncodeAtomSequence(c.Atoms)}
	}
	return tx.BulkCopy(ctx, "composition", []string{"id", "physicalityid", "atom_sequence"}, data)
}

func bulkCopyRelations(ctx context.Context, tx interfaces.Persistence, rows []substrate.Relation) error {
	if len(rows) == 0 {
		return nil
	}
	data := make([][]any, len(rows))
	for i, r := range rows {
		data[i] = []any{hashid.ToHex(r.Hash), hashid.ToHex(r.PhysicalityID), hashid.ToHex(r.Low), hashid.ToHex(r.High)}
	}
	return tx.BulkCopy(ctx, "relation", []string{"id", "physicalityid", "low_composition_id", "high_composition_id"}, data)
}

func bulkCopyRelationSeqs(ctx context.Context, tx interfaces.Persistence, rows []substrate.RelationSequence) error {
	if len(rows) == 0 {
		return nil
	}
	data := make([][]any, len(rows))
	for i, rs := range rows {
		data[i] = []any{hashid.ToHex(rs.RelationID), hashid.ToHex(rs.CompositionID), rs.Ordinal, rs.Occurrences}
	}
	return tx.BulkCopy(ctx, "relationsequence", []string{"relationid", "compositionid", "ordinal", "occurrences"}, data)
}

// applyRatings folds each delta into the relation's running rating. This
// departs from a literal bulk-copy (spec.md describes the rating write as
// a bulk-copied row like the others) because ratings are mutable-by-
// aggregation, not append-only: each delta must be merged with whatever
// rating already exists for that relation, including deltas applied
// earlier in the same flush. We apply one upsert per relation-id group
// instead, inside the same transaction scope, which preserves the "scope-
// bound transaction, single commit" contract even though it isn't a
// single COPY buffer. See DESIGN.md.
func applyRatings(ctx context.Context, tx interfaces.Persistence, rows []RatingDelta) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	for _, d := range rows {
		id := hashid.ToHex(d.RelationID)
		existing, err := tx.QuerySingle(ctx, "SELECT ratingvalue FROM relationrating WHERE relationid = ?", []any{id})
		if err != nil {
			return 0, err
		}
		if existing == nil {
			err = tx.Execute(ctx,
				"INSERT INTO relationrating (relationid, ratingvalue, observations, kfactor) VALUES (?, ?, 1, ?)",
				[]any{id, d.Elo, d.KFactor})
		} else {
			err = tx.Execute(ctx, `UPDATE relationrating
				SET ratingvalue = (ratingvalue * observations + ?) / (observations + 1),
				    observations = observations + 1,
				    modifiedat = strftime('%Y-%m-%dT%H:%M:%fZ','now')
				WHERE relationid = ?`, []any{d.Elo, id})
		}
		if err != nil {
			return 0, fmt.Errorf("apply rating for %s: %w", id, err)
		}
	}
	return len(rows), nil
}

func bulkCopyEvidence(ctx context.Context, tx interfaces.Persistence, rows []substrate.RelationEvidence) error {
	if len(rows) == 0 {
		return nil
	}
	data := make([][]any, len(rows))
	for i, e := range rows {
		data[i] = []any{hashid.ToHex(e.Hash), hashid.ToHex(e.SourceContentID), hashid.ToHex(e.RelationID), boolToInt(e.IsPositive), e.Strength, e.Weight}
	}
	return tx.BulkCopy(ctx, "relationevidence", []string{"id", "contentid", "relationid", "ispositive", "strength", "weight"}, data)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func encodeTrajectory(pts []geometry.S3Point) []byte {
	if len(pts) == 0 {
		return nil
	}
	out := make([]byte, 0, len(pts)*32)
	for _, p := range pts {
		out = append(out, store.EncodeFloat64(p.X)...)
		out = append(out, store.EncodeFloat64(p.Y)...)
		out = append(out, store.EncodeFloat64(p.Z)...)
		out = append(out, store.EncodeFloat64(p.W)...)
	}
	return out
}
