package dag

import (
	"context"
	"testing"

	"github.com/hartonomous/substrate/internal/geometry"
	"github.com/hartonomous/substrate/internal/hashid"
	"github.com/hartonomous/substrate/internal/store"
	"github.com/hartonomous/substrate/internal/substrate"
)

func openTest(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func samplePhysicality(tag byte, seed string) substrate.Physicality {
	h := hashid.H(hashid.Tag(tag), []byte(seed))
	return substrate.Physicality{
		Hash:     h,
		Centroid: geometry.S3Point{X: 1, Y: 0, Z: 0, W: 0},
		Hilbert:  geometry.Hilbert4DEncode([4]float64{1, 0, 0, 0}, 32),
	}
}

func sampleRelation(seed string, physID substrate.Hash, low, high substrate.Hash) substrate.Relation {
	h := hashid.H(hashid.TagRelation, []byte(seed))
	return substrate.Relation{Hash: h, PhysicalityID: physID, Low: low, High: high}
}

func TestFlushWritesNewRelationOnce(t *testing.T) {
	s := openTest(t)
	w := NewWriter(s)

	phys := samplePhysicality(byte(hashid.TagPhysicality), "p1")
	low := hashid.H(hashid.TagComposition, []byte("low"))
	high := hashid.H(hashid.TagComposition, []byte("high"))
	rel := sampleRelation("r1", phys.Hash, low, high)

	loc := NewThreadLocalRecords()
	loc.AddPhysicality(phys)
	loc.AddRelation(rel)
	loc.AddRating(RatingDelta{RelationID: rel.Hash, Elo: 1200, KFactor: 32})
	loc.AddEvidence(substrate.RelationEvidence{
		Hash:            hashid.H(hashid.TagRelation, []byte("ev1")),
		SourceContentID: hashid.H(hashid.TagContent, []byte("c1")),
		RelationID:      rel.Hash,
		IsPositive:      true,
		Strength:        1,
		Weight:          1,
	})

	stats, err := w.Flush(context.Background(), []*ThreadLocalRecords{loc})
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if stats.RelationsWritten != 1 || stats.RelationsDeduped != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.RatingsApplied != 1 || stats.EvidenceWritten != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestFlushDedupsAcrossCalls(t *testing.T) {
	s := openTest(t)
	w := NewWriter(s)

	phys := samplePhysicality(byte(hashid.TagPhysicality), "p2")
	low := hashid.H(hashid.TagComposition, []byte("low2"))
	high := hashid.H(hashid.TagComposition, []byte("high2"))
	rel := sampleRelation("r2", phys.Hash, low, high)

	first := NewThreadLocalRecords()
	first.AddPhysicality(phys)
	first.AddRelation(rel)
	first.AddRating(RatingDelta{RelationID: rel.Hash, Elo: 1200, KFactor: 32})

	if _, err := w.Flush(context.Background(), []*ThreadLocalRecords{first}); err != nil {
		t.Fatalf("first Flush: %v", err)
	}

	// Simulate re-ingesting the same content in a later batch: the
	// relation and physicality are already known session-wide, so a
	// fresh thread-local that re-derives the same identities contributes
	// zero new relation rows but still appends its own rating/evidence.
	second := NewThreadLocalRecords()
	second.AddPhysicality(phys)
	second.AddRelation(rel)
	second.AddRating(RatingDelta{RelationID: rel.Hash, Elo: 1210, KFactor: 32})
	second.AddEvidence(substrate.RelationEvidence{
		Hash:            hashid.H(hashid.TagRelation, []byte("ev2")),
		SourceContentID: hashid.H(hashid.TagContent, []byte("c2")),
		RelationID:      rel.Hash,
		IsPositive:      true,
		Strength:        1,
		Weight:          1,
	})

	stats, err := w.Flush(context.Background(), []*ThreadLocalRecords{second})
	if err != nil {
		t.Fatalf("second Flush: %v", err)
	}
	if stats.RelationsWritten != 0 || stats.RelationsDeduped != 1 {
		t.Fatalf("expected dedup on second flush, got %+v", stats)
	}
	if stats.RatingsApplied != 1 || stats.EvidenceWritten != 1 {
		t.Fatalf("rating/evidence should still append: %+v", stats)
	}
}

func TestFlushDedupsWithinBatchAcrossAccumulators(t *testing.T) {
	s := openTest(t)
	w := NewWriter(s)

	phys := samplePhysicality(byte(hashid.TagPhysicality), "p3")
	low := hashid.H(hashid.TagComposition, []byte("low3"))
	high := hashid.H(hashid.TagComposition, []byte("high3"))
	rel := sampleRelation("r3", phys.Hash, low, high)

	a := NewThreadLocalRecords()
	a.AddPhysicality(phys)
	a.AddRelation(rel)

	b := NewThreadLocalRecords()
	b.AddPhysicality(phys)
	b.AddRelation(rel)

	stats, err := w.Flush(context.Background(), []*ThreadLocalRecords{a, b})
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if stats.RelationsWritten != 1 || stats.RelationsDeduped != 1 {
		t.Fatalf("expected exactly one relation written and one deduped within the batch, got %+v", stats)
	}
	if stats.PhysicalitiesWritten != 1 {
		t.Fatalf("expected exactly one physicality written within the batch, got %+v", stats)
	}
}

func TestFlushDedupsCompositionsAcrossCalls(t *testing.T) {
	s := openTest(t)
	w := NewWriter(s)

	phys := samplePhysicality(byte(hashid.TagPhysicality), "p5")
	comp := substrate.Composition{
		Hash:          hashid.H(hashid.TagComposition, []byte("word")),
		PhysicalityID: phys.Hash,
	}

	first := NewThreadLocalRecords()
	first.AddPhysicality(phys)
	first.AddComposition(comp)
	if stats, err := w.Flush(context.Background(), []*ThreadLocalRecords{first}); err != nil {
		t.Fatalf("first Flush: %v", err)
	} else if stats.CompositionsWritten != 1 {
		t.Fatalf("expected one composition written, got %+v", stats)
	}

	second := NewThreadLocalRecords()
	second.AddPhysicality(phys)
	second.AddComposition(comp)
	stats, err := w.Flush(context.Background(), []*ThreadLocalRecords{second})
	if err != nil {
		t.Fatalf("second Flush: %v", err)
	}
	if stats.CompositionsWritten != 0 || stats.CompositionsDeduped != 1 {
		t.Fatalf("expected composition dedup on second flush, got %+v", stats)
	}
}

func TestFlushRollsBackOnEvidenceFailure(t *testing.T) {
	s := openTest(t)
	w := NewWriter(s)

	loc := NewThreadLocalRecords()
	// A relation evidence row referencing a relation id that was never
	// written as a relation: the evidence table's foreign key should
	// reject it, and the whole flush (including the otherwise-valid
	// physicality row) should roll back together.
	loc.AddPhysicality(samplePhysicality(byte(hashid.TagPhysicality), "p4"))
	loc.AddEvidence(substrate.RelationEvidence{
		Hash:            hashid.H(hashid.TagRelation, []byte("ev-orphan")),
		SourceContentID: hashid.H(hashid.TagContent, []byte("c4")),
		RelationID:      hashid.H(hashid.TagRelation, []byte("never-written")),
		IsPositive:      true,
		Strength:        1,
		Weight:          1,
	})

	_, err := w.Flush(context.Background(), []*ThreadLocalRecords{loc})
	if err == nil {
		t.Fatal("expected Flush to fail on orphaned evidence foreign key")
	}

	row, err := s.QuerySingle(context.Background(), "SELECT count(*) FROM physicality", nil)
	if err != nil {
		t.Fatalf("QuerySingle: %v", err)
	}
	if row == nil || *row != "0" {
		t.Fatalf("expected rollback to leave physicality table empty, got %v", row)
	}
}
