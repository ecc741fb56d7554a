// Package dag implements the Merkle-DAG writer: thread-local accumulators
// that dedup within a single extraction task, and a single-threaded flush
// step that merges them into the session-wide dedup set and commits them
// to the persistence adapter in the fixed order physicality -> composition
// -> relation -> relation_sequence -> rating -> evidence. spec.md §4.4, §9.
package dag

import "github.com/hartonomous/substrate/internal/substrate"

// RatingDelta is one observation's contribution to a relation's ELO
// rating: spec.md §4.4/§4.5 "always append an ELO delta row; base rating
// is set by kind, observation count is 1." The store layer folds deltas
// into the running (elo, observations, kfactor) tuple on apply.
type RatingDelta struct {
	RelationID substrate.Hash
	Elo        float64
	KFactor    float64
}

// ThreadLocalRecords is one extraction task's private accumulator: no
// shared-state mutation happens while it's being filled, matching spec.md
// §9's "thread-local accumulators with their own dedup sets, (b) a
// single-threaded merge-and-commit step that owns the session-wide dedup
// set. No locks on the hot path."
type ThreadLocalRecords struct {
	Physicalities []substrate.Physicality
	Compositions  []substrate.Composition
	Relations     []substrate.Relation
	RelationSeqs  []substrate.RelationSequence
	Ratings       []RatingDelta
	Evidences     []substrate.RelationEvidence

	physSeen map[substrate.Hash]bool
	compSeen map[substrate.Hash]bool
	relSeen  map[substrate.Hash]bool
}

// NewThreadLocalRecords returns an empty accumulator.
func NewThreadLocalRecords() *ThreadLocalRecords {
	return &ThreadLocalRecords{
		physSeen: make(map[substrate.Hash]bool),
		compSeen: make(map[substrate.Hash]bool),
		relSeen:  make(map[substrate.Hash]bool),
	}
}

// AddPhysicality enqueues p if this task hasn't already seen its hash.
// Returns whether it was newly added.
func (t *ThreadLocalRecords) AddPhysicality(p substrate.Physicality) bool {
	if t.physSeen[p.Hash] {
		return false
	}
	t.physSeen[p.Hash] = true
	t.Physicalities = append(t.Physicalities, p)
	return true
}

// AddComposition enqueues c if this task hasn't already seen its hash.
// Compositions are not part of spec.md §4.4's five listed record kinds, but
// spec.md §3 gives them the same "created once, dedup by hash" lifecycle as
// a physicality; this extends the same identity-dedup treatment to them.
// See DESIGN.md.
func (t *ThreadLocalRecords) AddComposition(c substrate.Composition) bool {
	if t.compSeen[c.Hash] {
		return false
	}
	t.compSeen[c.Hash] = true
	t.Compositions = append(t.Compositions, c)
	return true
}

// AddRelation enqueues r if this task hasn't already seen its hash.
func (t *ThreadLocalRecords) AddRelation(r substrate.Relation) bool {
	if t.relSeen[r.Hash] {
		return false
	}
	t.relSeen[r.Hash] = true
	t.Relations = append(t.Relations, r)
	return true
}

// AddRelationSequence unconditionally enqueues a membership row; these are
// created alongside a relation's identity, never deduplicated beyond what
// AddRelation already filtered.
func (t *ThreadLocalRecords) AddRelationSequence(rs substrate.RelationSequence) {
	t.RelationSeqs = append(t.RelationSeqs, rs)
}

// AddRating unconditionally enqueues an ELO delta — ratings are append-many
// even when the relation identity itself was a duplicate.
func (t *ThreadLocalRecords) AddRating(d RatingDelta) {
	t.Ratings = append(t.Ratings, d)
}

// AddEvidence unconditionally enqueues an evidence row — evidence is
// append-only regardless of relation dedup.
func (t *ThreadLocalRecords) AddEvidence(e substrate.RelationEvidence) {
	t.Evidences = append(t.Evidences, e)
}

// RelSeen reports whether this task's local accumulator has already
// recorded hash h as a relation identity, without adding anything.
func (t *ThreadLocalRecords) RelSeen(h substrate.Hash) bool { return t.relSeen[h] }

// PhysSeen reports whether this task's local accumulator has already
// recorded hash h as a physicality identity.
func (t *ThreadLocalRecords) PhysSeen(h substrate.Hash) bool { return t.physSeen[h] }
