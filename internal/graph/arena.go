// Package graph models the relation graph as the arena spec.md §9 calls
// for: "an arena of compositions addressed by content-hash ids; all edges
// are ids, never pointers." internal/walk, internal/search, and
// internal/voronoi all need the same two primitives on top of that arena —
// raw neighbor-edge lookup and id/text/position resolution — so they live
// here once instead of being re-derived per caller.
package graph

import (
	"context"
	"fmt"

	"github.com/hartonomous/substrate/internal/cache"
	"github.com/hartonomous/substrate/internal/hashid"
	"github.com/hartonomous/substrate/internal/ingest"
	"github.com/hartonomous/substrate/internal/interfaces"
	"github.com/hartonomous/substrate/internal/store"
	"github.com/hartonomous/substrate/internal/substrate"
)

// Edge is one raw neighbor edge out of a composition: the relation's other
// composition plus its rating tuple.
type Edge struct {
	Target       substrate.Hash
	Observations uint64
	Elo          float64
}

// Arena binds a persistence adapter and the read-through cache described
// in spec.md §5, and is the single place every graph-walking component
// queries relationsequence/relationrating and resolves composition
// text/position.
type Arena struct {
	Persist interfaces.Persistence
	Cache   *cache.PositionCache
	loader  *cache.Loader
}

// NewArena binds persist to a fresh (or shared) PositionCache.
func NewArena(persist interfaces.Persistence, c *cache.PositionCache) *Arena {
	return &Arena{Persist: persist, Cache: c, loader: cache.NewLoader(persist, c)}
}

// Resolve returns the cached (text, position) entry for id.
func (a *Arena) Resolve(ctx context.Context, id substrate.Hash) (cache.Entry, error) {
	return a.loader.Resolve(ctx, id)
}

// Neighbors returns every raw edge out of id: every other composition
// joined to id through a shared relation, with that relation's current
// rating. Self-relations (a composition related to itself, e.g. a
// repeated-word bigram) are included, matching the relationsequence join
// exactly rather than special-casing them out. spec.md §4.6 step 1.
func (a *Arena) Neighbors(ctx context.Context, id substrate.Hash) ([]Edge, error) {
	const q = `
SELECT rs2.compositionid, rs2.occurrences, rr.ratingvalue
FROM relationsequence rs1
JOIN relationsequence rs2 ON rs2.relationid = rs1.relationid AND rs2.ordinal != rs1.ordinal
JOIN relationrating rr ON rr.relationid = rs1.relationid
WHERE rs1.compositionid = ?`

	var edges []Edge
	err := a.Persist.Query(ctx, q, []any{hashid.ToHex(id)}, func(row interfaces.Row) error {
		var targetHex string
		var obs uint64
		var elo float64
		if err := row.Scan(&targetHex, &obs, &elo); err != nil {
			return err
		}
		target, err := hashid.FromHex(targetHex)
		if err != nil {
			return err
		}
		edges = append(edges, Edge{Target: target, Observations: obs, Elo: elo})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: graph: neighbors: %v", substrate.ErrPersistence, err)
	}
	return edges, nil
}

// ResolveText looks up a token's composition id the way spec.md §4.6/§4.7
// describe: exact text, then lower-cased. Returns ok=false if neither form
// has a row — the caller substitutes its own fallback.
func (a *Arena) ResolveText(ctx context.Context, token string) (substrate.Hash, bool, error) {
	if id, ok, err := a.exists(ctx, token); ok || err != nil {
		return id, ok, err
	}
	return a.exists(ctx, lower(token))
}

func (a *Arena) exists(ctx context.Context, token string) (substrate.Hash, bool, error) {
	candidate := ingest.ComposeCandidate(token)
	idHex := hashid.ToHex(candidate.Hash)
	found := false
	err := a.Persist.Query(ctx, "SELECT 1 FROM composition WHERE id = ?", []any{idHex}, func(row interfaces.Row) error {
		found = true
		return nil
	})
	if err != nil {
		return substrate.Hash{}, false, fmt.Errorf("%w: graph: resolve text: %v", substrate.ErrPersistence, err)
	}
	return candidate.Hash, found, nil
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// HighestRated returns the composition id with the single highest ELO
// rating across the whole graph, used as the walk engine's fallback start
// node when no prompt seed resolves (spec.md §4.6).
func (a *Arena) HighestRated(ctx context.Context) (substrate.Hash, error) {
	const q = `
SELECT rs.compositionid, rr.ratingvalue
FROM relationrating rr
JOIN relationsequence rs ON rs.relationid = rr.relationid
ORDER BY rr.ratingvalue DESC
LIMIT 1`

	var idHex string
	found := false
	err := a.Persist.Query(ctx, q, nil, func(row interfaces.Row) error {
		var rating float64
		if err := row.Scan(&idHex, &rating); err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return substrate.Hash{}, fmt.Errorf("%w: graph: highest rated: %v", substrate.ErrPersistence, err)
	}
	if !found {
		return substrate.Hash{}, fmt.Errorf("%w: graph: no rated relations", substrate.ErrNotFound)
	}
	return hashid.FromHex(idHex)
}

// ObservationsToFloat64 re-exports store.ObservationsToFloat64 for callers
// that only import graph, keeping the schema-contract helper spec.md §6
// names in one place rather than re-declared per package.
func ObservationsToFloat64(o uint64) float64 { return store.ObservationsToFloat64(o) }
