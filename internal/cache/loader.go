package cache

import (
	"context"
	"fmt"

	"github.com/hartonomous/substrate/internal/geometry"
	"github.com/hartonomous/substrate/internal/hashid"
	"github.com/hartonomous/substrate/internal/interfaces"
	"github.com/hartonomous/substrate/internal/store"
	"github.com/hartonomous/substrate/internal/substrate"
)

// Loader populates a PositionCache from the persistence adapter: a
// composition's text reconstructed from its atom sequence, and its
// physicality's S3 centroid. spec.md §6's "view that reconstructs a
// composition's text from its atom sequence" is implemented here,
// application-side, the way store.ObservationsToFloat64 implements the
// other read-path helper spec.md's schema contract names.
type Loader struct {
	persist interfaces.Persistence
	cache   *PositionCache
}

// NewLoader binds a Loader to persist and the cache it populates.
func NewLoader(persist interfaces.Persistence, c *PositionCache) *Loader {
	return &Loader{persist: persist, cache: c}
}

// Resolve returns the cached Entry for id, populating it from persist on a
// miss. Once populated, an id's entry never changes for the session
// (spec.md §5 "immutable after populate").
func (l *Loader) Resolve(ctx context.Context, id substrate.Hash) (Entry, error) {
	if e, ok := l.cache.Get(id); ok {
		return e, nil
	}

	idHex := hashid.ToHex(id)
	var physID string
	var atomSeq []byte
	found := false
	err := l.persist.Query(ctx,
		"SELECT physicalityid, atom_sequence FROM composition WHERE id = ?",
		[]any{idHex},
		func(row interfaces.Row) error { found = true; return row.Scan(&physID, &atomSeq) },
	)
	if err != nil {
		return Entry{}, fmt.Errorf("%w: cache: resolve composition: %v", substrate.ErrPersistence, err)
	}
	if !found {
		return Entry{}, fmt.Errorf("%w: cache: composition %s", substrate.ErrNotFound, idHex)
	}

	runs, err := store.DecodeAtomSequence(atomSeq)
	if err != nil {
		return Entry{}, err
	}

	var sb []rune
	for _, run := range runs {
		cp, err := l.atomCodepoint(ctx, run.AtomHash)
		if err != nil {
			return Entry{}, err
		}
		for i := uint32(0); i < run.RunLength; i++ {
			sb = append(sb, cp)
		}
	}

	pos, err := l.physicalityCentroid(ctx, physID)
	if err != nil {
		return Entry{}, err
	}

	e := Entry{Text: string(sb), Position: pos}
	l.cache.Put(id, e)
	return e, nil
}

func (l *Loader) atomCodepoint(ctx context.Context, atomHash substrate.Hash) (rune, error) {
	var cp int64
	found := false
	err := l.persist.Query(ctx, "SELECT codepoint FROM atom WHERE id = ?", []any{hashid.ToHex(atomHash)}, func(row interfaces.Row) error {
		found = true
		return row.Scan(&cp)
	})
	if err != nil {
		return 0, fmt.Errorf("%w: cache: resolve atom: %v", substrate.ErrPersistence, err)
	}
	if !found {
		return 0, fmt.Errorf("%w: cache: atom %s", substrate.ErrNotFound, hashid.ToHex(atomHash))
	}
	return rune(cp), nil
}

func (l *Loader) physicalityCentroid(ctx context.Context, physIDHex string) (geometry.S3Point, error) {
	var x, y, z, m float64
	found := false
	err := l.persist.Query(ctx, "SELECT x, y, z, m FROM physicality WHERE id = ?", []any{physIDHex}, func(row interfaces.Row) error {
		found = true
		return row.Scan(&x, &y, &z, &m)
	})
	if err != nil {
		return geometry.S3Point{}, fmt.Errorf("%w: cache: resolve physicality: %v", substrate.ErrPersistence, err)
	}
	if !found {
		return geometry.S3Point{}, fmt.Errorf("%w: cache: physicality %s", substrate.ErrNotFound, physIDHex)
	}
	return geometry.S3Point{X: x, Y: y, Z: z, W: m}, nil
}
