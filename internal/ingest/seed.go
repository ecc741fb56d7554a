package ingest

import (
	"context"
	"fmt"

	"github.com/hartonomous/substrate/internal/hashid"
	"github.com/hartonomous/substrate/internal/interfaces"
	"github.com/hartonomous/substrate/internal/logger"
	"github.com/hartonomous/substrate/internal/substrate"
)

// CodepointRange is an inclusive [Low, High] range of Unicode codepoints to
// seed as atoms.
type CodepointRange struct {
	Low, High rune
}

// DefaultSeedRanges covers Basic Latin and Latin-1 Supplement, enough to
// seed every codepoint the test corpora in spec.md §8's scenarios need.
// Configurable: SPEC_FULL.md §4.12 calls out a wider seed as an operator
// choice for non-Latin corpora.
var DefaultSeedRanges = []CodepointRange{
	{Low: 0x0020, High: 0x007E}, // Basic Latin printable
	{Low: 0x00A0, High: 0x00FF}, // Latin-1 Supplement
}

// SeedAtoms projects every codepoint in ranges into an Atom and bulk-copies
// them through persist. Idempotent: atoms are content-addressed, so
// reseeding recomputes identical hashes and bulk_copy's dedup (INSERT OR
// IGNORE-equivalent) makes a second run a no-op. spec.md §4.12.
func SeedAtoms(ctx context.Context, persist interfaces.Persistence, ranges []CodepointRange) (int, error) {
	if ranges == nil {
		ranges = DefaultSeedRanges
	}

	var rows [][]any
	for _, r := range ranges {
		for cp := r.Low; cp <= r.High; cp++ {
			atom := project(cp)
			rows = append(rows, atomRow(atom))
		}
	}

	err := persist.Transaction(ctx, func(tx interfaces.Persistence) error {
		return tx.BulkCopy(ctx, "atom", []string{"id", "codepoint", "x", "y", "z", "m", "hilbert_hi", "hilbert_lo"}, rows)
	})
	if err != nil {
		return 0, fmt.Errorf("%w: seed atoms: %v", substrate.ErrPersistence, err)
	}

	logger.Info("ingest: seeded atoms", "count", len(rows))
	return len(rows), nil
}

func atomRow(a substrate.Atom) []any {
	hi, lo := a.Hilbert.Halves()
	return []any{hashid.ToHex(a.Hash), int64(a.Codepoint), a.Position.X, a.Position.Y, a.Position.Z, a.Position.W, hi, lo}
}
