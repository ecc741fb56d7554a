package reason

import (
	"context"

	"github.com/hartonomous/substrate/internal/graph"
	"github.com/hartonomous/substrate/internal/ingest"
	"github.com/hartonomous/substrate/internal/substrate"
)

// maxHistoryTurns is spec.md §4.9 phase 1's "(up to) the last three
// conversation turns".
const maxHistoryTurns = 3

// Observe tokenizes prompt and the most recent history turns, extracts
// content words, and resolves each to a seed composition. Duplicate seeds
// are kept only once, in first-seen order. spec.md §4.9 phase 1.
func Observe(ctx context.Context, arena *graph.Arena, prompt string, history []string) ([]substrate.Hash, error) {
	turns := history
	if len(turns) > maxHistoryTurns {
		turns = turns[len(turns)-maxHistoryTurns:]
	}

	seen := map[substrate.Hash]bool{}
	var seeds []substrate.Hash

	addFrom := func(text string) error {
		for _, tok := range ingest.Words(text) {
			if ingest.IsFunctionWord(tok) {
				continue
			}
			id, ok, err := arena.ResolveText(ctx, tok)
			if err != nil {
				return err
			}
			if ok && !seen[id] {
				seen[id] = true
				seeds = append(seeds, id)
			}
		}
		return nil
	}

	if err := addFrom(prompt); err != nil {
		return nil, err
	}
	for _, turn := range turns {
		if err := addFrom(turn); err != nil {
			return nil, err
		}
	}
	return seeds, nil
}
