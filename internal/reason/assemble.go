package reason

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"github.com/hartonomous/substrate/internal/config"
	"github.com/hartonomous/substrate/internal/graph"
	"github.com/hartonomous/substrate/internal/substrate"
	"github.com/hartonomous/substrate/internal/walk"
)

// Assemble collects unique token texts (case-folded dedup) from hyp's
// paths in order, capped at cfg.MaxResponseWords, and renders them
// through walk.Assemble. If too few words were resolved, it pads with a
// single walk passage from the strongest remaining seed. spec.md §4.9
// phase 6.
func Assemble(ctx context.Context, arena *graph.Arena, cfg *config.Config, seeds []substrate.Hash, hyp Hypothesis) (string, error) {
	seen := map[string]bool{}
	var tokens []string
	touched := map[substrate.Hash]bool{}

	for _, p := range hyp.Paths {
		for _, id := range p.Path {
			touched[id] = true
			entry, err := arena.Resolve(ctx, id)
			if err != nil {
				continue
			}
			key := strings.ToLower(entry.Text)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			tokens = append(tokens, entry.Text)
			if len(tokens) >= cfg.MaxResponseWords {
				return walk.Assemble(tokens), nil
			}
		}
	}

	if len(tokens) < cfg.MaxResponseWords {
		if padding, err := padFromStrongestRemainingSeed(ctx, arena, cfg, seeds, touched, cfg.MaxResponseWords-len(tokens)); err == nil {
			for _, text := range padding {
				key := strings.ToLower(text)
				if key == "" || seen[key] {
					continue
				}
				seen[key] = true
				tokens = append(tokens, text)
			}
		}
	}

	return walk.Assemble(tokens), nil
}

// padFromStrongestRemainingSeed walks from whichever seed has the most
// outgoing edges among those not already touched by the hypothesis's
// paths, returning up to want resolved token texts from the walk.
func padFromStrongestRemainingSeed(ctx context.Context, arena *graph.Arena, cfg *config.Config, seeds []substrate.Hash, touched map[substrate.Hash]bool, want int) ([]string, error) {
	var candidate substrate.Hash
	bestDegree := -1
	found := false
	for _, s := range seeds {
		if touched[s] {
			continue
		}
		edges, err := arena.Neighbors(ctx, s)
		if err != nil {
			continue
		}
		if len(edges) > bestDegree {
			bestDegree = len(edges)
			candidate = s
			found = true
		}
	}
	if !found {
		return nil, nil
	}

	entry, err := arena.Resolve(ctx, candidate)
	if err != nil {
		return nil, err
	}

	st := walk.NewState(candidate, entry.Position, cfg.StartEnergy, cfg.RecentWindow)
	engine := walk.New(arena, cfg)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	result, err := engine.Run(ctx, st, rng, want)
	if err != nil {
		return nil, err
	}

	texts := make([]string, 0, len(result.Trajectory))
	for _, id := range result.Trajectory {
		entry, err := arena.Resolve(ctx, id)
		if err != nil {
			continue
		}
		texts = append(texts, entry.Text)
	}
	return texts, nil
}
