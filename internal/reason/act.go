package reason

import (
	"context"

	"github.com/hartonomous/substrate/internal/config"
	"github.com/hartonomous/substrate/internal/graph"
	"github.com/hartonomous/substrate/internal/search"
	"github.com/hartonomous/substrate/internal/substrate"
)

// Act builds up to cfg.BeamWidth Tree-of-Thought hypotheses. Beam b
// starts from seeds[b mod len(seeds)] and attempts intentions in a
// rotated order, chaining each subsequent A* search from the previous
// path's endpoint. spec.md §4.9 phase 4.
func Act(ctx context.Context, arena *graph.Arena, cfg *config.Config, seeds []substrate.Hash, intentions []Intention) ([]Hypothesis, error) {
	if len(seeds) == 0 || len(intentions) == 0 {
		return nil, nil
	}

	beamWidth := cfg.BeamWidth
	if beamWidth <= 0 {
		beamWidth = 1
	}

	hypotheses := make([]Hypothesis, 0, beamWidth)
	for b := 0; b < beamWidth; b++ {
		start := seeds[b%len(seeds)]
		order := rotate(intentions, b%len(intentions))

		hyp := Hypothesis{}
		current := start
		for _, intent := range order {
			if intent.Goal == current {
				continue
			}
			res, err := search.Search(ctx, arena, cfg, current, intent.Goal)
			if err != nil {
				continue // this intention is unreachable from the current chain end; skip it
			}
			if !res.Found {
				continue
			}
			hyp.Paths = append(hyp.Paths, res)
			hyp.Intentions = append(hyp.Intentions, intent)
			current = res.Path[len(res.Path)-1]
		}
		hypotheses = append(hypotheses, hyp)
	}
	return hypotheses, nil
}

func rotate(intentions []Intention, k int) []Intention {
	n := len(intentions)
	if n == 0 {
		return nil
	}
	k = k % n
	out := make([]Intention, n)
	copy(out, intentions[k:])
	copy(out[n-k:], intentions[:k])
	return out
}
