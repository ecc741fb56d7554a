package reason

import (
	"context"

	"github.com/hartonomous/substrate/internal/config"
	"github.com/hartonomous/substrate/internal/graph"
	"github.com/hartonomous/substrate/internal/search"
	"github.com/hartonomous/substrate/internal/substrate"
)

// quality implements spec.md §4.9 phase 5's scoring formula:
// Q = 0.5·resolution_rate + 0.3·mean_elo/2000 + 0.2·min(1, |paths|/|intentions|).
// resolution_rate and the capped paths/intentions ratio read the same
// quantity (both bounded at 1 by construction, since a hypothesis never
// records more resolved paths than intentions it attempted), so both
// terms share one computed ratio rather than diverging on a distinction
// spec.md never draws.
func quality(h Hypothesis, intentionCount int) float64 {
	if intentionCount == 0 {
		return 0
	}
	ratio := float64(len(h.Paths)) / float64(intentionCount)
	if ratio > 1 {
		ratio = 1
	}

	meanElo := 0.0
	if len(h.Paths) > 0 {
		var sum float64
		for _, p := range h.Paths {
			sum += p.AvgElo
		}
		meanElo = sum / float64(len(h.Paths))
	}

	return 0.5*ratio + 0.3*(meanElo/2000) + 0.2*ratio
}

// Reflect scores every hypothesis, picks the best, and — if its quality
// falls short of cfg.MinPathQuality — runs up to cfg.MaxReflexionRounds
// rounds of multi-goal search from every seed with progressively relaxed
// thresholds, merging any newly found path into the best hypothesis.
// spec.md §4.9 phase 5.
func Reflect(ctx context.Context, arena *graph.Arena, cfg *config.Config, seeds []substrate.Hash, intentions []Intention, hypotheses []Hypothesis) (Hypothesis, error) {
	if len(hypotheses) == 0 {
		return Hypothesis{}, nil
	}

	for i := range hypotheses {
		hypotheses[i].Quality = quality(hypotheses[i], len(intentions))
	}
	best := 0
	for i := 1; i < len(hypotheses); i++ {
		if hypotheses[i].Quality > hypotheses[best].Quality {
			best = i
		}
	}
	bestHyp := hypotheses[best]

	if bestHyp.Quality >= cfg.MinPathQuality || len(intentions) == 0 {
		return bestHyp, nil
	}

	goals := map[substrate.Hash]bool{}
	for _, intent := range intentions {
		goals[intent.Goal] = true
	}
	if len(goals) == 0 {
		return bestHyp, nil
	}

	relaxed := *cfg
	rounds := cfg.MaxReflexionRounds
	for round := 1; round <= rounds; round++ {
		relaxed.MinElo = cfg.MinElo - 200*float64(round)
		if relaxed.MinElo < 600 {
			relaxed.MinElo = 600
		}
		relaxed.MaxExpansions = 2 * cfg.MaxExpansions

		for _, seed := range seeds {
			res, err := search.MultiGoal(ctx, arena, &relaxed, seed, goals)
			if err != nil {
				continue
			}
			if res.Found {
				bestHyp.Paths = append(bestHyp.Paths, res)
			}
		}

		bestHyp.Quality = quality(bestHyp, len(intentions))
		if bestHyp.Quality >= cfg.MinPathQuality {
			break
		}
	}
	return bestHyp, nil
}
