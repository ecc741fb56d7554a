package walk

import (
	"context"

	"github.com/hartonomous/substrate/internal/graph"
	"github.com/hartonomous/substrate/internal/ingest"
	"github.com/hartonomous/substrate/internal/substrate"
)

// candidateAgg accumulates the raw edges landing on one target composition
// before the aggregation rule (sum observations, max rating) in spec.md
// §4.6 step 2 / §8's quantified "post-aggregation max_rating equals max
// over inputs; total_obs equals Σ over inputs" property is applied.
type candidateAgg struct {
	totalObs  uint64
	maxRating float64
}

// candidates builds the scored candidate set for current: queries every
// raw neighbor edge, aggregates per target, drops artifact tokens and
// targets with zero observations, and annotates stop-word/text. spec.md
// §4.6 steps 1-4.
func (e *Engine) candidates(ctx context.Context, arena *graph.Arena, current substrate.Hash) ([]substrate.Candidate, error) {
	edges, err := arena.Neighbors(ctx, current)
	if err != nil {
		return nil, err
	}

	agg := map[substrate.Hash]*candidateAgg{}
	for _, ed := range edges {
		a, ok := agg[ed.Target]
		if !ok {
			a = &candidateAgg{}
			agg[ed.Target] = a
		}
		a.totalObs += ed.Observations
		if ed.Elo > a.maxRating {
			a.maxRating = ed.Elo
		}
	}

	var out []substrate.Candidate
	for target, a := range agg {
		if a.totalObs < 1 {
			continue
		}
		entry, err := arena.Resolve(ctx, target)
		if err != nil {
			continue // unresolvable target: treat like a missing vocabulary entry, skip.
		}
		if ingest.IsArtifactToken(entry.Text) {
			continue
		}
		out = append(out, substrate.Candidate{
			CompositionID: target,
			TotalObs:      a.totalObs,
			MaxRating:     a.maxRating,
			IsStopWord:    ingest.IsFunctionWord(entry.Text),
			Text:          entry.Text,
		})
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// candidateBounds returns the local min/max ELO and the max total
// observations across cands, the normalization basis for elo_score and
// obs_score in spec.md §4.6's scoring formula.
func candidateBounds(cands []substrate.Candidate) (minElo, maxElo float64, maxObs uint64) {
	minElo, maxElo = cands[0].MaxRating, cands[0].MaxRating
	maxObs = cands[0].TotalObs
	for _, c := range cands[1:] {
		if c.MaxRating < minElo {
			minElo = c.MaxRating
		}
		if c.MaxRating > maxElo {
			maxElo = c.MaxRating
		}
		if c.TotalObs > maxObs {
			maxObs = c.TotalObs
		}
	}
	return minElo, maxElo, maxObs
}
