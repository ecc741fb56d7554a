package walk

import (
	"math"
	"math/rand"
	"sort"

	"github.com/hartonomous/substrate/internal/config"
	"github.com/hartonomous/substrate/internal/geometry"
	"github.com/hartonomous/substrate/internal/substrate"
)

// scored pairs a candidate with its computed pre-softmax score.
type scored struct {
	substrate.Candidate
	score float64
}

// score implements spec.md §4.6's scoring formula. rel_strength is
// resolved here as the candidate's own (unnormalized) max ELO rating: the
// spec names "rel_strength" without defining which quantity feeds it, and
// elo_score already carries the locally-normalized rank, so rel_strength
// supplies the complementary absolute-confidence signal the sigmoid term
// saturates on. See DESIGN.md.
func score(c substrate.Candidate, minElo, maxElo float64, maxObs uint64, s *State, cfg *config.Config) float64 {
	eloScore := 0.0
	if maxElo > minElo {
		eloScore = (c.MaxRating - minElo) / (maxElo - minElo)
	}
	obsScore := 0.0
	if maxObs > 0 {
		obsScore = float64(c.TotalObs) / float64(maxObs)
	}

	base := cfg.WModel*eloScore + cfg.WText*obsScore + cfg.WRel*sigmoid(c.MaxRating/50)

	if c.IsStopWord {
		if base > 0.02 {
			base = 0.02
		}
	} else {
		base += 0.05
	}

	if s.ContextSeeds[c.CompositionID] || (s.GoalComp != nil && *s.GoalComp == c.CompositionID) {
		base += 0.3
	}

	base -= cfg.WRepeat * float64(s.VisitCounts[c.CompositionID])
	if s.inRecent(c.CompositionID) {
		base -= cfg.WNovelty
	}
	base += cfg.WEnergy * s.Energy

	if base < 0 {
		base = 0
	}
	return math.Pow(base, 0.75)
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// topK sorts cands by score descending and keeps the first k.
func topK(cands []scored, k int) []scored {
	sort.Slice(cands, func(i, j int) bool { return cands[i].score > cands[j].score })
	if len(cands) > k {
		cands = cands[:k]
	}
	return cands
}

// temperature implements spec.md §4.6 "Selection" step 2: T = clamp(
// base_temp - energy_alpha*energy, min_temp, base_temp).
func temperature(cfg *config.Config, energy float64) float64 {
	t := cfg.BaseTemp - cfg.EnergyAlpha*energy
	return geometry.Clamp(t, cfg.MinTemp, cfg.BaseTemp)
}

// softmax returns a categorical distribution over cands' scores at
// temperature t. At t == 0 (degenerate, e.g. base_temp == min_temp == 0)
// it falls back to a one-hot distribution on the argmax, i.e. greedy
// selection — spec.md §8's "Walk with base_temp = min_temp and energy 0
// becomes argmax greedy" boundary law.
func softmax(cands []scored, t float64) []float64 {
	probs := make([]float64, len(cands))
	if t <= 0 {
		best := 0
		for i := 1; i < len(cands); i++ {
			if cands[i].score > cands[best].score {
				best = i
			}
		}
		probs[best] = 1
		return probs
	}

	maxScore := cands[0].score
	for _, c := range cands[1:] {
		if c.score > maxScore {
			maxScore = c.score
		}
	}
	var sum float64
	for i, c := range cands {
		probs[i] = math.Exp((c.score - maxScore) / t)
		sum += probs[i]
	}
	if sum == 0 {
		uniform := 1 / float64(len(probs))
		for i := range probs {
			probs[i] = uniform
		}
		return probs
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

// sampleCategorical draws an index from probs via rng.
func sampleCategorical(probs []float64, rng *rand.Rand) int {
	r := rng.Float64()
	var cum float64
	for i, p := range probs {
		cum += p
		if r < cum {
			return i
		}
	}
	return len(probs) - 1
}
