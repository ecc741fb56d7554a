package extract

import (
	"github.com/hartonomous/substrate/internal/config"
	"github.com/hartonomous/substrate/internal/geometry"
	"github.com/hartonomous/substrate/internal/model"
)

// edgePolicy bundles the per-kind similarity threshold and the function
// mapping an accepted pair's similarity to its initial ELO. spec.md §4.5
// step 4.
type edgePolicy struct {
	threshold float64
	eloFor    func(sim float64) float64
	kfactor   float64
}

// edgePolicyFor returns the threshold/ELO policy spec.md §4.5 step 4 names
// for kind:
//
//   - Embedding: threshold = cfg.sim_threshold, elo linear in [800, 2000]
//     over sim ∈ [threshold, 1].
//   - Attention: threshold = cfg.sim_threshold, elo linear in [1000, 2000]
//     over sim ∈ [threshold, 1] (the "base, base+1000/(1-threshold)·sim"
//     formula resolves to exactly this range — see DESIGN.md).
//   - FFN: threshold = max(cfg.sim_threshold, 0.70), same elo shape as
//     attention, evaluated at FFN's own (higher) threshold.
func edgePolicyFor(kind model.Kind, cfg *config.Config) edgePolicy {
	base := float64(cfg.EmbeddingSimilarityThreshold)

	switch kind {
	case model.KindEmbedding:
		return edgePolicy{
			threshold: base,
			eloFor:    func(sim float64) float64 { return linearElo(sim, base, 800, 2000) },
			kfactor:   32,
		}
	case model.KindFFN:
		threshold := base
		if threshold < 0.70 {
			threshold = 0.70
		}
		return edgePolicy{
			threshold: threshold,
			eloFor:    func(sim float64) float64 { return linearElo(sim, threshold, 1000, 2000) },
			kfactor:   32,
		}
	default: // model.KindAttention
		return edgePolicy{
			threshold: base,
			eloFor:    func(sim float64) float64 { return linearElo(sim, base, 1000, 2000) },
			kfactor:   32,
		}
	}
}

// linearElo maps sim, clamped to [threshold, 1], linearly onto [lo, hi].
func linearElo(sim, threshold, lo, hi float64) float64 {
	sim = geometry.Clamp(sim, threshold, 1)
	span := 1 - threshold
	if span <= 0 {
		return hi
	}
	return lo + (sim-threshold)/span*(hi-lo)
}
