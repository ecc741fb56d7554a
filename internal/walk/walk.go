package walk

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/hartonomous/substrate/internal/config"
	"github.com/hartonomous/substrate/internal/graph"
	"github.com/hartonomous/substrate/internal/logger"
	"github.com/hartonomous/substrate/internal/substrate"
)

// Result summarizes a completed (terminated) walk.
type Result struct {
	Trajectory []substrate.Hash
	Reason     Reason
	Steps      int
}

// Engine runs walks over the relation graph arena under a fixed config.
// One Engine may run many walks; each walk owns its own *rand.Rand per
// spec.md §9's "RNG state is per-scope ... never shared."
type Engine struct {
	arena *graph.Arena
	cfg   *config.Config
}

// New binds an Engine to arena and cfg.
func New(arena *graph.Arena, cfg *config.Config) *Engine {
	if cfg == nil {
		cfg = config.Defaults()
	}
	return &Engine{arena: arena, cfg: cfg}
}

// Step advances s by exactly one candidate selection, mutating it in
// place. Returns the terminal Reason if the walk ended this step, or
// ReasonNone if it can continue. spec.md §4.6 steps 1-6, §4.10.
func (e *Engine) Step(ctx context.Context, s *State, rng *rand.Rand) (Reason, error) {
	if s.Energy <= 0 {
		s.Reason = ReasonOutOfEnergy
		return ReasonOutOfEnergy, nil
	}

	cands, err := e.candidates(ctx, e.arena, s.Current)
	if err != nil {
		return ReasonNone, err
	}
	if len(cands) == 0 {
		s.Reason = ReasonTrapped
		return ReasonTrapped, nil
	}

	minElo, maxElo, maxObs := candidateBounds(cands)
	scoredCands := make([]scored, len(cands))
	for i, c := range cands {
		scoredCands[i] = scored{Candidate: c, score: score(c, minElo, maxElo, maxObs, s, e.cfg)}
	}

	k := e.cfg.TopK
	if k <= 0 {
		k = 32
	}
	scoredCands = topK(scoredCands, k)

	t := temperature(e.cfg, s.Energy)
	probs := softmax(scoredCands, t)
	idx := sampleCategorical(probs, rng)
	chosen := scoredCands[idx]

	entry, err := e.arena.Resolve(ctx, chosen.CompositionID)
	if err != nil {
		return ReasonNone, err
	}
	s.advance(chosen.CompositionID, entry.Position, e.cfg.EnergyDecay)

	if s.GoalComp != nil && *s.GoalComp == s.Current {
		s.Reason = ReasonGoalReached
		return ReasonGoalReached, nil
	}
	return ReasonNone, nil
}

// Run steps s until it terminates or maxSteps is reached (a safety bound;
// spec.md's walk state machine never resumes but also never guarantees
// termination by energy alone if energy_decay is 0). maxSteps <= 0 uses
// cfg.WalkMaxSteps.
func (e *Engine) Run(ctx context.Context, s *State, rng *rand.Rand, maxSteps int) (Result, error) {
	if maxSteps <= 0 {
		maxSteps = e.cfg.WalkMaxSteps
	}
	steps := 0
	for steps < maxSteps {
		reason, err := e.Step(ctx, s, rng)
		if err != nil {
			return Result{}, fmt.Errorf("walk: step %d: %w", steps, err)
		}
		steps++
		if reason != ReasonNone {
			logger.Debug("walk: terminated", "reason", reason, "steps", steps)
			return Result{Trajectory: s.Trajectory, Reason: reason, Steps: steps}, nil
		}
	}
	logger.Debug("walk: exhausted max steps", "steps", steps)
	return Result{Trajectory: s.Trajectory, Reason: s.Reason, Steps: steps}, nil
}
