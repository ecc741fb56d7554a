package reason

import (
	"context"
	"fmt"

	"github.com/hartonomous/substrate/internal/config"
	"github.com/hartonomous/substrate/internal/graph"
	"github.com/hartonomous/substrate/internal/logger"
	"github.com/hartonomous/substrate/internal/substrate"
)

const (
	decomposeDepth  = 4
	knownFactsTopN  = 3
	degradedConfidence = 0.1
)

// Orchestrate runs the full five-phase reasoning pipeline and recovers
// any phase error into a degraded Result rather than propagating it,
// matching spec.md §7's top-level recovery policy. spec.md §4.9.
func Orchestrate(ctx context.Context, arena *graph.Arena, cfg *config.Config, prompt string, history []string) Result {
	res, err := orchestrate(ctx, arena, cfg, prompt, history)
	if err != nil {
		logger.Error("reason: orchestrate failed, returning degraded result", "error", err)
		return Result{
			Response:       "I don't have enough grounded information to answer that.",
			Confidence:     degradedConfidence,
			ReasoningTrace: []string{fmt.Sprintf("error: %v", err)},
		}
	}
	return res
}

func orchestrate(ctx context.Context, arena *graph.Arena, cfg *config.Config, prompt string, history []string) (Result, error) {
	trace := []string{}

	seeds, err := Observe(ctx, arena, prompt, history)
	if err != nil {
		return Result{}, fmt.Errorf("reason: observe: %w", err)
	}
	if len(seeds) == 0 {
		return Result{}, fmt.Errorf("%w: reason: no seeds resolved from prompt", substrate.ErrNotFound)
	}
	trace = append(trace, fmt.Sprintf("observed %d seed(s)", len(seeds)))

	orient, err := Orient(ctx, arena, seeds, decomposeDepth, knownFactsTopN)
	if err != nil {
		return Result{}, fmt.Errorf("reason: orient: %w", err)
	}
	trace = append(trace, fmt.Sprintf("solvable=%v", orient.Solvable))

	intentions := Decide(orient, seeds)
	trace = append(trace, fmt.Sprintf("decided %d intention(s)", len(intentions)))

	hypotheses, err := Act(ctx, arena, cfg, seeds, intentions)
	if err != nil {
		return Result{}, fmt.Errorf("reason: act: %w", err)
	}

	best, err := Reflect(ctx, arena, cfg, seeds, intentions, hypotheses)
	if err != nil {
		return Result{}, fmt.Errorf("reason: reflect: %w", err)
	}
	trace = append(trace, fmt.Sprintf("best hypothesis quality=%.3f over %d path(s)", best.Quality, len(best.Paths)))

	response, err := Assemble(ctx, arena, cfg, seeds, best)
	if err != nil {
		return Result{}, fmt.Errorf("reason: assemble: %w", err)
	}

	confidence := best.Quality
	if confidence <= 0 {
		confidence = degradedConfidence
	}

	result := Result{
		Response:   response,
		Confidence: confidence,
		Hypotheses: hypotheses,
	}
	if cfg.IncludeReasoningTrace {
		result.ReasoningTrace = trace
	}
	return result, nil
}
