package reason

import (
	"context"

	"github.com/hartonomous/substrate/internal/config"
	"github.com/hartonomous/substrate/internal/graph"
)

// quickAnswerMinElo/quickAnswerMinObs gate the "high-confidence answer"
// fast path: a single edge this strong is read as the "confidence > 5 in
// an external score" spec.md names without defining an external scoring
// system for — the graph's own ELO/observation pair is the only
// confidence signal available, so the fast path is gated on it directly
// instead of a score this system has no source for.
const (
	quickAnswerMinElo = 1900
	quickAnswerMinObs = 50
)

// QuickAnswer answers with the top-rated neighbor of the first resolved
// seed ("gravitational truth"): confidence 1.0 when that edge clears
// quickAnswerMinElo/quickAnswerMinObs, 0.5 otherwise. It returns ok=false
// only when no seed resolves or the first seed has no neighbor rated at
// least factMinElo, so the caller can run the full Orchestrate pipeline.
// spec.md §4.9's optional quick_answer fast-path.
func QuickAnswer(ctx context.Context, arena *graph.Arena, cfg *config.Config, prompt string) (answer string, confidence float64, ok bool, err error) {
	seeds, err := Observe(ctx, arena, prompt, nil)
	if err != nil {
		return "", 0, false, err
	}
	if len(seeds) == 0 {
		return "", 0, false, nil
	}

	facts, err := queryKnownFacts(ctx, arena, seeds[0], 1)
	if err != nil {
		return "", 0, false, err
	}
	if len(facts) == 0 {
		return "", 0, false, nil
	}

	top := facts[0]
	entry, err := arena.Resolve(ctx, top.Target)
	if err != nil {
		return "", 0, false, err
	}

	if top.Elo >= quickAnswerMinElo && top.Observations >= quickAnswerMinObs {
		return entry.Text, 1.0, true, nil
	}
	// "Gravitational truth": even below the high-confidence bar, the
	// strongest neighbor of the first keyword is still a defensible quick
	// answer, just reported at lower confidence.
	return entry.Text, 0.5, true, nil
}
