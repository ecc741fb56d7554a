package reason

import (
	"context"
	"strings"

	"github.com/hartonomous/substrate/internal/config"
	"github.com/hartonomous/substrate/internal/graph"
)

// OrchestrateStream runs the full pipeline to completion, then emits the
// assembled response through emit one whitespace-delimited token at a
// time. emit returning false aborts the stream early. spec.md §4.9's
// stream variant: the orchestrator itself is not incremental, only its
// output delivery is.
func OrchestrateStream(ctx context.Context, arena *graph.Arena, cfg *config.Config, prompt string, history []string, emit func(token string) bool) Result {
	result := Orchestrate(ctx, arena, cfg, prompt, history)
	for _, tok := range strings.Fields(result.Response) {
		if ctx.Err() != nil {
			break
		}
		if !emit(tok) {
			break
		}
	}
	return result
}
