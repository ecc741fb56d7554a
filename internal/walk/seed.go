package walk

import (
	"context"
	"strings"
	"unicode"

	"github.com/hartonomous/substrate/internal/graph"
	"github.com/hartonomous/substrate/internal/ingest"
	"github.com/hartonomous/substrate/internal/substrate"
)

// Seed resolves prompt to a starting State: extracts content words, looks
// each up in the composition table (exact, then lower-case), picks the
// seed with the most direct graph connections to the other seeds as the
// start node, and keeps the rest as context seeds. Falls back to the
// highest-rated global composition if no seed resolves. spec.md §4.6
// "Generation from a free-text prompt".
func Seed(ctx context.Context, arena *graph.Arena, prompt string, energy float64, recentWindow int) (*State, error) {
	var seeds []substrate.Hash
	for _, tok := range ingest.Words(prompt) {
		if ingest.IsFunctionWord(tok) {
			continue
		}
		id, ok, err := arena.ResolveText(ctx, tok)
		if err != nil {
			return nil, err
		}
		if ok {
			seeds = append(seeds, id)
		}
	}

	if len(seeds) == 0 {
		fallback, err := arena.HighestRated(ctx)
		if err != nil {
			return nil, err
		}
		entry, err := arena.Resolve(ctx, fallback)
		if err != nil {
			return nil, err
		}
		return NewState(fallback, entry.Position, energy, recentWindow), nil
	}

	start, err := mostConnected(ctx, arena, seeds)
	if err != nil {
		return nil, err
	}

	startEntry, err := arena.Resolve(ctx, start)
	if err != nil {
		return nil, err
	}
	s := NewState(start, startEntry.Position, energy, recentWindow)

	contextSeeds := map[substrate.Hash]bool{}
	for _, seed := range seeds {
		if seed != start {
			contextSeeds[seed] = true
		}
	}
	return s.WithContextSeeds(contextSeeds), nil
}

// mostConnected returns the seed with the most direct edges to the other
// seeds in the set, breaking ties by earliest occurrence in seeds.
func mostConnected(ctx context.Context, arena *graph.Arena, seeds []substrate.Hash) (substrate.Hash, error) {
	if len(seeds) == 1 {
		return seeds[0], nil
	}
	seedSet := map[substrate.Hash]bool{}
	for _, s := range seeds {
		seedSet[s] = true
	}

	best := seeds[0]
	bestCount := -1
	for _, seed := range seeds {
		edges, err := arena.Neighbors(ctx, seed)
		if err != nil {
			return substrate.Hash{}, err
		}
		count := 0
		for _, e := range edges {
			if e.Target != seed && seedSet[e.Target] {
				count++
			}
		}
		if count > bestCount {
			bestCount = count
			best = seed
		}
	}
	return best, nil
}

// Assemble joins resolved token texts into a sentence: capitalizes the
// first letter, glues punctuation without a leading space, and appends a
// terminal period if none of .!? already ends the string. spec.md §4.6
// "Assembly to text".
func Assemble(tokens []string) string {
	if len(tokens) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, tok := range tokens {
		if i > 0 && !isGluedPunctuation(tok) {
			sb.WriteByte(' ')
		}
		sb.WriteString(tok)
	}
	out := sb.String()
	out = capitalizeFirst(out)
	if !strings.ContainsAny(out[len(out)-1:], ".!?") {
		out += "."
	}
	return out
}

func isGluedPunctuation(tok string) bool {
	for _, r := range tok {
		if !unicode.IsPunct(r) {
			return false
		}
	}
	return len(tok) > 0
}

func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
