package reason

import (
	"context"
	"sort"

	"github.com/hartonomous/substrate/internal/graph"
	"github.com/hartonomous/substrate/internal/substrate"
)

// solvableMinElo/solvableMinObs are the thresholds spec.md §4.9's
// is_solvable helper names: "at least one edge with ELO > 1500 and
// obs > 10".
const (
	solvableMinElo = 1500
	solvableMinObs = 10

	gapMaxElo = 1200
	gapMaxObs = 5

	factMinElo = 1500
)

// hasStrongEdge reports whether seed has at least one neighbor edge
// clearing the solvable thresholds.
func hasStrongEdge(ctx context.Context, arena *graph.Arena, seed substrate.Hash) (bool, error) {
	edges, err := arena.Neighbors(ctx, seed)
	if err != nil {
		return false, err
	}
	for _, e := range edges {
		if e.Elo > solvableMinElo && e.Observations > solvableMinObs {
			return true, nil
		}
	}
	return false, nil
}

// isSolvable reports whether a majority of seeds have at least one strong
// edge. spec.md §4.9 "is_solvable".
func isSolvable(ctx context.Context, arena *graph.Arena, seeds []substrate.Hash) (bool, error) {
	if len(seeds) == 0 {
		return false, nil
	}
	strong := 0
	for _, s := range seeds {
		ok, err := hasStrongEdge(ctx, arena, s)
		if err != nil {
			return false, err
		}
		if ok {
			strong++
		}
	}
	return strong*2 > len(seeds), nil
}

// decomposeProblem performs a bounded-depth recursive neighbor expansion
// from seed, at each step following the highest-rated outgoing edge.
// spec.md §4.9 "decompose_problem".
func decomposeProblem(ctx context.Context, arena *graph.Arena, seed substrate.Hash, maxDepth int) ([]substrate.Hash, error) {
	var chain []substrate.Hash
	cur := seed
	visited := map[substrate.Hash]bool{seed: true}
	for depth := 0; depth < maxDepth; depth++ {
		edges, err := arena.Neighbors(ctx, cur)
		if err != nil {
			return nil, err
		}
		best, found := bestUnvisited(edges, visited)
		if !found {
			break
		}
		chain = append(chain, best)
		visited[best] = true
		cur = best
	}
	return chain, nil
}

func bestUnvisited(edges []graph.Edge, visited map[substrate.Hash]bool) (substrate.Hash, bool) {
	var best substrate.Hash
	bestElo := -1.0
	found := false
	for _, e := range edges {
		if visited[e.Target] {
			continue
		}
		if e.Elo > bestElo {
			bestElo = e.Elo
			best = e.Target
			found = true
		}
	}
	return best, found
}

// identifyKnowledgeGaps returns neighbors of seed with a rating below
// gapMaxElo or fewer than gapMaxObs observations: related concepts the
// graph has weak confidence about. spec.md §4.9 "identify_knowledge_gaps".
func identifyKnowledgeGaps(ctx context.Context, arena *graph.Arena, seed substrate.Hash) ([]substrate.Hash, error) {
	edges, err := arena.Neighbors(ctx, seed)
	if err != nil {
		return nil, err
	}
	var gaps []substrate.Hash
	for _, e := range edges {
		if e.Elo < gapMaxElo || e.Observations < gapMaxObs {
			gaps = append(gaps, e.Target)
		}
	}
	return gaps, nil
}

// queryKnownFacts returns seed's neighbor edges with elo >= factMinElo,
// sorted strongest first, capped at topN. spec.md §4.9
// "query_known_facts".
func queryKnownFacts(ctx context.Context, arena *graph.Arena, seed substrate.Hash, topN int) ([]graph.Edge, error) {
	edges, err := arena.Neighbors(ctx, seed)
	if err != nil {
		return nil, err
	}
	var facts []graph.Edge
	for _, e := range edges {
		if e.Elo >= factMinElo {
			facts = append(facts, e)
		}
	}
	sort.Slice(facts, func(i, j int) bool { return facts[i].Elo > facts[j].Elo })
	if len(facts) > topN {
		facts = facts[:topN]
	}
	return facts, nil
}

// Orient runs every Gödel-style helper over seeds. spec.md §4.9 phase 2.
func Orient(ctx context.Context, arena *graph.Arena, seeds []substrate.Hash, decomposeDepth, knownFactsTopN int) (OrientResult, error) {
	solvable, err := isSolvable(ctx, arena, seeds)
	if err != nil {
		return OrientResult{}, err
	}

	out := OrientResult{
		Solvable:    solvable,
		SubProblems: map[substrate.Hash][]substrate.Hash{},
		Gaps:        map[substrate.Hash][]substrate.Hash{},
		KnownFacts:  map[substrate.Hash][]graph.Edge{},
	}
	for _, seed := range seeds {
		chain, err := decomposeProblem(ctx, arena, seed, decomposeDepth)
		if err != nil {
			return OrientResult{}, err
		}
		out.SubProblems[seed] = chain

		gaps, err := identifyKnowledgeGaps(ctx, arena, seed)
		if err != nil {
			return OrientResult{}, err
		}
		out.Gaps[seed] = gaps

		facts, err := queryKnownFacts(ctx, arena, seed, knownFactsTopN)
		if err != nil {
			return OrientResult{}, err
		}
		out.KnownFacts[seed] = facts
	}
	return out, nil
}
