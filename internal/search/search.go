// Package search implements the A* and multi-goal pathfinding engine over
// the relation graph arena. spec.md §4.7.
package search

import (
	"container/heap"
	"context"
	"fmt"
	"math"

	"github.com/hartonomous/substrate/internal/config"
	"github.com/hartonomous/substrate/internal/geometry"
	"github.com/hartonomous/substrate/internal/graph"
	"github.com/hartonomous/substrate/internal/logger"
	"github.com/hartonomous/substrate/internal/substrate"
)

// Result is a completed (found or exhausted) search.
type Result struct {
	Path        []substrate.Hash
	Found       bool
	Expansions  int
	AvgElo      float64
	TotalObs    uint64
}

type nodeState struct {
	g         float64
	parent    substrate.Hash
	hasParent bool
	edgeElo   float64
	edgeObs   uint64
}

// goalTest reports whether node is a goal and, if so, the position used to
// compute the heuristic is no longer needed (goal already reached).
type goalTest func(substrate.Hash) bool

// heuristicFunc returns h(n) given n's resolved position (or false if
// unresolved).
type heuristicFunc func(pos geometry.S3Point, known bool) float64

const epsilon = 1e-9

// Search runs single-goal A* from start to goal.
func Search(ctx context.Context, arena *graph.Arena, cfg *config.Config, start, goal substrate.Hash) (Result, error) {
	goalEntry, err := arena.Resolve(ctx, goal)
	if err != nil {
		return Result{}, fmt.Errorf("search: resolve goal: %w", err)
	}
	h := func(pos geometry.S3Point, known bool) float64 {
		return heuristic(pos, goalEntry.Position, known)
	}
	return run(ctx, arena, cfg, start, func(n substrate.Hash) bool { return n == goal }, h)
}

// MultiGoal runs A* with heuristic h(n) = min over goals of geodesic
// distance, terminating on entering any goal set member.
func MultiGoal(ctx context.Context, arena *graph.Arena, cfg *config.Config, start substrate.Hash, goals map[substrate.Hash]bool) (Result, error) {
	if len(goals) == 0 {
		return Result{}, fmt.Errorf("%w: search: empty goal set", substrate.ErrInvalidInput)
	}
	goalPositions := make([]geometry.S3Point, 0, len(goals))
	for g := range goals {
		entry, err := arena.Resolve(ctx, g)
		if err != nil {
			return Result{}, fmt.Errorf("search: resolve goal: %w", err)
		}
		goalPositions = append(goalPositions, entry.Position)
	}
	h := func(pos geometry.S3Point, known bool) float64 {
		if !known {
			return worstCaseHeuristic
		}
		best := math.Inf(1)
		for _, gp := range goalPositions {
			if d := geometry.Geodesic(pos, gp); d < best {
				best = d
			}
		}
		return best
	}
	return run(ctx, arena, cfg, start, func(n substrate.Hash) bool { return goals[n] }, h)
}

// SearchByText resolves startText/goalText to composition ids (exact, then
// case-insensitive lookup) and runs Search.
func SearchByText(ctx context.Context, arena *graph.Arena, cfg *config.Config, startText, goalText string) (Result, error) {
	start, ok, err := arena.ResolveText(ctx, startText)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{}, fmt.Errorf("%w: search: start text %q", substrate.ErrNotFound, startText)
	}
	goal, ok, err := arena.ResolveText(ctx, goalText)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{}, fmt.Errorf("%w: search: goal text %q", substrate.ErrNotFound, goalText)
	}
	return Search(ctx, arena, cfg, start, goal)
}

// run is the shared A* loop. spec.md §4.7 "Algorithm" steps 1-3.
func run(ctx context.Context, arena *graph.Arena, cfg *config.Config, start substrate.Hash, isGoal goalTest, h heuristicFunc) (Result, error) {
	startEntry, err := arena.Resolve(ctx, start)
	if err != nil {
		return Result{}, fmt.Errorf("search: resolve start: %w", err)
	}

	nodes := map[substrate.Hash]*nodeState{start: {g: 0}}
	open := &openHeap{{f: cfg.HeuristicWeight * h(startEntry.Position, true), g: 0, node: start}}
	heap.Init(open)

	maxExpansions := cfg.MaxExpansions
	if maxExpansions <= 0 {
		maxExpansions = 10000
	}

	expansions := 0
	for open.Len() > 0 && expansions < maxExpansions {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		item := heap.Pop(open).(openItem)
		ns := nodes[item.node]
		if item.f > ns.g+cfg.HeuristicWeight*math.Pi+epsilon {
			continue // stale: a cheaper path to this node was already relaxed
		}

		if isGoal(item.node) {
			return reconstruct(nodes, item.node, expansions), nil
		}
		expansions++

		edges, err := arena.Neighbors(ctx, item.node)
		if err != nil {
			return Result{}, err
		}
		for _, e := range edges {
			elo := e.Elo
			obs := e.Observations
			if elo < cfg.MinElo || obs < cfg.MinObservations {
				continue
			}

			gPrime := ns.g + edgeCost(elo, obs)
			next, ok := nodes[e.Target]
			if ok && gPrime >= next.g-epsilon {
				continue
			}
			if !ok {
				next = &nodeState{}
				nodes[e.Target] = next
			}
			next.g = gPrime
			next.parent = item.node
			next.hasParent = true
			next.edgeElo = elo
			next.edgeObs = obs

			entry, resolveErr := arena.Resolve(ctx, e.Target)
			known := resolveErr == nil
			var pos geometry.S3Point
			if known {
				pos = entry.Position
			}
			f := gPrime + cfg.HeuristicWeight*h(pos, known)
			heap.Push(open, openItem{f: f, g: gPrime, node: e.Target})
		}
	}

	logger.Debug("search: exhausted", "expansions", expansions)
	return Result{Found: false, Expansions: expansions}, nil
}

// reconstruct walks parent pointers back to the start and computes path
// statistics: average incoming-edge ELO and summed observations over the
// resolved path. spec.md §4.7 "Path statistics".
func reconstruct(nodes map[substrate.Hash]*nodeState, goal substrate.Hash, expansions int) Result {
	var path []substrate.Hash
	var eloSum float64
	var obsSum uint64
	edgeCount := 0

	cur := goal
	for {
		path = append(path, cur)
		ns := nodes[cur]
		if !ns.hasParent {
			break
		}
		eloSum += ns.edgeElo
		obsSum += ns.edgeObs
		edgeCount++
		cur = ns.parent
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	avgElo := 0.0
	if edgeCount > 0 {
		avgElo = eloSum / float64(edgeCount)
	}
	return Result{Path: path, Found: true, Expansions: expansions, AvgElo: avgElo, TotalObs: obsSum}
}
