// Package walk implements the generative walk engine: an inference-by-
// traversal sampler over the relation graph with energy-modulated softmax
// candidate selection, top-K pruning, and goal attraction. spec.md §4.6.
package walk

import (
	"github.com/hartonomous/substrate/internal/geometry"
	"github.com/hartonomous/substrate/internal/substrate"
)

// Reason names why a walk terminated. spec.md §4.10: Running -> Terminated
// once, no resumption.
type Reason string

const (
	ReasonNone        Reason = ""
	ReasonOutOfEnergy Reason = "Out of energy"
	ReasonTrapped     Reason = "Trapped"
	ReasonGoalReached Reason = "Goal reached"
)

// State is one walk's mutable traversal state: spec.md §4.6 "State".
type State struct {
	Current       substrate.Hash
	CurrentPos    geometry.S3Point
	Energy        float64
	Trajectory    []substrate.Hash
	VisitCounts   map[substrate.Hash]int
	Recent        []substrate.Hash
	RecentWindow  int
	GoalComp      *substrate.Hash
	GoalPos       *geometry.S3Point
	ContextSeeds  map[substrate.Hash]bool
	Reason        Reason
}

// NewState seeds a walk at start with the given starting energy and recent
// window size; context seeds and a goal may be nil.
func NewState(start substrate.Hash, startPos geometry.S3Point, energy float64, recentWindow int) *State {
	return &State{
		Current:      start,
		CurrentPos:   startPos,
		Energy:       energy,
		Trajectory:   []substrate.Hash{start},
		VisitCounts:  map[substrate.Hash]int{start: 1},
		RecentWindow: recentWindow,
		ContextSeeds: map[substrate.Hash]bool{},
	}
}

// WithGoal attaches a goal composition/position, enabling goal-reached
// termination and the +0.3 context-seed-style attraction bonus applied via
// the scorer.
func (s *State) WithGoal(goal substrate.Hash, pos geometry.S3Point) *State {
	s.GoalComp = &goal
	s.GoalPos = &pos
	return s
}

// WithContextSeeds marks additional prompt seeds that receive a scoring
// bonus without being the walk's start node or goal.
func (s *State) WithContextSeeds(seeds map[substrate.Hash]bool) *State {
	s.ContextSeeds = seeds
	return s
}

// advance pushes next onto the trajectory, bumps its visit count, pushes it
// into the bounded recent window, and decays energy. spec.md §4.6
// "Selection" step 5.
func (s *State) advance(next substrate.Hash, nextPos geometry.S3Point, decay float64) {
	s.Trajectory = append(s.Trajectory, next)
	s.VisitCounts[next]++
	s.Recent = append(s.Recent, next)
	if len(s.Recent) > s.RecentWindow {
		s.Recent = s.Recent[len(s.Recent)-s.RecentWindow:]
	}
	s.Current = next
	s.CurrentPos = nextPos
	s.Energy -= decay
	if s.Energy < 0 {
		s.Energy = 0
	}
}

func (s *State) inRecent(c substrate.Hash) bool {
	for _, r := range s.Recent {
		if r == c {
			return true
		}
	}
	return false
}
