package search

import (
	"math"

	"github.com/hartonomous/substrate/internal/geometry"
)

// edgeCost implements spec.md's A* edge-cost formula: good edges (high
// ELO, many observations) are cheap. elo_norm and obs_norm are both
// clamped away from zero so a single very weak edge never produces an
// infinite or NaN cost.
func edgeCost(elo float64, observations uint64) float64 {
	eloNorm := geometry.Clamp((elo-800)/1200, 0.01, 1)
	obsNorm := geometry.Clamp(math.Log(float64(observations)+1)/math.Log(1000), 0.01, 1)
	return 1 / (eloNorm * obsNorm)
}

// worstCaseHeuristic is used when a candidate node's position is unknown:
// the geodesic diameter of S³ is π, so that is the only heuristic value
// that stays admissible without any position information.
const worstCaseHeuristic = math.Pi

func heuristic(pos, goalPos geometry.S3Point, known bool) float64 {
	if !known {
		return worstCaseHeuristic
	}
	return geometry.Geodesic(pos, goalPos)
}
