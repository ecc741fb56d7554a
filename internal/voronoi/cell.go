// Package voronoi implements Voronoi/gap analysis over the relation
// graph's S³ placement: per-composition cell statistics via Monte-Carlo
// sampling, and cross-graph polysemy ranking. spec.md §4.8.
package voronoi

import (
	"context"
	"encoding/binary"
	"fmt"
	"math/rand"
	"sort"

	"github.com/hartonomous/substrate/internal/geometry"
	"github.com/hartonomous/substrate/internal/graph"
	"github.com/hartonomous/substrate/internal/substrate"
	"lukechampine.com/blake3"
)

// BoundaryNeighbor is one neighbor ranked by the fraction of Monte-Carlo
// samples it "won" away from the target cell.
type BoundaryNeighbor struct {
	ID       substrate.Hash
	Text     string
	LostFrac float64
}

// Cell is the result of analyzing one composition's Voronoi region.
type Cell struct {
	Samples             int
	Owned               int
	ApproxVolume         float64
	AvgBoundaryDistance float64
	Eccentricity        float64
	BoundaryNeighbors    []BoundaryNeighbor
}

// Analyze runs the Monte-Carlo Voronoi cell analysis for target: fetches
// its neighborhood, samples n points near its centroid, and attributes
// each sample to whichever neighborhood member is nearest. spec.md §4.8
// steps 1-5.
func Analyze(ctx context.Context, arena *graph.Arena, target substrate.Hash, radius float64, n, maxNeighbors int) (Cell, error) {
	entry, err := arena.Resolve(ctx, target)
	if err != nil {
		return Cell{}, fmt.Errorf("voronoi: resolve target: %w", err)
	}

	members, err := neighborhood(ctx, arena.Persist, entry.Position, geometry.EuclideanRadiusForGeodesic(radius))
	if err != nil {
		return Cell{}, err
	}
	if len(members) == 0 {
		members = []Member{{ID: target, Position: entry.Position}}
	}

	rng := rand.New(rand.NewSource(stableSeed(entry.Text)))

	var ownedOffsets []geometry.S3Point
	lostBy := map[substrate.Hash]int{}
	var boundaryDistSum float64
	lostCount := 0

	for i := 0; i < n; i++ {
		sample := geometry.SampleNear(entry.Position, radius, rng)
		winner, _ := nearest(members, sample)
		if winner.ID == target {
			ownedOffsets = append(ownedOffsets, sample.Sub(entry.Position))
			continue
		}
		lostCount++
		lostBy[winner.ID]++
		boundaryDistSum += geometry.Geodesic(sample, entry.Position)
	}

	owned := len(ownedOffsets)
	cell := Cell{
		Samples:      n,
		Owned:        owned,
		ApproxVolume: 0,
	}
	if n > 0 {
		cell.ApproxVolume = float64(owned) / float64(n)
	}
	if lostCount > 0 {
		cell.AvgBoundaryDistance = boundaryDistSum / float64(lostCount)
	}
	if owned > 10 {
		cell.Eccentricity = geometry.ScatterEccentricity(ownedOffsets)
	}

	cell.BoundaryNeighbors = rankBoundaryNeighbors(ctx, arena, lostBy, lostCount, maxNeighbors)
	return cell, nil
}

// rankBoundaryNeighbors ranks neighbors by the fraction of lost samples
// attributed to them, returning at most maxNeighbors. spec.md §4.8 step 5.
func rankBoundaryNeighbors(ctx context.Context, arena *graph.Arena, lostBy map[substrate.Hash]int, lostCount, maxNeighbors int) []BoundaryNeighbor {
	if lostCount == 0 || len(lostBy) == 0 {
		return nil
	}
	ranked := make([]BoundaryNeighbor, 0, len(lostBy))
	for id, count := range lostBy {
		text := ""
		if entry, err := arena.Resolve(ctx, id); err == nil {
			text = entry.Text
		}
		ranked = append(ranked, BoundaryNeighbor{ID: id, Text: text, LostFrac: float64(count) / float64(lostCount)})
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].LostFrac > ranked[j].LostFrac })
	if len(ranked) > maxNeighbors {
		ranked = ranked[:maxNeighbors]
	}
	return ranked
}

// stableSeed derives a deterministic RNG seed from composition text, so
// repeated analysis of the same composition samples identically. spec.md
// §4.8 step 2: "RNG seeded from a stable hash of the composition text for
// reproducibility."
func stableSeed(text string) int64 {
	sum := blake3.Sum256([]byte(text))
	return int64(binary.BigEndian.Uint64(sum[:8]))
}
