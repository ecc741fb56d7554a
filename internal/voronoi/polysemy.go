package voronoi

import (
	"context"
	"sort"

	"github.com/hartonomous/substrate/internal/geometry"
	"github.com/hartonomous/substrate/internal/graph"
	"github.com/hartonomous/substrate/internal/substrate"
)

// PolysemousConcept is one composition ranked by how scattered its
// semantic neighborhood is.
type PolysemousConcept struct {
	ID     substrate.Hash
	Text   string
	Spread float64
}

// minProjections is spec.md's "≥2 model projections" threshold, read here
// as "at least 2 distinct neighbor edges": the schema gives every
// composition exactly one canonical centroid (derived once from its atom
// sequence, not per-model), so there is no stored per-model projection to
// compare directly. A composition whose senses differ by model/context
// instead shows up as a neighbor set that scatters across the sphere
// rather than clustering — the mean pairwise geodesic distance among a
// composition's own neighbor positions is the closest available proxy for
// the spread spec.md's pairwise-geodesic ranking describes. See DESIGN.md.
const minProjections = 2

// FindPolysemous ranks candidates by the mean pairwise geodesic distance
// among their neighbors' positions, keeping only those with at least
// minProjections neighbors and spread above minSpread, returning the top
// topN. spec.md §4.8 "Find polysemous concepts".
func FindPolysemous(ctx context.Context, arena *graph.Arena, candidates []substrate.Hash, minSpread float64, topN int) ([]PolysemousConcept, error) {
	var out []PolysemousConcept
	for _, id := range candidates {
		edges, err := arena.Neighbors(ctx, id)
		if err != nil {
			return nil, err
		}
		if len(edges) < minProjections {
			continue
		}

		positions := make([]geometry.S3Point, 0, len(edges))
		for _, e := range edges {
			entry, err := arena.Resolve(ctx, e.Target)
			if err != nil {
				continue
			}
			positions = append(positions, entry.Position)
		}
		if len(positions) < minProjections {
			continue
		}

		spread := meanPairwiseGeodesic(positions)
		if spread < minSpread {
			continue
		}

		text := ""
		if entry, err := arena.Resolve(ctx, id); err == nil {
			text = entry.Text
		}
		out = append(out, PolysemousConcept{ID: id, Text: text, Spread: spread})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Spread > out[j].Spread })
	if len(out) > topN {
		out = out[:topN]
	}
	return out, nil
}

func meanPairwiseGeodesic(points []geometry.S3Point) float64 {
	if len(points) < 2 {
		return 0
	}
	var sum float64
	pairs := 0
	for i := 0; i < len(points); i++ {
		for j := i + 1; j < len(points); j++ {
			sum += geometry.Geodesic(points[i], points[j])
			pairs++
		}
	}
	return sum / float64(pairs)
}
