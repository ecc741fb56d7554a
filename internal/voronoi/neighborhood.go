package voronoi

import (
	"context"
	"fmt"

	"github.com/hartonomous/substrate/internal/geometry"
	"github.com/hartonomous/substrate/internal/hashid"
	"github.com/hartonomous/substrate/internal/interfaces"
	"github.com/hartonomous/substrate/internal/substrate"
)

// Member is one composition found in a spatial neighborhood query.
type Member struct {
	ID       substrate.Hash
	Position geometry.S3Point
}

// neighborhood fetches every composition whose centroid lies within
// euclideanRadius (the chord-distance bound geometry.EuclideanRadiusForGeodesic
// converts a geodesic radius to) of center: "queryable via standard
// spatial predicates (3-D-distance style)" per spec.md §6 — implemented
// here as a squared-distance WHERE clause, since the schema carries no
// dedicated spatial index and a brute-force bounding predicate is exactly
// what that sentence describes for a relational backend.
func neighborhood(ctx context.Context, persist interfaces.Persistence, center geometry.S3Point, euclideanRadius float64) ([]Member, error) {
	const q = `
SELECT composition.id, physicality.x, physicality.y, physicality.z, physicality.m
FROM composition
JOIN physicality ON physicality.id = composition.physicalityid
WHERE (physicality.x - ?) * (physicality.x - ?) +
      (physicality.y - ?) * (physicality.y - ?) +
      (physicality.z - ?) * (physicality.z - ?) +
      (physicality.m - ?) * (physicality.m - ?) <= ?`

	r2 := euclideanRadius * euclideanRadius
	params := []any{center.X, center.X, center.Y, center.Y, center.Z, center.Z, center.W, center.W, r2}

	var members []Member
	err := persist.Query(ctx, q, params, func(row interfaces.Row) error {
		var idHex string
		var x, y, z, m float64
		if err := row.Scan(&idHex, &x, &y, &z, &m); err != nil {
			return err
		}
		id, err := hashid.FromHex(idHex)
		if err != nil {
			return err
		}
		members = append(members, Member{ID: id, Position: geometry.S3Point{X: x, Y: y, Z: z, W: m}})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: voronoi: neighborhood: %v", substrate.ErrPersistence, err)
	}
	return members, nil
}

func nearest(members []Member, p geometry.S3Point) (Member, float64) {
	best := members[0]
	bestDist := geometry.Geodesic(p, members[0].Position)
	for _, m := range members[1:] {
		if d := geometry.Geodesic(p, m.Position); d < bestDist {
			bestDist = d
			best = m
		}
	}
	return best, bestDist
}
