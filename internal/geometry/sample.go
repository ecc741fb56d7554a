package geometry

import (
	"math"
	"math/rand"
)

// SampleNear draws a point within `radius` geodesic distance of center,
// uniform in the angle θ ∼ Uniform(0, radius): Gaussian-sample a tangent
// vector, project it onto the tangent plane at center, normalize it, then
// combine cos(θ)*center + sin(θ)*tangent. spec.md §4.2.
//
// SampleNear(c, 0, rng) == c exactly, satisfying the boundary law in
// spec.md §8.
func SampleNear(center S3Point, radius float64, rng *rand.Rand) S3Point {
	if radius <= 0 {
		return center
	}

	t := S3Point{rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()}
	t = t.Sub(center.Scale(t.Dot(center)))
	t = Normalize(t)

	theta := rng.Float64() * radius
	return Normalize(center.Scale(math.Cos(theta)).Add(t.Scale(math.Sin(theta))))
}
