package geometry

import "math"

// Centroid returns the normalized mean of points: normalize(mean(points)).
// An empty input returns the canonical basepoint. spec.md §4.2, and the
// composition/relation "centroid equals normalized mean" invariant of §3.
func Centroid(points []S3Point) S3Point {
	if len(points) == 0 {
		return S3Point{1, 0, 0, 0}
	}
	var sum S3Point
	for _, p := range points {
		sum = sum.Add(p)
	}
	mean := sum.Scale(1 / float64(len(points)))
	return Normalize(mean)
}

// Midpoint returns the normalized mean of exactly two points; used by the
// model extractor to derive a relation's physicality from its two endpoint
// composition centroids (spec.md §4.5 step 5).
func Midpoint(a, b S3Point) S3Point {
	return Centroid([]S3Point{a, b})
}

// ScatterEccentricity computes 1 - lambda_min/lambda_max of the 4x4 scatter
// (covariance) matrix of offsets from their own mean, used by the Voronoi
// analysis to report cell eccentricity (spec.md §4.8 step 4). Offsets with
// fewer than 2 points return 0.
func ScatterEccentricity(offsets []S3Point) float64 {
	if len(offsets) < 2 {
		return 0
	}
	var mean S3Point
	for _, o := range offsets {
		mean = mean.Add(o)
	}
	mean = mean.Scale(1 / float64(len(offsets)))

	var cov [4][4]float64
	comp := func(p S3Point) [4]float64 { return [4]float64{p.X, p.Y, p.Z, p.W} }
	m := comp(mean)
	for _, o := range offsets {
		v := comp(o)
		for i := 0; i < 4; i++ {
			for j := 0; j < 4; j++ {
				d0 := v[i] - m[i]
				d1 := v[j] - m[j]
				cov[i][j] += d0 * d1
			}
		}
	}
	n := float64(len(offsets))
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			cov[i][j] /= n
		}
	}

	lambdaMin, lambdaMax := eigBoundsSymmetric(cov)
	if lambdaMax <= 0 {
		return 0
	}
	return 1 - lambdaMin/lambdaMax
}

// eigBoundsSymmetric estimates the smallest and largest eigenvalues of a
// symmetric 4x4 matrix via power iteration (largest) and inverse power
// iteration approximated by shifted power iteration (smallest), which is
// all the eccentricity ratio needs — we don't require the eigenvectors.
func eigBoundsSymmetric(m [4][4]float64) (lambdaMin, lambdaMax float64) {
	trace := m[0][0] + m[1][1] + m[2][2] + m[3][3]
	if trace <= 0 {
		return 0, 0
	}

	mul := func(v [4]float64) [4]float64 {
		var out [4]float64
		for i := 0; i < 4; i++ {
			for j := 0; j < 4; j++ {
				out[i] += m[i][j] * v[j]
			}
		}
		return out
	}
	norm := func(v [4]float64) float64 {
		s := 0.0
		for _, x := range v {
			s += x * x
		}
		return math.Sqrt(s)
	}
	scale := func(v [4]float64, s float64) [4]float64 {
		var out [4]float64
		for i := range v {
			out[i] = v[i] * s
		}
		return out
	}

	v := [4]float64{1, 1, 1, 1}
	var lambda float64
	for i := 0; i < 50; i++ {
		v = mul(v)
		n := norm(v)
		if n == 0 {
			break
		}
		v = scale(v, 1/n)
		lambda = n
	}
	lambdaMax = lambda

	// Shifted power iteration on (lambdaMax*I - m) converges to the
	// eigenvector of m's smallest eigenvalue.
	shifted := func(v [4]float64) [4]float64 {
		mv := mul(v)
		var out [4]float64
		for i := range v {
			out[i] = lambdaMax*v[i] - mv[i]
		}
		return out
	}
	v = [4]float64{1, -1, 1, -1}
	var shiftedLambda float64
	for i := 0; i < 50; i++ {
		v = shifted(v)
		n := norm(v)
		if n == 0 {
			break
		}
		v = scale(v, 1/n)
		shiftedLambda = n
	}
	lambdaMin = lambdaMax - shiftedLambda
	if lambdaMin < 0 {
		lambdaMin = 0
	}
	return lambdaMin, lambdaMax
}

