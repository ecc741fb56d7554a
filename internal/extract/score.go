package extract

import "github.com/hartonomous/substrate/internal/model"

// sampleSize is the "up to 512 rows" sample spec.md §4.5 step 2 names.
const sampleSize = 512

// qualityThreshold returns the kind-specific minimum mean max-cosine-
// similarity a layer must clear to be kept. spec.md §4.5 step 2: "attention
// < 0.05, FFN < 0.10" are skipped. The embedding layer has no quality gate
// in the spec, so callers never consult this for model.KindEmbedding.
func qualityThreshold(kind model.Kind) float64 {
	switch kind {
	case model.KindAttention:
		return 0.05
	case model.KindFFN:
		return 0.10
	default:
		return 0
	}
}

// scoreLayerQuality samples up to sampleSize rows, and for each one computes
// its maximum cosine similarity against a strided sample of the other rows,
// returning the mean of those maxima. A collapsed layer (every row nearly
// identical) scores high; a noise layer (rows nearly orthogonal) scores low
// — matching spec.md §4.5 step 2's "collapsed/noise" framing, where only
// the noise end is actually gated (a high score never fails the threshold).
func scoreLayerQuality(rows [][]float32) float64 {
	n := len(rows)
	if n < 2 {
		return 0
	}

	sampleN := n
	if sampleN > sampleSize {
		sampleN = sampleSize
	}
	stride := n / sampleN
	if stride < 1 {
		stride = 1
	}

	sampleIdx := make([]int, 0, sampleN)
	for i := 0; i < n && len(sampleIdx) < sampleN; i += stride {
		sampleIdx = append(sampleIdx, i)
	}

	var total float64
	for _, i := range sampleIdx {
		best := 0.0
		for _, j := range sampleIdx {
			if i == j {
				continue
			}
			if sim := cosineSim(rows[i], rows[j]); sim > best {
				best = sim
			}
		}
		total += best
	}
	return total / float64(len(sampleIdx))
}
