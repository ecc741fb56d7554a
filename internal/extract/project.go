package extract

import "math"

// projectThroughWeight computes embed @ weightᵀ, matching the HuggingFace
// nn.Linear convention that a projection weight is stored as
// [out_features, in_features] and applied as y = x @ Wᵀ. Returns ok=false
// when embed's column count doesn't match weight's column count (in_features),
// which the distilled spec doesn't address but a real checkpoint's down_proj
// (intermediate_size -> hidden_size) can legitimately trip. applyRelu is set
// for FFN layers per spec.md §4.5 step 1 ("ReLU is applied for FFN before
// normalization").
func projectThroughWeight(embed, weight [][]float32, applyRelu bool) ([][]float32, bool) {
	if len(embed) == 0 || len(weight) == 0 {
		return nil, false
	}
	inFeatures := len(embed[0])
	if len(weight[0]) != inFeatures {
		return nil, false
	}
	outFeatures := len(weight)

	out := make([][]float32, len(embed))
	for r, row := range embed {
		projected := make([]float32, outFeatures)
		for o, wrow := range weight {
			var sum float32
			for k := 0; k < inFeatures; k++ {
				sum += row[k] * wrow[k]
			}
			if applyRelu && sum < 0 {
				sum = 0
			}
			projected[o] = sum
		}
		out[r] = projected
	}
	return out, true
}

// rowNormalizeAll divides each row by its own Euclidean norm in place. Rows
// with zero norm are left as all-zero, which cosineSim then treats as
// similarity 0 against everything (spec.md's "row /= ‖row‖").
func rowNormalizeAll(rows [][]float32) {
	for i, row := range rows {
		var sumSq float64
		for _, v := range row {
			sumSq += float64(v) * float64(v)
		}
		norm := math.Sqrt(sumSq)
		if norm == 0 {
			continue
		}
		for j, v := range row {
			rows[i][j] = float32(float64(v) / norm)
		}
	}
}

// cosineSim computes the dot product of two already row-normalized vectors,
// which is their cosine similarity.
func cosineSim(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}
