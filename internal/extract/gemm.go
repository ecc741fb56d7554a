package extract

// neighborPair is one accepted (i, j) row-index pair from a layer's blocked
// GEMM scan, with its cosine similarity.
type neighborPair struct {
	i, j int
	sim  float64
}

// blockedGEMMNeighbors processes rows in blocks of blockSize, computing
// each block's similarity against the full matrix as one logical
// Q_block · Kᵀ product, then scans row by row keeping the top K entries
// above threshold. spec.md §4.5 step 3. The block structure mirrors a real
// GEMM's cache-blocking even though Go's lack of a BLAS call here means the
// per-element work is identical either way — what the blocking preserves is
// the shape of the algorithm the spec describes, for a reader comparing the
// two.
func blockedGEMMNeighbors(rows [][]float32, threshold float64, k, blockSize int) []neighborPair {
	n := len(rows)
	if n == 0 || k <= 0 {
		return nil
	}
	if blockSize <= 0 {
		blockSize = n
	}

	var out []neighborPair
	for blockStart := 0; blockStart < n; blockStart += blockSize {
		blockEnd := blockStart + blockSize
		if blockEnd > n {
			blockEnd = n
		}
		for i := blockStart; i < blockEnd; i++ {
			top := newTopK(k)
			for j := 0; j < n; j++ {
				if j == i {
					continue
				}
				sim := cosineSim(rows[i], rows[j])
				if sim >= threshold {
					top.offer(j, sim)
				}
			}
			for _, c := range top.sorted() {
				out = append(out, neighborPair{i: i, j: c.j, sim: c.sim})
			}
		}
	}
	return out
}

type topKCandidate struct {
	j   int
	sim float64
}

// topK keeps the best-K candidates seen so far by similarity, breaking ties
// by preferring the lower target index — spec.md §4.5 "Ordering/tie-breaks:
// ... ties in similarity are broken by lower target index (stable)."
type topK struct {
	k    int
	best []topKCandidate
}

func newTopK(k int) *topK {
	return &topK{k: k}
}

func (t *topK) offer(j int, sim float64) {
	if len(t.best) < t.k {
		t.best = insertSorted(t.best, topKCandidate{j, sim})
		return
	}
	worst := t.best[len(t.best)-1]
	if better(topKCandidate{j, sim}, worst) {
		t.best = insertSorted(t.best[:len(t.best)-1], topKCandidate{j, sim})
	}
}

// better reports whether a should be ranked ahead of b: higher similarity
// wins, ties go to the lower target index.
func better(a, b topKCandidate) bool {
	if a.sim != b.sim {
		return a.sim > b.sim
	}
	return a.j < b.j
}

func insertSorted(sorted []topKCandidate, c topKCandidate) []topKCandidate {
	pos := len(sorted)
	for pos > 0 && better(c, sorted[pos-1]) {
		pos--
	}
	out := make([]topKCandidate, 0, len(sorted)+1)
	out = append(out, sorted[:pos]...)
	out = append(out, c)
	out = append(out, sorted[pos:]...)
	return out
}

func (t *topK) sorted() []topKCandidate {
	return t.best
}
