package search

import "github.com/hartonomous/substrate/internal/substrate"

// openItem is one entry in the A* open set: f is the priority (g + w_h·h),
// g is the best known cost to node at the time this item was pushed. A
// node can appear multiple times in the heap under different g values;
// pop-time staleness is checked against the current best g(node).
type openItem struct {
	f, g float64
	node substrate.Hash
}

// openHeap is a binary min-heap over openItem.f, grounded on the standard
// library's container/heap interface the way _examples/other_examples'
// Protocol-Lattice-go-agent memory engine uses it for its own priority
// queue — no third-party heap implementation in the retrieved pack
// specializes in this, so container/heap is the idiomatic choice here.
type openHeap []openItem

func (h openHeap) Len() int            { return len(h) }
func (h openHeap) Less(i, j int) bool  { return h[i].f < h[j].f }
func (h openHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *openHeap) Push(x any)         { *h = append(*h, x.(openItem)) }
func (h *openHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
