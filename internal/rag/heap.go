package rag

// scoredHit pairs a Hit with its score for the top-k min-heap below.
type scoredHit struct {
	hit Hit
}

// minHeap keeps the k best-scoring hits seen so far: the root is always
// the worst of the current top-k, so a new candidate only needs to beat
// the root to earn a place (spec.md §4.9 exact top-k retrieval).
type minHeap []scoredHit

func (h minHeap) Len() int { return len(h) }

// Less ranks the heap root worst-first. Equal scores break ties by
// spec.md §4.9: the more recently created document wins, then the
// lower chunk_index — so the worse (heap-root) side of an equal-score
// tie is the older document, or the higher chunk_index within the same
// document.
func (h minHeap) Less(i, j int) bool {
	a, b := h[i].hit, h[j].hit
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	if a.DocCreatedAt != b.DocCreatedAt {
		return a.DocCreatedAt < b.DocCreatedAt
	}
	return a.ChunkIndex > b.ChunkIndex
}
func (h minHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x any)   { *h = append(*h, x.(scoredHit)) }
func (h *minHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
