// Package rag implements the RagRepository (spec.md §4.9-§4.10, C9): the
// public retrieval API over documents persisted by internal/docstore,
// scored with exact dot-product top-k and cached per document.
package rag

// Hit is one retrieved chunk with its similarity score (spec.md §4.9).
// DocCreatedAt backs the tie-break rule for equal-scoring hits: more
// recently created documents win, then lower ChunkIndex.
type Hit struct {
	DocID        string
	DocName      string
	ChunkID      string
	ChunkIndex   int
	Text         string
	Score        float64
	DocCreatedAt int64
}
