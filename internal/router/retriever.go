package router

import (
	"context"

	"github.com/irisrag/ragcore/internal/docstore"
	"github.com/irisrag/ragcore/internal/rag"
)

// Retriever is the subset of RagRepository the router depends on,
// allowing router tests to run against a fake rather than a real store.
type Retriever interface {
	SnapshotDocs() ([]docstore.DocRecord, error)
	Retrieve(ctx context.Context, query string, topK int, threshold float64, filterDocID ...string) ([]rag.Hit, error)
	FallbackTopChunks(docID string, max int) ([]rag.Hit, error)
}
