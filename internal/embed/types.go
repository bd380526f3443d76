// Package embed implements the EmbedderFacade (spec.md §4.8, C8): a
// lazily-attached embedding backend with L2 normalization and query
// caching in front of it.
package embed

import "context"

// Embedder is the consumed interface ragcore embeds text against. A
// caller attaches a concrete Embedder (a local model server, a static
// hash embedder for tests, etc.) to the facade at runtime.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	ModelName() string
	Available(ctx context.Context) bool
	Close() error
}

// DefaultQueryCacheCapacity is the facade's query-embedding LRU size
// (spec.md §4.8).
const DefaultQueryCacheCapacity = 64
