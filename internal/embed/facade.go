package embed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/irisrag/ragcore/internal/ragerr"
)

// Facade is the EmbedderFacade of spec.md §4.8. It holds no embedder of
// its own: an Embedder is attached at runtime (model discovered, model
// download finished, static fallback selected) and can be swapped out or
// detached, at which point the facade reports not-ready rather than
// erroring the caller's whole pipeline. Every call that reaches the
// attached embedder is serialized through a single Runner goroutine
// (spec.md §5), since the embedder's native state is not safe for
// concurrent use.
type Facade struct {
	mu     sync.RWMutex
	inner  Embedder
	cache  *lru.Cache[string, []float32]
	runner *Runner
}

// NewFacade builds a Facade with no embedder attached and a query cache
// of the given capacity (0 uses DefaultQueryCacheCapacity).
func NewFacade(queryCacheCapacity int) *Facade {
	if queryCacheCapacity <= 0 {
		queryCacheCapacity = DefaultQueryCacheCapacity
	}
	cache, _ := lru.New[string, []float32](queryCacheCapacity)
	return &Facade{cache: cache, runner: NewRunner()}
}

// Close stops the facade's runner goroutine. The facade must not be
// used after Close returns.
func (f *Facade) Close() {
	f.runner.Close()
}

// Attach installs e as the active embedder, replacing and not closing
// any previously attached embedder (the caller owns that lifecycle).
// Attaching a new embedder with a different dimension invalidates the
// query cache, since cached vectors from the old embedder are no longer
// comparable to anything this facade will produce going forward.
func (f *Facade) Attach(e Embedder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inner != nil && e != nil && f.inner.Dimensions() != e.Dimensions() {
		f.cache.Purge()
	}
	f.inner = e
}

// Detach removes the active embedder. Subsequent Embed calls fail with
// CodeEmbedderNotAttached until Attach is called again.
func (f *Facade) Detach() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inner = nil
	f.cache.Purge()
}

// Attached reports whether an embedder is currently installed.
func (f *Facade) Attached() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.inner != nil
}

// Ready reports whether the attached embedder is attached and responds
// Available for the given context.
func (f *Facade) Ready(ctx context.Context) bool {
	f.mu.RLock()
	inner := f.inner
	f.mu.RUnlock()
	return inner != nil && inner.Available(ctx)
}

// Dimensions returns the attached embedder's vector width, or 0 if none
// is attached.
func (f *Facade) Dimensions() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.inner == nil {
		return 0
	}
	return f.inner.Dimensions()
}

func (f *Facade) current() (Embedder, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.inner == nil {
		return nil, ragerr.New(ragerr.CodeEmbedderNotAttached, "no embedder attached", nil)
	}
	return f.inner, nil
}

// EmbedQuery embeds a single user query, going through the facade's LRU
// cache keyed on text+model (spec.md §4.8, §4.9 retrieval path). The
// returned vector is L2-normalized.
func (f *Facade) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	inner, err := f.current()
	if err != nil {
		return nil, err
	}
	if !inner.Available(ctx) {
		return nil, ragerr.New(ragerr.CodeEmbedderNotReady, "embedder not ready", nil)
	}

	key := cacheKey(text, inner.ModelName())
	if vec, ok := f.cache.Get(key); ok {
		return vec, nil
	}

	result, err := f.runner.Submit(ctx, func() (any, error) {
		return inner.Embed(ctx, text)
	})
	if err != nil {
		return nil, ragerr.Wrap(ragerr.CodeEmbeddingFailed, err)
	}
	vec := l2Normalize(result.([]float32))
	f.cache.Add(key, vec)
	return vec, nil
}

// EmbedChunks embeds a batch of document chunks at index time. Chunk
// embeddings are not cached — each is written once to the store and
// never re-embedded unless the document is re-indexed.
func (f *Facade) EmbedChunks(ctx context.Context, texts []string) ([][]float32, error) {
	inner, err := f.current()
	if err != nil {
		return nil, err
	}
	if !inner.Available(ctx) {
		return nil, ragerr.New(ragerr.CodeEmbedderNotReady, "embedder not ready", nil)
	}
	result, err := f.runner.Submit(ctx, func() (any, error) {
		return inner.EmbedBatch(ctx, texts)
	})
	if err != nil {
		return nil, ragerr.Wrap(ragerr.CodeEmbeddingFailed, err)
	}
	raw := result.([][]float32)
	out := make([][]float32, len(raw))
	for i, v := range raw {
		out[i] = l2Normalize(v)
	}
	return out, nil
}

func cacheKey(text, model string) string {
	h := sha256.Sum256([]byte(model + "\x00" + text))
	return hex.EncodeToString(h[:])
}
