package rag

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/irisrag/ragcore/internal/docstore"
)

// DefaultDocCacheCapacity is the number of documents' chunks+vectors kept
// resident at once (spec.md §4.9).
const DefaultDocCacheCapacity = 8

// docEntry is one document's chunks and packed vectors, plus the
// chunks.jsonl/embeddings.bin mtimes it was loaded at — the coherency
// check that lets the cache detect a document re-indexed since it was
// cached, even if only one of the two files has been rewritten so far.
type docEntry struct {
	chunks      []docstore.ChunkRecord
	vectors     []byte
	dim         int
	chunksMTime int64
	embMTime    int64
}

// docCache wraps an LRU of docEntry, re-validating against the store's
// on-disk mtime on every lookup.
type docCache struct {
	mu    sync.Mutex
	store *docstore.Store
	lru   *lru.Cache[string, *docEntry]
}

func newDocCache(store *docstore.Store, capacity int) *docCache {
	if capacity <= 0 {
		capacity = DefaultDocCacheCapacity
	}
	c, _ := lru.New[string, *docEntry](capacity)
	return &docCache{store: store, lru: c}
}

// get returns a document's chunks/vectors, loading and caching them on a
// miss or on a stale cache entry. An entry is valid only if both the
// chunks.jsonl and embeddings.bin mtimes still match what it was loaded
// at, and its dimension matches queryDim; otherwise it is dropped and
// reloaded (spec.md §4.9).
func (c *docCache) get(docID string, queryDim int) (*docEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	chunksMTime, embMTime, err := c.store.ModTimes(docID)
	if err != nil {
		return nil, err
	}

	if entry, ok := c.lru.Get(docID); ok &&
		entry.chunksMTime == chunksMTime &&
		entry.embMTime == embMTime &&
		(queryDim == 0 || entry.dim == queryDim) {
		return entry, nil
	}

	chunks, err := c.store.ReadChunks(docID)
	if err != nil {
		return nil, err
	}
	vectors, err := c.store.ReadEmbeddings(docID)
	if err != nil {
		return nil, err
	}
	meta, err := c.store.ReadMeta(docID)
	if err != nil {
		return nil, err
	}

	entry := &docEntry{chunks: chunks, vectors: vectors, dim: meta.Dim, chunksMTime: chunksMTime, embMTime: embMTime}
	c.lru.Add(docID, entry)
	return entry, nil
}

func (c *docCache) invalidate(docID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Remove(docID)
}

func (c *docCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
}
