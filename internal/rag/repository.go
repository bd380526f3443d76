package rag

import (
	"container/heap"
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/irisrag/ragcore/internal/docstore"
	"github.com/irisrag/ragcore/internal/embed"
	"github.com/irisrag/ragcore/internal/index"
	"github.com/irisrag/ragcore/internal/ragerr"
	"github.com/irisrag/ragcore/internal/vectormath"
)

// Repository is the RagRepository of spec.md §4.9-§4.10: add/remove
// documents, retrieve top-k chunks for a query, and assemble a
// citation-tagged context block for a prompt.
type Repository struct {
	store    *docstore.Store
	embedder *embed.Facade
	pool     *index.Pool
	cache    *docCache
	logger   *slog.Logger
}

// New builds a Repository over an already-open Store, Facade, and
// indexing Pool.
func New(store *docstore.Store, embedder *embed.Facade, pool *index.Pool, docCacheCapacity int, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		store:    store,
		embedder: embedder,
		pool:     pool,
		cache:    newDocCache(store, docCacheCapacity),
		logger:   logger,
	}
}

// AddDocuments submits jobs to the indexing pool and invalidates any
// stale cache entries for documents that succeeded.
func (r *Repository) AddDocuments(ctx context.Context, jobs []index.Job) []index.Result {
	results := r.pool.Run(ctx, jobs)
	for _, res := range results {
		if res.Err == nil {
			r.cache.invalidate(res.DocID)
		}
	}
	return results
}

// RemoveDocument deletes a document from the store and evicts it from
// cache.
func (r *Repository) RemoveDocument(docID string) error {
	if err := r.store.DeleteDoc(docID); err != nil {
		return err
	}
	r.cache.invalidate(docID)
	return nil
}

// ClearAll removes every document and purges the cache.
func (r *Repository) ClearAll() error {
	if err := r.store.DeleteAll(); err != nil {
		return err
	}
	r.cache.clear()
	return nil
}

// SnapshotDocs returns every known document's metadata.
func (r *Repository) SnapshotDocs() ([]docstore.DocRecord, error) {
	return r.store.ListDocs()
}

// ObserveDocs polls SnapshotDocs every period. The first successful poll
// is always emitted on the returned channel; after that it emits only
// when the doc set has structurally changed since the last emission
// (spec.md §4.9: `observe_docs(period)`, "emits only on change"). The
// channel is closed once ctx is cancelled.
func (r *Repository) ObserveDocs(ctx context.Context, period time.Duration) <-chan []docstore.DocRecord {
	out := make(chan []docstore.DocRecord)
	go func() {
		defer close(out)
		ticker := time.NewTicker(period)
		defer ticker.Stop()

		var last []docstore.DocRecord
		first := true
		emit := func() {
			docs, err := r.store.ListDocs()
			if err != nil {
				return
			}
			if !first && docsEqual(last, docs) {
				return
			}
			first = false
			last = docs
			select {
			case out <- docs:
			case <-ctx.Done():
			}
		}

		emit()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				emit()
			}
		}
	}()
	return out
}

func docsEqual(a, b []docstore.DocRecord) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// InvalidateCache evicts a single document's cached chunks/vectors,
// forcing the next retrieval to reload from disk.
func (r *Repository) InvalidateCache(docID string) {
	r.cache.invalidate(docID)
}

// ClearCache purges the entire document cache.
func (r *Repository) ClearCache() {
	r.cache.clear()
}

// Retrieve embeds query and scores it against every READY document's
// chunks via exact dot product, returning the top-k hits sorted by
// descending score (spec.md §4.9 — exact search, not ANN).
func (r *Repository) Retrieve(ctx context.Context, query string, topK int, threshold float64, filterDocID ...string) ([]Hit, error) {
	if topK <= 0 {
		topK = 8
	}
	var filter string
	if len(filterDocID) > 0 {
		filter = filterDocID[0]
	}

	qvec, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	docs, err := r.store.ListDocs()
	if err != nil {
		return nil, err
	}

	h := &minHeap{}
	heap.Init(h)

	dim := r.embedder.Dimensions()
	for _, d := range docs {
		if d.Status != docstore.StatusReady {
			continue
		}
		if filter != "" && d.DocID != filter {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, ragerr.New(ragerr.CodeCancelled, "retrieval cancelled", err)
		}

		entry, err := r.cache.get(d.DocID, dim)
		if err != nil {
			r.logger.Warn("skipping document during retrieval", "doc_id", d.DocID, "error", err)
			continue
		}
		if entry.dim != 0 && entry.dim != dim {
			continue
		}

		for _, c := range entry.chunks {
			score, err := vectormath.DotPackedLE(qvec, entry.vectors, c.ChunkIndex*dim*4, dim)
			if err != nil {
				continue
			}
			if score <= threshold {
				continue
			}
			candidate := scoredHit{hit: Hit{
				DocID:        d.DocID,
				DocName:      d.Name,
				ChunkID:      c.ChunkID,
				ChunkIndex:   c.ChunkIndex,
				Text:         c.Text,
				Score:        score,
				DocCreatedAt: d.CreatedAt,
			}}
			if h.Len() < topK {
				heap.Push(h, candidate)
			} else if score > (*h)[0].hit.Score {
				heap.Pop(h)
				heap.Push(h, candidate)
			}
		}
	}

	hits := make([]Hit, h.Len())
	for i := len(hits) - 1; i >= 0; i-- {
		hits[i] = heap.Pop(h).(scoredHit).hit
	}
	return hits, nil
}

// FallbackTopChunks returns the first max chunks across READY documents
// in creation order, for when retrieval yields nothing above threshold
// and the caller still wants some context (spec.md §4.9:
// `fallback_top_chunks(doc_id, max)`). An empty docID considers every
// document; a non-empty one restricts the fallback to that document.
func (r *Repository) FallbackTopChunks(docID string, max int) ([]Hit, error) {
	if max <= 0 {
		return nil, nil
	}
	docs, err := r.store.ListDocs()
	if err != nil {
		return nil, err
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].CreatedAt < docs[j].CreatedAt })

	var hits []Hit
	for _, d := range docs {
		if d.Status != docstore.StatusReady {
			continue
		}
		if docID != "" && d.DocID != docID {
			continue
		}
		chunks, err := r.store.ReadChunks(d.DocID)
		if err != nil {
			continue
		}
		for _, c := range chunks {
			hits = append(hits, Hit{DocID: d.DocID, DocName: d.Name, ChunkID: c.ChunkID, ChunkIndex: c.ChunkIndex, Text: c.Text, Score: 1.0})
			if len(hits) == max {
				return hits, nil
			}
		}
	}
	return hits, nil
}
