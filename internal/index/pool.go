package index

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/irisrag/ragcore/internal/chunk"
	"github.com/irisrag/ragcore/internal/docstore"
	"github.com/irisrag/ragcore/internal/embed"
	"github.com/irisrag/ragcore/internal/ragerr"
)

// Pool runs IndexDocumentWorker pipelines with bounded concurrency. A
// second submission for a doc_id already running in this pool
// supersedes the first: the in-flight run is cancelled and its slot is
// handed to the new job once the old one exits (spec.md §5, "a
// duplicate submission replaces the queued or running job").
type Pool struct {
	store     *docstore.Store
	embedder  *embed.Facade
	chunkOpts chunk.Options
	logger    *slog.Logger

	maxConcurrent int

	mu       sync.Mutex
	inFlight map[string]*reservation
}

// reservation tracks one doc_id's currently running job so a superseding
// submission can cancel it and wait for it to exit before taking over.
type reservation struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPool builds a worker Pool. maxConcurrent <= 0 defaults to 1.
func NewPool(store *docstore.Store, embedder *embed.Facade, chunkOpts chunk.Options, maxConcurrent int, logger *slog.Logger) *Pool {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{
		store:         store,
		embedder:      embedder,
		chunkOpts:     chunkOpts,
		logger:        logger,
		maxConcurrent: maxConcurrent,
		inFlight:      make(map[string]*reservation),
	}
}

// reserve cancels any run already in flight for docID, waits for it to
// exit, discards whatever partial state it left in the store, then
// registers the new run and returns a context derived from parent plus
// a release func the caller must defer.
func (p *Pool) reserve(parent context.Context, docID string) (context.Context, func()) {
	p.mu.Lock()
	if existing, busy := p.inFlight[docID]; busy {
		existing.cancel()
		done := existing.done
		p.mu.Unlock()
		<-done
		_ = p.store.DeleteDoc(docID)
		p.mu.Lock()
	}

	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	p.inFlight[docID] = &reservation{cancel: cancel, done: done}
	p.mu.Unlock()

	release := func() {
		cancel()
		p.mu.Lock()
		if p.inFlight[docID] != nil && p.inFlight[docID].done == done {
			delete(p.inFlight, docID)
		}
		p.mu.Unlock()
		close(done)
	}
	return ctx, release
}

// Run indexes every job with up to maxConcurrent running at once and
// returns one Result per job, in the same order as the input. Two jobs
// in the same Run call sharing a doc_id run sequentially: the second
// cancels and supersedes the first.
func (p *Pool) Run(ctx context.Context, jobs []Job) []Result {
	results := make([]Result, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.maxConcurrent)

	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			results[i] = p.Submit(gctx, job)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Submit indexes a single job, superseding and waiting out any run
// already in flight for the same doc_id.
func (p *Pool) Submit(ctx context.Context, job Job) Result {
	runCtx, release := p.reserve(ctx, job.DocID)
	defer release()

	result := p.indexOne(runCtx, job)
	if result.Err == nil && runCtx.Err() != nil {
		result.Err = ragerr.New(ragerr.CodeInternal, "indexing run superseded by a newer submission", runCtx.Err())
	}
	return result
}
