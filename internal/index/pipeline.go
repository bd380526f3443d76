package index

import (
	"context"

	"github.com/google/uuid"

	"github.com/irisrag/ragcore/internal/chunk"
	"github.com/irisrag/ragcore/internal/docstore"
	"github.com/irisrag/ragcore/internal/extract"
	"github.com/irisrag/ragcore/internal/normalize"
	"github.com/irisrag/ragcore/internal/ragerr"
)

// indexOne runs the full pipeline for one job: extract -> normalize ->
// denoise -> quality-gate -> chunk -> embed -> persist. Cancellation is
// checked at each stage boundary; work already done for an earlier stage
// is never rolled back mid-pipeline, only the final persist is atomic.
func (p *Pool) indexOne(ctx context.Context, job Job) Result {
	if err := p.store.CreateDoc(docstore.DocRecord{
		DocID:     job.DocID,
		URI:       job.URI,
		Name:      job.Name,
		MIME:      job.MIME,
		CreatedAt: job.CreatedAt.UnixMilli(),
	}); err != nil {
		return Result{DocID: job.DocID, Err: err, FailedAt: StageExtract}
	}

	text, failedAt, err := p.runStages(ctx, job)
	if err != nil {
		_ = p.store.MarkFailed(job.DocID, err)
		p.logger.Error("indexing failed", "doc_id", job.DocID, "stage", failedAt, "error", err)
		return Result{DocID: job.DocID, Err: err, FailedAt: failedAt}
	}

	chunks, err := chunk.Chunk(text, p.chunkOpts)
	if err != nil {
		_ = p.store.MarkFailed(job.DocID, err)
		return Result{DocID: job.DocID, Err: err, FailedAt: StageChunk}
	}
	if len(chunks) == 0 {
		cerr := ragerr.New(ragerr.CodeChunkingProducedNone, "chunking produced no chunks", nil)
		_ = p.store.MarkFailed(job.DocID, cerr)
		return Result{DocID: job.DocID, Err: cerr, FailedAt: StageChunk}
	}

	if err := ctx.Err(); err != nil {
		cerr := ragerr.New(ragerr.CodeCancelled, "indexing cancelled before embedding", err)
		_ = p.store.MarkFailed(job.DocID, cerr)
		return Result{DocID: job.DocID, Err: cerr, FailedAt: StageEmbed}
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := p.embedder.EmbedChunks(ctx, texts)
	if err != nil {
		_ = p.store.MarkFailed(job.DocID, err)
		return Result{DocID: job.DocID, Err: err, FailedAt: StageEmbed}
	}

	records := make([]docstore.ChunkRecord, len(chunks))
	for i, c := range chunks {
		records[i] = docstore.ChunkRecord{
			ChunkID:    uuid.NewString(),
			ChunkIndex: c.Index,
			Text:       c.Text,
		}
	}

	dim := p.embedder.Dimensions()
	if err := p.store.WriteChunksAndEmbeddings(ctx, job.DocID, records, vectors, dim); err != nil {
		_ = p.store.MarkFailed(job.DocID, err)
		return Result{DocID: job.DocID, Err: err, FailedAt: StagePersist}
	}

	return Result{DocID: job.DocID, ChunkCount: len(chunks), Dim: dim}
}

// runStages runs extract/normalize/denoise/quality-gate, returning the
// text ready for chunking.
func (p *Pool) runStages(ctx context.Context, job Job) (string, Stage, error) {
	if err := ctx.Err(); err != nil {
		return "", StageExtract, ragerr.New(ragerr.CodeCancelled, "indexing cancelled before extraction", err)
	}
	raw, err := extract.Extract(job.Source)
	if err != nil {
		return "", StageExtract, err
	}

	if err := ctx.Err(); err != nil {
		return "", StageNormalize, ragerr.New(ragerr.CodeCancelled, "indexing cancelled before normalization", err)
	}
	normalized := normalize.Text(raw)

	denoised := extract.Denoise(normalized)

	if _, err := extract.QualityGate(denoised); err != nil {
		return "", StageQualityGate, err
	}

	return denoised, "", nil
}
