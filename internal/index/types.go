// Package index implements the background document indexing worker
// (spec.md §4.7, C7 "IndexDocumentWorker"): the ordered
// extract -> normalize -> denoise -> quality-gate -> chunk -> embed ->
// persist pipeline, run by a bounded worker pool keyed per doc_id.
package index

import (
	"time"

	"github.com/irisrag/ragcore/internal/docsource"
)

// Stage names one step of the indexing pipeline, for logging and for
// attaching a stage to a failure.
type Stage string

const (
	StageExtract     Stage = "extract"
	StageNormalize   Stage = "normalize"
	StageDenoise     Stage = "denoise"
	StageQualityGate Stage = "quality_gate"
	StageChunk       Stage = "chunk"
	StageEmbed       Stage = "embed"
	StagePersist     Stage = "persist"
)

// Job is one document submitted for indexing.
type Job struct {
	DocID     string
	URI       string
	Name      string
	MIME      string
	Source    docsource.Source
	CreatedAt time.Time
}

// Result reports the outcome of indexing one Job.
type Result struct {
	DocID      string
	Err        error
	FailedAt   Stage
	ChunkCount int
	Dim        int
}
