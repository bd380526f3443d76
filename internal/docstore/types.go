// Package docstore implements the append-only, per-document on-disk store
// (spec.md §4.6, C6 "LocalRagStore"): one folder per document holding
// meta.json, chunks.jsonl and embeddings.bin, written atomically and
// enumerated by creation time.
package docstore

// Status is a DocRecord's lifecycle state (spec.md §3).
type Status string

const (
	StatusIndexing Status = "INDEXING"
	StatusReady    Status = "READY"
	StatusFailed   Status = "FAILED"
)

// DocRecord is one user document's metadata, persisted as meta.json.
type DocRecord struct {
	DocID     string `json:"docId"`
	URI       string `json:"uri"`
	Name      string `json:"name"`
	MIME      string `json:"mime"`
	SizeBytes int64  `json:"sizeBytes"`
	CreatedAt int64  `json:"createdAt"`
	Status    Status `json:"status"`
	Error     string `json:"error,omitempty"`

	// Dim is the embedder dimension this document's vectors were written
	// with. It is persisted rather than purely inferred from file size
	// (spec.md §9's "stricter variant", adopted in SPEC_FULL.md §5): a
	// store whose current embedder disagrees with a document's recorded
	// Dim refuses to load it instead of silently guessing from bytes.
	Dim int `json:"dim,omitempty"`
}

// ChunkRecord is one line of chunks.jsonl.
type ChunkRecord struct {
	ChunkID    string `json:"chunkId"`
	ChunkIndex int    `json:"chunkIndex"`
	Text       string `json:"text"`
}

// Stats describes one document's on-disk footprint (spec.md §4.6).
type Stats struct {
	ChunkCount     int
	EmbeddingBytes int64
	TotalBytes     int64
	BytesPerVector int64
}
