// Package mcpserver exposes RagRepository's public surface as MCP tools
// (add_documents, retrieve, snapshot_docs, build_context_block,
// fallback_top_chunks), so a
// local LLM client can drive ingestion and retrieval the same way it
// would drive code search against teacher's internal/mcp server.
package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/irisrag/ragcore/internal/docsource"
	"github.com/irisrag/ragcore/internal/docstore"
	"github.com/irisrag/ragcore/internal/index"
	"github.com/irisrag/ragcore/internal/rag"
)

// ServerName and Version identify this MCP implementation.
const ServerName = "ragcore"

// Version is set by the caller (typically from the cmd/ragctl build).
var Version = "dev"

// Repository is the subset of rag.Repository the MCP server depends on.
type Repository interface {
	AddDocuments(ctx context.Context, jobs []index.Job) []index.Result
	Retrieve(ctx context.Context, query string, topK int, threshold float64, filterDocID ...string) ([]rag.Hit, error)
	SnapshotDocs() ([]docstore.DocRecord, error)
	FallbackTopChunks(docID string, max int) ([]rag.Hit, error)
}

// Server wraps an MCP protocol server over a Repository.
type Server struct {
	mcp       *mcp.Server
	repo      Repository
	logger    *slog.Logger
	perDocCap int
}

// New builds a Server and registers its tools. perDocCap configures
// build_context_block's default excerpts-per-document cap (spec.md §6
// context_per_doc_cap); a value <= 0 falls back to 6.
func New(repo Repository, logger *slog.Logger, perDocCap int) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if perDocCap <= 0 {
		perDocCap = 6
	}
	s := &Server{repo: repo, logger: logger, perDocCap: perDocCap}
	s.mcp = mcp.NewServer(&mcp.Implementation{Name: ServerName, Version: Version}, nil)
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "add_documents",
		Description: "Ingest one or more local files into the document store, chunking and embedding them in the background. Returns per-document success/failure.",
	}, s.handleAddDocuments)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "retrieve",
		Description: "Retrieve the top-k chunks most relevant to a query via exact dot-product search across indexed documents.",
	}, s.handleRetrieve)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "snapshot_docs",
		Description: "List every known document and its indexing status (indexing, ready, failed).",
	}, s.handleSnapshotDocs)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "build_context_block",
		Description: "Retrieve relevant chunks for a query and assemble them into a citation-tagged context block ready for prompt injection.",
	}, s.handleBuildContextBlock)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "fallback_top_chunks",
		Description: "Return the first N chunks of a document in order, for when similarity search yields nothing above threshold but some context is still wanted.",
	}, s.handleFallbackTopChunks)

	s.logger.Info("mcp tools registered", slog.Int("count", 5))
}

// Serve runs the server over stdio until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting mcp server", slog.String("transport", "stdio"))
	err := s.mcp.Run(ctx, &mcp.StdioTransport{})
	if err != nil && err != context.Canceled {
		s.logger.Error("mcp server stopped with error", slog.String("error", err.Error()))
		return err
	}
	s.logger.Info("mcp server stopped gracefully")
	return nil
}

// AddDocumentsInput is the add_documents tool's input schema.
type AddDocumentsInput struct {
	Paths []string `json:"paths" jsonschema:"absolute local filesystem paths to ingest"`
}

// AddDocumentsOutput is the add_documents tool's output schema.
type AddDocumentsOutput struct {
	Results []DocResult `json:"results" jsonschema:"one entry per path, in the same order"`
}

// DocResult reports one document's ingestion outcome.
type DocResult struct {
	DocID      string `json:"doc_id"`
	Path       string `json:"path"`
	Error      string `json:"error,omitempty"`
	ChunkCount int    `json:"chunk_count"`
}

func (s *Server) handleAddDocuments(ctx context.Context, _ *mcp.CallToolRequest, input AddDocumentsInput) (*mcp.CallToolResult, AddDocumentsOutput, error) {
	if len(input.Paths) == 0 {
		return nil, AddDocumentsOutput{}, fmt.Errorf("paths parameter is required and must be non-empty")
	}

	jobs := make([]index.Job, 0, len(input.Paths))
	for _, p := range input.Paths {
		src := docsource.NewFileSource(p)
		jobs = append(jobs, index.Job{
			DocID:     uuid.NewString(),
			URI:       p,
			Name:      src.DisplayName(),
			MIME:      src.MIMEHint(),
			Source:    src,
			CreatedAt: time.Now(),
		})
	}

	results := s.repo.AddDocuments(ctx, jobs)
	out := AddDocumentsOutput{Results: make([]DocResult, 0, len(results))}
	for i, r := range results {
		dr := DocResult{DocID: r.DocID, Path: input.Paths[i], ChunkCount: r.ChunkCount}
		if r.Err != nil {
			dr.Error = r.Err.Error()
		}
		out.Results = append(out.Results, dr)
	}
	return nil, out, nil
}

// RetrieveInput is the retrieve tool's input schema.
type RetrieveInput struct {
	Query     string  `json:"query" jsonschema:"the search query"`
	TopK      int     `json:"top_k,omitempty" jsonschema:"maximum number of chunks to return, default 8"`
	Threshold float64 `json:"threshold,omitempty" jsonschema:"score a chunk must exceed to be returned"`
	DocID     string  `json:"doc_id,omitempty" jsonschema:"restrict retrieval to a single document"`
}

// RetrieveOutput is the retrieve tool's output schema.
type RetrieveOutput struct {
	Hits []HitOutput `json:"hits"`
}

// HitOutput is one retrieved chunk.
type HitOutput struct {
	DocID      string  `json:"doc_id"`
	DocName    string  `json:"doc_name"`
	ChunkID    string  `json:"chunk_id"`
	ChunkIndex int     `json:"chunk_index"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
}

func (s *Server) handleRetrieve(ctx context.Context, _ *mcp.CallToolRequest, input RetrieveInput) (*mcp.CallToolResult, RetrieveOutput, error) {
	if input.Query == "" {
		return nil, RetrieveOutput{}, fmt.Errorf("query parameter is required")
	}
	topK := input.TopK
	if topK <= 0 {
		topK = 8
	}

	var filter []string
	if input.DocID != "" {
		filter = []string{input.DocID}
	}
	hits, err := s.repo.Retrieve(ctx, input.Query, topK, input.Threshold, filter...)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	out := RetrieveOutput{Hits: make([]HitOutput, 0, len(hits))}
	for _, h := range hits {
		out.Hits = append(out.Hits, HitOutput{
			DocID: h.DocID, DocName: h.DocName, ChunkID: h.ChunkID,
			ChunkIndex: h.ChunkIndex, Text: h.Text, Score: h.Score,
		})
	}
	return nil, out, nil
}

// SnapshotDocsInput is the snapshot_docs tool's (empty) input schema.
type SnapshotDocsInput struct{}

// SnapshotDocsOutput is the snapshot_docs tool's output schema.
type SnapshotDocsOutput struct {
	Docs []DocInfo `json:"docs"`
}

// DocInfo is one document's summary metadata.
type DocInfo struct {
	DocID  string `json:"doc_id"`
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func (s *Server) handleSnapshotDocs(_ context.Context, _ *mcp.CallToolRequest, _ SnapshotDocsInput) (*mcp.CallToolResult, SnapshotDocsOutput, error) {
	docs, err := s.repo.SnapshotDocs()
	if err != nil {
		return nil, SnapshotDocsOutput{}, err
	}
	out := SnapshotDocsOutput{Docs: make([]DocInfo, 0, len(docs))}
	for _, d := range docs {
		out.Docs = append(out.Docs, DocInfo{
			DocID: d.DocID, Name: d.Name, Status: string(d.Status), Error: d.Error,
		})
	}
	return nil, out, nil
}

// BuildContextBlockInput is the build_context_block tool's input schema.
type BuildContextBlockInput struct {
	Query     string `json:"query" jsonschema:"the search query"`
	TopK      int    `json:"top_k,omitempty" jsonschema:"maximum number of chunks to retrieve, default 8"`
	MaxChars  int    `json:"max_chars,omitempty" jsonschema:"character budget for the assembled block, default 2400"`
	PerDocCap int    `json:"per_doc_cap,omitempty" jsonschema:"maximum excerpts per document, default 6"`
}

// BuildContextBlockOutput is the build_context_block tool's output schema.
type BuildContextBlockOutput struct {
	Block string `json:"block"`
}

func (s *Server) handleBuildContextBlock(ctx context.Context, _ *mcp.CallToolRequest, input BuildContextBlockInput) (*mcp.CallToolResult, BuildContextBlockOutput, error) {
	if input.Query == "" {
		return nil, BuildContextBlockOutput{}, fmt.Errorf("query parameter is required")
	}
	topK := input.TopK
	if topK <= 0 {
		topK = 8
	}
	maxChars := input.MaxChars
	if maxChars <= 0 {
		maxChars = 2400
	}
	perDocCap := input.PerDocCap
	if perDocCap <= 0 {
		perDocCap = s.perDocCap
	}

	hits, err := s.repo.Retrieve(ctx, input.Query, topK, 0)
	if err != nil {
		return nil, BuildContextBlockOutput{}, err
	}
	return nil, BuildContextBlockOutput{Block: rag.BuildContextBlock(hits, maxChars, perDocCap)}, nil
}

// FallbackTopChunksInput is the fallback_top_chunks tool's input schema.
type FallbackTopChunksInput struct {
	DocID string `json:"doc_id" jsonschema:"the document to pull chunks from"`
	Max   int    `json:"max,omitempty" jsonschema:"maximum number of chunks to return, default 8"`
}

// FallbackTopChunksOutput is the fallback_top_chunks tool's output schema.
type FallbackTopChunksOutput struct {
	Hits []HitOutput `json:"hits"`
}

func (s *Server) handleFallbackTopChunks(_ context.Context, _ *mcp.CallToolRequest, input FallbackTopChunksInput) (*mcp.CallToolResult, FallbackTopChunksOutput, error) {
	if input.DocID == "" {
		return nil, FallbackTopChunksOutput{}, fmt.Errorf("doc_id parameter is required")
	}
	max := input.Max
	if max <= 0 {
		max = 8
	}

	hits, err := s.repo.FallbackTopChunks(input.DocID, max)
	if err != nil {
		return nil, FallbackTopChunksOutput{}, err
	}

	out := FallbackTopChunksOutput{Hits: make([]HitOutput, 0, len(hits))}
	for _, h := range hits {
		out.Hits = append(out.Hits, HitOutput{
			DocID: h.DocID, DocName: h.DocName, ChunkID: h.ChunkID,
			ChunkIndex: h.ChunkIndex, Text: h.Text, Score: h.Score,
		})
	}
	return nil, out, nil
}
