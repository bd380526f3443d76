package rag

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irisrag/ragcore/internal/chunk"
	"github.com/irisrag/ragcore/internal/docstore"
	"github.com/irisrag/ragcore/internal/embed"
	"github.com/irisrag/ragcore/internal/index"
)

type memSource struct {
	data []byte
	name string
	mime string
}

func (m memSource) Open() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(m.data)), nil }
func (m memSource) DisplayName() string          { return m.name }
func (m memSource) MIMEHint() string             { return m.mime }
func (m memSource) SizeBytes() int64             { return int64(len(m.data)) }

func repeatText(s string, n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString(s)
		b.WriteString(" ")
	}
	return b.String()
}

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	store, err := docstore.Open(t.TempDir())
	require.NoError(t, err)
	facade := embed.NewFacade(0)
	t.Cleanup(facade.Close)
	facade.Attach(embed.NewStaticEmbedder())
	pool := index.NewPool(store, facade, chunk.Options{}, 2, nil)
	return New(store, facade, pool, 0, nil)
}

func TestAddAndRetrieveFindsRelevantChunk(t *testing.T) {
	repo := newTestRepo(t)

	jobs := []index.Job{
		{DocID: "doc-cats", Name: "cats.txt", MIME: "text/plain",
			Source: memSource{data: []byte(repeatText("cats are wonderful independent animals that purr", 30)), name: "cats.txt", mime: "text/plain"}},
		{DocID: "doc-cars", Name: "cars.txt", MIME: "text/plain",
			Source: memSource{data: []byte(repeatText("cars require regular engine maintenance and fuel", 30)), name: "cars.txt", mime: "text/plain"}},
	}
	results := repo.AddDocuments(context.Background(), jobs)
	for _, r := range results {
		require.NoError(t, r.Err)
	}

	hits, err := repo.Retrieve(context.Background(), "tell me about cats purring", 3, -1.0)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "doc-cats", hits[0].DocID)
}

func TestRetrieveExcludesHitsScoringExactlyAtThreshold(t *testing.T) {
	repo := newTestRepo(t)
	jobs := []index.Job{
		{DocID: "doc-cats", Name: "cats.txt", MIME: "text/plain",
			Source: memSource{data: []byte(repeatText("cats are wonderful independent animals that purr", 30)), name: "cats.txt", mime: "text/plain"}},
	}
	results := repo.AddDocuments(context.Background(), jobs)
	require.NoError(t, results[0].Err)

	loose, err := repo.Retrieve(context.Background(), "tell me about cats purring", 1, -1.0)
	require.NoError(t, err)
	require.NotEmpty(t, loose)
	topScore := loose[0].Score

	atThreshold, err := repo.Retrieve(context.Background(), "tell me about cats purring", 1, topScore)
	require.NoError(t, err)
	assert.Empty(t, atThreshold, "a chunk scoring exactly at threshold must be dropped (spec.md §4.9 step 5: skip if score <= threshold)")

	belowThreshold, err := repo.Retrieve(context.Background(), "tell me about cats purring", 1, topScore-0.0001)
	require.NoError(t, err)
	require.NotEmpty(t, belowThreshold, "a chunk scoring just above threshold must still be kept")
}

func TestRemoveDocumentExcludesItFromRetrieval(t *testing.T) {
	repo := newTestRepo(t)
	jobs := []index.Job{
		{DocID: "doc-1", Name: "a.txt", MIME: "text/plain",
			Source: memSource{data: []byte(repeatText("unique filler content about gardening", 30)), name: "a.txt", mime: "text/plain"}},
	}
	results := repo.AddDocuments(context.Background(), jobs)
	require.NoError(t, results[0].Err)

	require.NoError(t, repo.RemoveDocument("doc-1"))

	docs, err := repo.SnapshotDocs()
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestFallbackTopChunksReturnsUpToN(t *testing.T) {
	repo := newTestRepo(t)
	jobs := []index.Job{
		{DocID: "doc-1", Name: "a.txt", MIME: "text/plain",
			Source: memSource{data: []byte(repeatText("alpha beta gamma delta content filler words", 30)), name: "a.txt", mime: "text/plain"}},
	}
	results := repo.AddDocuments(context.Background(), jobs)
	require.NoError(t, results[0].Err)

	hits, err := repo.FallbackTopChunks("", 1)
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	scoped, err := repo.FallbackTopChunks("doc-1", 5)
	require.NoError(t, err)
	assert.NotEmpty(t, scoped)
	for _, h := range scoped {
		assert.Equal(t, "doc-1", h.DocID)
		assert.Equal(t, 1.0, h.Score)
	}

	none, err := repo.FallbackTopChunks("nonexistent-doc", 5)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestBuildContextBlockGroupsByDocAndCitesChunkNumbers(t *testing.T) {
	hits := []Hit{
		{DocID: "d1", ChunkID: "c0", DocName: "d1.txt", ChunkIndex: 0, Text: "alpha", Score: 0.5},
		{DocID: "d1", ChunkID: "c1", DocName: "d1.txt", ChunkIndex: 1, Text: "beta", Score: 0.9},
		{DocID: "d2", ChunkID: "c0", DocName: "d2.txt", ChunkIndex: 0, Text: "gamma", Score: 0.7},
	}
	block := BuildContextBlock(hits, 4000, 6)
	assert.Contains(t, block, "### d1.txt")
	assert.Contains(t, block, "### d2.txt")
	assert.Contains(t, block, "[d1.txt §2] beta")
	assert.Contains(t, block, "[d1.txt §1] alpha")

	betaIdx := strings.Index(block, "beta")
	alphaIdx := strings.Index(block, "alpha")
	assert.Less(t, betaIdx, alphaIdx, "higher-scoring chunk should come first within its doc group")
}

func TestBuildContextBlockDedupesRepeatedHits(t *testing.T) {
	hit := Hit{DocID: "d1", ChunkID: "c0", DocName: "d1.txt", ChunkIndex: 0, Text: "alpha", Score: 0.5}
	block := BuildContextBlock([]Hit{hit, hit}, 4000, 6)
	assert.Equal(t, 1, strings.Count(block, "alpha"))
}

func TestBuildContextBlockRespectsMaxChars(t *testing.T) {
	hits := []Hit{
		{DocID: "d1", ChunkID: "c0", DocName: "d1.txt", ChunkIndex: 0, Text: strings.Repeat("x", 500), Score: 0.9},
	}
	block := BuildContextBlock(hits, 200, 6)
	assert.LessOrEqual(t, len(block), 204)
}

func TestBuildContextBlockRespectsPerDocCap(t *testing.T) {
	hits := []Hit{
		{DocID: "d1", ChunkID: "c0", DocName: "d1.txt", ChunkIndex: 0, Text: "alpha", Score: 0.9},
		{DocID: "d1", ChunkID: "c1", DocName: "d1.txt", ChunkIndex: 1, Text: "beta", Score: 0.8},
		{DocID: "d1", ChunkID: "c2", DocName: "d1.txt", ChunkIndex: 2, Text: "gamma", Score: 0.7},
	}
	block := BuildContextBlock(hits, 4000, 2)
	assert.Contains(t, block, "alpha")
	assert.Contains(t, block, "beta")
	assert.NotContains(t, block, "gamma")
}

func TestObserveDocsEmitsOnlyOnChange(t *testing.T) {
	repo := newTestRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream := repo.ObserveDocs(ctx, 5*time.Millisecond)

	first := <-stream
	assert.Empty(t, first)

	jobs := []index.Job{
		{DocID: "obs-1", Name: "o.txt", MIME: "text/plain",
			Source: memSource{data: []byte(repeatText("observed content word filler", 30)), name: "o.txt", mime: "text/plain"}},
	}
	results := repo.AddDocuments(context.Background(), jobs)
	require.NoError(t, results[0].Err)

	second := <-stream
	require.Len(t, second, 1)
	assert.Equal(t, "obs-1", second[0].DocID)
}
