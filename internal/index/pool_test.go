package index

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irisrag/ragcore/internal/chunk"
	"github.com/irisrag/ragcore/internal/docstore"
	"github.com/irisrag/ragcore/internal/embed"
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

func newTestPool(t *testing.T) (*Pool, *docstore.Store) {
	t.Helper()
	store, err := docstore.Open(t.TempDir())
	require.NoError(t, err)
	facade := embed.NewFacade(0)
	t.Cleanup(facade.Close)
	facade.Attach(embed.NewStaticEmbedder())
	pool := NewPool(store, facade, chunk.Options{}, 2, nil)
	return pool, store
}

func longText() string {
	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("This is a unique filler sentence used to pad the document body. ")
	}
	return b.String()
}

func TestSubmitIndexesDocumentSuccessfully(t *testing.T) {
	pool, store := newTestPool(t)
	job := Job{
		DocID:     "doc-1",
		Name:      "a.txt",
		MIME:      "text/plain",
		Source:    memSource{data: []byte(longText()), name: "a.txt", mime: "text/plain"},
		CreatedAt: time.Now(),
	}

	res := pool.Submit(context.Background(), job)
	require.NoError(t, res.Err)
	assert.Greater(t, res.ChunkCount, 0)

	meta, err := store.ReadMeta("doc-1")
	require.NoError(t, err)
	assert.Equal(t, docstore.StatusReady, meta.Status)
}

func TestSubmitFailsOnExtractionTooShort(t *testing.T) {
	pool, store := newTestPool(t)
	job := Job{
		DocID:  "doc-2",
		Name:   "b.txt",
		MIME:   "text/plain",
		Source: memSource{data: []byte("short"), name: "b.txt", mime: "text/plain"},
	}
	res := pool.Submit(context.Background(), job)
	require.Error(t, res.Err)
	assert.Equal(t, StageQualityGate, res.FailedAt)

	meta, err := store.ReadMeta("doc-2")
	require.NoError(t, err)
	assert.Equal(t, docstore.StatusFailed, meta.Status)
}

func TestRunProcessesMultipleJobsConcurrently(t *testing.T) {
	pool, store := newTestPool(t)
	jobs := []Job{
		{DocID: "d1", Name: "d1.txt", MIME: "text/plain", Source: memSource{data: []byte(longText()), name: "d1.txt", mime: "text/plain"}},
		{DocID: "d2", Name: "d2.txt", MIME: "text/plain", Source: memSource{data: []byte(longText()), name: "d2.txt", mime: "text/plain"}},
	}
	results := pool.Run(context.Background(), jobs)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.NoError(t, r.Err)
	}
	docs, err := store.ListDocs()
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestReserveSupersedesInFlightReservation(t *testing.T) {
	pool, _ := newTestPool(t)
	ctx1, release1 := pool.reserve(context.Background(), "dup")

	done := make(chan struct{})
	var ctx2 context.Context
	go func() {
		var release2 func()
		ctx2, release2 = pool.reserve(context.Background(), "dup")
		release2()
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	select {
	case <-done:
		t.Fatal("second reserve should not complete before the first one releases")
	default:
	}

	release1()
	<-done
	assert.Error(t, ctx1.Err())
	assert.NotNil(t, ctx2)
}

func TestSubmitSupersedesDuplicateDocID(t *testing.T) {
	pool, store := newTestPool(t)

	first := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		job := Job{
			DocID:  "dup",
			Name:   "first.txt",
			MIME:   "text/plain",
			Source: blockingSource{data: []byte(longText()), ready: first},
		}
		res := pool.Submit(context.Background(), job)
		require.Error(t, res.Err)
	}()

	<-first
	job := Job{
		DocID:  "dup",
		Name:   "second.txt",
		MIME:   "text/plain",
		Source: memSource{data: []byte(longText()), name: "second.txt", mime: "text/plain"},
	}
	res := pool.Submit(context.Background(), job)
	require.NoError(t, res.Err)
	wg.Wait()

	meta, err := store.ReadMeta("dup")
	require.NoError(t, err)
	assert.Equal(t, "second.txt", meta.Name)
}

// blockingSource signals ready once Open is called, then blocks until its
// reader is read, giving a test time to submit a superseding job before
// this one reaches its next pipeline stage.
type blockingSource struct {
	data  []byte
	ready chan struct{}
}

func (b blockingSource) Open() (io.ReadCloser, error) {
	close(b.ready)
	time.Sleep(50 * time.Millisecond)
	return io.NopCloser(bytes.NewReader(b.data)), nil
}
func (b blockingSource) DisplayName() string { return "first.txt" }
func (b blockingSource) MIMEHint() string    { return "text/plain" }
func (b blockingSource) SizeBytes() int64    { return int64(len(b.data)) }
