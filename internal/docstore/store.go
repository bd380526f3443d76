package docstore

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/irisrag/ragcore/internal/packing"
	"github.com/irisrag/ragcore/internal/ragerr"
)

const (
	metaFileName   = "meta.json"
	chunksFileName = "chunks.jsonl"
	vectorFileName = "embeddings.bin"
	dirPerm        = 0o755
	filePerm       = 0o644
)

// Store is the on-disk, one-folder-per-document layout of spec.md §4.6
// (C6 "LocalRagStore"). Each document lives at root/<docId>/ holding
// meta.json, chunks.jsonl and embeddings.bin.
type Store struct {
	root string
}

// Open ensures root exists and returns a Store rooted there.
func Open(root string) (*Store, error) {
	if err := os.MkdirAll(root, dirPerm); err != nil {
		return nil, ragerr.Wrap(ragerr.CodeIOError, err)
	}
	return &Store{root: root}, nil
}

func (s *Store) docDir(docID string) string {
	return filepath.Join(s.root, docID)
}

// CreateDoc materializes a new document folder in INDEXING status. It is
// an error to call this for a doc_id that already exists.
func (s *Store) CreateDoc(rec DocRecord) error {
	dir := s.docDir(rec.DocID)
	if _, err := os.Stat(dir); err == nil {
		return ragerr.New(ragerr.CodeIOError, "document already exists", nil).
			WithDetail("doc_id", rec.DocID)
	}
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return ragerr.Wrap(ragerr.CodeIOError, err)
	}
	rec.Status = StatusIndexing
	return s.writeMeta(dir, rec)
}

// WriteChunksAndEmbeddings persists the finished chunk list and the
// packed float32 vector table for a document, then flips it to READY.
// Locked with a per-doc flock so a concurrent delete cannot observe a
// half-written folder.
func (s *Store) WriteChunksAndEmbeddings(ctx context.Context, docID string, chunks []ChunkRecord, vectors [][]float32, dim int) error {
	dir := s.docDir(docID)
	lock := docLock(dir)
	if err := lock.Lock(); err != nil {
		return ragerr.Wrap(ragerr.CodeIOError, err)
	}
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return ragerr.New(ragerr.CodeCancelled, "indexing cancelled before persist", err)
	}

	var chunkBuf strings.Builder
	enc := json.NewEncoder(&chunkBuf)
	for _, c := range chunks {
		if err := enc.Encode(c); err != nil {
			return ragerr.Wrap(ragerr.CodeIOError, err)
		}
	}
	if err := atomicWriteFile(filepath.Join(dir, chunksFileName), []byte(chunkBuf.String()), filePerm); err != nil {
		return err
	}

	vecBuf := make([]byte, 0, len(vectors)*dim*4)
	for _, v := range vectors {
		vecBuf = append(vecBuf, packing.Pack(v)...)
	}
	if err := atomicWriteFile(filepath.Join(dir, vectorFileName), vecBuf, filePerm); err != nil {
		return err
	}

	rec, err := s.readMeta(dir)
	if err != nil {
		return err
	}
	rec.Status = StatusReady
	rec.Dim = dim
	rec.Error = ""
	return s.writeMeta(dir, rec)
}

// MarkFailed flips a document to FAILED with the given message, leaving
// any partial chunks/embeddings files untouched — they are only trusted
// once Status is READY.
func (s *Store) MarkFailed(docID string, cause error) error {
	dir := s.docDir(docID)
	rec, err := s.readMeta(dir)
	if err != nil {
		return err
	}
	rec.Status = StatusFailed
	rec.Error = ragerr.BoundedMessage(cause, 500)
	return s.writeMeta(dir, rec)
}

func (s *Store) writeMeta(dir string, rec DocRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return ragerr.Wrap(ragerr.CodeIOError, err)
	}
	return atomicWriteFile(filepath.Join(dir, metaFileName), data, filePerm)
}

func (s *Store) readMeta(dir string) (DocRecord, error) {
	data, err := os.ReadFile(filepath.Join(dir, metaFileName))
	if err != nil {
		return DocRecord{}, ragerr.Wrap(ragerr.CodeIOError, err)
	}
	var rec DocRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return DocRecord{}, ragerr.Wrap(ragerr.CodeInvalidFormat, err)
	}
	return rec, nil
}

// ReadMeta returns a single document's metadata record.
func (s *Store) ReadMeta(docID string) (DocRecord, error) {
	return s.readMeta(s.docDir(docID))
}

// ReadChunks loads every ChunkRecord for a READY document, in index order.
func (s *Store) ReadChunks(docID string) ([]ChunkRecord, error) {
	dir := s.docDir(docID)
	f, err := os.Open(filepath.Join(dir, chunksFileName))
	if err != nil {
		return nil, ragerr.Wrap(ragerr.CodeIOError, err)
	}
	defer f.Close()

	var out []ChunkRecord
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var c ChunkRecord
		if err := json.Unmarshal(line, &c); err != nil {
			return nil, ragerr.Wrap(ragerr.CodeInvalidFormat, err)
		}
		out = append(out, c)
	}
	if err := sc.Err(); err != nil {
		return nil, ragerr.Wrap(ragerr.CodeIOError, err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChunkIndex < out[j].ChunkIndex })
	return out, nil
}

// ReadEmbeddings returns the raw packed float32 bytes for a document.
func (s *Store) ReadEmbeddings(docID string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.docDir(docID), vectorFileName))
	if err != nil {
		return nil, ragerr.Wrap(ragerr.CodeIOError, err)
	}
	return data, nil
}

// ModTimes returns a document's chunks.jsonl and embeddings.bin mtimes
// separately, so a cache can detect either file changing out from under
// it even if the two writes race (spec.md §4.9: "chunks_mtime, emb_mtime").
func (s *Store) ModTimes(docID string) (chunksMTime, embMTime int64, err error) {
	dir := s.docDir(docID)
	chunksInfo, err := os.Stat(filepath.Join(dir, chunksFileName))
	if err != nil {
		return 0, 0, ragerr.Wrap(ragerr.CodeIOError, err)
	}
	embInfo, err := os.Stat(filepath.Join(dir, vectorFileName))
	if err != nil {
		return 0, 0, ragerr.Wrap(ragerr.CodeIOError, err)
	}
	return chunksInfo.ModTime().UnixNano(), embInfo.ModTime().UnixNano(), nil
}

// ListDocs returns every document record, sorted by CreatedAt descending
// (spec.md §4.6: most recently created document first).
func (s *Store) ListDocs() ([]DocRecord, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, ragerr.Wrap(ragerr.CodeIOError, err)
	}
	var out []DocRecord
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		rec, err := s.readMeta(filepath.Join(s.root, e.Name()))
		if err != nil {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out, nil
}

// DocStats reports a document's on-disk footprint.
func (s *Store) DocStats(docID string) (Stats, error) {
	dir := s.docDir(docID)
	rec, err := s.readMeta(dir)
	if err != nil {
		return Stats{}, err
	}
	chunks, err := s.ReadChunks(docID)
	if err != nil {
		return Stats{}, err
	}
	vecInfo, err := os.Stat(filepath.Join(dir, vectorFileName))
	var embBytes int64
	if err == nil {
		embBytes = vecInfo.Size()
	}
	var perVector int64
	if rec.Dim > 0 {
		perVector = int64(rec.Dim) * 4
	}
	var totalBytes int64
	if entries, err := os.ReadDir(dir); err == nil {
		for _, e := range entries {
			if info, err := e.Info(); err == nil && !info.IsDir() {
				totalBytes += info.Size()
			}
		}
	}
	return Stats{
		ChunkCount:     len(chunks),
		EmbeddingBytes: embBytes,
		TotalBytes:     totalBytes,
		BytesPerVector: perVector,
	}, nil
}

// DeleteDoc removes a document's entire folder.
func (s *Store) DeleteDoc(docID string) error {
	dir := s.docDir(docID)
	lock := docLock(dir)
	if err := lock.Lock(); err != nil {
		return ragerr.Wrap(ragerr.CodeIOError, err)
	}
	defer lock.Unlock()
	if err := os.RemoveAll(dir); err != nil {
		return ragerr.Wrap(ragerr.CodeIOError, err)
	}
	return nil
}

// DeleteAll wipes every document folder under root.
func (s *Store) DeleteAll() error {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return ragerr.Wrap(ragerr.CodeIOError, err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if err := s.DeleteDoc(e.Name()); err != nil {
			return err
		}
	}
	return nil
}
