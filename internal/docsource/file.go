package docsource

import (
	"io"
	"mime"
	"os"
	"path/filepath"
)

// FileSource is the concrete Source backing local filesystem paths, used
// by cmd/ragctl and internal/mcpserver when a caller hands ragcore a
// plain path instead of an embedder-specific stream.
type FileSource struct {
	Path string
}

// NewFileSource builds a FileSource for path.
func NewFileSource(path string) FileSource {
	return FileSource{Path: path}
}

func (f FileSource) Open() (io.ReadCloser, error) {
	return os.Open(f.Path)
}

func (f FileSource) DisplayName() string {
	return filepath.Base(f.Path)
}

func (f FileSource) MIMEHint() string {
	if t := mime.TypeByExtension(filepath.Ext(f.Path)); t != "" {
		return t
	}
	return ""
}

func (f FileSource) SizeBytes() int64 {
	info, err := os.Stat(f.Path)
	if err != nil {
		return -1
	}
	return info.Size()
}
