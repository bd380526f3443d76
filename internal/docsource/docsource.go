// Package docsource declares the Source interface the core consumes to
// read a document's bytes (spec.md §6, "DocumentSource interface
// (consumed)"). The only implementation in this module is FileSource,
// which reads a plain filesystem path; the indexing pipeline itself only
// ever sees this interface.
package docsource

import "io"

// Source is an opaque reference to one document's byte stream plus the
// display metadata the repository needs to create a DocRecord.
type Source interface {
	// Open returns a readable stream of the document's raw bytes. The
	// caller is responsible for closing it.
	Open() (io.ReadCloser, error)

	// DisplayName is the human-readable name shown in citations and the
	// context block (e.g. "resume.pdf").
	DisplayName() string

	// MIMEHint is the caller-supplied MIME type, used as the primary
	// extractor dispatch key before falling back to the file extension.
	MIMEHint() string

	// SizeBytes is the source's size if known, or -1 if unknown.
	SizeBytes() int64
}
