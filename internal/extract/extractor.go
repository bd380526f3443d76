package extract

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"

	"github.com/irisrag/ragcore/internal/docsource"
	"github.com/irisrag/ragcore/internal/ragerr"
)

var mimeToFormat = map[string]Format{
	"application/pdf":    FormatPDF,
	"application/msword": FormatDOCX,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": FormatDOCX,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       FormatXLSX,
	"application/vnd.ms-excel": FormatXLSX,
	"text/plain":               FormatText,
	"text/markdown":            FormatMarkdown,
	"text/csv":                 FormatCSV,
	"application/json":         FormatJSON,
	"text/json":                FormatJSON,
	"application/xml":          FormatXML,
	"text/xml":                 FormatXML,
}

var extToFormat = map[string]Format{
	".pdf":      FormatPDF,
	".docx":     FormatDOCX,
	".doc":      FormatDOCX,
	".xlsx":     FormatXLSX,
	".xls":      FormatXLSX,
	".txt":      FormatText,
	".md":       FormatMarkdown,
	".markdown": FormatMarkdown,
	".csv":      FormatCSV,
	".json":     FormatJSON,
	".xml":      FormatXML,
}

// DetectFormat dispatches by MIME hint first, then by filename suffix, as
// required by spec.md §4.5 ("Dispatch by MIME then by filename suffix").
func DetectFormat(mimeHint, displayName string) (Format, error) {
	mime := strings.ToLower(strings.TrimSpace(mimeHint))
	if mime != "" {
		if f, ok := mimeToFormat[mime]; ok {
			return f, nil
		}
		// MIME given but not recognized: fall through to extension before
		// declaring the format unsupported.
	}

	ext := strings.ToLower(filepath.Ext(displayName))
	if f, ok := extToFormat[ext]; ok {
		return f, nil
	}

	return "", ragerr.New(ragerr.CodeUnsupportedFormat,
		"unsupported document format", nil).
		WithDetail("mime", mimeHint).
		WithDetail("name", displayName)
}

// formatExtractor extracts text from a bounded byte slice of the document.
type formatExtractor func(data []byte) (string, error)

var extractors = map[Format]formatExtractor{
	FormatPDF:      extractPDF,
	FormatDOCX:     extractDOCX,
	FormatXLSX:     extractXLSX,
	FormatText:     extractPlainText,
	FormatMarkdown: extractPlainText,
	FormatCSV:      extractCSV,
	FormatJSON:     extractJSON,
	FormatXML:      extractXML,
}

// Extract reads src through a bounded stream (MaxBytes, whichever limit is
// hit first also bounded by MaxChars after decoding), dispatches to the
// format-specific extractor, and returns the raw extracted text. It does
// not normalize, denoise, or quality-gate the result — that is the
// caller's job (IndexDocumentWorker, spec.md §4.7), so that Extract stays
// a pure format-decoding step.
func Extract(src docsource.Source) (string, error) {
	format, err := DetectFormat(src.MIMEHint(), src.DisplayName())
	if err != nil {
		return "", err
	}

	fn, ok := extractors[format]
	if !ok {
		return "", ragerr.New(ragerr.CodeUnsupportedFormat, "no extractor registered for format", nil).
			WithDetail("format", string(format))
	}

	data, err := readBounded(src)
	if err != nil {
		return "", ragerr.Wrap(ragerr.CodeIOError, err)
	}

	text, err := fn(data)
	if err != nil {
		return "", err
	}

	text = truncateRunes(text, MaxChars)

	if strings.TrimSpace(text) == "" {
		return "", ragerr.New(ragerr.CodeExtractionEmpty, "extraction produced no text", nil)
	}

	return text, nil
}

func readBounded(src docsource.Source) ([]byte, error) {
	rc, err := src.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	limited := io.LimitReader(rc, MaxBytes)
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, limited); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func truncateRunes(s string, maxChars int) string {
	if maxChars <= 0 {
		return s
	}
	count := 0
	for i := range s {
		count++
		if count > maxChars {
			return s[:i]
		}
	}
	return s
}
