// Package extract implements the text-extraction gate (spec.md §4.5): it
// dispatches a document's byte stream to a format-specific extractor by
// MIME then filename suffix, bounds the amount of input it will ever read,
// and applies the repetition/length quality gate that decides whether an
// extraction is worth indexing at all.
package extract

// Format identifies a supported document format.
type Format string

const (
	FormatPDF      Format = "pdf"
	FormatDOCX     Format = "docx"
	FormatXLSX     Format = "xlsx"
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatXML      Format = "xml"
)

// Bounds on how much of a document the extractor will ever read, applied
// whichever limit is hit first (spec.md §4.5).
const (
	MaxBytes = 7_500_000
	MaxChars = 250_000
)

// Quality gate thresholds (spec.md §4.5).
const (
	MinChars              = 350
	MinLinesForRatioCheck = 10
	MinUniqueLineRatio    = 0.35
)

// Denoising thresholds (spec.md §4.5).
const (
	DenoiseMinRepeats = 3
	DenoiseMaxLineLen = 60
)
