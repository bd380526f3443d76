package extract

import (
	"bytes"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/irisrag/ragcore/internal/ragerr"
)

// extractPDF pulls plain text out of every page of a PDF, in order,
// separated by blank lines.
func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", ragerr.Wrap(ragerr.CodeUnsupportedFormat, err)
	}

	var b strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			// A single malformed page shouldn't sink the whole document;
			// skip it and keep going.
			continue
		}
		b.WriteString(content)
		b.WriteString("\n\n")
	}

	return b.String(), nil
}
