package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"strings"

	"github.com/irisrag/ragcore/internal/ragerr"
)

// extractDOCX reads an OOXML word-processing document and concatenates
// the text runs of every paragraph in word/document.xml, one paragraph
// per line. Grounded on the same archive/zip + encoding/xml approach as
// extractXLSX, since both formats are OOXML zips and no third-party DOCX
// library appears in the example pack (see DESIGN.md).
func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", ragerr.Wrap(ragerr.CodeUnsupportedFormat, err)
	}

	var docXML *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docXML = f
			break
		}
	}
	if docXML == nil {
		return "", ragerr.New(ragerr.CodeUnsupportedFormat, "docx missing word/document.xml", nil)
	}

	raw, err := readZipFile(docXML)
	if err != nil {
		return "", ragerr.Wrap(ragerr.CodeIOError, err)
	}

	return decodeDocumentXML(raw)
}

// decodeDocumentXML streams the document body, emitting the contents of
// every <w:t> run and a newline at the end of every <w:p> paragraph.
func decodeDocumentXML(raw []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	var b strings.Builder
	var inText bool

	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteString("\n")
			case "tab":
				b.WriteString("\t")
			}
		case xml.CharData:
			if inText {
				b.Write(el)
			}
		}
	}

	return b.String(), nil
}
