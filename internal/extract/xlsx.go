package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/irisrag/ragcore/internal/ragerr"
)

// extractXLSX reads an OOXML spreadsheet (a zip of XML parts) and emits
// one "Sheet: <name>" header per worksheet followed by its rows as
// tab-separated values, per spec.md §4.5.
//
// No third-party XLSX library appears anywhere in the example pack (see
// DESIGN.md), so this walks the OOXML zip directly with the standard
// library's archive/zip and encoding/xml — the same two packages a DOCX
// or PPTX reader would need, since all three formats share the OOXML
// container format.
func extractXLSX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", ragerr.Wrap(ragerr.CodeUnsupportedFormat, err)
	}

	files := indexZip(zr)

	shared, err := readSharedStrings(files)
	if err != nil {
		return "", err
	}

	sheets, err := readSheetOrder(files)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, sheet := range sheets {
		f, ok := files[sheet.target]
		if !ok {
			continue
		}
		rows, err := readWorksheetRows(f, shared)
		if err != nil {
			continue
		}
		b.WriteString("Sheet: ")
		b.WriteString(sheet.name)
		b.WriteString("\n")
		for _, row := range rows {
			b.WriteString(strings.Join(row, "\t"))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	return b.String(), nil
}

func indexZip(zr *zip.Reader) map[string]*zip.File {
	out := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		out[f.Name] = f
	}
	return out
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

type xlsxSI struct {
	T  string    `xml:"t"`
	Rs []xlsxRun `xml:"r"`
}
type xlsxRun struct {
	T string `xml:"t"`
}
type xlsxSST struct {
	SI []xlsxSI `xml:"si"`
}

func readSharedStrings(files map[string]*zip.File) ([]string, error) {
	f, ok := files["xl/sharedStrings.xml"]
	if !ok {
		return nil, nil
	}
	raw, err := readZipFile(f)
	if err != nil {
		return nil, ragerr.Wrap(ragerr.CodeIOError, err)
	}
	var sst xlsxSST
	if err := xml.Unmarshal(raw, &sst); err != nil {
		return nil, ragerr.Wrap(ragerr.CodeUnsupportedFormat, err)
	}
	out := make([]string, len(sst.SI))
	for i, si := range sst.SI {
		if si.T != "" {
			out[i] = si.T
			continue
		}
		var parts []string
		for _, r := range si.Rs {
			parts = append(parts, r.T)
		}
		out[i] = strings.Join(parts, "")
	}
	return out, nil
}

type xlsxSheetEntry struct {
	name   string
	target string
}

type workbookXML struct {
	Sheets []struct {
		Name string `xml:"name,attr"`
		RID  string `xml:"id,attr"`
	} `xml:"sheets>sheet"`
}

type relsXML struct {
	Relationships []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

func readSheetOrder(files map[string]*zip.File) ([]xlsxSheetEntry, error) {
	wbFile, ok := files["xl/workbook.xml"]
	if !ok {
		return nil, ragerr.New(ragerr.CodeUnsupportedFormat, "xlsx missing workbook.xml", nil)
	}
	raw, err := readZipFile(wbFile)
	if err != nil {
		return nil, ragerr.Wrap(ragerr.CodeIOError, err)
	}

	var wb workbookXML
	// The "r:id" attribute's local name is "id" once the "r" namespace
	// prefix is stripped by encoding/xml's default namespace handling.
	if err := xml.Unmarshal(raw, &wb); err != nil {
		return nil, ragerr.Wrap(ragerr.CodeUnsupportedFormat, err)
	}

	relsByID := map[string]string{}
	if relsFile, ok := files["xl/_rels/workbook.xml.rels"]; ok {
		relsRaw, err := readZipFile(relsFile)
		if err == nil {
			var rels relsXML
			if xml.Unmarshal(relsRaw, &rels) == nil {
				for _, r := range rels.Relationships {
					relsByID[r.ID] = r.Target
				}
			}
		}
	}

	var out []xlsxSheetEntry
	for i, s := range wb.Sheets {
		target := relsByID[s.RID]
		if target == "" {
			target = fmt.Sprintf("worksheets/sheet%d.xml", i+1)
		}
		if !strings.HasPrefix(target, "xl/") {
			target = "xl/" + strings.TrimPrefix(target, "/")
		}
		name := s.Name
		if name == "" {
			name = fmt.Sprintf("Sheet%d", i+1)
		}
		out = append(out, xlsxSheetEntry{name: name, target: target})
	}
	return out, nil
}

type sheetXML struct {
	Rows []struct {
		R     string `xml:"r,attr"`
		Cells []struct {
			Ref string `xml:"r,attr"`
			T   string `xml:"t,attr"`
			V   string `xml:"v"`
			Is  struct {
				T string `xml:"t"`
			} `xml:"is"`
		} `xml:"c"`
	} `xml:"sheetData>row"`
}

func readWorksheetRows(f *zip.File, shared []string) ([][]string, error) {
	raw, err := readZipFile(f)
	if err != nil {
		return nil, ragerr.Wrap(ragerr.CodeIOError, err)
	}
	var sheet sheetXML
	if err := xml.Unmarshal(raw, &sheet); err != nil {
		return nil, ragerr.Wrap(ragerr.CodeUnsupportedFormat, err)
	}

	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		cols := make([]string, 0, len(row.Cells))
		for _, c := range row.Cells {
			switch c.T {
			case "s":
				idx, err := strconv.Atoi(strings.TrimSpace(c.V))
				if err == nil && idx >= 0 && idx < len(shared) {
					cols = append(cols, shared[idx])
				} else {
					cols = append(cols, "")
				}
			case "inlineStr":
				cols = append(cols, c.Is.T)
			default:
				cols = append(cols, c.V)
			}
		}
		rows = append(rows, cols)
	}

	return rows, nil
}
