package extract

import (
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/irisrag/ragcore/internal/ragerr"
)

// extractPlainText passes plain-text and Markdown content through
// untouched; normalization happens later in the worker pipeline.
func extractPlainText(data []byte) (string, error) {
	return string(data), nil
}

// extractCSV re-renders rows as tab-separated text, one row per line, so
// the chunker's sentence/paragraph heuristics have something reasonable
// to key off of.
func extractCSV(data []byte) (string, error) {
	r := csv.NewReader(strings.NewReader(string(data)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var b strings.Builder
	for {
		record, err := r.Read()
		if err != nil {
			break
		}
		b.WriteString(strings.Join(record, "\t"))
		b.WriteString("\n")
	}
	return b.String(), nil
}

// extractJSON flattens a JSON document into "path: value" lines so that
// keys and values both become retrievable text.
func extractJSON(data []byte) (string, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return "", ragerr.Wrap(ragerr.CodeUnsupportedFormat, err)
	}
	var b strings.Builder
	flattenJSON("", v, &b)
	return b.String(), nil
}

func flattenJSON(path string, v any, b *strings.Builder) {
	switch val := v.(type) {
	case map[string]any:
		for k, child := range val {
			childPath := k
			if path != "" {
				childPath = path + "." + k
			}
			flattenJSON(childPath, child, b)
		}
	case []any:
		for i, child := range val {
			flattenJSON(path+"["+strconv.Itoa(i)+"]", child, b)
		}
	default:
		b.WriteString(path)
		b.WriteString(": ")
		b.WriteString(jsonScalarString(val))
		b.WriteString("\n")
	}
}

func jsonScalarString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case nil:
		return "null"
	default:
		out, err := json.Marshal(x)
		if err != nil {
			return ""
		}
		return string(out)
	}
}

// extractXML strips tags and returns the concatenated character data,
// one text node per line.
func extractXML(data []byte) (string, error) {
	dec := xml.NewDecoder(strings.NewReader(string(data)))
	dec.Strict = false

	var b strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		if cd, ok := tok.(xml.CharData); ok {
			text := strings.TrimSpace(string(cd))
			if text != "" {
				b.WriteString(text)
				b.WriteString("\n")
			}
		}
	}
	return b.String(), nil
}
