package extract

import (
	"strconv"
	"strings"

	"github.com/irisrag/ragcore/internal/ragerr"
)

// Denoise drops lines that repeat 3+ times and are short (<=60 chars) —
// typical page headers/footers — unless doing so would throw away too
// much of the document, in which case the original text is kept
// untouched (spec.md §4.5).
func Denoise(text string) string {
	lines := strings.Split(text, "\n")

	counts := make(map[string]int, len(lines))
	normalized := make([]string, len(lines))
	for i, line := range lines {
		key := strings.ToLower(strings.Join(strings.Fields(line), " "))
		normalized[i] = key
		if key != "" {
			counts[key]++
		}
	}

	filtered := make([]string, 0, len(lines))
	for i, line := range lines {
		key := normalized[i]
		if key != "" && len(line) <= DenoiseMaxLineLen && counts[key] >= DenoiseMinRepeats {
			continue
		}
		filtered = append(filtered, line)
	}

	candidate := strings.Join(filtered, "\n")

	minKeep := len(text) / 4
	if minKeep < 120 {
		minKeep = 120
	}
	if len(candidate) < minKeep {
		return text
	}
	return candidate
}

// QualityResult carries the metrics the gate decided on, for logging.
type QualityResult struct {
	Chars           int
	Lines           int
	UniqueLineRatio float64
}

// QualityGate rejects extractions that are too short or too repetitive to
// be worth indexing (spec.md §4.5). It returns the computed metrics
// alongside a nil error when the text passes.
func QualityGate(text string) (QualityResult, error) {
	chars := len([]rune(text))
	if chars < MinChars {
		return QualityResult{Chars: chars}, ragerr.New(ragerr.CodeExtractionTooShort,
			"extracted text is too short to index", nil).
			WithDetail("chars", strconv.Itoa(chars))
	}

	lines, unique := nonBlankLineStats(text)
	var ratio float64
	if lines > 0 {
		ratio = float64(unique) / float64(lines)
	}

	result := QualityResult{Chars: chars, Lines: lines, UniqueLineRatio: ratio}

	if lines >= MinLinesForRatioCheck && ratio < MinUniqueLineRatio {
		return result, ragerr.New(ragerr.CodeExtractionTooRepetitive,
			"extracted text is too repetitive to index", nil).
			WithDetail("unique_line_ratio", strconv.Itoa(int(ratio*100)))
	}

	return result, nil
}

func nonBlankLineStats(text string) (total, unique int) {
	seen := make(map[string]struct{})
	for _, line := range strings.Split(text, "\n") {
		key := strings.ToLower(strings.Join(strings.Fields(line), " "))
		if key == "" {
			continue
		}
		total++
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			unique++
		}
	}
	return total, unique
}
