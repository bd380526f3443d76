package chunk

import (
	"strings"
	"unicode"

	"github.com/irisrag/ragcore/internal/normalize"
	"github.com/irisrag/ragcore/internal/ragerr"
)

// span is a half-open [start, end) range of rune indices into the
// normalized document text.
type span struct {
	start, end int
}

func (s span) len() int { return s.end - s.start }

// Chunk splits text into an ordered sequence of overlapping chunks
// following the sentence-first → paragraph-fallback → size-fallback
// pipeline of spec.md §4.4.
func Chunk(text string, opts Options) ([]Chunk, error) {
	opts = opts.withDefaults()

	norm := normalize.Text(text)
	runes := []rune(norm)
	n := len(runes)

	if n == 0 {
		return nil, ragerr.New(ragerr.CodeChunkingProducedNone, "no text to chunk", nil)
	}

	if n <= opts.TargetChars {
		return finalize([]span{{0, n}}, runes, opts.OverlapChars), nil
	}

	spans := sentenceFirstSpans(runes, 0, n, opts.TargetChars)
	if len(spans) < 2 {
		spans = paragraphFallbackSpans(runes, opts.TargetChars)
	}
	if len(spans) < 2 {
		spans = packByWords(runes, 0, n, opts.TargetChars)
	}
	if len(spans) == 0 {
		return nil, ragerr.New(ragerr.CodeChunkingProducedNone, "chunker produced zero chunks", nil)
	}

	return finalize(spans, runes, opts.OverlapChars), nil
}

// sentenceFirstSpans segments runes[start:end] into sentences, splits any
// sentence longer than target at word boundaries, then greedily packs the
// result into chunks up to target chars.
func sentenceFirstSpans(runes []rune, start, end, target int) []span {
	sentences := splitSentenceSpans(runes, start, end)
	expanded := make([]span, 0, len(sentences))
	for _, s := range sentences {
		if s.len() > target {
			expanded = append(expanded, packByWords(runes, s.start, s.end, target)...)
		} else {
			expanded = append(expanded, s)
		}
	}
	return packSpans(expanded, target)
}

// paragraphFallbackSpans segments the whole document into paragraphs
// (blocks separated by two-or-more newlines); long paragraphs recurse
// into sentence splitting, then word splitting.
func paragraphFallbackSpans(runes []rune, target int) []span {
	paragraphs := splitParagraphSpans(runes)
	expanded := make([]span, 0, len(paragraphs))
	for _, p := range paragraphs {
		if p.len() > target {
			expanded = append(expanded, sentenceFirstSpans(runes, p.start, p.end, target)...)
		} else {
			expanded = append(expanded, p)
		}
	}
	return packSpans(expanded, target)
}

// packSpans greedily merges adjacent spans into buffers up to target
// chars, flushing and starting a new buffer on overflow.
func packSpans(spans []span, target int) []span {
	if len(spans) == 0 {
		return nil
	}
	out := make([]span, 0, len(spans))
	cur := spans[0]
	for _, s := range spans[1:] {
		if s.end-cur.start > target {
			out = append(out, cur)
			cur = s
			continue
		}
		cur.end = s.end
	}
	out = append(out, cur)
	return out
}

// splitSentenceSpans finds sentence boundaries within runes[start:end]: a
// '.', '!' or '?' (possibly repeated, e.g. "...") followed by whitespace
// and an uppercase letter or opening quote/paren.
func splitSentenceSpans(runes []rune, start, end int) []span {
	var out []span
	cur := start
	i := start
	for i < end {
		c := runes[i]
		if c == '.' || c == '!' || c == '?' {
			j := i + 1
			for j < end && (runes[j] == '.' || runes[j] == '!' || runes[j] == '?') {
				j++
			}
			if j >= end {
				if sp, ok := trimSpan(runes, cur, j); ok {
					out = append(out, sp)
				}
				cur = j
				i = j
				continue
			}
			if isSpace(runes[j]) {
				k := j
				for k < end && isSpace(runes[k]) {
					k++
				}
				if k < end && (isUpperOrQuote(runes[k])) {
					if sp, ok := trimSpan(runes, cur, j); ok {
						out = append(out, sp)
					}
					cur = k
					i = k
					continue
				}
			}
		}
		i++
	}
	if sp, ok := trimSpan(runes, cur, end); ok {
		out = append(out, sp)
	}
	return out
}

// splitParagraphSpans splits the whole buffer on runs of two or more
// newlines.
func splitParagraphSpans(runes []rune) []span {
	var out []span
	n := len(runes)
	cur := 0
	i := 0
	for i < n {
		if runes[i] == '\n' {
			j := i
			for j < n && runes[j] == '\n' {
				j++
			}
			if j-i >= 2 {
				if sp, ok := trimSpan(runes, cur, i); ok {
					out = append(out, sp)
				}
				cur = j
				i = j
				continue
			}
			i = j
			continue
		}
		i++
	}
	if sp, ok := trimSpan(runes, cur, n); ok {
		out = append(out, sp)
	}
	return out
}

// packByWords splits runes[start:end] on whitespace and greedily packs
// words into buffers up to target chars. This is both the word-boundary
// split for oversized sentences/paragraphs and the final size fallback.
func packByWords(runes []rune, start, end, target int) []span {
	words := splitWordSpans(runes, start, end)
	return packSpans(words, target)
}

func splitWordSpans(runes []rune, start, end int) []span {
	var out []span
	i := start
	for i < end {
		for i < end && isSpace(runes[i]) {
			i++
		}
		if i >= end {
			break
		}
		j := i
		for j < end && !isSpace(runes[j]) {
			j++
		}
		out = append(out, span{i, j})
		i = j
	}
	return out
}

// trimSpan trims leading/trailing whitespace from runes[start:end] and
// reports whether the resulting span is non-empty.
func trimSpan(runes []rune, start, end int) (span, bool) {
	for start < end && isSpace(runes[start]) {
		start++
	}
	for end > start && isSpace(runes[end-1]) {
		end--
	}
	if end <= start {
		return span{}, false
	}
	return span{start, end}, true
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r)
}

func isUpperOrQuote(r rune) bool {
	if unicode.IsUpper(r) {
		return true
	}
	switch r {
	case '"', '\'', '“', '‘', '(':
		return true
	}
	return false
}

// finalize converts base spans into Chunks, prepending each chunk (after
// the first) with an overlap suffix from the preceding chunk, cut at the
// nearest word boundary at most overlapChars from the preceding chunk's
// end, marked with a leading continuation marker.
func finalize(spans []span, runes []rune, overlapChars int) []Chunk {
	chunks := make([]Chunk, len(spans))
	for idx, sp := range spans {
		text := string(runes[sp.start:sp.end])
		if idx > 0 && overlapChars > 0 {
			prev := spans[idx-1]
			if suffix := overlapSuffix(runes, prev, overlapChars); suffix != "" {
				text = "... " + suffix + " " + text
			}
		}
		chunks[idx] = Chunk{
			Index:       idx,
			Text:        text,
			StartOffset: sp.start,
			EndOffset:   sp.end,
		}
	}
	return chunks
}

// overlapSuffix returns the suffix of prev starting at the nearest word
// boundary at most overlapChars characters from prev's end.
func overlapSuffix(runes []rune, prev span, overlapChars int) string {
	pos := prev.end - overlapChars
	if pos < prev.start {
		pos = prev.start
	}
	for pos < prev.end && !isSpace(runes[pos]) {
		pos++
	}
	for pos < prev.end && isSpace(runes[pos]) {
		pos++
	}
	return strings.TrimSpace(string(runes[pos:prev.end]))
}
