// Package normalize canonicalizes raw extracted text before chunking
// (spec.md §4.3): line endings, control characters, and whitespace runs
// are collapsed so the chunker and quality gate see consistent input.
package normalize

import "strings"

// Text applies the canonical normalization: drop NUL bytes, convert
// CRLF/CR to LF, collapse runs of tabs/spaces to a single space, collapse
// 3+ consecutive newlines to exactly two, and trim surrounding whitespace.
// Idempotent: Text(Text(s)) == Text(s).
func Text(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	s = collapseRuns(s, " \t", ' ')
	s = collapseNewlineRuns(s)

	return strings.TrimSpace(s)
}

// collapseRuns replaces any maximal run of characters in set with a
// single replacement rune, leaving other characters untouched.
func collapseRuns(s string, set string, replacement rune) string {
	var b strings.Builder
	b.Grow(len(s))
	inRun := false
	for _, r := range s {
		if strings.ContainsRune(set, r) {
			if !inRun {
				b.WriteRune(replacement)
				inRun = true
			}
			continue
		}
		inRun = false
		b.WriteRune(r)
	}
	return b.String()
}

// collapseNewlineRuns collapses 3+ consecutive "\n" into exactly two,
// preserving single and double newlines (paragraph breaks).
func collapseNewlineRuns(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	count := 0
	for _, r := range s {
		if r == '\n' {
			count++
			continue
		}
		if count > 0 {
			writeNewlines(&b, count)
			count = 0
		}
		b.WriteRune(r)
	}
	if count > 0 {
		writeNewlines(&b, count)
	}
	return b.String()
}

func writeNewlines(b *strings.Builder, count int) {
	if count >= 3 {
		b.WriteString("\n\n")
		return
	}
	for i := 0; i < count; i++ {
		b.WriteByte('\n')
	}
}
