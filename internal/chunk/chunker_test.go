package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irisrag/ragcore/internal/normalize"
)

func sentence(n int, word string) string {
	words := make([]string, n)
	for i := range words {
		words[i] = word
	}
	return strings.Join(words, " ") + "."
}

func paragraph(sentences int, wordsPerSentence int) string {
	parts := make([]string, sentences)
	for i := range parts {
		parts[i] = "Sentence number " + sentence(wordsPerSentence, "alpha")
	}
	return strings.Join(parts, " ")
}

func longDocument() string {
	paragraphs := make([]string, 6)
	for i := range paragraphs {
		paragraphs[i] = paragraph(8, 8)
	}
	return strings.Join(paragraphs, "\n\n")
}

func TestChunkShortTextReturnsOneChunk(t *testing.T) {
	text := "This is a short document. It has two sentences."
	chunks, err := Chunk(text, Options{})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].Index)
}

func TestChunkEmptyProducesError(t *testing.T) {
	_, err := Chunk("   \n\n  ", Options{})
	require.Error(t, err)
}

func TestChunkBounds(t *testing.T) {
	text := longDocument()
	opts := Options{TargetChars: 200, OverlapChars: 80}
	chunks, err := Chunk(text, opts)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for _, c := range chunks {
		assert.LessOrEqual(t, len(c.Text), opts.TargetChars+opts.OverlapChars+10,
			"chunk %d exceeds target+overlap bound: %q", c.Index, c.Text)
	}
}

func TestChunkIndicesAreDenseAndOrdered(t *testing.T) {
	text := longDocument()
	chunks, err := Chunk(text, Options{TargetChars: 150, OverlapChars: 40})
	require.NoError(t, err)
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
	}
}

func TestChunkOverlapMarker(t *testing.T) {
	text := longDocument()
	chunks, err := Chunk(text, Options{TargetChars: 150, OverlapChars: 60})
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
	for i, c := range chunks {
		if i == 0 {
			assert.False(t, strings.HasPrefix(c.Text, "..."))
			continue
		}
		assert.True(t, strings.HasPrefix(c.Text, "..."), "chunk %d should carry a continuation marker", i)
	}
}

func TestChunkCoverage(t *testing.T) {
	text := longDocument()
	opts := Options{TargetChars: 180, OverlapChars: 50}
	chunks, err := Chunk(text, opts)
	require.NoError(t, err)

	norm := normalize.Text(text)
	runes := []rune(norm)

	var b strings.Builder
	for _, c := range chunks {
		b.WriteString(string(runes[c.StartOffset:c.EndOffset]))
		b.WriteString(" ")
	}

	want := whitespaceNormalize(norm)
	got := whitespaceNormalize(b.String())
	assert.Equal(t, want, got)
}

func TestChunkSingleGiantSentenceSplitsAtWords(t *testing.T) {
	text := sentence(400, "word")
	chunks, err := Chunk(text, Options{TargetChars: 200, OverlapChars: 50})
	require.NoError(t, err)
	assert.Greater(t, len(chunks), 1)
}

func whitespaceNormalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
