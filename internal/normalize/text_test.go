package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextCRLF(t *testing.T) {
	assert.Equal(t, "a\nb\nc", Text("a\r\nb\rc"))
}

func TestTextNUL(t *testing.T) {
	assert.Equal(t, "ab", Text("a\x00b"))
}

func TestTextCollapsesSpacesAndTabs(t *testing.T) {
	assert.Equal(t, "a b c", Text("a   \t\t b\tc"))
}

func TestTextCollapsesExcessNewlines(t *testing.T) {
	assert.Equal(t, "a\n\nb", Text("a\n\n\n\n\nb"))
}

func TestTextTrimsSurroundingWhitespace(t *testing.T) {
	assert.Equal(t, "hello", Text("   hello  \n\n "))
}

func TestTextIdempotent(t *testing.T) {
	inputs := []string{
		"a\r\n\r\nb   c\tc\r\r\rd",
		"already normal text",
		"\x00\x00",
		"",
	}
	for _, in := range inputs {
		once := Text(in)
		twice := Text(once)
		assert.Equal(t, once, twice, "Text should be idempotent for %q", in)
	}
}
