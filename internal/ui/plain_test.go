package ui

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPlainRendererUpdateProgressWritesStageLine(t *testing.T) {
	var buf bytes.Buffer
	r := NewPlainRenderer(Config{Output: &buf})

	r.UpdateProgress(ProgressEvent{Stage: StageEmbed, Current: 2, Total: 5, CurrentDoc: "a.txt"})
	assert.Contains(t, buf.String(), "[EMBED] 2/5 - a.txt")
}

func TestPlainRendererAddErrorFormatsWithDocName(t *testing.T) {
	var buf bytes.Buffer
	r := NewPlainRenderer(Config{Output: &buf})

	r.AddError(ErrorEvent{Doc: "a.txt", Err: errors.New("bad format")})
	assert.Contains(t, buf.String(), "ERROR: a.txt: bad format")
}

func TestPlainRendererAddWarningUsesWarnPrefix(t *testing.T) {
	var buf bytes.Buffer
	r := NewPlainRenderer(Config{Output: &buf})

	r.AddError(ErrorEvent{Doc: "a.txt", Err: errors.New("slow"), IsWarn: true})
	assert.Contains(t, buf.String(), "WARN: a.txt: slow")
}

func TestPlainRendererCompleteSummarizesCounts(t *testing.T) {
	var buf bytes.Buffer
	r := NewPlainRenderer(Config{Output: &buf})

	r.Complete(CompletionStats{Docs: 3, Chunks: 42, Duration: 2 * time.Second, Errors: 1})
	out := buf.String()
	assert.Contains(t, out, "Complete: 3 docs, 42 chunks indexed")
	assert.Contains(t, out, "1 errors")
}
