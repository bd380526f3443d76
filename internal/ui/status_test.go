package ui

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatusRendererRenderIncludesCounts(t *testing.T) {
	var buf bytes.Buffer
	r := NewStatusRenderer(&buf, true)

	r.Render(CorpusStatus{
		CorpusDir:       "/data/corpus",
		TotalDocs:       3,
		ReadyDocs:       2,
		FailedDocs:      1,
		TotalChunks:     50,
		LastIndexed:     time.Now().Add(-2 * time.Minute),
		TotalSize:       2048,
		EmbedderBackend: "onnx",
		EmbedderStatus:  "ready",
	})

	out := buf.String()
	assert.Contains(t, out, "/data/corpus")
	assert.Contains(t, out, "2 ready, 3 total")
	assert.Contains(t, out, "50")
	assert.Contains(t, out, "2.0 KB")
	assert.Contains(t, out, "onnx")
}

func TestStatusRendererRenderJSONEncodesStatus(t *testing.T) {
	var buf bytes.Buffer
	r := NewStatusRenderer(&buf, true)

	err := r.RenderJSON(CorpusStatus{CorpusDir: "/data", TotalDocs: 1})
	assert.NoError(t, err)
	assert.Contains(t, buf.String(), `"corpus_dir": "/data"`)
}

func TestFormatBytesScalesUnits(t *testing.T) {
	assert.Equal(t, "512 B", FormatBytes(512))
	assert.Equal(t, "1.0 KB", FormatBytes(1024))
	assert.Equal(t, "1.0 MB", FormatBytes(1024*1024))
}
