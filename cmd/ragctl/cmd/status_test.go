package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStatusReportsDocCounts(t *testing.T) {
	docDir := t.TempDir()
	docPath := writeSampleDoc(t, docDir)
	withProjectDir(t)

	addCmd := newAddCmd()
	require.NoError(t, runAdd(context.Background(), addCmd, []string{docPath}, true))

	statusCmd := newStatusCmd()
	buf := &bytes.Buffer{}
	statusCmd.SetOut(buf)
	statusCmd.SetContext(context.Background())
	require.NoError(t, runStatus(statusCmd, false))

	out := buf.String()
	assert.Contains(t, out, "1 ready, 1 total")
	assert.Contains(t, out, "static-hash")
}

func TestRunStatusJSONOutput(t *testing.T) {
	withProjectDir(t)

	cmd := newStatusCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetContext(context.Background())
	require.NoError(t, runStatus(cmd, true))
	assert.Contains(t, buf.String(), `"total_docs"`)
}
