package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSampleDoc(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "sample.txt")
	content := ""
	for i := 0; i < 50; i++ {
		content += "ragcore indexes local documents for offline retrieval. "
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunAddIndexesDocumentAndIsRetrievable(t *testing.T) {
	docDir := t.TempDir()
	docPath := writeSampleDoc(t, docDir)
	dir := withProjectDir(t)

	cmd := newAddCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)

	err := runAdd(context.Background(), cmd, []string{docPath}, true)
	require.NoError(t, err)

	a, err := newApp(dir)
	require.NoError(t, err)
	defer a.Close()

	docs, err := a.repo.SnapshotDocs()
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "sample.txt", docs[0].Name)
}

func TestRunAddReportsMissingFile(t *testing.T) {
	withProjectDir(t)

	cmd := newAddCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)

	err := runAdd(context.Background(), cmd, []string{"/nonexistent/path.txt"}, true)
	assert.Error(t, err)
}
