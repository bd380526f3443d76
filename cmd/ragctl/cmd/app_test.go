package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// newTestApp builds an app rooted under a fresh temp directory, with its
// own .ragcore.yaml so it never touches a real user config or store.
func newTestApp(t *testing.T) *app {
	t.Helper()
	dir := t.TempDir()
	storeDir := filepath.Join(dir, "store")

	yaml := "store:\n  root_dir: " + storeDir + "\nlogging:\n  file_path: " + filepath.Join(dir, "ragctl.log") + "\n  write_to_stderr: false\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".ragcore.yaml"), []byte(yaml), 0o644))

	a, err := newApp(dir)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

// withProjectDir chdirs into dir for the duration of the test, writing a
// .ragcore.yaml that roots the store under dir/store.
func withProjectDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	storeDir := filepath.Join(dir, "store")
	yaml := "store:\n  root_dir: " + storeDir + "\nlogging:\n  write_to_stderr: false\n  file_path: " + filepath.Join(dir, "ragctl.log") + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".ragcore.yaml"), []byte(yaml), 0o644))

	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(oldWd) })
	return dir
}

func TestNewAppWiresStoreAndEmbedder(t *testing.T) {
	a := newTestApp(t)
	require.True(t, a.embedder.Attached())
	require.NotNil(t, a.repo)
	require.NotNil(t, a.router)
}
