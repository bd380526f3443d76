package docstore

import (
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// atomicWriteFile writes data to a temp file beside path and renames it
// into place, so readers never observe a partially written file.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// docLock returns the flock guarding a document's folder. Callers must
// Lock/Unlock around any sequence of writes that must not interleave with
// another worker touching the same doc_id (spec.md §4.6 exclusivity).
func docLock(docDir string) *flock.Flock {
	return flock.New(filepath.Join(docDir, ".lock"))
}
