package dataset

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteFileAtomic writes data to path through a synced temporary file in
// the same directory followed by a rename.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	return writeFileAtomic(path, data, perm, nil)
}

// writeFileAtomic accepts a hook that runs after the temporary file is
// synced and before the rename; tests use it to simulate a crash.
func writeFileAtomic(path string, data []byte, perm os.FileMode, beforeRename func(tmp string) error) error {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	file, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return fmt.Errorf("dataset: create temp file: %w", err)
	}
	tempPath := file.Name()
	defer os.Remove(tempPath)

	if _, err := file.Write(data); err != nil {
		file.Close()
		return fmt.Errorf("dataset: write temp file: %w", err)
	}
	if err := file.Chmod(perm); err != nil {
		file.Close()
		return fmt.Errorf("dataset: chmod temp file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("dataset: sync: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("dataset: close: %w", err)
	}

	if beforeRename != nil {
		if err := beforeRename(tempPath); err != nil {
			return err
		}
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("dataset: rename: %w", err)
	}
	syncDir(dir)
	return nil
}

// syncDir persists the rename. Some platforms cannot fsync directories;
// the rename itself is still atomic there.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
