package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteFileAtomic writes the output of fill to path through a temporary file
// in the same directory, syncs it and renames it into place. Readers never
// observe a partially written file.
func WriteFileAtomic(path string, perm os.FileMode, fill func(w io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("storage: create dir: %w", err)
	}

	file, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tempPath := file.Name()
	defer func() {
		if err != nil {
			file.Close()
			os.Remove(tempPath)
		}
	}()

	if err = fill(file); err != nil {
		return err
	}
	if err = file.Chmod(perm); err != nil {
		return fmt.Errorf("storage: chmod: %w", err)
	}
	if err = file.Sync(); err != nil {
		return fmt.Errorf("storage: sync: %w", err)
	}
	if err = file.Close(); err != nil {
		return fmt.Errorf("storage: close: %w", err)
	}
	if err = os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	return nil
}

// WriteBytesAtomic is WriteFileAtomic for an in-memory buffer.
func WriteBytesAtomic(path string, data []byte, perm os.FileMode) error {
	return WriteFileAtomic(path, perm, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}
