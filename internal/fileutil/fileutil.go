// Package fileutil holds small filesystem helpers shared by the JSON-backed
// stores.
package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteAtomic writes data to path via a temp file sibling and rename, so
// readers never observe a partially written file. Parent directories are
// created as needed.
func WriteAtomic(path string, data []byte, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, mode); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// BackupThenReplace renames path to path+".bak" when it exists, then writes
// data atomically. A backup rename failure aborts before anything is
// overwritten.
func BackupThenReplace(path string, data []byte, mode os.FileMode) error {
	if _, err := os.Stat(path); err == nil {
		if err := os.Rename(path, path+".bak"); err != nil {
			return fmt.Errorf("backup %s: %w", filepath.Base(path), err)
		}
	}
	return WriteAtomic(path, data, mode)
}
