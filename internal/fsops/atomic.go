package fsops

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteFileAtomic writes content to path with no observable partial state.
// Content lands in a hidden temporary sibling (".<name>.tmp") first and is
// renamed onto the destination only once fully written. On any failure the
// temporary file is removed and the destination keeps its previous content
// (or stays absent). The destination's directory is created if missing.
func WriteFileAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmp := filepath.Join(dir, "."+filepath.Base(path)+".tmp")
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write temporary file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("commit %s: %w", path, err)
	}
	return nil
}
