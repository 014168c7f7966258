package fsops

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// MoveResult reports the outcome of a MoveContents call. A non-empty Errors
// slice means a partial failure: some entries moved, the listed ones did not.
type MoveResult struct {
	Moved  int
	Errors []error
}

// Failed reports whether any entry could not be moved.
func (r MoveResult) Failed() bool { return len(r.Errors) > 0 }

// MoveContents relocates every top-level entry of srcDir into dstDir,
// overwriting conflicting names. A missing srcDir is not an error; the result
// simply reports zero moves. Entries are processed in name order so repeated
// runs behave identically.
//
// Each entry is first renamed; when rename is unavailable (cross-device) the
// entry is copied with metadata preserved and only then removed from the
// source, so at least one full copy exists at all times.
func MoveContents(srcDir, dstDir string) MoveResult {
	var res MoveResult

	entries, err := os.ReadDir(srcDir)
	if err != nil {
		if os.IsNotExist(err) {
			return res
		}
		res.Errors = append(res.Errors, fmt.Errorf("read %s: %w", srcDir, err))
		return res
	}
	if err := os.MkdirAll(dstDir, 0o750); err != nil {
		res.Errors = append(res.Errors, fmt.Errorf("create %s: %w", dstDir, err))
		return res
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		src := filepath.Join(srcDir, entry.Name())
		dst := filepath.Join(dstDir, entry.Name())

		if err := moveEntry(src, dst); err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("move %s: %w", src, err))
			continue
		}
		res.Moved++
	}
	return res
}

func moveEntry(src, dst string) error {
	// Overwrite semantics: clear a conflicting destination first.
	if _, err := os.Lstat(dst); err == nil {
		if err := os.RemoveAll(dst); err != nil {
			return fmt.Errorf("clear destination: %w", err)
		}
	}

	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	// Rename failed (typically EXDEV). Copy first, verify the copy landed,
	// then remove the source.
	if err := CopyTree(src, dst); err != nil {
		return fmt.Errorf("copy fallback: %w", err)
	}
	if _, err := os.Lstat(dst); err != nil {
		return fmt.Errorf("verify copy: %w", err)
	}
	if err := os.RemoveAll(src); err != nil {
		return fmt.Errorf("remove source after copy: %w", err)
	}
	return nil
}

// CopyTree copies src (file or directory) to dst, preserving permissions and
// modification times where the platform allows.
func CopyTree(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return copyFile(src, dst, info)
	}

	if err := os.MkdirAll(dst, info.Mode().Perm()); err != nil {
		return err
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := CopyTree(filepath.Join(src, entry.Name()), filepath.Join(dst, entry.Name())); err != nil {
			return err
		}
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}

func copyFile(src, dst string, info os.FileInfo) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
