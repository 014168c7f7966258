// Package discovery enumerates candidate input files under a root directory.
// Results are ordered deterministically so two runs over the same tree
// process files identically, on every platform.
package discovery

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"git.home.luguber.info/inful/docrotate/internal/logfields"
	"git.home.luguber.info/inful/docrotate/internal/util/sets"
)

// FileRecord identifies one discovered file. RelativePath is the stable
// identity used for reporting and output-path mirroring; both fields are
// immutable once created.
type FileRecord struct {
	AbsolutePath string
	RelativePath string
}

// Extension returns the record's extension, lower-cased without the dot.
// Empty when the file has none.
func (f FileRecord) Extension() string {
	return NormalizeExt(filepath.Ext(f.RelativePath))
}

// BaseName returns the file name without directory or extension.
func (f FileRecord) BaseName() string {
	base := filepath.Base(f.RelativePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// NormalizeExt lower-cases an extension and strips a leading dot.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// Discover recursively walks rootDir and returns every file whose extension
// (case-insensitive) is in allowed, sorted ascending by relative path. Files
// without an extension are excluded. A missing root is not an error: it logs
// a warning and yields an empty list.
func Discover(rootDir string, allowed sets.Set[string], logger *slog.Logger) ([]FileRecord, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if _, err := os.Stat(rootDir); os.IsNotExist(err) {
		logger.Warn("input directory does not exist", logfields.Path(rootDir))
		return nil, nil
	}

	root, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("resolve root %s: %w", rootDir, err)
	}

	var records []FileRecord
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := NormalizeExt(filepath.Ext(info.Name()))
		if ext == "" || !allowed.Has(ext) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("relativize %s: %w", path, err)
		}
		records = append(records, FileRecord{AbsolutePath: path, RelativePath: rel})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", rootDir, err)
	}

	// Sort on an NFC-normalized, slash-separated key so the order is stable
	// across filesystems that store names in different Unicode forms.
	sort.Slice(records, func(i, j int) bool {
		return sortKey(records[i]) < sortKey(records[j])
	})
	return records, nil
}

func sortKey(r FileRecord) string {
	return norm.NFC.String(filepath.ToSlash(r.RelativePath))
}
