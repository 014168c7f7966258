package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docrotate/internal/util/sets"
)

func seed(t *testing.T, root string, rels ...string) {
	t.Helper()
	for _, rel := range rels {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(rel), 0o644))
	}
}

func rels(records []FileRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = filepath.ToSlash(r.RelativePath)
	}
	return out
}

func TestDiscoverFiltersAndSorts(t *testing.T) {
	root := t.TempDir()
	seed(t, root,
		"z.pdf",
		"a/b.pdf",
		"a/ignored.png",
		"noext",
		"UPPER.PDF",
		"docs/manual.docx",
	)

	records, err := Discover(root, sets.New("pdf", "docx"), nil)
	require.NoError(t, err)
	require.Equal(t, []string{"UPPER.PDF", "a/b.pdf", "docs/manual.docx", "z.pdf"}, rels(records))

	for _, r := range records {
		require.True(t, filepath.IsAbs(r.AbsolutePath), r.AbsolutePath)
	}
}

func TestDiscoverIdempotentOrdering(t *testing.T) {
	root := t.TempDir()
	seed(t, root, "c.md", "a.md", "b/x.md", "b/a.md")

	first, err := Discover(root, sets.New("md"), nil)
	require.NoError(t, err)
	second, err := Discover(root, sets.New("md"), nil)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestDiscoverMissingRootYieldsEmpty(t *testing.T) {
	records, err := Discover(filepath.Join(t.TempDir(), "absent"), sets.New("pdf"), nil)
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestDiscoverExcludesExtensionlessFiles(t *testing.T) {
	root := t.TempDir()
	seed(t, root, "README", "Makefile", "real.txt")

	records, err := Discover(root, sets.New("txt"), nil)
	require.NoError(t, err)
	require.Equal(t, []string{"real.txt"}, rels(records))
}

func TestFileRecordHelpers(t *testing.T) {
	r := FileRecord{RelativePath: filepath.FromSlash("sub/Report.PDF")}
	require.Equal(t, "pdf", r.Extension())
	require.Equal(t, "Report", r.BaseName())

	require.Equal(t, "md", NormalizeExt(".MD"))
	require.Equal(t, "", NormalizeExt(""))
}
