package convert

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestBuiltinMarkdownToHTML(t *testing.T) {
	engine := NewBuiltinEngine()
	doc, err := engine.Convert(context.Background(), writeSource(t, "note.md", "# Title\n\nbody text\n"))
	require.NoError(t, err)

	out, err := doc.Export(FormatHTML)
	require.NoError(t, err)
	require.Contains(t, string(out), "<h1>Title</h1>")
	require.Contains(t, string(out), "body text")
}

func TestBuiltinMarkdownToText(t *testing.T) {
	engine := NewBuiltinEngine()
	doc, err := engine.Convert(context.Background(), writeSource(t, "note.md", "# Title\n\nsome *emphasis* here\n"))
	require.NoError(t, err)

	out, err := doc.Export(FormatTXT)
	require.NoError(t, err)
	text := string(out)
	require.Contains(t, text, "Title")
	require.Contains(t, text, "some emphasis here")
	require.NotContains(t, text, "<")
}

func TestBuiltinHTMLToText(t *testing.T) {
	engine := NewBuiltinEngine()
	src := writeSource(t, "page.html", "<html><body><h1>Head</h1><p>para</p><script>ignored()</script></body></html>")
	doc, err := engine.Convert(context.Background(), src)
	require.NoError(t, err)

	out, err := doc.Export(FormatTXT)
	require.NoError(t, err)
	require.Contains(t, string(out), "Head")
	require.Contains(t, string(out), "para")
	require.NotContains(t, string(out), "ignored")
}

func TestBuiltinTextToHTMLEscapes(t *testing.T) {
	engine := NewBuiltinEngine()
	doc, err := engine.Convert(context.Background(), writeSource(t, "raw.txt", "a < b & c"))
	require.NoError(t, err)

	out, err := doc.Export(FormatHTML)
	require.NoError(t, err)
	require.Contains(t, string(out), "a &lt; b &amp; c")
	require.Contains(t, string(out), "<pre>")
}

func TestBuiltinRejectsBinarySources(t *testing.T) {
	engine := NewBuiltinEngine()
	_, err := engine.Convert(context.Background(), writeSource(t, "doc.pdf", "%PDF-1.4"))
	require.ErrorIs(t, err, ErrUnsupportedSource)
}

func TestBuiltinRejectsBinaryExports(t *testing.T) {
	engine := NewBuiltinEngine()
	doc, err := engine.Convert(context.Background(), writeSource(t, "note.md", "# T"))
	require.NoError(t, err)

	_, err = doc.Export(FormatDOCX)
	require.ErrorIs(t, err, ErrNoExport)
	_, err = doc.Export(FormatPDF)
	require.ErrorIs(t, err, ErrNoExport)
}

func TestBuiltinHonorsCanceledContext(t *testing.T) {
	engine := NewBuiltinEngine()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Convert(ctx, writeSource(t, "note.md", "# T"))
	require.True(t, errors.Is(err, context.Canceled))
}
