package convert

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	htmlutil "golang.org/x/net/html"
)

// BuiltinEngine is the conversion capability shipped with the pipeline. It
// parses markdown, HTML and plain-text sources and exports the subset of the
// registry it can render natively (md, html, txt). Binary formats (pdf, docx)
// need an external engine; requesting them yields ErrNoExport, and offering
// them as sources yields ErrUnsupportedSource.
type BuiltinEngine struct {
	md goldmark.Markdown
}

// NewBuiltinEngine constructs the engine with a default goldmark instance.
func NewBuiltinEngine() *BuiltinEngine {
	return &BuiltinEngine{md: goldmark.New()}
}

// Convert reads and classifies the source file. Parsing is deferred to
// export time; Convert validates that the source format is one the engine
// understands.
func (e *BuiltinEngine) Convert(ctx context.Context, path string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	format, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatPDF, FormatDOCX:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, format)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}
	return &builtinDocument{engine: e, source: format, raw: raw}, nil
}

type builtinDocument struct {
	engine *BuiltinEngine
	source Format
	raw    []byte
}

func (d *builtinDocument) Export(target Format) ([]byte, error) {
	switch target {
	case FormatPDF, FormatDOCX:
		return nil, fmt.Errorf("%w: %s", ErrNoExport, target)
	}

	switch d.source {
	case FormatMD:
		switch target {
		case FormatMD:
			return d.raw, nil
		case FormatHTML:
			return d.renderHTML()
		case FormatTXT:
			rendered, err := d.renderHTML()
			if err != nil {
				return nil, err
			}
			return extractText(rendered)
		}
	case FormatHTML:
		switch target {
		case FormatHTML:
			return d.raw, nil
		case FormatTXT:
			return extractText(d.raw)
		case FormatMD:
			return nil, fmt.Errorf("%w: %s from html", ErrNoExport, target)
		}
	case FormatTXT:
		switch target {
		case FormatTXT, FormatMD: // plain text is valid markdown as-is
			return d.raw, nil
		case FormatHTML:
			var buf bytes.Buffer
			buf.WriteString("<pre>")
			buf.WriteString(htmlutil.EscapeString(string(d.raw)))
			buf.WriteString("</pre>\n")
			return buf.Bytes(), nil
		}
	}
	return nil, fmt.Errorf("%w: %s from %s", ErrNoExport, target, d.source)
}

func (d *builtinDocument) renderHTML() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.engine.md.Convert(d.raw, &buf); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	return buf.Bytes(), nil
}

// blockTags end a line when extracting text from HTML.
var blockTags = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "ul": true, "ol": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"table": true, "tr": true, "blockquote": true, "pre": true, "section": true,
}

// extractText strips markup from an HTML document, keeping visible text with
// block boundaries rendered as newlines.
func extractText(src []byte) ([]byte, error) {
	doc, err := htmlutil.Parse(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var b strings.Builder
	var walk func(*htmlutil.Node)
	walk = func(n *htmlutil.Node) {
		switch n.Type {
		case htmlutil.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
		case htmlutil.TextNode:
			text := strings.Join(strings.Fields(n.Data), " ")
			if text != "" {
				if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
					b.WriteString(" ")
				}
				b.WriteString(text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == htmlutil.ElementNode && blockTags[n.Data] {
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
				b.WriteString("\n")
			}
		}
	}
	walk(doc)
	return []byte(b.String()), nil
}
