// Package convert defines the conversion capability boundary (Engine and
// Document), the closed format registry, collision-safe output naming, and
// the retrying executor that turns tasks into outcomes.
package convert

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/docrotate/internal/util/sets"
)

// Format is one of the fixed set of document formats the pipeline recognizes.
// The registry is closed: export dispatch is compile-time, not dynamic lookup.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatTXT  Format = "txt"
	FormatMD   Format = "md"
	FormatHTML Format = "html"
)

// Registry returns the supported formats in their canonical order.
func Registry() []Format {
	return []Format{FormatPDF, FormatDOCX, FormatTXT, FormatMD, FormatHTML}
}

// RegistrySet returns the supported format extensions as a set.
func RegistrySet() sets.Set[string] {
	s := sets.New[string]()
	for _, f := range Registry() {
		s.Add(string(f))
	}
	return s
}

// ParseFormat maps an extension (case-insensitive, with or without dot) to a
// registry member.
func ParseFormat(ext string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimPrefix(ext, ".")))
	switch f {
	case FormatPDF, FormatDOCX, FormatTXT, FormatMD, FormatHTML:
		return f, nil
	}
	return "", fmt.Errorf("unsupported format %q (supported: %s)", ext, strings.Join(sets.SortedStrings(RegistrySet()), ", "))
}

// Ext returns the format's file extension without a dot.
func (f Format) Ext() string { return string(f) }
