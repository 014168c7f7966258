package convert

import (
	"context"
	"errors"
)

// Engine is the external conversion capability: it parses a source file into
// a Document that can export itself in the registry formats. Implementations
// must honor ctx cancellation while parsing.
type Engine interface {
	Convert(ctx context.Context, path string) (Document, error)
}

// Document is a parsed source ready for export. Export returns the rendered
// bytes for the requested format.
type Document interface {
	Export(format Format) ([]byte, error)
}

// Sentinel errors the executor branches on. ErrNoExport marks a missing
// export capability for the requested format and is never retried; every
// other Convert/Export error is treated as transient.
var (
	ErrNoExport          = errors.New("no export capability for format")
	ErrEmptyExport       = errors.New("export produced empty content")
	ErrUnsupportedSource = errors.New("engine cannot parse source format")
)
