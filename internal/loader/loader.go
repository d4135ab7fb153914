// Package loader converts source files into sequences of document records.
// Each supported format has its own loader; Load dispatches on the closed
// document.Type enum so adding a format is a compile-time-checked change
// here and in document.Detect, nowhere else.
//
// Loaders fail the whole file on extraction errors (corrupt PDF, malformed
// CSV row, non-DOCX binary) rather than silently skipping bad records. A
// zero-row or zero-page input is a valid empty sequence, not an error.
package loader

import (
	"context"
	"errors"
	"fmt"

	"github.com/avrett/docqa/internal/document"
)

// ErrMalformedRow is returned when a CSV data row cannot be converted into a
// document record (e.g. a non-numeric Rating value). It fails the whole load.
var ErrMalformedRow = errors.New("malformed row")

// Load extracts all document records from the file at path, which must be of
// the given type. Records are returned in file order with deterministic IDs.
func Load(ctx context.Context, path string, typ document.Type) ([]document.Document, error) {
	switch typ {
	case document.TypeCSV:
		return loadCSV(ctx, path)
	case document.TypePDF:
		return loadPDF(ctx, path)
	case document.TypeDOCX:
		return loadDOCX(ctx, path)
	default:
		return nil, fmt.Errorf("loader: %q: %w", typ, document.ErrUnsupportedType)
	}
}

// baseMetadata returns the metadata every loader attaches to its records.
func baseMetadata(path string, typ document.Type) map[string]any {
	return map[string]any{
		document.MetaSource: path,
		document.MetaType:   string(typ),
	}
}
