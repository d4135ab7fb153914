// Package document defines the document record moved through the ingestion
// pipeline, the closed set of supported source formats, and the derivation
// rules for paths and collection identifiers. Every other package — loaders,
// the splitter, the vector store — speaks in terms of this package's types so
// the format set has a single source of truth.
package document

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Type identifies the logical format of a source document.
type Type string

const (
	// TypeCSV is a delimited file with a header row; one document per data row.
	TypeCSV Type = "csv"
	// TypePDF is a PDF file; all page text becomes one logical document.
	TypePDF Type = "pdf"
	// TypeDOCX is a Word document (.docx or legacy .doc); raw text only.
	TypeDOCX Type = "docx"
)

// ErrUnsupportedType is returned when a file extension maps to no known Type.
var ErrUnsupportedType = errors.New("unsupported document type")

// Metadata keys set by the loaders. Loader-specific keys (rating, date,
// pages) are documented on the individual loaders.
const (
	// MetaSource is the original file path the document was loaded from.
	MetaSource = "source"
	// MetaType is the document Type as a string.
	MetaType = "type"
)

// Document is the unit moved through the pipeline: loaded from a source
// file, optionally chunked, embedded, stored, and later retrieved.
type Document struct {
	// ID is the deterministic identifier for this record, derived from the
	// source path and the record's ordinal within it.
	ID string

	// Content is the embeddable text payload. Loaders do not guarantee it is
	// non-empty (a CSV row may have a blank review); the pipeline skips
	// entirely-empty records before embedding.
	Content string

	// Source is the original file path.
	Source string

	// Type is the logical format the document was loaded from.
	Type Type

	// Metadata holds scalar per-document values (rating, date, pages, ...).
	Metadata map[string]any

	// Score is the similarity score assigned during retrieval.
	// Zero value means the score was not computed.
	Score float32
}

// CloneMetadata returns a shallow copy of the document's metadata map so
// chunks can carry independent copies of the parent's metadata.
func (d Document) CloneMetadata() map[string]any {
	m := make(map[string]any, len(d.Metadata))
	for k, v := range d.Metadata {
		m[k] = v
	}
	return m
}

// Detect maps a file path to its document Type by extension,
// case-insensitively. This mapping is consulted by both the path validator's
// allow-list and the loader dispatch, so the two can never diverge.
func Detect(path string) (Type, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return TypeCSV, nil
	case ".pdf":
		return TypePDF, nil
	case ".docx", ".doc":
		return TypeDOCX, nil
	default:
		return "", fmt.Errorf("document: %q: %w", filepath.Ext(path), ErrUnsupportedType)
	}
}

// maxCollectionNameLen is the identifier length limit imposed by the vector
// store service.
const maxCollectionNameLen = 63

// CollectionName derives the vector store collection identifier for a source
// file: lowercase(type + "_" + basename without extension) with every
// character outside [a-z0-9_] replaced by an underscore, truncated to 63
// bytes. Two source files whose sanitised names collide share a collection —
// a documented limitation, not something this function tries to repair.
func CollectionName(t Type, path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	raw := strings.ToLower(string(t) + "_" + base)
	var sb strings.Builder
	sb.Grow(len(raw))
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}

	name := sb.String()
	if len(name) > maxCollectionNameLen {
		name = name[:maxCollectionNameLen]
	}
	return name
}

// RecordID generates the deterministic ID for the n-th record derived from
// the given source path. The result is a name-based UUID so it can be used
// directly as a vector store point ID; re-ingesting the same file yields the
// same IDs.
func RecordID(source string, ordinal int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, fmt.Appendf(nil, "%s#%d", source, ordinal)).String()
}
