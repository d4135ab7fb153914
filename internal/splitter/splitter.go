// Package splitter divides long extracted text into overlapping windows
// sized for embedding-model context limits. Splitting is a pure function of
// the input text and the configured window/overlap, so re-running it over
// the same document always yields the same chunks.
package splitter

import (
	"strings"

	"github.com/avrett/docqa/internal/document"
)

const (
	// DefaultChunkSize is the maximum number of characters per chunk.
	DefaultChunkSize = 1000
	// DefaultChunkOverlap is the number of characters shared between
	// consecutive chunks.
	DefaultChunkOverlap = 200
)

// boundaries are the break points preferred over a hard cut, best first.
// Breaking on a paragraph or sentence boundary instead of mid-word reduces
// truncation artefacts that degrade retrieval quality.
var boundaries = []string{"\n\n", "\n", ". ", " "}

// Splitter splits text into overlapping windows.
type Splitter struct {
	// size is the maximum chunk length in characters.
	size int
	// overlap is the number of trailing characters repeated at the start of
	// the next chunk.
	overlap int
}

// New constructs a Splitter. Non-positive size falls back to
// DefaultChunkSize. The overlap must stay below half the size, because the
// boundary search never cuts a window before its midpoint: a larger overlap
// would let the next window start behind the previous one. A negative
// overlap, or one of at least size/2, falls back to DefaultChunkOverlap (or
// a fifth of the size when the default itself would not fit).
func New(size, overlap int) *Splitter {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size/2 {
		overlap = DefaultChunkOverlap
		if overlap >= size/2 {
			overlap = size / 5
		}
	}
	return &Splitter{size: size, overlap: overlap}
}

// Size returns the configured maximum chunk length.
func (s *Splitter) Size() int { return s.size }

// Split divides the document into ordered chunks of at most the configured
// size. Consecutive chunks share exactly the configured overlap relative to
// where the previous chunk actually ended. Each chunk carries a copy of the
// parent document's metadata and a deterministic ID derived from its ordinal.
// A document already within the size limit is returned as-is.
func (s *Splitter) Split(doc document.Document) []document.Document {
	if len(doc.Content) <= s.size {
		return []document.Document{doc}
	}

	texts := s.splitText(doc.Content)
	chunks := make([]document.Document, 0, len(texts))
	for i, text := range texts {
		// Keyed off the parent ID, not the source path, so chunk IDs can
		// never collide with sibling records from the same file.
		chunks = append(chunks, document.Document{
			ID:       document.RecordID(doc.ID, i),
			Content:  text,
			Source:   doc.Source,
			Type:     doc.Type,
			Metadata: doc.CloneMetadata(),
		})
	}
	return chunks
}

// splitText produces the raw chunk texts. The window end is pulled back to
// the best boundary found in the tail of the window; if none exists the cut
// is hard. The next window starts overlap characters before the previous end.
func (s *Splitter) splitText(text string) []string {
	var chunks []string

	start := 0
	for {
		end := start + s.size
		if end >= len(text) {
			chunks = append(chunks, text[start:])
			return chunks
		}

		end = s.breakPoint(text, start, end)
		chunks = append(chunks, text[start:end])
		start = end - s.overlap
	}
}

// breakPoint returns the cut position for the window [start, end), preferring
// the last paragraph, newline, sentence, or word boundary in the back half of
// the window. The midpoint floor keeps chunks from collapsing, and together
// with the overlap < size/2 invariant from New it guarantees every window
// starts strictly after the previous one.
func (s *Splitter) breakPoint(text string, start, end int) int {
	floor := start + s.size/2
	window := text[floor:end]

	for _, sep := range boundaries {
		if idx := strings.LastIndex(window, sep); idx >= 0 {
			return floor + idx + len(sep)
		}
	}
	return end
}
