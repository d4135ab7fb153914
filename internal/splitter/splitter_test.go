package splitter

import (
	"strings"
	"testing"

	"github.com/avrett/docqa/internal/document"
)

func Test_Split_ShortDocumentPassesThrough(t *testing.T) {
	t.Parallel()
	s := New(1000, 200)

	doc := document.Document{
		ID:      "doc-1",
		Content: "short content",
		Source:  "/data/reviews.csv",
		Type:    document.TypeCSV,
	}

	chunks := s.Split(doc)
	if len(chunks) != 1 {
		t.Fatalf("want 1 chunk, got %d", len(chunks))
	}
	if chunks[0].ID != "doc-1" || chunks[0].Content != "short content" {
		t.Errorf("short document was modified: %+v", chunks[0])
	}
}

func Test_Split_BoundaryFreeTextChunkCount(t *testing.T) {
	t.Parallel()
	s := New(1000, 200)

	// No boundary characters anywhere: every cut is a hard cut at the window
	// edge, so 3500 chars at window 1000 / overlap 200 yields exactly 5 chunks
	// (starts 0, 800, 1600, 2400, 3200).
	doc := document.Document{
		ID:      "doc-1",
		Content: strings.Repeat("x", 3500),
		Source:  "/data/big.pdf",
		Type:    document.TypePDF,
	}

	chunks := s.Split(doc)
	if len(chunks) != 5 {
		t.Fatalf("want 5 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c.Content) > 1000 {
			t.Errorf("chunk %d exceeds window: %d chars", i, len(c.Content))
		}
	}
	if len(chunks[4].Content) != 300 {
		t.Errorf("final chunk: want 300 chars, got %d", len(chunks[4].Content))
	}
}

func Test_Split_ConsecutiveChunksOverlap(t *testing.T) {
	t.Parallel()
	s := New(1000, 200)

	doc := document.Document{
		ID:      "doc-1",
		Content: strings.Repeat("y", 2500),
		Source:  "/data/big.pdf",
		Type:    document.TypePDF,
	}

	chunks := s.Split(doc)
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1].Content
		tail := prev[len(prev)-200:]
		if !strings.HasPrefix(chunks[i].Content, tail) {
			t.Errorf("chunk %d does not start with the previous chunk's 200-char tail", i)
		}
	}
}

func Test_Split_PrefersParagraphBoundary(t *testing.T) {
	t.Parallel()
	s := New(100, 20)

	// A paragraph break sits inside the back half of the first window; the
	// first chunk must end exactly there instead of a hard cut at 100.
	content := strings.Repeat("a", 70) + "\n\n" + strings.Repeat("b", 200)
	doc := document.Document{ID: "doc-1", Content: content}

	chunks := s.Split(doc)
	if !strings.HasSuffix(chunks[0].Content, "\n\n") {
		t.Errorf("first chunk did not end at the paragraph break: %q", chunks[0].Content)
	}
	if len(chunks[0].Content) != 72 {
		t.Errorf("first chunk length: want 72, got %d", len(chunks[0].Content))
	}
}

func Test_Split_OversizedOverlapStillMakesProgress(t *testing.T) {
	t.Parallel()
	// An overlap of 600 against a 1000-char window would let an early
	// boundary pull the next window start backwards; New clamps it to the
	// default so every window advances.
	s := New(1000, 600)

	doc := document.Document{
		ID:      "doc-1",
		Content: strings.Repeat("a", 505) + " " + strings.Repeat("x", 2000),
		Source:  "/data/big.pdf",
		Type:    document.TypePDF,
	}

	chunks := s.Split(doc)
	if len(chunks) != 4 {
		t.Fatalf("want 4 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c.Content) == 0 || len(c.Content) > 1000 {
			t.Errorf("chunk %d length out of range: %d", i, len(c.Content))
		}
	}
	if chunks[3].Content != strings.Repeat("x", 600) {
		t.Errorf("final chunk: want 600 trailing chars, got %d", len(chunks[3].Content))
	}
}

func Test_Split_ChunkIDsDeterministicAndDistinct(t *testing.T) {
	t.Parallel()
	s := New(1000, 200)

	doc := document.Document{
		ID:      document.RecordID("/data/big.pdf", 0),
		Content: strings.Repeat("z", 3000),
		Source:  "/data/big.pdf",
		Type:    document.TypePDF,
	}

	first := s.Split(doc)
	second := s.Split(doc)
	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}

	seen := make(map[string]bool, len(first))
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("chunk %d ID not deterministic: %q vs %q", i, first[i].ID, second[i].ID)
		}
		if seen[first[i].ID] {
			t.Errorf("duplicate chunk ID %q", first[i].ID)
		}
		seen[first[i].ID] = true
	}
}

func Test_Split_ChunksCarryIndependentMetadata(t *testing.T) {
	t.Parallel()
	s := New(1000, 200)

	doc := document.Document{
		ID:       "doc-1",
		Content:  strings.Repeat("m", 2500),
		Source:   "/data/big.pdf",
		Type:     document.TypePDF,
		Metadata: map[string]any{"pages": 12},
	}

	chunks := s.Split(doc)
	if len(chunks) < 2 {
		t.Fatalf("want multiple chunks, got %d", len(chunks))
	}
	chunks[0].Metadata["pages"] = 99
	if chunks[1].Metadata["pages"] != 12 {
		t.Error("chunks share a metadata map")
	}
	if doc.Metadata["pages"] != 12 {
		t.Error("chunk mutation leaked into the parent document")
	}
}

func Test_New_FallbackDefaults(t *testing.T) {
	t.Parallel()

	cases := []struct {
		size, overlap int
		wantSize      int
	}{
		{0, 0, DefaultChunkSize},
		{-5, 100, DefaultChunkSize},
		{500, -1, 500},
		{500, 500, 500},  // overlap >= size falls back
		{1000, 600, 1000}, // overlap >= size/2 falls back
		{100, 60, 100},   // default does not fit either; size/5 is used
	}

	for _, tc := range cases {
		s := New(tc.size, tc.overlap)
		if s.Size() != tc.wantSize {
			t.Errorf("New(%d, %d): size = %d, want %d", tc.size, tc.overlap, s.Size(), tc.wantSize)
		}
	}
}
