package document

import (
	"errors"
	"strings"
	"testing"
)

func Test_Detect_KnownExtensions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		path string
		want Type
	}{
		{"reviews.csv", TypeCSV},
		{"REVIEWS.CSV", TypeCSV},
		{"manual.pdf", TypePDF},
		{"/data/nested/Manual.PDF", TypePDF},
		{"notes.docx", TypeDOCX},
		{"legacy.doc", TypeDOCX},
	}

	for _, tc := range cases {
		got, err := Detect(tc.path)
		if err != nil {
			t.Errorf("Detect(%q): unexpected error: %v", tc.path, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Detect(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func Test_Detect_UnsupportedExtension(t *testing.T) {
	t.Parallel()

	for _, path := range []string{"notes.txt", "archive.zip", "noextension", "data.csv.bak"} {
		if _, err := Detect(path); !errors.Is(err, ErrUnsupportedType) {
			t.Errorf("Detect(%q): want ErrUnsupportedType, got %v", path, err)
		}
	}
}

func Test_CollectionName_Derivation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		typ  Type
		path string
		want string
	}{
		{TypeCSV, "/data/reviews.csv", "csv_reviews"},
		{TypeCSV, "/data/Pizza Reviews.csv", "csv_pizza_reviews"},
		{TypePDF, "/data/User-Manual (v2).pdf", "pdf_user_manual__v2_"},
		{TypeDOCX, "meeting.notes.docx", "docx_meeting_notes"},
	}

	for _, tc := range cases {
		if got := CollectionName(tc.typ, tc.path); got != tc.want {
			t.Errorf("CollectionName(%q, %q) = %q, want %q", tc.typ, tc.path, got, tc.want)
		}
	}
}

func Test_CollectionName_Truncation(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("a", 200) + ".csv"
	name := CollectionName(TypeCSV, long)
	if len(name) != 63 {
		t.Fatalf("want 63-byte name, got %d bytes: %q", len(name), name)
	}
	if !strings.HasPrefix(name, "csv_aaaa") {
		t.Errorf("truncated name lost its prefix: %q", name)
	}
}

func Test_RecordID_DeterministicAndDistinct(t *testing.T) {
	t.Parallel()

	a := RecordID("/data/reviews.csv", 0)
	b := RecordID("/data/reviews.csv", 0)
	if a != b {
		t.Errorf("same source and ordinal produced different IDs: %q vs %q", a, b)
	}

	if RecordID("/data/reviews.csv", 0) == RecordID("/data/reviews.csv", 1) {
		t.Error("different ordinals produced the same ID")
	}
	if RecordID("/data/reviews.csv", 0) == RecordID("/data/other.csv", 0) {
		t.Error("different sources produced the same ID")
	}

	// Point IDs must be valid UUIDs for the vector store.
	if len(a) != 36 || strings.Count(a, "-") != 4 {
		t.Errorf("ID %q is not UUID-shaped", a)
	}
}

func Test_CloneMetadata_Independent(t *testing.T) {
	t.Parallel()

	doc := Document{Metadata: map[string]any{"rating": 5}}
	clone := doc.CloneMetadata()
	clone["rating"] = 1

	if doc.Metadata["rating"] != 5 {
		t.Errorf("mutating the clone changed the original: %v", doc.Metadata["rating"])
	}
}
