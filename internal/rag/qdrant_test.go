package rag

import (
	"errors"
	"testing"

	"github.com/qdrant/go-client/qdrant"

	"github.com/avrett/docqa/internal/document"
)

func Test_EffectiveFilter_ConflictRejected(t *testing.T) {
	t.Parallel()

	s := &QdrantStore{cfg: &QdrantConfig{
		DefaultFilter: Filter{"type": "csv"},
	}}

	if _, err := s.effectiveFilter(Filter{"rating": 5}); !errors.Is(err, ErrConflictingFilter) {
		t.Fatalf("want ErrConflictingFilter, got %v", err)
	}
}

func Test_EffectiveFilter_NoFilter(t *testing.T) {
	t.Parallel()

	s := &QdrantStore{cfg: &QdrantConfig{}}
	qf, err := s.effectiveFilter(nil)
	if err != nil {
		t.Fatalf("effective filter: %v", err)
	}
	if qf != nil {
		t.Errorf("want nil filter, got %+v", qf)
	}
}

func Test_EffectiveFilter_RequestFilterConditions(t *testing.T) {
	t.Parallel()

	s := &QdrantStore{cfg: &QdrantConfig{}}
	qf, err := s.effectiveFilter(Filter{"source": "/data/reviews.csv", "rating": 5, "published": true})
	if err != nil {
		t.Fatalf("effective filter: %v", err)
	}
	if len(qf.Must) != 3 {
		t.Errorf("want 3 must conditions, got %d", len(qf.Must))
	}
}

func Test_EffectiveFilter_DefaultFilterUsedWhenRequestEmpty(t *testing.T) {
	t.Parallel()

	s := &QdrantStore{cfg: &QdrantConfig{
		DefaultFilter: Filter{"type": "pdf"},
	}}
	qf, err := s.effectiveFilter(nil)
	if err != nil {
		t.Fatalf("effective filter: %v", err)
	}
	if len(qf.Must) != 1 {
		t.Errorf("want 1 must condition from the default filter, got %d", len(qf.Must))
	}
}

func Test_EffectiveFilter_UnsupportedValueType(t *testing.T) {
	t.Parallel()

	s := &QdrantStore{cfg: &QdrantConfig{}}
	if _, err := s.effectiveFilter(Filter{"nested": map[string]any{}}); err == nil {
		t.Fatal("want error for unsupported filter value type")
	}
}

func Test_PointToDocument_PayloadMapping(t *testing.T) {
	t.Parallel()

	payload := qdrant.NewValueMap(map[string]any{
		"content":           "Best pizza in town The crust was perfect.",
		document.MetaSource: "/data/reviews.csv",
		document.MetaType:   "csv",
		"rating":            int64(5),
	})

	doc := pointToDocument(&qdrant.ScoredPoint{
		Id:      qdrant.NewIDUUID("8a6e0804-2bd0-5672-b79d-e2f4f439c6ee"),
		Score:   0.93,
		Payload: payload,
	})

	if doc.ID != "8a6e0804-2bd0-5672-b79d-e2f4f439c6ee" {
		t.Errorf("id: got %q", doc.ID)
	}
	if doc.Content != "Best pizza in town The crust was perfect." {
		t.Errorf("content: got %q", doc.Content)
	}
	if doc.Source != "/data/reviews.csv" || doc.Type != document.TypeCSV {
		t.Errorf("source/type: got %q/%q", doc.Source, doc.Type)
	}
	if doc.Score != 0.93 {
		t.Errorf("score: got %v", doc.Score)
	}
	if rating, ok := doc.Metadata["rating"].(int64); !ok || rating != 5 {
		t.Errorf("rating: got %v", doc.Metadata["rating"])
	}
	if _, ok := doc.Metadata["content"]; ok {
		t.Error("content leaked into metadata")
	}
}
