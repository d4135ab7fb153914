// Package rag defines the interfaces for the retrieval side of docqa:
// vector storage, query-time retrieval, and embedding. Concrete
// implementations (Qdrant, the HTTP embedders) satisfy these interfaces so
// the chat and ingestion layers never depend on a specific backend.
package rag

import (
	"context"
	"errors"

	"github.com/avrett/docqa/internal/document"
)

// ErrConflictingFilter is returned when a request-time metadata filter is
// passed to a store handle that was already configured with a default
// filter. Only one filter source may apply per call — combining them
// silently would make it ambiguous which predicate won.
var ErrConflictingFilter = errors.New("rag: request filter conflicts with store default filter")

// Filter is a metadata equality predicate: every key must match the stored
// document's metadata value exactly.
type Filter map[string]any

// VectorStore persists and searches document embeddings for one collection.
// Implementations must be safe to call from multiple goroutines; all
// mutable state lives in the remote store.
type VectorStore interface {
	// Upsert stores a batch of documents with their pre-computed embeddings.
	// The embeddings slice must be parallel to docs.
	Upsert(ctx context.Context, docs []document.Document, embeddings [][]float32) error

	// Search returns the top-k documents nearest to the query embedding,
	// ordered most similar first. The optional filter narrows candidates by
	// metadata; passing one when the store carries a default filter fails
	// with ErrConflictingFilter.
	Search(ctx context.Context, queryEmbedding []float32, topK int, filter Filter) ([]document.Document, error)

	// Count reports the number of documents currently in the collection.
	// Ingestion uses it as the presence check for duplicate avoidance.
	Count(ctx context.Context) (uint64, error)

	// Close releases any resources held by the store.
	Close() error
}

// Embedder converts text into dense vector embeddings.
// Implementations must be safe to call from multiple goroutines.
type Embedder interface {
	// Embed converts a batch of texts into their corresponding embeddings.
	// The returned slice is parallel to the input slice.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Retriever fetches the documents most relevant to a query. It combines
// embedding and vector search behind one call and may be invoked
// concurrently for independent queries.
type Retriever interface {
	// Retrieve returns the top-k most relevant documents for the query,
	// ordered most relevant first.
	Retrieve(ctx context.Context, query string, topK int) ([]document.Document, error)
}
