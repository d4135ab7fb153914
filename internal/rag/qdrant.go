package rag

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/qdrant/go-client/qdrant"

	"github.com/avrett/docqa/internal/document"
	"github.com/avrett/docqa/internal/logging"
)

// payloadContentKey is the payload field holding the embeddable text.
// All other payload fields are document metadata.
const payloadContentKey = "content"

// QdrantConfig holds connection parameters for one Qdrant collection.
type QdrantConfig struct {
	// Host is the Qdrant server hostname (default: localhost).
	Host string

	// Port is the Qdrant gRPC port (default: 6334).
	Port int

	// Collection is the collection this store handle is bound to.
	Collection string

	// VectorSize is the dimensionality of the embeddings stored in this
	// collection, used when the collection has to be created.
	VectorSize uint64

	// APIKey is the optional Qdrant API key for authenticated clusters.
	APIKey string

	// UseTLS enables TLS for the gRPC connection.
	UseTLS bool

	// DefaultFilter, when set, is applied to every search from this handle.
	// Calls that pass their own filter then fail with ErrConflictingFilter.
	DefaultFilter Filter
}

// QdrantStore implements VectorStore backed by one Qdrant collection.
type QdrantStore struct {
	// client is the underlying Qdrant gRPC client.
	client *qdrant.Client

	// cfg holds the resolved configuration for this store.
	cfg *QdrantConfig
}

// NewQdrantStore connects to the configured collection, creating it if it
// does not exist, and returns a ready-to-use VectorStore.
//
// The connect-or-create split is deliberate: a definitive "collection does
// not exist" answer leads to creation, while a transport error from the
// existence probe propagates to the caller. Treating every error as "create
// it" would mask genuine outages as first-time setup.
func NewQdrantStore(ctx context.Context, cfg *QdrantConfig) (*QdrantStore, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}
	if cfg.Collection == "" {
		return nil, fmt.Errorf("qdrant: collection name is required")
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: failed to create client: %w", err)
	}

	store := &QdrantStore{client: client, cfg: cfg}
	if err := store.ensureCollection(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}

	return store, nil
}

// ensureCollection creates the collection if the store reports it missing.
func (s *QdrantStore) ensureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.cfg.Collection)
	if err != nil {
		return fmt.Errorf("qdrant: failed to check collection %q: %w", s.cfg.Collection, err)
	}
	if exists {
		return nil
	}

	logging.FromContext(ctx).Info("qdrant: creating collection",
		slog.String("collection", s.cfg.Collection),
		slog.Uint64("vector_size", s.cfg.VectorSize),
	)

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.cfg.Collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     s.cfg.VectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("qdrant: failed to create collection %q: %w", s.cfg.Collection, err)
	}

	return nil
}

// Upsert stores a batch of documents with their pre-computed embeddings.
// embeddings[i] is the vector for docs[i].
func (s *QdrantStore) Upsert(ctx context.Context, docs []document.Document, embeddings [][]float32) error {
	if len(docs) != len(embeddings) {
		return fmt.Errorf("qdrant: %d documents but %d embeddings", len(docs), len(embeddings))
	}

	points := make([]*qdrant.PointStruct, 0, len(docs))
	for i, doc := range docs {
		payload := map[string]any{payloadContentKey: doc.Content}
		for k, v := range doc.Metadata {
			if k == payloadContentKey {
				continue
			}
			payload[k] = v
		}

		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(doc.ID),
			Vectors: qdrant.NewVectors(embeddings[i]...),
			Payload: qdrant.NewValueMap(payload),
		})
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.cfg.Collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("qdrant: upsert into %q failed: %w", s.cfg.Collection, err)
	}

	return nil
}

// Count reports the number of points currently in the collection.
func (s *QdrantStore) Count(ctx context.Context) (uint64, error) {
	n, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.cfg.Collection,
	})
	if err != nil {
		return 0, fmt.Errorf("qdrant: count %q failed: %w", s.cfg.Collection, err)
	}
	return n, nil
}

// Search performs a cosine similarity search and returns the top-k results,
// most similar first. Points whose payload came back missing are dropped
// with a warning rather than failing the whole query — older store versions
// omit payloads in some responses, and an empty result degrades gracefully
// while a hard error would kill the caller's question loop.
func (s *QdrantStore) Search(ctx context.Context, queryEmbedding []float32, topK int, filter Filter) ([]document.Document, error) {
	qf, err := s.effectiveFilter(filter)
	if err != nil {
		return nil, err
	}

	limit := uint64(topK)
	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.cfg.Collection,
		Query:          qdrant.NewQuery(queryEmbedding...),
		Limit:          &limit,
		Filter:         qf,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: search in %q failed: %w", s.cfg.Collection, err)
	}

	docs := make([]document.Document, 0, len(results))
	for _, r := range results {
		if len(r.Payload) == 0 {
			logging.FromContext(ctx).Warn("qdrant: result point has no payload, dropping",
				slog.String("collection", s.cfg.Collection),
				slog.String("id", r.Id.GetUuid()),
			)
			continue
		}
		docs = append(docs, pointToDocument(r))
	}

	return docs, nil
}

// Close closes the underlying Qdrant gRPC connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

// effectiveFilter resolves the filter to apply for one search call. Exactly
// one of the request filter and the handle's default filter may be set.
func (s *QdrantStore) effectiveFilter(request Filter) (*qdrant.Filter, error) {
	if len(request) > 0 && len(s.cfg.DefaultFilter) > 0 {
		return nil, ErrConflictingFilter
	}
	f := request
	if len(f) == 0 {
		f = s.cfg.DefaultFilter
	}
	if len(f) == 0 {
		return nil, nil
	}

	conditions := make([]*qdrant.Condition, 0, len(f))
	for key, value := range f {
		switch v := value.(type) {
		case string:
			conditions = append(conditions, qdrant.NewMatch(key, v))
		case int:
			conditions = append(conditions, qdrant.NewMatchInt(key, int64(v)))
		case int64:
			conditions = append(conditions, qdrant.NewMatchInt(key, v))
		case bool:
			conditions = append(conditions, qdrant.NewMatchBool(key, v))
		default:
			return nil, fmt.Errorf("qdrant: unsupported filter value %T for key %q", value, key)
		}
	}
	return &qdrant.Filter{Must: conditions}, nil
}

// pointToDocument reconstructs a document record from a scored point.
func pointToDocument(r *qdrant.ScoredPoint) document.Document {
	doc := document.Document{
		ID:       r.Id.GetUuid(),
		Score:    r.Score,
		Metadata: make(map[string]any, len(r.Payload)),
	}
	for k, v := range r.Payload {
		if k == payloadContentKey {
			doc.Content = v.GetStringValue()
			continue
		}
		doc.Metadata[k] = valueToAny(v)
	}
	if src, ok := doc.Metadata[document.MetaSource].(string); ok {
		doc.Source = src
	}
	if typ, ok := doc.Metadata[document.MetaType].(string); ok {
		doc.Type = document.Type(typ)
	}
	return doc
}

// valueToAny converts a Qdrant payload value to its plain Go form.
func valueToAny(v *qdrant.Value) any {
	switch kind := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	default:
		return v.String()
	}
}
