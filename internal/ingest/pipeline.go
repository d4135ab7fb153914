// Package ingest implements the document ingestion pipeline. It validates
// the source path, detects the format, extracts document records, chunks
// oversized content, embeds each record, and inserts the results into the
// vector store collection derived from the file. This pipeline is invoked
// by the `docqa setup` CLI command.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/avrett/docqa/internal/document"
	"github.com/avrett/docqa/internal/loader"
	"github.com/avrett/docqa/internal/logging"
	"github.com/avrett/docqa/internal/rag"
	"github.com/avrett/docqa/internal/splitter"
)

// StoreOpener connects to (or creates) the vector store collection with the
// given name. The pipeline cannot take a ready store because the collection
// name is derived from the file being ingested.
type StoreOpener interface {
	Open(ctx context.Context, collection string) (rag.VectorStore, error)
}

// QdrantOpener is the production StoreOpener backed by a Qdrant instance.
type QdrantOpener struct {
	// Host is the Qdrant server hostname.
	Host string
	// Port is the Qdrant gRPC port.
	Port int
	// APIKey is the optional Qdrant API key.
	APIKey string
	// UseTLS enables TLS for the gRPC connection.
	UseTLS bool
	// VectorSize is the embedding dimensionality for new collections.
	VectorSize uint64
}

// Open connects to the named collection, creating it if necessary.
func (o *QdrantOpener) Open(ctx context.Context, collection string) (rag.VectorStore, error) {
	return rag.NewQdrantStore(ctx, &rag.QdrantConfig{ //nolint:wrapcheck // constructor passthrough
		Host:       o.Host,
		Port:       o.Port,
		Collection: collection,
		VectorSize: o.VectorSize,
		APIKey:     o.APIKey,
		UseTLS:     o.UseTLS,
	})
}

// Config holds the configuration for the ingestion pipeline.
type Config struct {
	// BaseDir is the directory source files must live under.
	BaseDir string

	// ChunkSize is the maximum number of characters per document chunk.
	// Defaults to splitter.DefaultChunkSize if zero.
	ChunkSize int

	// ChunkOverlap is the number of characters shared between consecutive
	// chunks. Defaults to splitter.DefaultChunkOverlap if negative or zero.
	ChunkOverlap int

	// BatchSize is the number of documents embedded and upserted per call.
	// Defaults to 64 if zero.
	BatchSize int

	// EmbedRate caps embedding calls per second. Zero means unlimited.
	// Hosted embedding providers rate-limit aggressively; a cap here keeps
	// a large ingestion from tripping 429s with no retry policy of its own.
	EmbedRate float64

	// Timeout bounds the whole ingestion run. Defaults to 2m if zero.
	Timeout time.Duration
}

// Report summarises one ingestion run.
type Report struct {
	// Collection is the derived collection identifier.
	Collection string
	// Loaded is the number of records extracted from the source file.
	Loaded int
	// Chunks is the number of records after chunking.
	Chunks int
	// Inserted is the number of records embedded and stored.
	Inserted int
	// SkippedExisting is true when the collection already held documents and
	// the run inserted nothing.
	SkippedExisting bool
}

// Pipeline orchestrates the validate → load → chunk → embed → upsert flow
// for a single source file.
type Pipeline struct {
	// embedder converts record content into dense vector embeddings.
	embedder rag.Embedder

	// opener connects to the per-file collection.
	opener StoreOpener

	// split chunks oversized records.
	split *splitter.Splitter

	// limiter paces embedding calls. nil means unlimited.
	limiter *rate.Limiter

	// cfg holds the resolved pipeline configuration.
	cfg *Config
}

// NewPipeline constructs a Pipeline from the provided dependencies and config.
func NewPipeline(embedder rag.Embedder, opener StoreOpener, cfg *Config) (*Pipeline, error) {
	if embedder == nil {
		return nil, fmt.Errorf("ingest: embedder must not be nil")
	}
	if opener == nil {
		return nil, fmt.Errorf("ingest: store opener must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.BaseDir == "" {
		return nil, fmt.Errorf("ingest: base directory must not be empty")
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = splitter.DefaultChunkSize
	}
	if cfg.ChunkOverlap <= 0 {
		cfg.ChunkOverlap = splitter.DefaultChunkOverlap
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 64
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}

	var limiter *rate.Limiter
	if cfg.EmbedRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.EmbedRate), 1)
	}

	return &Pipeline{
		embedder: embedder,
		opener:   opener,
		split:    splitter.New(cfg.ChunkSize, cfg.ChunkOverlap),
		limiter:  limiter,
		cfg:      cfg,
	}, nil
}

// Ingest runs the full pipeline for one source file. Validation, detection,
// and extraction failures abort before any collection is touched; a
// collection that already holds documents is left as-is (idempotence by
// presence check — re-running against a changed file will NOT refresh it).
func (p *Pipeline) Ingest(ctx context.Context, rawPath string) (*Report, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	log := logging.FromContext(ctx)

	path, err := document.ResolvePath(rawPath, p.cfg.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}

	typ, err := document.Detect(path)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}

	records, err := loader.Load(ctx, path, typ)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}

	chunks := make([]document.Document, 0, len(records))
	for _, rec := range records {
		chunks = append(chunks, p.split.Split(rec)...)
	}

	report := &Report{
		Collection: document.CollectionName(typ, path),
		Loaded:     len(records),
		Chunks:     len(chunks),
	}

	log.Info("ingest: source loaded",
		slog.String("path", path),
		slog.String("type", string(typ)),
		slog.String("collection", report.Collection),
		slog.Int("records", report.Loaded),
		slog.Int("chunks", report.Chunks),
	)

	store, err := p.opener.Open(ctx, report.Collection)
	if err != nil {
		return nil, fmt.Errorf("ingest: open collection %q: %w", report.Collection, err)
	}
	defer store.Close()

	existing, err := store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("ingest: count collection %q: %w", report.Collection, err)
	}
	if existing > 0 {
		log.Info("ingest: collection already populated, skipping insert",
			slog.String("collection", report.Collection),
			slog.Uint64("existing", existing),
		)
		report.SkippedExisting = true
		return report, nil
	}

	inserted, err := p.insert(ctx, store, chunks)
	if err != nil {
		return nil, err
	}
	report.Inserted = inserted

	log.Info("ingest: complete",
		slog.String("collection", report.Collection),
		slog.Int("inserted", inserted),
	)
	return report, nil
}

// insert embeds and upserts records in batches, skipping records whose
// content is entirely empty — some embedding providers reject empty input,
// and an empty record is unretrievable anyway.
func (p *Pipeline) insert(ctx context.Context, store rag.VectorStore, records []document.Document) (int, error) {
	log := logging.FromContext(ctx)

	usable := records[:0:len(records)]
	for _, rec := range records {
		if rec.Content == "" {
			log.Warn("ingest: skipping record with empty content",
				slog.String("id", rec.ID),
				slog.String("source", rec.Source),
			)
			continue
		}
		usable = append(usable, rec)
	}

	inserted := 0
	for start := 0; start < len(usable); start += p.cfg.BatchSize {
		end := min(start+p.cfg.BatchSize, len(usable))
		batch := usable[start:end]

		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return inserted, fmt.Errorf("ingest: rate limiter: %w", err)
			}
		}

		texts := make([]string, len(batch))
		for i, rec := range batch {
			texts[i] = rec.Content
		}

		embeddings, err := p.embedder.Embed(ctx, texts)
		if err != nil {
			return inserted, fmt.Errorf("ingest: embedding batch failed: %w", err)
		}

		if err := store.Upsert(ctx, batch, embeddings); err != nil {
			return inserted, fmt.Errorf("ingest: upsert batch failed: %w", err)
		}
		inserted += len(batch)
	}

	return inserted, nil
}
