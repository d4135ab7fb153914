package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/avrett/docqa/internal/embedder"
	"github.com/avrett/docqa/internal/ingest"
	"github.com/avrett/docqa/internal/logging"
)

// NewSetupCmd constructs the `docqa setup` command, which loads a document,
// chunks and embeds its records, and stores them in the Qdrant collection
// derived from the file name.
func NewSetupCmd() *cobra.Command {
	var chunkSize int
	var chunkOverlap int
	var embedRate float64

	cmd := &cobra.Command{
		Use:   "setup [file]",
		Short: "Load a document into the vector store",
		Long: `Load a CSV, PDF, or DOCX file into the Qdrant vector store.

The file must live under the data directory (DOCQA_DATA_DIR, default ./data).
Records are chunked, embedded, and stored in a collection derived from the
file name (e.g. reviews.csv becomes csv_reviews). Re-running setup against a
collection that already holds documents is a no-op.

When no file argument is given, DOCQA_SOURCE is used.

Required environment variables:
  QDRANT_HOST          Qdrant server hostname (default: localhost)
  QDRANT_PORT          Qdrant gRPC port (default: 6334)
  QDRANT_API_KEY       Optional API key for authenticated clusters
  MODEL_PROVIDER       Embedding backend: ollama, openai, azure (default: ollama)
  EMBEDDING_*          Provider-specific overrides (see README)

Examples:
  docqa setup reviews.csv
  docqa setup manual.pdf --chunk-size 800 --chunk-overlap 100
  DOCQA_SOURCE=notes.docx docqa setup`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.New()
			ctx := logging.WithLogger(cmd.Context(), log)

			source, err := resolveSource(args)
			if err != nil {
				return fmt.Errorf("setup: %w", err)
			}

			if err := embedder.Validate(log); err != nil {
				return fmt.Errorf("setup: %w", err)
			}

			emb, err := embedder.NewFromEnv()
			if err != nil {
				return fmt.Errorf("setup: failed to initialise embedder: %w", err)
			}
			log.Info("embedder initialised", slog.String("provider", embedder.Backend()))

			opener := &ingest.QdrantOpener{
				Host:       getEnvOrDefault("QDRANT_HOST", "localhost"),
				Port:       getEnvInt("QDRANT_PORT", 6334),
				APIKey:     os.Getenv("QDRANT_API_KEY"),
				UseTLS:     os.Getenv("QDRANT_TLS") == "true",
				VectorSize: uint64(embedder.DefaultDimensions(embedder.Backend())), //nolint:gosec // dimensions are bounded
			}

			pipeline, err := ingest.NewPipeline(emb, opener, &ingest.Config{
				BaseDir:      dataDir(),
				ChunkSize:    chunkSize,
				ChunkOverlap: chunkOverlap,
				EmbedRate:    embedRate,
			})
			if err != nil {
				return fmt.Errorf("setup: %w", err)
			}

			report, err := pipeline.Ingest(ctx, source)
			if err != nil {
				return fmt.Errorf("setup: %w", err)
			}

			if report.SkippedExisting {
				fmt.Printf("Collection %q already populated, nothing to do.\n", report.Collection)
				return nil
			}
			fmt.Printf("Loaded %d records (%d chunks) into collection %q.\n",
				report.Loaded, report.Chunks, report.Collection)
			return nil
		},
	}

	cmd.Flags().IntVar(&chunkSize, "chunk-size", getEnvInt("DOCQA_CHUNK_SIZE", 0), "Chunk window size in characters (default 1000)")
	cmd.Flags().IntVar(&chunkOverlap, "chunk-overlap", getEnvInt("DOCQA_CHUNK_OVERLAP", 0), "Character overlap between chunks (default 200)")
	cmd.Flags().Float64Var(&embedRate, "embed-rate", getEnvFloat64("DOCQA_EMBED_RATE", 0), "Max embedding calls per second (0 = unlimited)")

	return cmd
}
