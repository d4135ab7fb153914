package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/avrett/docqa/internal/document"
	"github.com/avrett/docqa/internal/embedder"
	"github.com/avrett/docqa/internal/history"
	"github.com/avrett/docqa/internal/rag"
)

// dataDir returns the base directory documents must live under.
// DOCQA_DATA_DIR overrides the default of ./data.
func dataDir() string {
	return getEnvOrDefault("DOCQA_DATA_DIR", "./data")
}

// resolveSource picks the document to operate on: an explicit CLI argument
// wins, then the DOCQA_SOURCE env var. Returns an error when neither is set.
func resolveSource(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if src := os.Getenv("DOCQA_SOURCE"); src != "" {
		return src, nil
	}
	return "", fmt.Errorf("no document given: pass a file argument or set DOCQA_SOURCE")
}

// deriveCollection resolves the source path against the data directory and
// returns the vector store collection identifier derived from it.
func deriveCollection(source string) (string, error) {
	path, err := document.ResolvePath(source, dataDir())
	if err != nil {
		return "", err //nolint:wrapcheck // document errors carry full context
	}
	typ, err := document.Detect(path)
	if err != nil {
		return "", err //nolint:wrapcheck // document errors carry full context
	}
	return document.CollectionName(typ, path), nil
}

// buildRetriever constructs the embedder, connects to the Qdrant collection,
// and wraps both in a Retriever. The returned close function releases the
// store connection and must be called before exit.
func buildRetriever(ctx context.Context, log *slog.Logger, collection string, topK int) (rag.Retriever, func(), error) {
	if err := embedder.Validate(log); err != nil {
		return nil, nil, err //nolint:wrapcheck // pre-flight errors carry full context
	}

	emb, err := embedder.NewFromEnv()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialise embedder: %w", err)
	}

	host := getEnvOrDefault("QDRANT_HOST", "localhost")
	port := getEnvInt("QDRANT_PORT", 6334)
	vectorSize := uint64(embedder.DefaultDimensions(embedder.Backend())) //nolint:gosec // dimensions are bounded

	store, err := rag.NewQdrantStore(ctx, &rag.QdrantConfig{
		Host:       host,
		Port:       port,
		Collection: collection,
		VectorSize: vectorSize,
		APIKey:     os.Getenv("QDRANT_API_KEY"),
		UseTLS:     os.Getenv("QDRANT_TLS") == "true",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to Qdrant at %s:%d: %w", host, port, err)
	}

	retriever, err := rag.NewRetriever(emb, store, topK)
	if err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("failed to create retriever: %w", err)
	}

	return retriever, func() { _ = store.Close() }, nil
}

// openHistory opens the conversation history store. DOCQA_HISTORY_DB
// overrides the default path (~/.docqa/history.db); set it to "disabled" to
// run without history. Open failures disable history with a warning rather
// than aborting the command.
func openHistory(log *slog.Logger) (history.ConversationStore, func()) {
	dbPath := os.Getenv("DOCQA_HISTORY_DB")
	if dbPath == "disabled" {
		log.Info("history: disabled via DOCQA_HISTORY_DB=disabled")
		return nil, func() {}
	}

	if dbPath == "" {
		var err error
		dbPath, err = history.DefaultDBPath()
		if err != nil {
			log.Warn("history: could not resolve default DB path, disabling", slog.Any("error", err))
			return nil, func() {}
		}
	}

	hs, err := history.Open(dbPath)
	if err != nil {
		log.Warn("history: failed to open store, disabling", slog.Any("error", err))
		return nil, func() {}
	}

	log.Info("history: store opened", slog.String("path", dbPath))
	return hs, func() { _ = hs.Close() }
}

// getEnvOrDefault returns the value of the named environment variable, or
// fallback if the variable is unset or empty.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt returns the integer value of the named environment variable, or
// fallback if the variable is unset, empty, or not parseable.
func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

// getEnvFloat64 returns the float64 value of the named environment variable,
// or fallback if the variable is unset, empty, or not parseable.
func getEnvFloat64(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
