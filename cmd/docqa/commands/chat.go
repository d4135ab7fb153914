package commands

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/cloudwego/eino/callbacks"
	"github.com/spf13/cobra"

	"github.com/avrett/docqa/internal/chat"
	"github.com/avrett/docqa/internal/logging"
	"github.com/avrett/docqa/internal/provider"
	"github.com/avrett/docqa/internal/tracing"
)

// NewChatCmd constructs the `docqa chat` command: an interactive loop that
// answers questions grounded in the ingested document collection.
func NewChatCmd() *cobra.Command {
	var collection string
	var topK int

	cmd := &cobra.Command{
		Use:   "chat [file]",
		Short: "Ask questions about an ingested document interactively",
		Long: `Start an interactive question loop over an ingested document.

Each question is embedded, the most relevant records are retrieved from the
document's collection, and the LLM answers grounded in those excerpts.
Conversation history persists across questions (and restarts) per collection.

The document is resolved like 'docqa setup': an explicit file argument wins,
then DOCQA_SOURCE. Use --collection to query a collection directly.

Inside the loop:
  q | quit    exit
  clear       forget the conversation history for this collection

Examples:
  docqa chat reviews.csv
  docqa chat --collection csv_reviews
  DOCQA_SOURCE=manual.pdf docqa chat --top-k 3`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			if collection == "" {
				source, err := resolveSource(args)
				if err != nil {
					return fmt.Errorf("chat: %w", err)
				}
				collection, err = deriveCollection(source)
				if err != nil {
					return fmt.Errorf("chat: %w", err)
				}
			}
			log.Info("chat starting",
				slog.String("collection", collection),
				slog.String("provider", getEnvOrDefault("MODEL_PROVIDER", "ollama")),
			)

			// Langfuse tracing is opt-in and a no-op if keys are absent.
			handler, flush, ok := tracing.Setup()
			if ok {
				callbacks.AppendGlobalHandlers(handler)
				defer flush()
				log.Info("langfuse tracing enabled")
			}

			engine, closeEngine, err := buildEngine(ctx, log, collection, topK)
			if err != nil {
				return fmt.Errorf("chat: %w", err)
			}
			defer closeEngine()

			scanner := bufio.NewScanner(os.Stdin)
			for {
				fmt.Println("\n-------------------------------")
				fmt.Print("Enter your question (q to quit): ")
				if !scanner.Scan() {
					break // EOF or interrupted stdin
				}
				question := strings.TrimSpace(scanner.Text())

				switch strings.ToLower(question) {
				case "":
					continue
				case "q", "quit":
					return nil
				case "clear":
					if err := engine.Reset(ctx); err != nil {
						fmt.Fprintf(os.Stderr, "error: %v\n", err)
					} else {
						fmt.Println("Conversation history cleared.")
					}
					continue
				}

				answer, err := engine.Answer(ctx, question)
				if err != nil {
					// A failed question should not kill the session.
					fmt.Fprintf(os.Stderr, "error: %v\n", err)
					continue
				}
				fmt.Println()
				fmt.Println(answer)
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("chat: reading input: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&collection, "collection", "c", "", "Query this collection directly instead of deriving it from a file")
	cmd.Flags().IntVarP(&topK, "top-k", "k", 5, "Number of document excerpts to retrieve per question")

	return cmd
}

// buildEngine wires the provider, retriever, and history store into a chat
// engine for the given collection. The returned close function releases the
// store and history connections.
func buildEngine(ctx context.Context, log *slog.Logger, collection string, topK int) (*chat.Engine, func(), error) {
	chatModel, err := provider.NewFromEnv(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialise model provider: %w", err)
	}

	retriever, closeRetriever, err := buildRetriever(ctx, log, collection, topK)
	if err != nil {
		return nil, nil, err
	}

	historyStore, closeHistory := openHistory(log)

	engine, err := chat.New(&chat.Config{
		ChatModel:  chatModel,
		Retriever:  retriever,
		TopK:       topK,
		History:    historyStore,
		Collection: collection,
	})
	if err != nil {
		closeRetriever()
		closeHistory()
		return nil, nil, fmt.Errorf("failed to create engine: %w", err)
	}

	return engine, func() {
		closeRetriever()
		closeHistory()
	}, nil
}
