package commands

import (
	"fmt"

	"github.com/cloudwego/eino/callbacks"
	"github.com/spf13/cobra"

	"github.com/avrett/docqa/internal/logging"
	"github.com/avrett/docqa/internal/tracing"
)

// NewAskCmd constructs the `docqa ask` command, which answers a single
// question about an ingested document and exits.
func NewAskCmd() *cobra.Command {
	var collection string
	var topK int
	var source string

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a single question about an ingested document",
		Long: `Answer one question grounded in an ingested document, then exit.

The document is resolved from --file, then DOCQA_SOURCE. Use --collection to
query a collection directly. The question and answer are appended to the
collection's conversation history, so a later 'docqa chat' session picks up
where ask left off.

Examples:
  docqa ask --file reviews.csv "what do customers say about the crust?"
  docqa ask --collection csv_reviews "which reviews mention delivery?"
  DOCQA_SOURCE=manual.pdf docqa ask "how do I reset the device?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.New()
			ctx := logging.WithLogger(cmd.Context(), log)

			if collection == "" {
				var fileArgs []string
				if source != "" {
					fileArgs = []string{source}
				}
				resolved, err := resolveSource(fileArgs)
				if err != nil {
					return fmt.Errorf("ask: %w", err)
				}
				collection, err = deriveCollection(resolved)
				if err != nil {
					return fmt.Errorf("ask: %w", err)
				}
			}

			handler, flush, ok := tracing.Setup()
			if ok {
				callbacks.AppendGlobalHandlers(handler)
				defer flush()
			}

			engine, closeEngine, err := buildEngine(ctx, log, collection, topK)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			defer closeEngine()

			answer, err := engine.Answer(ctx, args[0])
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			fmt.Println(answer)
			return nil
		},
	}

	cmd.Flags().StringVarP(&source, "file", "f", "", "Document file to query (under DOCQA_DATA_DIR)")
	cmd.Flags().StringVarP(&collection, "collection", "c", "", "Query this collection directly instead of deriving it from a file")
	cmd.Flags().IntVarP(&topK, "top-k", "k", 5, "Number of document excerpts to retrieve")

	return cmd
}
