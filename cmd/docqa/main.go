// Command docqa is the entry point for the document question-answering CLI.
// It ingests local CSV, PDF, and DOCX files into a Qdrant vector store and
// answers questions about them with retrieval-grounded LLM responses.
package main

import (
	"fmt"
	"os"

	"github.com/avrett/docqa/cmd/docqa/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
