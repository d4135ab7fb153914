package loader

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dslipak/pdf"

	"github.com/avrett/docqa/internal/document"
)

// pageExtractTimeout bounds plain-text extraction of a single PDF page.
// Some malformed PDFs make the parser spin; a stuck page fails the load
// rather than hanging the whole ingestion.
const pageExtractTimeout = 10 * time.Second

// errPageTimeout is returned when a single page exceeds pageExtractTimeout.
var errPageTimeout = errors.New("page extraction timed out")

// loadPDF extracts the text of every page into one logical document carrying
// the total page count in metadata. The caller chunks it afterwards — PDFs
// are the main driver of chunking since they routinely exceed embedding
// context limits. A PDF with no extractable text is a valid empty sequence.
func loadPDF(ctx context.Context, path string) ([]document.Document, error) {
	r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loader: open pdf %s: %w", path, err)
	}

	numPages := r.NumPage()
	var sb strings.Builder
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("loader: pdf %s: %w", path, err)
		}

		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		content, err := extractPage(page)
		if err != nil {
			return nil, fmt.Errorf("loader: pdf %s page %d: %w", path, i, err)
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(content)
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return nil, nil
	}

	meta := baseMetadata(path, document.TypePDF)
	meta["pages"] = numPages

	return []document.Document{{
		ID:       document.RecordID(path, 0),
		Content:  text,
		Source:   path,
		Type:     document.TypePDF,
		Metadata: meta,
	}}, nil
}

// extractPage runs GetPlainText under a watchdog so a pathological page
// cannot stall the pipeline indefinitely.
func extractPage(page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	ch := make(chan result, 1)

	go func() {
		content, err := page.GetPlainText(nil)
		ch <- result{content, err}
	}()

	select {
	case r := <-ch:
		return r.content, r.err
	case <-time.After(pageExtractTimeout):
		// GetPlainText offers no cancellation, so the goroutine is abandoned
		// here; the buffered channel lets it exit whenever the page finally
		// parses. The load has already failed at this point.
		return "", errPageTimeout
	}
}
