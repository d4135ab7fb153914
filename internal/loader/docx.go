package loader

import (
	"context"
	"fmt"
	"strings"

	"github.com/lu4p/cat"

	"github.com/avrett/docqa/internal/document"
)

// loadDOCX extracts the raw text of a Word document (formatting discarded)
// into one logical document. The caller chunks it afterwards. cat also
// handles legacy .doc files, which is why the detector maps both extensions
// here. An empty document is a valid empty sequence.
func loadDOCX(ctx context.Context, path string) ([]document.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("loader: docx %s: %w", path, err)
	}

	text, err := cat.File(path)
	if err != nil {
		return nil, fmt.Errorf("loader: extract docx %s: %w", path, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	return []document.Document{{
		ID:       document.RecordID(path, 0),
		Content:  text,
		Source:   path,
		Type:     document.TypeDOCX,
		Metadata: baseMetadata(path, document.TypeDOCX),
	}}, nil
}
