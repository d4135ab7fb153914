package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/avrett/docqa/internal/document"
)

// CSV column roles. The header row is matched case-insensitively; Title and
// Review are required, Rating and Date are optional metadata columns.
const (
	colTitle  = "title"
	colReview = "review"
	colRating = "rating"
	colDate   = "date"
)

// loadCSV parses the file as delimited rows with a header row and produces
// one document per data row. Content is the title and review columns joined
// with a single space. A Rating value that is not an integer fails the whole
// load with ErrMalformedRow — coercing it silently would corrupt downstream
// metadata filtering.
func loadCSV(ctx context.Context, path string) ([]document.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loader: open csv %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // validated per-row against the header below

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("loader: read csv header %s: %w", path, err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	titleIdx, ok := cols[colTitle]
	if !ok {
		return nil, fmt.Errorf("loader: csv %s: missing %q column: %w", path, colTitle, ErrMalformedRow)
	}
	reviewIdx, ok := cols[colReview]
	if !ok {
		return nil, fmt.Errorf("loader: csv %s: missing %q column: %w", path, colReview, ErrMalformedRow)
	}
	ratingIdx, hasRating := cols[colRating]
	dateIdx, hasDate := cols[colDate]

	var docs []document.Document
	for row := 1; ; row++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("loader: csv %s: %w", path, err)
		}

		record, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("loader: csv %s row %d: %w", path, row, err)
		}

		field := func(i int) string {
			if i < len(record) {
				return record[i]
			}
			return ""
		}

		meta := baseMetadata(path, document.TypeCSV)
		if hasRating {
			raw := strings.TrimSpace(field(ratingIdx))
			rating, err := strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("loader: csv %s row %d: rating %q is not an integer: %w", path, row, raw, ErrMalformedRow)
			}
			meta["rating"] = rating
		}
		if hasDate {
			meta["date"] = field(dateIdx)
		}

		docs = append(docs, document.Document{
			ID:       document.RecordID(path, row-1),
			Content:  strings.TrimSpace(field(titleIdx) + " " + field(reviewIdx)),
			Source:   path,
			Type:     document.TypeCSV,
			Metadata: meta,
		})
	}

	return docs, nil
}
