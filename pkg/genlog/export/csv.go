package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"mercator-hq/scribe/pkg/genlog"
)

// CSVExporter writes entries as CSV rows.
type CSVExporter struct {
	// IncludeHeader writes a header row first.
	IncludeHeader bool
}

// NewCSVExporter creates a CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{IncludeHeader: includeHeader}
}

// Header is the CSV column order.
var Header = []string{
	"id", "created_at", "user_id", "provider", "model", "field_type",
	"prompt_source", "template_id", "success", "error_kind", "error",
	"tokens_used", "latency_ms", "prompt_hash", "prompt", "response",
}

// Export implements genlog.Exporter.
func (e *CSVExporter) Export(ctx context.Context, entries []*genlog.Entry, w io.Writer) error {
	writer := csv.NewWriter(w)

	if e.IncludeHeader {
		if err := writer.Write(Header); err != nil {
			return fmt.Errorf("csv export: %w", err)
		}
	}

	for i, entry := range entries {
		if i%100 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := writer.Write(row(entry)); err != nil {
			return fmt.Errorf("csv export of %d entries: %w", len(entries), err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("csv export of %d entries: %w", len(entries), err)
	}
	return nil
}

func row(e *genlog.Entry) []string {
	created := ""
	if !e.CreatedAt.IsZero() {
		created = e.CreatedAt.UTC().Format(time.RFC3339)
	}
	return []string{
		e.ID,
		created,
		e.UserID,
		e.Provider,
		e.Model,
		e.FieldType,
		e.PromptSource,
		e.TemplateID,
		strconv.FormatBool(e.Success),
		e.ErrorKind,
		e.Error,
		strconv.Itoa(e.TokensUsed),
		strconv.FormatInt(e.Latency.Milliseconds(), 10),
		e.PromptHash,
		e.Prompt,
		e.Response,
	}
}
