package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"mercator-hq/scribe/pkg/genlog"
)

// JSONExporter writes entries as a JSON array.
type JSONExporter struct {
	// Pretty enables indentation.
	Pretty bool
}

// NewJSONExporter creates a JSON exporter.
func NewJSONExporter(pretty bool) *JSONExporter {
	return &JSONExporter{Pretty: pretty}
}

// Export implements genlog.Exporter. An empty input writes "[]".
func (e *JSONExporter) Export(ctx context.Context, entries []*genlog.Entry, w io.Writer) error {
	if entries == nil {
		entries = []*genlog.Entry{}
	}

	var (
		data []byte
		err  error
	)
	if e.Pretty {
		data, err = json.MarshalIndent(entries, "", "  ")
	} else {
		data, err = json.Marshal(entries)
	}
	if err != nil {
		return fmt.Errorf("json export of %d entries: %w", len(entries), err)
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("json export of %d entries: %w", len(entries), err)
	}
	return nil
}
