package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"mercator-hq/scribe/pkg/genlog"
)

func sample() []*genlog.Entry {
	return []*genlog.Entry{
		{
			ID:        "e1",
			CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
			UserID:    "alice",
			Provider:  "anthropic",
			Model:     "claude-3-5-sonnet-20241022",
			FieldType: "objectives",
			Success:   true,
			Prompt:    "line one\nline \"two\", with comma",
			Response:  `["a","b"]`,
			Latency:   2 * time.Second,
		},
		{ID: "e2", Provider: "openai", Success: false, Error: "OpenAI API error: 401 - bad key", ErrorKind: "upstream"},
	}
}

func TestJSONExporter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONExporter(false).Export(context.Background(), sample(), &buf); err != nil {
		t.Fatal(err)
	}

	var got []genlog.Entry
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(got) != 2 || got[1].Error != "OpenAI API error: 401 - bad key" {
		t.Errorf("decoded = %+v", got)
	}

	buf.Reset()
	if err := NewJSONExporter(true).Export(context.Background(), nil, &buf); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "[]" {
		t.Errorf("empty export = %q", buf.String())
	}
}

func TestCSVExporter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewCSVExporter(true).Export(context.Background(), sample(), &buf); err != nil {
		t.Fatal(err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(records))
	}
	if len(records[0]) != len(Header) {
		t.Errorf("header has %d columns", len(records[0]))
	}

	first := records[1]
	if first[1] != "2026-01-02T03:04:05Z" || first[8] != "true" || first[12] != "2000" {
		t.Errorf("row = %v", first)
	}
	if first[14] != "line one\nline \"two\", with comma" {
		t.Errorf("prompt not round-tripped: %q", first[14])
	}
	if records[2][1] != "" || records[2][9] != "upstream" {
		t.Errorf("second row = %v", records[2])
	}
}
