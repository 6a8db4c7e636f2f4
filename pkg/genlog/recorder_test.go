package genlog_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"mercator-hq/scribe/pkg/genlog"
	"mercator-hq/scribe/pkg/genlog/storage"
)

type failingStorage struct {
	*storage.MemoryStorage
}

func (failingStorage) Store(context.Context, *genlog.Entry) error {
	return errors.New("disk full")
}

// blockingStorage holds every write until release is closed.
type blockingStorage struct {
	*storage.MemoryStorage
	release chan struct{}
}

func (b *blockingStorage) Store(ctx context.Context, e *genlog.Entry) error {
	<-b.release
	return b.MemoryStorage.Store(ctx, e)
}

type writeCounter struct {
	mu       sync.Mutex
	ok, fail int
}

func (c *writeCounter) RecordLogWrite(success bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if success {
		c.ok++
	} else {
		c.fail++
	}
}

func TestRecorder_WritesOnClose(t *testing.T) {
	store := storage.NewMemoryStorage()
	rec := genlog.NewRecorder(store, genlog.DefaultConfig())
	counter := &writeCounter{}
	rec.SetObserver(counter)

	for i := 0; i < 10; i++ {
		if err := rec.Record(&genlog.Entry{Provider: "openai", Model: "gpt-4o", Prompt: "p", Success: true}); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	n, err := store.Count(context.Background(), &genlog.Query{})
	if err != nil {
		t.Fatal(err)
	}
	if n != 10 {
		t.Errorf("stored %d entries, want 10", n)
	}
	if counter.ok != 10 || counter.fail != 0 {
		t.Errorf("observer saw ok=%d fail=%d", counter.ok, counter.fail)
	}
}

func TestRecorder_FillsDefaults(t *testing.T) {
	store := storage.NewMemoryStorage()
	rec := genlog.NewRecorder(store, &genlog.Config{Enabled: true, AsyncBuffer: 4, WriteTimeout: time.Second, MaxFieldLength: 10})

	entry := &genlog.Entry{Provider: "ollama", Prompt: "a very long prompt text", Response: "short"}
	if err := rec.Record(entry); err != nil {
		t.Fatal(err)
	}
	rec.Close()

	if entry.ID == "" || entry.CreatedAt.IsZero() {
		t.Errorf("defaults not filled: %+v", entry)
	}
	if entry.PromptHash != genlog.HashString("a very long prompt text") {
		t.Errorf("prompt hash computed after truncation")
	}
	if entry.Prompt != "a very ..." {
		t.Errorf("prompt = %q", entry.Prompt)
	}
	if entry.Response != "short" {
		t.Errorf("response = %q", entry.Response)
	}
}

func TestRecorder_StorageFailureIsSwallowed(t *testing.T) {
	rec := genlog.NewRecorder(failingStorage{storage.NewMemoryStorage()}, nil)
	counter := &writeCounter{}
	rec.SetObserver(counter)

	if err := rec.Record(&genlog.Entry{Provider: "gemini"}); err != nil {
		t.Fatalf("record returned storage error: %v", err)
	}
	rec.Close()

	if counter.fail != 1 {
		t.Errorf("observer fail count = %d, want 1", counter.fail)
	}
}

func TestRecorder_FullQueueDrops(t *testing.T) {
	blocking := &blockingStorage{MemoryStorage: storage.NewMemoryStorage(), release: make(chan struct{})}
	rec := genlog.NewRecorder(blocking, &genlog.Config{Enabled: true, AsyncBuffer: 1, WriteTimeout: time.Second})

	var dropped int
	for i := 0; i < 5; i++ {
		err := rec.Record(&genlog.Entry{Provider: "openai"})
		if errors.Is(err, genlog.ErrQueueFull) {
			dropped++
		}
	}
	close(blocking.release)
	rec.Close()

	// One entry may be in the writer and one queued; the rest are dropped.
	if dropped < 3 {
		t.Errorf("dropped %d entries, want at least 3", dropped)
	}
	if rec.Dropped() != int64(dropped) {
		t.Errorf("Dropped() = %d, want %d", rec.Dropped(), dropped)
	}
}

func TestRecorder_ClosedAndDisabled(t *testing.T) {
	store := storage.NewMemoryStorage()

	rec := genlog.NewRecorder(store, nil)
	rec.Close()
	if err := rec.Record(&genlog.Entry{}); !errors.Is(err, genlog.ErrRecorderClosed) {
		t.Errorf("record after close: %v", err)
	}
	if err := rec.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}

	disabled := genlog.NewRecorder(store, &genlog.Config{Enabled: false})
	if err := disabled.Record(&genlog.Entry{}); err != nil {
		t.Errorf("disabled record: %v", err)
	}
	disabled.Close()

	if n, _ := store.Count(context.Background(), &genlog.Query{}); n != 0 {
		t.Errorf("stored %d entries, want 0", n)
	}
}

func TestQuery_Validate(t *testing.T) {
	now := time.Now()
	earlier := now.Add(-time.Hour)

	tests := []struct {
		name    string
		query   genlog.Query
		wantErr bool
	}{
		{"empty", genlog.Query{}, false},
		{"negative limit", genlog.Query{Limit: -1}, true},
		{"limit too large", genlog.Query{Limit: genlog.MaxLimit + 1}, true},
		{"negative offset", genlog.Query{Offset: -1}, true},
		{"bad sort", genlog.Query{SortOrder: "up"}, true},
		{"inverted range", genlog.Query{StartTime: &now, EndTime: &earlier}, true},
		{"bad status", genlog.Query{Status: "blocked"}, true},
		{"valid", genlog.Query{StartTime: &earlier, EndTime: &now, Status: genlog.StatusError, SortOrder: "asc", Limit: 10}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			var qe *genlog.QueryError
			if err != nil && !errors.As(err, &qe) {
				t.Errorf("error %T is not a QueryError", err)
			}
		})
	}

	q := genlog.Query{}
	q.ApplyDefaults()
	if q.Limit != genlog.DefaultLimit || q.SortOrder != "desc" {
		t.Errorf("defaults = %+v", q)
	}
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"hello", 0, "hello"},
		{"hello", 2, "he"},
		{"héllo wörld", 6, "hé..."},
		{"héllo wörld", 5, "h..."},
	}
	for _, tt := range tests {
		got := genlog.TruncateString(tt.in, tt.max)
		if got != tt.want {
			t.Errorf("TruncateString(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
		if tt.max > 0 && len(got) > tt.max {
			t.Errorf("TruncateString(%q, %d) exceeded max: %q", tt.in, tt.max, got)
		}
		if !strings.HasPrefix(tt.in, strings.TrimSuffix(got, "...")) {
			t.Errorf("TruncateString(%q, %d) = %q is not a prefix", tt.in, tt.max, got)
		}
	}
}
