package templates

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mercator-hq/scribe/pkg/fields"
)

func TestSeedWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "templates.yaml")
	write := func(body string) {
		t.Helper()
		content := "templates:\n  - id: s\n    name: S\n    field_type: scope\n    body: \"" + body + "\"\n"
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("first")

	store := NewMemoryStore()
	if _, err := ImportFile(context.Background(), store, path); err != nil {
		t.Fatal(err)
	}

	sw, err := NewSeedWatcher(store, path, 20*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}

	loaded := make(chan ImportResult, 4)
	sw.OnLoad(func(r ImportResult, err error) {
		if err == nil {
			loaded <- r
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sw.Watch(ctx)

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	write("second")

	deadline := time.After(5 * time.Second)
	var got Template
	for got.Body != "second" {
		select {
		case <-loaded:
		case <-deadline:
			t.Fatalf("timed out waiting for reload, last body %q", got.Body)
		}
		got, err = store.Get(context.Background(), "s")
		if err != nil {
			t.Fatal(err)
		}
	}

	if got.Body != "second" || got.Version != 2 || got.FieldType != fields.Scope {
		t.Errorf("unexpected template after reload: %+v", got)
	}
}
