package gitsource

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"mercator-hq/scribe/pkg/templates"
)

func commitFile(t *testing.T, repo *gogit.Repository, dir, rel, content, msg string) {
	t.Helper()

	full := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := wt.Add(rel); err != nil {
		t.Fatal(err)
	}
	_, err = wt.Commit(msg, &gogit.CommitOptions{
		Author: &object.Signature{Name: "Test User", Email: "test@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatal(err)
	}
}

const seedV1 = `templates:
  - id: scope-default
    name: Scope
    field_type: scope
    default: true
    body: "Scope for {{title}}"
`

const seedV2 = `templates:
  - id: scope-default
    name: Scope
    field_type: scope
    default: true
    body: "Detailed scope for {{title}}"
`

func TestSource_SyncImportsAndTracksChanges(t *testing.T) {
	upstream := t.TempDir()
	repo, err := gogit.PlainInit(upstream, false)
	if err != nil {
		t.Fatal(err)
	}
	commitFile(t, repo, upstream, "templates/scope.yaml", seedV1, "add scope")
	commitFile(t, repo, upstream, "README.md", "docs", "readme")

	store := templates.NewMemoryStore()
	src, err := New(Config{
		Repository: upstream,
		Branch:     "master",
		Path:       "templates",
		LocalPath:  filepath.Join(t.TempDir(), "clone"),
	}, store)
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	res, err := src.Sync(ctx)
	if err != nil {
		t.Fatalf("first sync: %v", err)
	}
	if !res.Changed || len(res.Files) != 1 || res.Import.Created != 1 {
		t.Fatalf("unexpected first sync %+v", res)
	}

	res, err = src.Sync(ctx)
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if res.Changed {
		t.Error("expected no change without new commits")
	}

	commitFile(t, repo, upstream, "templates/scope.yaml", seedV2, "expand scope")
	res, err = src.Sync(ctx)
	if err != nil {
		t.Fatalf("third sync: %v", err)
	}
	if !res.Changed || res.Import.Updated != 1 {
		t.Fatalf("expected update, got %+v", res)
	}

	got, err := store.Get(ctx, "scope-default")
	if err != nil {
		t.Fatal(err)
	}
	if got.Version != 2 || got.Body != "Detailed scope for {{title}}" {
		t.Errorf("unexpected template %+v", got)
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{}, templates.NewMemoryStore()); err == nil {
		t.Error("expected error for empty repository")
	}
	src, err := New(Config{Repository: "https://example.com/t.git"}, templates.NewMemoryStore())
	if err != nil {
		t.Fatal(err)
	}
	if src.cfg.Branch != "main" || src.cfg.Timeout != 30*time.Second {
		t.Errorf("defaults not applied: %+v", src.cfg)
	}
}
