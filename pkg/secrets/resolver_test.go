package secrets

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type mapSource struct {
	name   string
	values map[string]string
	calls  int
}

func (m *mapSource) Lookup(_ context.Context, name string) (string, error) {
	m.calls++
	if v, ok := m.values[name]; ok {
		return v, nil
	}
	return "", ErrNotFound
}

func (m *mapSource) Name() string { return m.name }

func envSource(vars map[string]string) *EnvSource {
	s := NewEnvSource("SCRIBE_SECRET_")
	s.lookup = func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
	return s
}

func TestEnvSource(t *testing.T) {
	s := envSource(map[string]string{"SCRIBE_SECRET_OPENAI_API_KEY": "sk-live", "SCRIBE_SECRET_EMPTY": ""})

	if got := s.Variable("openai-api-key"); got != "SCRIBE_SECRET_OPENAI_API_KEY" {
		t.Errorf("Variable = %q", got)
	}
	v, err := s.Lookup(context.Background(), "openai-api-key")
	if err != nil || v != "sk-live" {
		t.Errorf("Lookup = %q, %v", v, err)
	}
	for _, name := range []string{"missing", "empty"} {
		if _, err := s.Lookup(context.Background(), name); !errors.Is(err, ErrNotFound) {
			t.Errorf("Lookup(%s) error = %v, want ErrNotFound", name, err)
		}
	}
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	write := func(name, value string, mode os.FileMode) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(value), mode); err != nil {
			t.Fatal(err)
		}
		if err := os.Chmod(filepath.Join(dir, name), mode); err != nil {
			t.Fatal(err)
		}
	}
	write("anthropic-api-key", "sk-ant-123\n", 0o600)
	write("open", "nope", 0o644)

	s, err := NewFileSource(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if v, err := s.Lookup(ctx, "anthropic-api-key"); err != nil || v != "sk-ant-123" {
		t.Errorf("Lookup = %q, %v", v, err)
	}
	if _, err := s.Lookup(ctx, "open"); err == nil || !strings.Contains(err.Error(), "insecure permissions") {
		t.Errorf("world-readable file error = %v", err)
	}
	if _, err := s.Lookup(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing file error = %v", err)
	}
	if _, err := s.Lookup(ctx, "../etc/passwd"); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("traversal error = %v", err)
	}

	write("anthropic-api-key", "rotated", 0o600)
	if v, _ := s.Lookup(ctx, "anthropic-api-key"); v != "sk-ant-123" {
		t.Errorf("value before refresh = %q", v)
	}
	s.Refresh()
	if v, _ := s.Lookup(ctx, "anthropic-api-key"); v != "rotated" {
		t.Errorf("value after refresh = %q", v)
	}
}

func TestNewFileSource_NotADirectory(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(f, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileSource(f); err == nil {
		t.Error("expected error for a regular file")
	}
	if _, err := NewFileSource(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Error("expected error for a missing directory")
	}
}

func TestResolver_Expand(t *testing.T) {
	first := &mapSource{name: "file", values: map[string]string{"openai-api-key": "from-file"}}
	second := &mapSource{name: "env", values: map[string]string{"openai-api-key": "from-env", "db-pass": "hunter2"}}
	r := NewResolver([]Source{first, second}, 0)
	ctx := context.Background()

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "sk-plain", want: "sk-plain"},
		{in: "${secret:openai-api-key}", want: "from-file"},
		{in: "postgres://scribe:${secret:db-pass}@db/scribe", want: "postgres://scribe:hunter2@db/scribe"},
		{in: "${secret:absent}", wantErr: true},
		{in: "${secret:db-pass}${secret:absent}", wantErr: true},
	}
	for _, tt := range tests {
		got, err := r.Expand(ctx, tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("Expand(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Expand(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolver_Cache(t *testing.T) {
	src := &mapSource{name: "env", values: map[string]string{"k": "v1"}}
	r := NewResolver([]Source{src}, time.Minute)
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }
	ctx := context.Background()

	for range 3 {
		if v, err := r.Lookup(ctx, "k"); err != nil || v != "v1" {
			t.Fatalf("Lookup = %q, %v", v, err)
		}
	}
	if src.calls != 1 {
		t.Errorf("source called %d times, want 1", src.calls)
	}

	src.values["k"] = "v2"
	now = now.Add(2 * time.Minute)
	if v, _ := r.Lookup(ctx, "k"); v != "v2" {
		t.Errorf("expired entry served %q", v)
	}

	src.values["k"] = "v3"
	r.Refresh()
	if v, _ := r.Lookup(ctx, "k"); v != "v3" {
		t.Errorf("after Refresh = %q", v)
	}
}

func TestResolver_ExpandFields(t *testing.T) {
	r := NewResolver([]Source{envSource(map[string]string{"SCRIBE_SECRET_OPENAI": "sk-1"})}, 0)

	openai := "${secret:openai}"
	gemini := "${secret:gemini}"
	plain := "literal"
	err := r.ExpandFields(context.Background(), map[string]*string{
		"providers.openai.api_key": &openai,
		"providers.gemini.api_key": &gemini,
		"cache.redis.password":     &plain,
		"storage.dsn":              nil,
	})

	if openai != "sk-1" || plain != "literal" {
		t.Errorf("fields = %q, %q", openai, plain)
	}
	if gemini != "${secret:gemini}" {
		t.Errorf("failed field changed to %q", gemini)
	}
	if err == nil || !strings.Contains(err.Error(), "providers.gemini.api_key") || !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v", err)
	}
	if strings.Contains(err.Error(), "sk-1") {
		t.Error("error leaks a secret value")
	}
}

func TestRedact(t *testing.T) {
	if got := redact("openai-api-key"); got != "op...ey" {
		t.Errorf("redact = %q", got)
	}
	if got := redact("abc"); got != "***" {
		t.Errorf("redact short = %q", got)
	}
}
