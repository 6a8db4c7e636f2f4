package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mercator-hq/scribe/internal/testutil"
	"mercator-hq/scribe/pkg/cli"
	"mercator-hq/scribe/pkg/genlog"
)

// execute runs the root command with args and returns its standard output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// writeConfig writes a configuration that keeps every file under a temporary
// directory and points the providers at baseURL.
func writeConfig(t *testing.T, baseURL string) string {
	t.Helper()
	dir := t.TempDir()
	cfg := fmt.Sprintf(`storage:
  driver: sqlite
  path: %[1]s/scribe.db
cache:
  backend: file
  dir: %[1]s/cache
providers:
  ollama:
    base_url: %[2]s
    timeout: 2s
    probe_timeout: 1s
  openai:
    base_url: %[2]s
    timeout: 2s
    max_retries: -1
telemetry:
  logging:
    level: error
`, dir, baseURL)
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFieldsCommand(t *testing.T) {
	out, err := execute(t, "fields", "--category", "risk", "--format", "csv")
	if err != nil {
		t.Fatalf("fields failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if lines[0] != "FIELD TYPE,CATEGORY,SHAPE" {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(out, "risk_description,risk,text") {
		t.Errorf("risk_description missing:\n%s", out)
	}
	for _, line := range lines[1:] {
		if !strings.Contains(line, ",risk,") {
			t.Errorf("row outside category: %q", line)
		}
	}

	_, err = execute(t, "fields", "--category", "nope", "--format", "text")
	if cli.ExitCode(err) != cli.ExitConfig {
		t.Errorf("unknown category exit code = %d, want %d", cli.ExitCode(err), cli.ExitConfig)
	}
	fieldsCategory = ""
}

func TestGenerateAndLogs(t *testing.T) {
	mock := testutil.NewMockServer()
	defer mock.Close()
	mock.SetResponse("/api/tags", testutil.OllamaTags("llama3.2"))
	mock.SetResponse("/api/generate", testutil.OllamaGenerate("The audit reviews quarterly access.", 42))

	cfgPath := writeConfig(t, mock.URL())

	out, err := execute(t, "generate", "--config", cfgPath, "--format", "text",
		"--provider", "ollama", "--model", "llama3.2",
		"--field-type", "description", "--attr", "title=Q3 Access Review", "--user", "alice")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if !strings.Contains(out, "The audit reviews quarterly access.") {
		t.Errorf("content missing:\n%s", out)
	}
	if !strings.Contains(out, "ollama/llama3.2, 42 tokens") {
		t.Errorf("summary missing:\n%s", out)
	}

	req, ok := mock.LastRequest("/api/generate")
	if !ok {
		t.Fatal("generate endpoint not called")
	}
	if prompt, _ := req.JSON()["prompt"].(string); !strings.Contains(prompt, "Q3 Access Review") {
		t.Errorf("prompt does not carry the title: %q", prompt)
	}

	out, err = execute(t, "logs", "list", "--config", cfgPath, "--format", "json", "--user", "alice")
	if err != nil {
		t.Fatalf("logs list failed: %v", err)
	}
	var entries []genlog.Entry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("logs output is not JSON: %v\n%s", err, out)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d log entries, want 1", len(entries))
	}
	if e := entries[0]; e.Provider != "ollama" || e.FieldType != "description" || !e.Success || e.TokensUsed != 42 {
		t.Errorf("entry = %+v", e)
	}
	logsFlags.user = ""
}

func TestGenerate_InvalidFieldType(t *testing.T) {
	_, err := execute(t, "generate", "--provider", "ollama", "--field-type", "not_a_field", "--format", "text")
	if cli.ExitCode(err) != cli.ExitConfig {
		t.Errorf("exit code = %d, want %d (err %v)", cli.ExitCode(err), cli.ExitConfig, err)
	}
	generateFlags.fieldType = ""
	generateFlags.provider = ""
}

func TestConnectionFailure(t *testing.T) {
	mock := testutil.NewMockServer()
	defer mock.Close()
	mock.SetResponse("/v1/chat/completions", testutil.AuthError())

	cfgPath := writeConfig(t, mock.URL())
	out, err := execute(t, "test-connection", "--config", cfgPath, "--format", "text",
		"--provider", "openai", "--api-key", "sk-bad")
	if cli.ExitCode(err) != cli.ExitFailure {
		t.Fatalf("exit code = %d, want %d (err %v)", cli.ExitCode(err), cli.ExitFailure, err)
	}
	if !strings.HasPrefix(out, "✗ ") {
		t.Errorf("output = %q", out)
	}
	if mock.CountPath("/v1/chat/completions") != 1 {
		t.Errorf("backend called %d times", mock.CountPath("/v1/chat/completions"))
	}
	connectionFlags.apiKey = ""
	connectionFlags.provider = ""
}

func TestReadBatch(t *testing.T) {
	defer func() { generateFlags.provider, generateFlags.apiKey = "", "" }()
	generateFlags.provider = "openai"
	generateFlags.apiKey = "sk-flag"

	path := filepath.Join(t.TempDir(), "batch.json")
	batch := `[
  {"field_type": "objectives", "attributes": {"title": "Payroll"}},
  {"provider": "anthropic", "field_type": "scope", "api_key": "sk-own"}
]`
	if err := os.WriteFile(path, []byte(batch), 0o600); err != nil {
		t.Fatal(err)
	}

	reqs, err := readBatch(path)
	if err != nil {
		t.Fatalf("readBatch: %v", err)
	}
	if len(reqs) != 2 {
		t.Fatalf("got %d requests", len(reqs))
	}
	if reqs[0].Provider != "openai" || reqs[0].APIKey != "sk-flag" || reqs[0].Attribute("title") != "Payroll" {
		t.Errorf("first request = %+v", reqs[0])
	}
	if reqs[1].Provider != "anthropic" || reqs[1].APIKey != "sk-own" {
		t.Errorf("second request = %+v", reqs[1])
	}

	if err := os.WriteFile(path, []byte(`[]`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := readBatch(path); cli.ExitCode(err) != cli.ExitConfig {
		t.Errorf("empty batch err = %v", err)
	}
}

func TestSummarize(t *testing.T) {
	long := strings.Repeat("word ", 30)
	got := summarize(long)
	if len([]rune(got)) != 60 || !strings.HasSuffix(got, "...") {
		t.Errorf("summarize = %q", got)
	}
	if summarize("a\n  b") != "a b" {
		t.Errorf("whitespace not collapsed")
	}
}
