package generation

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"mercator-hq/scribe/internal/testutil"
	"mercator-hq/scribe/pkg/fields"
	"mercator-hq/scribe/pkg/genlog"
	"mercator-hq/scribe/pkg/providerfactory"
	"mercator-hq/scribe/pkg/prompts"
	"mercator-hq/scribe/pkg/providers"
	"mercator-hq/scribe/pkg/settings"
	"mercator-hq/scribe/pkg/telemetry/logging"
)

type entryRecorder struct {
	mu      sync.Mutex
	entries []*genlog.Entry
	err     error
}

func (r *entryRecorder) Record(e *genlog.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return r.err
}

type outcome struct {
	provider string
	success  bool
	kind     string
}

type observer struct {
	mu       sync.Mutex
	outcomes []outcome
}

func (o *observer) RecordGeneration(provider, model, fieldType string, success bool, errorKind string, d time.Duration, tokens int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome{provider, success, errorKind})
}

type panicAdapter struct{}

func (panicAdapter) Generate(context.Context, string, *providers.GenerationRequest) *providers.GenerationResponse {
	panic("boom")
}
func (panicAdapter) Family() providers.Family         { return providers.FamilyOpenAI }
func (panicAdapter) Health() providers.ProviderHealth { return providers.ProviderHealth{} }
func (panicAdapter) Close() error                     { return nil }

// echoAdapter returns the prompt it was given.
type echoAdapter struct {
	mu    sync.Mutex
	delay time.Duration
	seen  []*providers.GenerationRequest
}

func (a *echoAdapter) Generate(ctx context.Context, prompt string, req *providers.GenerationRequest) *providers.GenerationResponse {
	time.Sleep(a.delay)
	a.mu.Lock()
	a.seen = append(a.seen, req)
	a.mu.Unlock()
	return providers.Succeeded(req.Provider, req.Model, providers.TextContent(prompt), 0)
}
func (a *echoAdapter) Family() providers.Family         { return providers.FamilyOllama }
func (a *echoAdapter) Health() providers.ProviderHealth { return providers.ProviderHealth{} }
func (a *echoAdapter) Close() error                     { return nil }

func newManager(t *testing.T, configs ...providers.ProviderConfig) *providerfactory.Manager {
	t.Helper()
	m := providerfactory.NewManager()
	if err := m.LoadFromConfig(configs); err != nil {
		t.Fatalf("load providers: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func hosted(name, url string) providers.ProviderConfig {
	return providers.ProviderConfig{Name: name, BaseURL: url, Timeout: 2 * time.Second}
}

func selfHosted(url string) providers.ProviderConfig {
	return providers.ProviderConfig{
		Name:         "ollama",
		BaseURL:      url,
		Timeout:      2 * time.Second,
		ProbeTimeout: time.Second,
		VerifyModel:  true,
	}
}

func TestGenerateContent_MissingCredential(t *testing.T) {
	mock := testutil.NewMockServer()
	defer mock.Close()

	svc := NewService(newManager(t, hosted("openai", mock.URL())), prompts.NewBuilder(nil))
	resp := svc.GenerateContent(context.Background(), &providers.GenerationRequest{
		Provider:  "openai",
		FieldType: fields.Description,
		Prompt:    "Describe the audit",
	})

	if resp.Success {
		t.Fatal("expected failure without a credential")
	}
	if !strings.Contains(resp.Error, "API key") {
		t.Errorf("error %q does not mention the API key", resp.Error)
	}
	if mock.RequestCount() != 0 {
		t.Errorf("backend was called %d times", mock.RequestCount())
	}
}

func TestGenerateContent_SelfHostedUnreachable(t *testing.T) {
	mock := testutil.NewMockServer()
	url := mock.URL()
	mock.Close()

	svc := NewService(newManager(t, selfHosted(url)), prompts.NewBuilder(nil))
	resp := svc.GenerateContent(context.Background(), &providers.GenerationRequest{
		Provider:  "ollama",
		FieldType: fields.Scope,
		Attributes: map[string]any{
			"title": "Payroll audit",
		},
	})

	if resp.Success {
		t.Fatal("expected failure for an unreachable server")
	}
	if !strings.Contains(resp.Error, "Cannot connect") || !strings.Contains(resp.Error, "ollama serve") {
		t.Errorf("error %q lacks installation guidance", resp.Error)
	}
	if resp.ErrorKind != "unreachable" {
		t.Errorf("error kind = %q", resp.ErrorKind)
	}
}

func TestGenerateContent_ListNormalization(t *testing.T) {
	tests := []struct {
		name      string
		reply     string
		wantItems []string
		wantText  string
	}{
		{"json array", `["Assess payroll controls","Verify segregation of duties"]`, []string{"Assess payroll controls", "Verify segregation of duties"}, ""},
		{"broken array", `["Assess payroll controls", oops`, nil, `["Assess payroll controls", oops`},
		{"prose", "Assess payroll controls.", nil, "Assess payroll controls."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testutil.NewMockServer()
			defer mock.Close()
			mock.SetResponse("/api/tags", testutil.OllamaTags("llama3.2:latest"))
			mock.SetResponse("/api/generate", testutil.OllamaGenerate(tt.reply, 20))

			svc := NewService(newManager(t, selfHosted(mock.URL())), prompts.NewBuilder(nil))
			resp := svc.GenerateContent(context.Background(), &providers.GenerationRequest{
				Provider:  "ollama",
				Model:     "llama3.2",
				FieldType: fields.Objectives,
			})

			if !resp.Success {
				t.Fatalf("generation failed: %s", resp.Error)
			}
			if tt.wantItems != nil {
				if !resp.Content.IsList() || strings.Join(resp.Content.Items, "|") != strings.Join(tt.wantItems, "|") {
					t.Errorf("content = %+v, want items %v", resp.Content, tt.wantItems)
				}
				return
			}
			if resp.Content.IsList() || resp.Content.Text != tt.wantText {
				t.Errorf("content = %+v, want text %q", resp.Content, tt.wantText)
			}
		})
	}
}

func TestGenerateContent_FailureContainment(t *testing.T) {
	type backend struct {
		id   string
		path string
		key  string
	}
	backends := []backend{
		{"ollama", "/api/generate", ""},
		{"openai", "/v1/chat/completions", "sk-test"},
		{"anthropic", "/v1/messages", "sk-ant-test"},
		{"gemini", "/v1beta/models/gemini-1.5-flash:generateContent", "AIza-test"},
	}

	for _, b := range backends {
		t.Run(b.id+"/network", func(t *testing.T) {
			mock := testutil.NewMockServer()
			url := mock.URL()
			mock.Close()

			cfg := hosted(b.id, url)
			if b.id == "ollama" {
				cfg = selfHosted(url)
			}
			svc := NewService(newManager(t, cfg), prompts.NewBuilder(nil))
			resp := svc.GenerateContent(context.Background(), &providers.GenerationRequest{
				Provider: b.id, FieldType: fields.Description, Prompt: "p", APIKey: b.key,
			})
			if resp.Success || resp.Error == "" {
				t.Errorf("response = %+v, want failure with a message", resp)
			}
		})

		t.Run(b.id+"/upstream", func(t *testing.T) {
			mock := testutil.NewMockServer()
			defer mock.Close()
			mock.SetResponse("/api/tags", testutil.OllamaTags("llama3.2:latest"))
			mock.SetResponse(b.path, testutil.ServerError())

			cfg := hosted(b.id, mock.URL())
			if b.id == "ollama" {
				cfg = selfHosted(mock.URL())
			}
			svc := NewService(newManager(t, cfg), prompts.NewBuilder(nil))
			resp := svc.GenerateContent(context.Background(), &providers.GenerationRequest{
				Provider: b.id, FieldType: fields.Description, Prompt: "p", APIKey: b.key,
			})
			if resp.Success {
				t.Fatal("expected failure")
			}
			if !strings.Contains(resp.Error, "500") {
				t.Errorf("error %q lacks the status code", resp.Error)
			}
		})

		if b.key == "" {
			continue
		}
		t.Run(b.id+"/no credential", func(t *testing.T) {
			mock := testutil.NewMockServer()
			defer mock.Close()

			svc := NewService(newManager(t, hosted(b.id, mock.URL())), prompts.NewBuilder(nil))
			resp := svc.GenerateContent(context.Background(), &providers.GenerationRequest{
				Provider: b.id, FieldType: fields.Description, Prompt: "p",
			})
			if resp.Success || !strings.Contains(resp.Error, "API key is required") {
				t.Errorf("response = %+v", resp)
			}
		})
	}
}

func TestGenerateContent_UnsupportedProvider(t *testing.T) {
	obs := &observer{}
	svc := NewService(newManager(t), prompts.NewBuilder(nil), WithObserver(obs))

	resp := svc.GenerateContent(context.Background(), &providers.GenerationRequest{Provider: "mistral", FieldType: fields.Description})
	if resp.Success || !strings.Contains(resp.Error, `Unsupported AI provider: "mistral"`) {
		t.Errorf("response = %+v", resp)
	}
	if len(obs.outcomes) != 1 || obs.outcomes[0].kind != "unsupported_provider" {
		t.Errorf("observer saw %+v", obs.outcomes)
	}

	if resp := svc.GenerateContent(context.Background(), nil); resp.Success || resp.Error == "" {
		t.Errorf("nil request response = %+v", resp)
	}
}

func TestGenerateContent_RecoversPanics(t *testing.T) {
	m := newManager(t)
	m.Register("openai", panicAdapter{})
	rec := &entryRecorder{}

	svc := NewService(m, prompts.NewBuilder(nil), WithRecorder(rec))
	resp := svc.GenerateContent(context.Background(), &providers.GenerationRequest{Provider: "openai", FieldType: fields.Description})

	if resp.Success || !strings.Contains(resp.Error, "boom") {
		t.Errorf("response = %+v", resp)
	}
	if len(rec.entries) != 1 || rec.entries[0].ErrorKind != "internal" {
		t.Errorf("recorded %+v", rec.entries)
	}
}

func TestGenerateContent_RecordsAttempt(t *testing.T) {
	mock := testutil.NewMockServer()
	defer mock.Close()
	mock.SetResponse("/v1/messages", testutil.AnthropicMessage("Payroll audit scope.", "claude-3-5-sonnet-20241022", 12, 8))

	rec := &entryRecorder{err: errors.New("log store down")}
	obs := &observer{}
	svc := NewService(newManager(t, hosted("anthropic", mock.URL())), prompts.NewBuilder(nil),
		WithRecorder(rec), WithObserver(obs))

	ctx := logging.WithRequestID(settings.WithUser(context.Background(), "alice"), "req-1")
	resp := svc.GenerateContent(ctx, &providers.GenerationRequest{
		Provider:  "anthropic",
		FieldType: fields.Scope,
		APIKey:    "sk-ant-test",
		Attributes: map[string]any{
			"title": "Payroll audit",
		},
	})

	if !resp.Success {
		t.Fatalf("recorder failure leaked into the result: %s", resp.Error)
	}
	if resp.TokensUsed != 20 {
		t.Errorf("tokens = %d", resp.TokensUsed)
	}
	if len(rec.entries) != 1 {
		t.Fatalf("recorded %d entries", len(rec.entries))
	}
	e := rec.entries[0]
	if e.UserID != "alice" || e.RequestID != "req-1" || e.PromptSource != string(prompts.SourceLibrary) {
		t.Errorf("entry = %+v", e)
	}
	if e.Prompt == "" || e.Response != "Payroll audit scope." || !e.Success {
		t.Errorf("entry content = %+v", e)
	}
	if len(obs.outcomes) != 1 || !obs.outcomes[0].success {
		t.Errorf("observer saw %+v", obs.outcomes)
	}
}

func TestGenerateContent_EstimatesTokens(t *testing.T) {
	m := newManager(t)
	m.Register("ollama", &echoAdapter{})

	svc := NewService(m, prompts.NewBuilder(nil))
	resp := svc.GenerateContent(context.Background(), &providers.GenerationRequest{
		Provider: "ollama", FieldType: fields.Description, Prompt: "Describe the payroll audit in two sentences.",
	})
	if !resp.Success || resp.TokensUsed == 0 {
		t.Errorf("response = %+v, want an estimated token count", resp)
	}
}

func TestGenerateContent_ConfigSource(t *testing.T) {
	mock := testutil.NewMockServer()
	defer mock.Close()
	mock.SetResponse("/v1/chat/completions", testutil.OpenAIChat("ok", "gpt-4o", 3))

	store := settings.NewStore(settings.NewMemoryBackend())
	ctx := settings.WithUser(context.Background(), "alice")
	_, err := store.Save(ctx, settings.Configuration{
		Provider:    "openai",
		Model:       "gpt-4o",
		APIKey:      "sk-saved",
		Endpoint:    mock.URL(),
		Temperature: 0.2,
		MaxTokens:   321,
		Active:      true,
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	svc := NewService(newManager(t, hosted("openai", "http://127.0.0.1:1")), prompts.NewBuilder(nil), WithConfigSource(store))
	resp := svc.GenerateContent(ctx, &providers.GenerationRequest{Provider: "openai", FieldType: fields.Description, Prompt: "p"})
	if !resp.Success {
		t.Fatalf("generation failed: %s", resp.Error)
	}

	recorded, ok := mock.LastRequest("/v1/chat/completions")
	if !ok {
		t.Fatal("saved endpoint was not used")
	}
	if got := recorded.Header.Get("Authorization"); got != "Bearer sk-saved" {
		t.Errorf("Authorization = %q", got)
	}
	body := recorded.JSON()
	if body["model"] != "gpt-4o" || body["temperature"] != 0.2 || body["max_tokens"] != float64(321) {
		t.Errorf("body = %v", body)
	}
}

func TestGenerateContent_SyntheticDefaultKeepsAdapterEndpoint(t *testing.T) {
	m := newManager(t)
	echo := &echoAdapter{}
	m.Register("ollama", echo)

	store := settings.NewStore(settings.NewMemoryBackend())
	svc := NewService(m, prompts.NewBuilder(nil), WithConfigSource(store))

	resp := svc.GenerateContent(context.Background(), &providers.GenerationRequest{Provider: "ollama", FieldType: fields.Description, Prompt: "p"})
	if !resp.Success {
		t.Fatalf("generation failed: %s", resp.Error)
	}
	if got := echo.seen[0]; got.Endpoint != "" || got.Model != "" || got.Temperature != nil {
		t.Errorf("synthesized default leaked into request: %+v", got)
	}
}

func TestGenerateBatch_PreservesOrder(t *testing.T) {
	m := newManager(t)
	m.Register("ollama", &echoAdapter{delay: 5 * time.Millisecond})

	svc := NewService(m, prompts.NewBuilder(nil), WithConfig(Config{BatchConcurrency: 2}))
	reqs := []*providers.GenerationRequest{
		{Provider: "ollama", FieldType: fields.Description, Prompt: "one"},
		{Provider: "unknown", FieldType: fields.Description, Prompt: "two"},
		{Provider: "ollama", FieldType: fields.Description, Prompt: "three"},
		nil,
		{Provider: "ollama", FieldType: fields.Description, Prompt: "five"},
	}

	out := svc.GenerateBatch(context.Background(), reqs)
	if len(out) != len(reqs) {
		t.Fatalf("got %d responses", len(out))
	}
	for i, want := range []string{"one", "", "three", "", "five"} {
		if want == "" {
			if out[i].Success {
				t.Errorf("response %d succeeded", i)
			}
			continue
		}
		if !out[i].Success || out[i].Content.Text != want {
			t.Errorf("response %d = %+v, want %q", i, out[i], want)
		}
	}
}

func TestTestConnection(t *testing.T) {
	mock := testutil.NewMockServer()
	defer mock.Close()
	mock.SetResponse("/v1beta/models/gemini-1.5-flash:generateContent", testutil.GeminiContent("OK", 4))

	svc := NewService(newManager(t, hosted("gemini", mock.URL())), prompts.NewBuilder(nil))

	ok := svc.TestConnection(context.Background(), providers.GenerationRequest{Provider: "gemini", APIKey: "AIza-test"})
	if !ok.OK || !strings.Contains(ok.Message, "gemini-1.5-flash") {
		t.Errorf("result = %+v", ok)
	}
	recorded, _ := mock.LastRequest("/v1beta/models/gemini-1.5-flash:generateContent")
	if !strings.Contains(string(recorded.Body), connectionPrompt) {
		t.Errorf("body = %s", recorded.Body)
	}

	mock.SetResponse("/v1beta/models/gemini-1.5-flash:generateContent", testutil.ErrorResponse(http.StatusBadRequest, "API key not valid"))
	bad := svc.TestConnection(context.Background(), providers.GenerationRequest{Provider: "gemini", APIKey: "AIza-bad"})
	if bad.OK || !strings.Contains(bad.Message, "API key not valid") {
		t.Errorf("result = %+v", bad)
	}
}
