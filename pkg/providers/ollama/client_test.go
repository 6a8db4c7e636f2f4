package ollama

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"mercator-hq/scribe/internal/testutil"
	"mercator-hq/scribe/pkg/fields"
	"mercator-hq/scribe/pkg/providers"
)

func newTestProvider(url string, verify bool) *Provider {
	return NewProvider(providers.ProviderConfig{
		BaseURL:            url,
		VerifyModel:        verify,
		ProbeTimeout:       time.Second,
		Timeout:            5 * time.Second,
		DefaultTemperature: 0.7,
	})
}

func TestOllamaProvider_Generate(t *testing.T) {
	mock := testutil.NewMockServer()
	defer mock.Close()

	mock.SetResponse("/api/tags", testutil.OllamaTags("llama3.2:latest", "phi3:mini"))
	mock.SetResponse("/api/generate", testutil.OllamaGenerate("An audit of payroll controls.", 42))

	provider := newTestProvider(mock.URL(), true)
	defer provider.Close()

	limit := 300
	resp := provider.Generate(context.Background(), "Write a description", &providers.GenerationRequest{
		Model:     "llama3.2",
		FieldType: fields.Description,
		MaxTokens: &limit,
	})

	if !resp.Success {
		t.Fatalf("expected success, got error %q", resp.Error)
	}
	if resp.Content.Text != "An audit of payroll controls." {
		t.Errorf("unexpected content %q", resp.Content.Text)
	}
	if resp.TokensUsed != 42 {
		t.Errorf("expected 42 tokens, got %d", resp.TokensUsed)
	}
	if resp.Provider != "ollama" || resp.Model != "llama3.2" {
		t.Errorf("unexpected echo %s/%s", resp.Provider, resp.Model)
	}

	recorded, ok := mock.LastRequest("/api/generate")
	if !ok {
		t.Fatal("expected a generate request")
	}
	body := recorded.JSON()
	if body["stream"] != false {
		t.Errorf("expected stream=false, got %v", body["stream"])
	}
	if body["prompt"] != "Write a description" {
		t.Errorf("unexpected prompt %v", body["prompt"])
	}
	options, _ := body["options"].(map[string]any)
	if options["num_predict"] != float64(300) {
		t.Errorf("expected num_predict 300, got %v", options["num_predict"])
	}
	if options["temperature"] != 0.7 {
		t.Errorf("expected temperature 0.7, got %v", options["temperature"])
	}
}

func TestOllamaProvider_ObjectivesList(t *testing.T) {
	mock := testutil.NewMockServer()
	defer mock.Close()

	mock.SetResponse("/api/tags", testutil.OllamaTags("llama3.2"))
	mock.SetResponse("/api/generate", testutil.OllamaGenerate(`["Evaluate segregation of duties","Test payroll approvals"]`, 0))

	provider := newTestProvider(mock.URL(), true)
	resp := provider.Generate(context.Background(), "p", &providers.GenerationRequest{FieldType: fields.Objectives})

	if !resp.Success {
		t.Fatalf("expected success, got %q", resp.Error)
	}
	if !resp.Content.IsList() || len(resp.Content.Items) != 2 {
		t.Errorf("expected two objectives, got %+v", resp.Content)
	}
}

func TestOllamaProvider_Unreachable(t *testing.T) {
	mock := testutil.NewMockServer()
	url := mock.URL()
	mock.Close()

	provider := newTestProvider(url, true)
	resp := provider.Generate(context.Background(), "p", &providers.GenerationRequest{FieldType: fields.Objectives})

	if resp.Success {
		t.Fatal("expected failure when server is down")
	}
	for _, want := range []string{url, "https://ollama.com/download", "ollama serve"} {
		if !strings.Contains(resp.Error, want) {
			t.Errorf("expected error to contain %q, got %q", want, resp.Error)
		}
	}
}

func TestOllamaProvider_ProbeTimeout(t *testing.T) {
	mock := testutil.NewMockServer()
	defer mock.Close()

	tags := testutil.OllamaTags("llama3.2")
	tags.Delay = 500 * time.Millisecond
	mock.SetResponse("/api/tags", tags)

	provider := NewProvider(providers.ProviderConfig{
		BaseURL:      mock.URL(),
		ProbeTimeout: 50 * time.Millisecond,
	})

	start := time.Now()
	resp := provider.Generate(context.Background(), "p", nil)
	if resp.Success {
		t.Fatal("expected probe timeout to fail the generation")
	}
	if elapsed := time.Since(start); elapsed > 400*time.Millisecond {
		t.Errorf("expected fast failure, took %s", elapsed)
	}
	if mock.CountPath("/api/generate") != 0 {
		t.Error("expected no generate call after failed probe")
	}
}

func TestOllamaProvider_ModelMissing(t *testing.T) {
	mock := testutil.NewMockServer()
	defer mock.Close()

	mock.SetResponse("/api/tags", testutil.OllamaTags("llama3.2:latest", "phi3:mini"))

	provider := newTestProvider(mock.URL(), true)
	resp := provider.Generate(context.Background(), "p", &providers.GenerationRequest{Model: "mistral"})

	if resp.Success {
		t.Fatal("expected failure for missing model")
	}
	for _, want := range []string{"mistral", "llama3.2:latest", "phi3:mini", "ollama pull mistral"} {
		if !strings.Contains(resp.Error, want) {
			t.Errorf("expected error to contain %q, got %q", want, resp.Error)
		}
	}
	if mock.CountPath("/api/generate") != 0 {
		t.Error("expected no generate call for missing model")
	}
}

func TestOllamaProvider_VerifyDisabled(t *testing.T) {
	mock := testutil.NewMockServer()
	defer mock.Close()

	mock.SetResponse("/api/tags", testutil.OllamaTags())
	mock.SetResponse("/api/generate", testutil.MockResponse{
		StatusCode: http.StatusNotFound,
		Body:       `{"error":"model 'mistral' not found"}`,
	})

	provider := newTestProvider(mock.URL(), false)
	resp := provider.Generate(context.Background(), "p", &providers.GenerationRequest{Model: "mistral"})

	if resp.Success {
		t.Fatal("expected failure on 404")
	}
	if !strings.Contains(resp.Error, "not found") || !strings.Contains(resp.Error, "ollama pull mistral") {
		t.Errorf("expected not-found guidance, got %q", resp.Error)
	}
}

func TestOllamaProvider_ServerError(t *testing.T) {
	mock := testutil.NewMockServer()
	defer mock.Close()

	mock.SetResponse("/api/tags", testutil.OllamaTags("llama3.2"))
	mock.SetResponse("/api/generate", testutil.ErrorResponse(http.StatusInternalServerError, "out of memory"))

	provider := newTestProvider(mock.URL(), true)
	resp := provider.Generate(context.Background(), "p", &providers.GenerationRequest{})

	if resp.Success {
		t.Fatal("expected failure on 500")
	}
	if !strings.Contains(resp.Error, "500") || !strings.Contains(resp.Error, "out of memory") {
		t.Errorf("expected upstream detail, got %q", resp.Error)
	}
	if strings.Contains(resp.Error, "ollama pull") {
		t.Errorf("generic failure should not carry pull guidance: %q", resp.Error)
	}
}

func TestOllamaProvider_EndpointOverride(t *testing.T) {
	mock := testutil.NewMockServer()
	defer mock.Close()

	mock.SetResponse("/api/tags", testutil.OllamaTags("llama3.2"))
	mock.SetResponse("/api/generate", testutil.OllamaGenerate("ok", 1))

	provider := newTestProvider("http://127.0.0.1:1", true)
	resp := provider.Generate(context.Background(), "p", &providers.GenerationRequest{Endpoint: mock.URL()})

	if !resp.Success {
		t.Fatalf("expected override endpoint to be used, got %q", resp.Error)
	}
}

func TestListModels(t *testing.T) {
	mock := testutil.NewMockServer()
	defer mock.Close()

	mock.SetResponse("/api/tags", testutil.OllamaTags("llama3.2:latest", "qwen2.5:7b"))

	provider := newTestProvider(mock.URL(), true)
	models, err := provider.ListModels(context.Background(), "")
	if err != nil {
		t.Fatalf("ListModels failed: %v", err)
	}
	if len(models) != 2 || models[0] != "llama3.2:latest" {
		t.Errorf("unexpected models %v", models)
	}
}

func TestHasModel(t *testing.T) {
	installed := []string{"llama3.2:latest", "phi3:mini"}

	tests := []struct {
		model string
		want  bool
	}{
		{"llama3.2", true},
		{"llama3.2:latest", true},
		{"phi3:mini", true},
		{"phi3", false},
		{"mistral", false},
	}
	for _, tt := range tests {
		if got := hasModel(installed, tt.model); got != tt.want {
			t.Errorf("hasModel(%q) = %v, want %v", tt.model, got, tt.want)
		}
	}
}
