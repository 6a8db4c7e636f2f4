package registry

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"mercator-hq/scribe/internal/testutil"
	"mercator-hq/scribe/pkg/providers"
	"mercator-hq/scribe/pkg/providers/ollama"
)

type fakeLister struct {
	models   []string
	err      error
	endpoint string
}

func (f *fakeLister) ListModels(ctx context.Context, endpoint string) ([]string, error) {
	f.endpoint = endpoint
	return f.models, f.err
}

type countingRecorder struct {
	ok, failed int
}

func (c *countingRecorder) RecordModelDiscovery(provider string, success bool) {
	if success {
		c.ok++
	} else {
		c.failed++
	}
}

func TestRegistry_List(t *testing.T) {
	reg := New()
	list := reg.List()

	if len(list) != 4 {
		t.Fatalf("expected 4 providers, got %d", len(list))
	}

	want := []string{"ollama", "openai", "anthropic", "gemini"}
	for i, d := range list {
		if d.ID != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], d.ID)
		}
		if len(d.Models) == 0 || d.DefaultModel == "" {
			t.Errorf("%s: expected models and default model", d.ID)
		}
		if d.RequiresAPIKey != (d.Family != providers.FamilyOllama) {
			t.Errorf("%s: unexpected RequiresAPIKey=%v", d.ID, d.RequiresAPIKey)
		}
	}
}

func TestRegistry_GetReturnsCopy(t *testing.T) {
	reg := New()

	d, ok := reg.Get("openai")
	if !ok {
		t.Fatal("expected openai descriptor")
	}
	d.Models[0] = "mutated"

	again, _ := reg.Get("openai")
	if again.Models[0] == "mutated" {
		t.Error("catalog was mutated through a returned descriptor")
	}

	if _, ok := reg.Get("unknown"); ok {
		t.Error("expected unknown provider to be absent")
	}
}

func TestRegistry_WithLiveModels(t *testing.T) {
	lister := &fakeLister{models: []string{"mistral:latest", "llama3.2:latest"}}
	rec := &countingRecorder{}
	reg := New(WithModelLister("ollama", lister), WithDiscoveryRecorder(rec))

	d, ok := reg.WithLiveModels(context.Background(), "ollama", "")
	if !ok {
		t.Fatal("expected ollama descriptor")
	}
	if !reflect.DeepEqual(d.Models, lister.models) {
		t.Errorf("expected live models %v, got %v", lister.models, d.Models)
	}
	if d.DefaultModel != "mistral:latest" {
		t.Errorf("expected first live model as default, got %s", d.DefaultModel)
	}
	if lister.endpoint != "" {
		t.Errorf("expected empty endpoint to reach the lister, got %s", lister.endpoint)
	}
	if rec.ok != 1 {
		t.Errorf("expected one successful discovery, got %d", rec.ok)
	}

	static, _ := reg.Get("ollama")
	if static.DefaultModel != ollama.DefaultModel {
		t.Error("live discovery must not change the static catalog")
	}
}

func TestRegistry_WithLiveModels_FailureKeepsStatic(t *testing.T) {
	rec := &countingRecorder{}
	reg := New(
		WithModelLister("ollama", &fakeLister{err: errors.New("connection refused")}),
		WithDiscoveryRecorder(rec),
	)

	d, ok := reg.WithLiveModels(context.Background(), "ollama", "http://nowhere:11434")
	if !ok {
		t.Fatal("expected descriptor")
	}
	static, _ := reg.Get("ollama")
	if !reflect.DeepEqual(d, static) {
		t.Errorf("expected static descriptor, got %+v", d)
	}
	if rec.failed != 1 {
		t.Errorf("expected one failed discovery, got %d", rec.failed)
	}
}

func TestRegistry_WithLiveModels_HostedUnchanged(t *testing.T) {
	lister := &fakeLister{models: []string{"x"}}
	reg := New(WithModelLister("openai", lister))

	d, _ := reg.WithLiveModels(context.Background(), "openai", "")
	if d.HasModel("x") {
		t.Error("hosted providers must not use live discovery")
	}
	if lister.endpoint != "" {
		t.Error("lister should not have been called")
	}
}

func TestRegistry_WithLiveModels_AgainstServer(t *testing.T) {
	server := testutil.NewMockServer()
	defer server.Close()
	server.SetResponse("/api/tags", testutil.OllamaTags("qwen2.5:7b"))

	adapter := ollama.NewProvider(providers.ProviderConfig{BaseURL: server.URL()})
	defer adapter.Close()

	reg := New(WithModelLister("ollama", adapter))
	d, _ := reg.WithLiveModels(context.Background(), "ollama", server.URL())

	if !reflect.DeepEqual(d.Models, []string{"qwen2.5:7b"}) {
		t.Errorf("unexpected models %v", d.Models)
	}
}

func TestRegistry_WithLiveModels_UsesConfiguredBaseURL(t *testing.T) {
	server := testutil.NewMockServer()
	defer server.Close()
	server.SetResponse("/api/tags", testutil.OllamaTags("mistral:latest"))

	adapter := ollama.NewProvider(providers.ProviderConfig{BaseURL: server.URL()})
	defer adapter.Close()

	rec := &countingRecorder{}
	reg := New(WithModelLister("ollama", adapter), WithDiscoveryRecorder(rec))
	d, _ := reg.WithLiveModels(context.Background(), "ollama", "")

	if server.RequestCount() != 1 {
		t.Fatalf("expected the configured server to be queried once, got %d requests", server.RequestCount())
	}
	if !reflect.DeepEqual(d.Models, []string{"mistral:latest"}) || d.DefaultModel != "mistral:latest" {
		t.Errorf("unexpected descriptor models=%v default=%s", d.Models, d.DefaultModel)
	}
	if rec.ok != 1 || rec.failed != 0 {
		t.Errorf("discovery recorded ok=%d failed=%d", rec.ok, rec.failed)
	}
}
