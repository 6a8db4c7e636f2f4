package settings

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"mercator-hq/scribe/pkg/providers/ollama"
)

type failingBackend struct{}

func (failingBackend) Upsert(context.Context, string, Configuration) (Configuration, error) {
	return Configuration{}, errors.New("connection refused")
}

func (failingBackend) ListActive(context.Context, string) ([]Configuration, error) {
	return nil, errors.New("connection refused")
}

func (failingBackend) Delete(context.Context, string, string) (int64, error) {
	return 0, errors.New("connection refused")
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]Configuration
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]Configuration)}
}

func (m *memoryCache) Load(_ context.Context, scope string) ([]Configuration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[scope], nil
}

func (m *memoryCache) Save(_ context.Context, scope string, configs []Configuration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[scope] = configs
	return nil
}

type tierCounter struct {
	mu    sync.Mutex
	tiers []string
}

func (c *tierCounter) RecordConfigFallback(tier string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tiers = append(c.tiers, tier)
}

func TestStore_SaveUpsertsByProvider(t *testing.T) {
	store := NewStore(NewMemoryBackend())
	ctx := WithUser(context.Background(), "user-1")

	first, err := store.Save(ctx, Configuration{Provider: "openai", Model: "gpt-4o-mini", APIKey: "sk-1", Temperature: 0.5, Active: true})
	if err != nil {
		t.Fatalf("first save: %v", err)
	}
	second, err := store.Save(ctx, Configuration{Provider: "openai", Model: "gpt-4o", APIKey: "sk-2", Temperature: 0.5, Active: true})
	if err != nil {
		t.Fatalf("second save: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("second save created a new row: %s != %s", first.ID, second.ID)
	}

	configs, tier := store.List(ctx)
	if tier != TierRemote {
		t.Fatalf("tier = %s, want remote", tier)
	}
	if len(configs) != 1 {
		t.Fatalf("got %d configurations, want 1", len(configs))
	}
	if configs[0].Model != "gpt-4o" {
		t.Errorf("model = %q, want gpt-4o", configs[0].Model)
	}
}

func TestStore_SaveDefaultsAndValidation(t *testing.T) {
	store := NewStore(NewMemoryBackend())
	ctx := WithUser(context.Background(), "user-1")

	saved, err := store.Save(ctx, Configuration{Provider: "ollama", Model: "llama3.2", Temperature: 0.7, Active: true})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.MaxTokens != 2000 {
		t.Errorf("max tokens = %d, want 2000", saved.MaxTokens)
	}

	tests := []struct {
		name   string
		config Configuration
	}{
		{"missing provider", Configuration{Model: "x"}},
		{"temperature too high", Configuration{Provider: "openai", Temperature: 1.5}},
		{"negative temperature", Configuration{Provider: "openai", Temperature: -0.1}},
		{"negative max tokens", Configuration{Provider: "openai", MaxTokens: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Save(ctx, tt.config)
			if !errors.Is(err, ErrInvalidConfiguration) {
				t.Errorf("err = %v, want ErrInvalidConfiguration", err)
			}
		})
	}
}

func TestStore_WritesRequireUser(t *testing.T) {
	store := NewStore(NewMemoryBackend())
	ctx := context.Background()

	if _, err := store.Save(ctx, Configuration{Provider: "openai"}); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("Save err = %v, want ErrUnauthenticated", err)
	}
	if err := store.Delete(ctx, "abc"); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("Delete err = %v, want ErrUnauthenticated", err)
	}
}

func TestStore_ListFallbackTiers(t *testing.T) {
	t.Run("no user and empty cache synthesizes default", func(t *testing.T) {
		recorder := &tierCounter{}
		store := NewStore(NewMemoryBackend(), WithCache(newMemoryCache()), WithRecorder(recorder))

		configs, tier := store.List(context.Background())
		if tier != TierDefault {
			t.Fatalf("tier = %s, want default", tier)
		}
		if len(configs) != 1 {
			t.Fatalf("got %d configurations, want 1", len(configs))
		}
		got := configs[0]
		if got.Provider != "ollama" || got.Endpoint != ollama.DefaultBaseURL {
			t.Errorf("default = %+v", got)
		}
		if !got.Synthesized || got.ID != DefaultConfigurationID {
			t.Errorf("default not marked synthesized: %+v", got)
		}
		if len(recorder.tiers) != 1 || recorder.tiers[0] != "default" {
			t.Errorf("recorded tiers = %v", recorder.tiers)
		}
	})

	t.Run("no user reads anonymous cache", func(t *testing.T) {
		cache := newMemoryCache()
		cache.entries[""] = []Configuration{{ID: "c1", Provider: "gemini", Model: "gemini-1.5-flash", Active: true}}
		store := NewStore(NewMemoryBackend(), WithCache(cache))

		configs, tier := store.List(context.Background())
		if tier != TierCache || len(configs) != 1 || configs[0].Provider != "gemini" {
			t.Errorf("got %v from %s", configs, tier)
		}
	})

	t.Run("no user reads list cached by last authenticated read", func(t *testing.T) {
		cache := newMemoryCache()
		store := NewStore(NewMemoryBackend(), WithCache(cache))
		alice := WithUser(context.Background(), "alice")

		if _, err := store.Save(alice, Configuration{Provider: "openai", Model: "gpt-4o", APIKey: "sk-alice", Active: true}); err != nil {
			t.Fatalf("save: %v", err)
		}
		if _, tier := store.List(alice); tier != TierRemote {
			t.Fatalf("authenticated tier = %s, want remote", tier)
		}

		configs, tier := store.List(context.Background())
		if tier != TierCache {
			t.Fatalf("anonymous tier = %s, want cache", tier)
		}
		if len(configs) != 1 || configs[0].Provider != "openai" || configs[0].Model != "gpt-4o" {
			t.Errorf("anonymous list = %+v", configs)
		}
		if configs[0].APIKey != "" {
			t.Error("anonymous cache exposed a credential")
		}
	})

	t.Run("backend failure reads user cache", func(t *testing.T) {
		cache := newMemoryCache()
		cache.entries["user-1"] = []Configuration{{ID: "c1", Provider: "anthropic", Active: true}}
		store := NewStore(failingBackend{}, WithCache(cache))

		configs, tier := store.List(WithUser(context.Background(), "user-1"))
		if tier != TierCache || len(configs) != 1 || configs[0].Provider != "anthropic" {
			t.Errorf("got %v from %s", configs, tier)
		}
	})

	t.Run("backend failure without cache synthesizes default", func(t *testing.T) {
		store := NewStore(failingBackend{})

		configs, tier := store.List(WithUser(context.Background(), "user-1"))
		if tier != TierDefault || len(configs) != 1 {
			t.Errorf("got %v from %s", configs, tier)
		}
	})

	t.Run("user without rows synthesizes default", func(t *testing.T) {
		store := NewStore(NewMemoryBackend())

		configs, tier := store.List(WithUser(context.Background(), "user-1"))
		if tier != TierDefault || len(configs) != 1 || !configs[0].Synthesized {
			t.Errorf("got %v from %s", configs, tier)
		}
	})
}

func TestStore_CacheNeverHoldsKeys(t *testing.T) {
	cache := newMemoryCache()
	store := NewStore(NewMemoryBackend(), WithCache(cache))
	ctx := WithUser(context.Background(), "user-1")

	if _, err := store.Save(ctx, Configuration{Provider: "openai", Model: "gpt-4o", APIKey: "sk-secret", Active: true}); err != nil {
		t.Fatalf("save: %v", err)
	}

	cached := cache.entries["user-1"]
	if len(cached) != 1 {
		t.Fatalf("cache holds %d entries, want 1", len(cached))
	}
	if cached[0].APIKey != "" {
		t.Errorf("cached configuration kept its API key")
	}

	// Remote reads still carry the key.
	configs, _ := store.List(ctx)
	if configs[0].APIKey != "sk-secret" {
		t.Errorf("remote read lost the API key")
	}
}

func TestStore_DeleteIsScopedToOwner(t *testing.T) {
	store := NewStore(NewMemoryBackend())
	alice := WithUser(context.Background(), "alice")
	bob := WithUser(context.Background(), "bob")

	saved, err := store.Save(alice, Configuration{Provider: "openai", Model: "gpt-4o", Active: true})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := store.Delete(bob, saved.ID); err != nil {
		t.Fatalf("foreign delete returned error: %v", err)
	}
	configs, tier := store.List(alice)
	if tier != TierRemote || len(configs) != 1 {
		t.Fatalf("foreign delete removed the row: %v from %s", configs, tier)
	}

	if err := store.Delete(alice, saved.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, tier := store.List(alice); tier != TierDefault {
		t.Errorf("row still listed after delete, tier %s", tier)
	}
}

func TestStore_ActiveByProvider(t *testing.T) {
	store := NewStore(NewMemoryBackend())
	ctx := WithUser(context.Background(), "user-1")

	for _, p := range []string{"openai", "anthropic"} {
		if _, err := store.Save(ctx, Configuration{Provider: p, Model: p + "-model", Active: true}); err != nil {
			t.Fatalf("save %s: %v", p, err)
		}
	}

	c, ok := store.Active(ctx, "anthropic")
	if !ok || !strings.HasPrefix(c.Model, "anthropic") {
		t.Errorf("Active(anthropic) = %+v, %v", c, ok)
	}
	if _, ok := store.Active(ctx, "gemini"); ok {
		t.Error("Active(gemini) found a configuration")
	}
}

func TestStore_InactiveHidden(t *testing.T) {
	store := NewStore(NewMemoryBackend())
	ctx := WithUser(context.Background(), "user-1")

	if _, err := store.Save(ctx, Configuration{Provider: "openai", Active: false}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := store.Save(ctx, Configuration{Provider: "gemini", Active: true}); err != nil {
		t.Fatalf("save: %v", err)
	}

	configs, _ := store.List(ctx)
	if len(configs) != 1 || configs[0].Provider != "gemini" {
		t.Errorf("List = %v, want only gemini", configs)
	}
}
