package registry

import (
	"context"
	"log/slog"

	"mercator-hq/scribe/pkg/providers"
	"mercator-hq/scribe/pkg/providers/anthropic"
	"mercator-hq/scribe/pkg/providers/gemini"
	"mercator-hq/scribe/pkg/providers/ollama"
	"mercator-hq/scribe/pkg/providers/openai"
)

// DiscoveryRecorder observes live model discovery outcomes.
type DiscoveryRecorder interface {
	RecordModelDiscovery(provider string, success bool)
}

// Registry is the immutable catalog of supported providers.
//
// Registry is safe for concurrent use. Descriptors are returned by value, so
// callers cannot mutate the catalog.
type Registry struct {
	descriptors map[string]providers.ProviderDescriptor
	order       []string
	listers     map[string]providers.ModelLister
	recorder    DiscoveryRecorder
	logger      *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithModelLister installs the live model lister used by WithLiveModels for
// the provider id. Only self-hosted providers support live discovery.
func WithModelLister(id string, lister providers.ModelLister) Option {
	return func(r *Registry) {
		r.listers[id] = lister
	}
}

// WithDiscoveryRecorder installs a recorder for discovery outcomes.
func WithDiscoveryRecorder(rec DiscoveryRecorder) Option {
	return func(r *Registry) {
		r.recorder = rec
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// New creates a registry seeded with the built-in catalog.
func New(opts ...Option) *Registry {
	r := &Registry{
		descriptors: make(map[string]providers.ProviderDescriptor),
		listers:     make(map[string]providers.ModelLister),
		logger:      slog.Default().With("component", "registry"),
	}
	for _, d := range Catalog() {
		r.descriptors[d.ID] = d
		r.order = append(r.order, d.ID)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Catalog returns the built-in provider descriptors: one self-hosted,
// credential-free family and three hosted families that require a key.
func Catalog() []providers.ProviderDescriptor {
	return []providers.ProviderDescriptor{
		{
			ID:              "ollama",
			Name:            ollama.DisplayName,
			Family:          providers.FamilyOllama,
			Description:     "Self-hosted models served by a local Ollama instance",
			RequiresAPIKey:  false,
			Models:          []string{ollama.DefaultModel, "llama3.1", "mistral", "qwen2.5", "phi3", "gemma2"},
			DefaultModel:    ollama.DefaultModel,
			DefaultEndpoint: ollama.DefaultBaseURL,
		},
		{
			ID:              "openai",
			Name:            openai.DisplayName,
			Family:          providers.FamilyOpenAI,
			Description:     "OpenAI GPT models via the chat completions API",
			RequiresAPIKey:  true,
			Models:          []string{openai.DefaultModel, "gpt-4o", "gpt-4-turbo", "gpt-3.5-turbo"},
			DefaultModel:    openai.DefaultModel,
			DefaultEndpoint: openai.DefaultBaseURL,
		},
		{
			ID:              "anthropic",
			Name:            anthropic.DisplayName,
			Family:          providers.FamilyAnthropic,
			Description:     "Anthropic Claude models via the Messages API",
			RequiresAPIKey:  true,
			Models:          []string{anthropic.DefaultModel, "claude-3-5-haiku-20241022", "claude-3-opus-20240229"},
			DefaultModel:    anthropic.DefaultModel,
			DefaultEndpoint: anthropic.DefaultBaseURL,
		},
		{
			ID:              "gemini",
			Name:            gemini.DisplayName,
			Family:          providers.FamilyGemini,
			Description:     "Google Gemini models via the generateContent API",
			RequiresAPIKey:  true,
			Models:          []string{gemini.DefaultModel, "gemini-1.5-pro", "gemini-2.0-flash"},
			DefaultModel:    gemini.DefaultModel,
			DefaultEndpoint: gemini.DefaultBaseURL,
		},
	}
}

// List returns every descriptor in catalog order.
func (r *Registry) List() []providers.ProviderDescriptor {
	out := make([]providers.ProviderDescriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.descriptors[id].WithModels(r.descriptors[id].Models))
	}
	return out
}

// Get returns the descriptor for id.
func (r *Registry) Get(id string) (providers.ProviderDescriptor, bool) {
	d, ok := r.descriptors[id]
	if !ok {
		return providers.ProviderDescriptor{}, false
	}
	return d.WithModels(d.Models), true
}

// WithLiveModels returns the descriptor for id with its model list replaced
// by the models installed on the server at endpoint. An empty endpoint
// leaves the choice to the lister, which uses its configured base URL. Discovery is best-effort: any failure, or a provider without
// live discovery, yields the static descriptor unchanged. The second result
// is false only when id is unknown.
func (r *Registry) WithLiveModels(ctx context.Context, id, endpoint string) (providers.ProviderDescriptor, bool) {
	d, ok := r.Get(id)
	if !ok {
		return d, false
	}

	lister, ok := r.listers[id]
	if !ok || d.Family != providers.FamilyOllama {
		return d, true
	}

	models, err := lister.ListModels(ctx, endpoint)
	if err != nil {
		r.logger.Debug("live model discovery failed, using static catalog",
			"provider", id,
			"endpoint", endpoint,
			"error", err,
		)
		r.record(id, false)
		return d, true
	}
	r.record(id, true)

	if len(models) == 0 {
		return d, true
	}

	r.logger.Debug("live models discovered",
		"provider", id,
		"endpoint", endpoint,
		"count", len(models),
	)
	return d.WithModels(models), true
}

func (r *Registry) record(id string, success bool) {
	if r.recorder != nil {
		r.recorder.RecordModelDiscovery(id, success)
	}
}
