package providerfactory

import (
	"fmt"
	"log/slog"

	"mercator-hq/scribe/pkg/providers"
	"mercator-hq/scribe/pkg/providers/anthropic"
	"mercator-hq/scribe/pkg/providers/gemini"
	"mercator-hq/scribe/pkg/providers/ollama"
	"mercator-hq/scribe/pkg/providers/openai"
)

// NewAdapter creates an adapter for the configured protocol family.
//
// Supported families:
//   - "ollama": self-hosted Ollama servers
//   - "openai": OpenAI chat completions
//   - "anthropic": Anthropic Messages API
//   - "gemini": Google Gemini generateContent
//
// The family is taken from config.Family. If not specified, it is inferred
// from the provider name.
//
// Example:
//
//	adapter, err := NewAdapter(providers.ProviderConfig{
//	    Name:    "openai",
//	    Timeout: 60 * time.Second,
//	})
//	if err != nil {
//	    return err
//	}
//	defer adapter.Close()
func NewAdapter(config providers.ProviderConfig) (providers.Adapter, error) {
	family := config.Family
	if family == "" {
		family = InferFamily(config.Name)
		config.Family = family
	}

	slog.Debug("creating provider adapter",
		"name", config.Name,
		"family", family,
		"base_url", config.BaseURL,
	)

	switch family {
	case providers.FamilyOllama:
		return ollama.NewProvider(config), nil
	case providers.FamilyOpenAI:
		return openai.NewProvider(config), nil
	case providers.FamilyAnthropic:
		return anthropic.NewProvider(config), nil
	case providers.FamilyGemini:
		return gemini.NewProvider(config), nil
	default:
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "family",
			Message:  fmt.Sprintf("unsupported provider family: %q (supported: ollama, openai, anthropic, gemini)", family),
		}
	}
}

// InferFamily infers the protocol family from a provider name.
func InferFamily(name string) providers.Family {
	switch name {
	case "ollama":
		return providers.FamilyOllama
	case "openai":
		return providers.FamilyOpenAI
	case "anthropic", "claude":
		return providers.FamilyAnthropic
	case "gemini", "google":
		return providers.FamilyGemini
	default:
		return ""
	}
}
