package openai

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"mercator-hq/scribe/pkg/processing"
	"mercator-hq/scribe/pkg/providers"
)

const (
	// DefaultBaseURL is the public OpenAI API host.
	DefaultBaseURL = "https://api.openai.com"

	// DefaultModel is used when neither request nor configuration names one.
	DefaultModel = "gpt-4o-mini"

	// DisplayName is used in user-facing messages.
	DisplayName = "OpenAI"
)

// Provider is the OpenAI provider adapter for the chat completions API.
type Provider struct {
	*providers.HTTPProvider
}

// NewProvider creates a new OpenAI adapter instance.
func NewProvider(config providers.ProviderConfig) *Provider {
	if config.Name == "" {
		config.Name = string(providers.FamilyOpenAI)
	}
	if config.DisplayName == "" {
		config.DisplayName = DisplayName
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.DefaultModel == "" {
		config.DefaultModel = DefaultModel
	}
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	if config.MaxIdleConns == 0 {
		config.MaxIdleConns = 100
	}
	if config.MaxIdleConnsPerHost == 0 {
		config.MaxIdleConnsPerHost = 10
	}

	slog.Debug("OpenAI provider initialized",
		"provider", config.Name,
		"base_url", config.BaseURL,
	)

	return &Provider{HTTPProvider: providers.NewHTTPProvider(config)}
}

// Family returns providers.FamilyOpenAI.
func (p *Provider) Family() providers.Family {
	return providers.FamilyOpenAI
}

// Generate sends prompt to /v1/chat/completions. A missing API key fails
// before any network call.
func (p *Provider) Generate(ctx context.Context, prompt string, req *providers.GenerationRequest) *providers.GenerationResponse {
	start := time.Now()
	eff := p.Effective(req)
	name := p.Config().Name

	text, tokens, err := p.complete(ctx, prompt, eff)
	if err != nil {
		slog.Warn("openai generation failed",
			"provider", name,
			"model", eff.Model,
			"error_kind", providers.ErrorKind(err),
			"error", err,
		)
		resp := providers.Failure(name, eff.Model, err)
		resp.Latency = time.Since(start)
		return resp
	}

	resp := providers.Succeeded(name, eff.Model, processing.Normalize(text, req.Field()), tokens)
	resp.Latency = time.Since(start)

	slog.Debug("openai generation succeeded",
		"provider", name,
		"model", eff.Model,
		"tokens", tokens,
		"latency", resp.Latency,
	)
	return resp
}

func (p *Provider) complete(ctx context.Context, prompt string, eff providers.Effective) (string, int, error) {
	if eff.APIKey == "" {
		return "", 0, providers.MissingAPIKey(DisplayName)
	}

	var out ChatResponse
	err := p.DoJSONRequest(ctx, providers.Call{
		Method: http.MethodPost,
		URL:    eff.BaseURL + "/v1/chat/completions",
		Headers: map[string]string{
			"Authorization": "Bearer " + eff.APIKey,
		},
		Body: transformRequest(prompt, eff.Model, eff.Temperature, eff.MaxTokens),
	}, &out)
	if err != nil {
		return "", 0, err
	}

	text, tokens, err := transformResponse(&out)
	if err != nil {
		return "", 0, &providers.ParseError{Provider: DisplayName, Cause: err}
	}
	return text, tokens, nil
}
