package anthropic

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"mercator-hq/scribe/pkg/processing"
	"mercator-hq/scribe/pkg/providers"
)

const (
	// DefaultBaseURL is the public Anthropic API host.
	DefaultBaseURL = "https://api.anthropic.com"

	// DefaultModel is used when neither request nor configuration names one.
	DefaultModel = "claude-3-5-sonnet-20241022"

	// DefaultAnthropicVersion is the API version to use
	DefaultAnthropicVersion = "2023-06-01"

	// DisplayName is used in user-facing messages.
	DisplayName = "Anthropic"
)

// Provider is the Anthropic provider adapter for the Messages API.
type Provider struct {
	*providers.HTTPProvider
}

// NewProvider creates a new Anthropic adapter instance.
func NewProvider(config providers.ProviderConfig) *Provider {
	if config.Name == "" {
		config.Name = string(providers.FamilyAnthropic)
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

	slog.Debug("Anthropic provider initialized",
		"provider", config.Name,
		"base_url", config.BaseURL,
	)

	return &Provider{HTTPProvider: providers.NewHTTPProvider(config)}
}

// Family returns providers.FamilyAnthropic.
func (p *Provider) Family() providers.Family {
	return providers.FamilyAnthropic
}

// Generate sends prompt to /v1/messages. A missing API key fails before any
// network call.
func (p *Provider) Generate(ctx context.Context, prompt string, req *providers.GenerationRequest) *providers.GenerationResponse {
	start := time.Now()
	eff := p.Effective(req)
	name := p.Config().Name

	text, tokens, err := p.send(ctx, prompt, eff)
	if err != nil {
		slog.Warn("anthropic generation failed",
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

	slog.Debug("anthropic generation succeeded",
		"provider", name,
		"model", eff.Model,
		"tokens", tokens,
		"latency", resp.Latency,
	)
	return resp
}

func (p *Provider) send(ctx context.Context, prompt string, eff providers.Effective) (string, int, error) {
	if eff.APIKey == "" {
		return "", 0, providers.MissingAPIKey(DisplayName)
	}

	var out MessagesResponse
	err := p.DoJSONRequest(ctx, providers.Call{
		Method: http.MethodPost,
		URL:    eff.BaseURL + "/v1/messages",
		Headers: map[string]string{
			"x-api-key":         eff.APIKey,
			"anthropic-version": DefaultAnthropicVersion,
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
