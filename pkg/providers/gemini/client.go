package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"mercator-hq/scribe/pkg/processing"
	"mercator-hq/scribe/pkg/providers"
)

const (
	// DefaultBaseURL is the public Generative Language API host.
	DefaultBaseURL = "https://generativelanguage.googleapis.com"

	// DefaultModel is used when neither request nor configuration names one.
	DefaultModel = "gemini-1.5-flash"

	// DisplayName is used in user-facing messages.
	DisplayName = "Gemini"
)

// Provider is the Gemini provider adapter. The credential travels as the
// key query parameter.
type Provider struct {
	*providers.HTTPProvider
}

// NewProvider creates a new Gemini adapter instance.
func NewProvider(config providers.ProviderConfig) *Provider {
	if config.Name == "" {
		config.Name = string(providers.FamilyGemini)
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

	slog.Debug("Gemini provider initialized",
		"provider", config.Name,
		"base_url", config.BaseURL,
	)

	return &Provider{HTTPProvider: providers.NewHTTPProvider(config)}
}

// Family returns providers.FamilyGemini.
func (p *Provider) Family() providers.Family {
	return providers.FamilyGemini
}

// Generate sends prompt to v1beta/models/{model}:generateContent. A missing
// API key fails before any network call.
func (p *Provider) Generate(ctx context.Context, prompt string, req *providers.GenerationRequest) *providers.GenerationResponse {
	start := time.Now()
	eff := p.Effective(req)
	name := p.Config().Name

	text, tokens, err := p.generateContent(ctx, prompt, eff)
	if err != nil {
		slog.Warn("gemini generation failed",
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

	slog.Debug("gemini generation succeeded",
		"provider", name,
		"model", eff.Model,
		"tokens", tokens,
		"latency", resp.Latency,
	)
	return resp
}

func (p *Provider) generateContent(ctx context.Context, prompt string, eff providers.Effective) (string, int, error) {
	if eff.APIKey == "" {
		return "", 0, providers.MissingAPIKey(DisplayName)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		eff.BaseURL, url.PathEscape(eff.Model), url.QueryEscape(eff.APIKey))

	var out GenerateContentResponse
	err := p.DoJSONRequest(ctx, providers.Call{
		Method: http.MethodPost,
		URL:    endpoint,
		Body:   transformRequest(prompt, eff.Temperature, eff.MaxTokens),
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
