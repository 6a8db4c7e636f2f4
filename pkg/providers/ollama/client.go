package ollama

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"mercator-hq/scribe/pkg/processing"
	"mercator-hq/scribe/pkg/providers"
)

const (
	// DefaultBaseURL is the conventional local Ollama endpoint.
	DefaultBaseURL = "http://localhost:11434"

	// DefaultModel is used when neither request nor configuration names one.
	DefaultModel = "llama3.2"

	// DisplayName is used in user-facing messages.
	DisplayName = "Ollama"

	// installHint is appended to reachability failures.
	installHint = "Make sure Ollama is installed (https://ollama.com/download) and running with: ollama serve"
)

// Provider is the Ollama adapter. It probes the local server before each
// generation and optionally verifies the requested model is installed.
type Provider struct {
	*providers.HTTPProvider
}

// NewProvider creates a new Ollama adapter instance.
func NewProvider(config providers.ProviderConfig) *Provider {
	if config.Name == "" {
		config.Name = string(providers.FamilyOllama)
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
		config.Timeout = 120 * time.Second
	}
	if config.ProbeTimeout == 0 {
		config.ProbeTimeout = 3 * time.Second
	}
	if config.MaxIdleConns == 0 {
		config.MaxIdleConns = 10
	}
	if config.MaxIdleConnsPerHost == 0 {
		config.MaxIdleConnsPerHost = 5
	}

	slog.Debug("Ollama provider initialized",
		"provider", config.Name,
		"base_url", config.BaseURL,
		"verify_model", config.VerifyModel,
	)

	return &Provider{HTTPProvider: providers.NewHTTPProvider(config)}
}

// Family returns providers.FamilyOllama.
func (p *Provider) Family() providers.Family {
	return providers.FamilyOllama
}

// ListModels returns the models installed on the server at endpoint (the
// configured base URL when empty). It uses the short probe timeout and never
// retries.
func (p *Provider) ListModels(ctx context.Context, endpoint string) ([]string, error) {
	base := p.ResolveBaseURL(endpoint)

	var tags TagsResponse
	err := p.DoJSONRequest(ctx, providers.Call{
		Method:  http.MethodGet,
		URL:     base + "/api/tags",
		Timeout: p.Config().ProbeTimeout,
		NoRetry: true,
	}, &tags)
	if err != nil {
		return nil, err
	}
	return modelNames(&tags), nil
}

// Generate sends prompt to /api/generate.
func (p *Provider) Generate(ctx context.Context, prompt string, req *providers.GenerationRequest) *providers.GenerationResponse {
	start := time.Now()
	eff := p.Effective(req)
	name := p.Config().Name

	text, tokens, err := p.generate(ctx, prompt, eff)
	if err != nil {
		slog.Warn("ollama generation failed",
			"provider", name,
			"model", eff.Model,
			"endpoint", eff.BaseURL,
			"error_kind", providers.ErrorKind(err),
			"error", err,
		)
		resp := providers.Failure(name, eff.Model, err)
		resp.Latency = time.Since(start)
		return resp
	}

	resp := providers.Succeeded(name, eff.Model, processing.Normalize(text, req.Field()), tokens)
	resp.Latency = time.Since(start)

	slog.Debug("ollama generation succeeded",
		"provider", name,
		"model", eff.Model,
		"tokens", tokens,
		"latency", resp.Latency,
	)
	return resp
}

func (p *Provider) generate(ctx context.Context, prompt string, eff providers.Effective) (string, int, error) {
	installed, err := p.ListModels(ctx, eff.BaseURL)
	if err != nil {
		return "", 0, &providers.ReachabilityError{
			Provider: DisplayName,
			Endpoint: eff.BaseURL,
			Hint:     installHint,
			Cause:    err,
		}
	}

	if p.Config().VerifyModel && !hasModel(installed, eff.Model) {
		if installed == nil {
			installed = []string{}
		}
		return "", 0, &providers.ModelNotFoundError{
			Provider:  DisplayName,
			Model:     eff.Model,
			Available: installed,
			Hint:      pullHint(eff.Model),
		}
	}

	var out GenerateResponse
	err = p.DoJSONRequest(ctx, providers.Call{
		Method: http.MethodPost,
		URL:    eff.BaseURL + "/api/generate",
		Body:   transformRequest(prompt, eff.Model, eff.Temperature, eff.MaxTokens),
	}, &out)
	if err != nil {
		var upstream *providers.UpstreamError
		if errors.As(err, &upstream) && upstream.StatusCode == http.StatusNotFound {
			return "", 0, &providers.ModelNotFoundError{
				Provider: DisplayName,
				Model:    eff.Model,
				Hint:     pullHint(eff.Model),
			}
		}
		return "", 0, err
	}

	return out.Response, out.PromptEvalCount + out.EvalCount, nil
}

func pullHint(model string) string {
	return fmt.Sprintf("Run: ollama pull %s", model)
}
