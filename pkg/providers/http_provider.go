package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/scribe/pkg/telemetry/tracing"
)

var tracer = otel.Tracer("mercator-hq/scribe/pkg/providers")

// HTTPProvider is the base implementation for HTTP-based provider adapters.
// It provides connection pooling, retry logic, timeout handling, and passive
// health tracking.
//
// Concrete adapters embed this struct and implement the Adapter interface.
type HTTPProvider struct {
	// config contains the provider configuration
	config ProviderConfig

	// client is the HTTP client with connection pooling
	client *http.Client

	// health tracks the provider's health status
	health ProviderHealth

	// healthMu protects concurrent access to health status
	healthMu sync.RWMutex
}

// NewHTTPProvider creates a new base HTTP provider with connection pooling.
// Timeouts are applied per call through the request context so that probes
// and generation calls can use different limits on the same client.
func NewHTTPProvider(config ProviderConfig) *HTTPProvider {
	if config.DisplayName == "" {
		config.DisplayName = config.Name
	}
	if config.RetryBackoff <= 0 {
		config.RetryBackoff = 500 * time.Millisecond
	}
	if config.DefaultMaxTokens <= 0 {
		config.DefaultMaxTokens = 2000
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        config.MaxIdleConns,
		MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
		IdleConnTimeout:     config.IdleConnTimeout,
		ForceAttemptHTTP2:   true,
	}

	return &HTTPProvider{
		config: config,
		client: &http.Client{Transport: transport},
		health: ProviderHealth{
			IsHealthy: true, // Start optimistic
			LastCheck: time.Now(),
		},
	}
}

// Config returns the provider's configuration.
func (p *HTTPProvider) Config() ProviderConfig {
	return p.config
}

// Health returns a snapshot of the passive health information.
func (p *HTTPProvider) Health() ProviderHealth {
	p.healthMu.RLock()
	defer p.healthMu.RUnlock()
	return p.health
}

// ResolveBaseURL returns override when set, otherwise the configured base
// URL. Trailing slashes are removed.
func (p *HTTPProvider) ResolveBaseURL(override string) string {
	base := override
	if base == "" {
		base = p.config.BaseURL
	}
	return strings.TrimRight(base, "/")
}

// Effective holds the per-call values resolved from a request and the
// provider configuration.
type Effective struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
}

// Effective resolves endpoint, credential, model and sampling parameters.
// Request values win over configured defaults. A nil request yields the
// configured defaults.
func (p *HTTPProvider) Effective(req *GenerationRequest) Effective {
	if req == nil {
		req = &GenerationRequest{}
	}
	eff := Effective{
		BaseURL:     p.ResolveBaseURL(req.Endpoint),
		APIKey:      req.APIKey,
		Model:       req.Model,
		Temperature: req.TemperatureOr(p.config.DefaultTemperature),
		MaxTokens:   req.MaxTokensOr(p.config.DefaultMaxTokens),
	}
	if eff.APIKey == "" {
		eff.APIKey = p.config.APIKey
	}
	if eff.Model == "" {
		eff.Model = p.config.DefaultModel
	}
	return eff
}

// observe records the outcome of one backend call.
func (p *HTTPProvider) observe(err error) {
	p.healthMu.Lock()
	defer p.healthMu.Unlock()

	now := time.Now()
	p.health.LastCheck = now
	p.health.TotalRequests++

	if err == nil {
		p.health.IsHealthy = true
		p.health.ConsecutiveFailures = 0
		p.health.LastError = ""
		p.health.LastSuccessfulRequest = now
		return
	}

	p.health.FailedRequests++
	p.health.ConsecutiveFailures++
	p.health.LastError = err.Error()

	if p.health.ConsecutiveFailures >= 3 && p.health.IsHealthy {
		p.health.IsHealthy = false
		slog.Warn("provider marked unhealthy",
			"provider", p.config.Name,
			"consecutive_failures", p.health.ConsecutiveFailures,
			"error", err,
		)
	}
}

// Call describes one HTTP exchange with a backend.
type Call struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    any

	// Timeout bounds the whole exchange including retries. Zero uses the
	// configured generation timeout.
	Timeout time.Duration

	// NoRetry disables retries regardless of configuration.
	NoRetry bool
}

// DoRequest performs an HTTP request with retry logic and timeout handling.
// Transient failures (network errors and 5xx) are retried with
// exponential backoff. Other non-2xx responses fail immediately with an
// UpstreamError carrying the provider-supplied message.
//
// The returned body is fully read; callers need not close anything.
func (p *HTTPProvider) DoRequest(ctx context.Context, call Call) (_ []byte, err error) {
	ctx, span := tracer.Start(ctx, "provider.http",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(tracing.AttrProvider, p.config.Name),
			attribute.String("http.method", call.Method),
			attribute.String("http.url", redactURL(call.URL)),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	timeout := call.Timeout
	if timeout <= 0 {
		timeout = p.config.Timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var payload []byte
	if call.Body != nil {
		payload, err = json.Marshal(call.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	retries := p.config.MaxRetries
	if call.NoRetry || retries < 0 {
		retries = 0
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			backoff := p.config.RetryBackoff << (attempt - 1)
			slog.Debug("retrying request",
				"provider", p.config.Name,
				"attempt", attempt,
				"max_retries", retries,
				"backoff", backoff,
			)

			select {
			case <-ctx.Done():
				return nil, p.finish(p.contextError(ctx, timeout, lastErr))
			case <-time.After(backoff):
			}
		}

		body, retryable, err := p.attempt(ctx, call, payload, timeout)
		if err == nil {
			p.observe(nil)
			return body, nil
		}
		lastErr = err
		if !retryable || attempt == retries {
			break
		}

		slog.Warn("request failed, will retry",
			"provider", p.config.Name,
			"attempt", attempt+1,
			"error", err,
		)
	}

	return nil, p.finish(lastErr)
}

func (p *HTTPProvider) finish(err error) error {
	p.observe(err)
	return err
}

// attempt performs a single exchange and classifies the outcome.
func (p *HTTPProvider) attempt(ctx context.Context, call Call, payload []byte, timeout time.Duration) ([]byte, bool, error) {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, call.Method, call.URL, bodyReader)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range call.Headers {
		req.Header.Set(key, value)
	}
	if payload != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	slog.Debug("sending request to provider",
		"provider", p.config.Name,
		"method", call.Method,
		"url", redactURL(call.URL),
	)

	resp, err := p.client.Do(req)
	if err != nil {
		// Transport errors echo the URL, which may carry a credential.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			uerr.URL = redactURL(uerr.URL)
		}
		if ctx.Err() != nil {
			return nil, false, p.contextError(ctx, timeout, err)
		}
		return nil, true, &NetworkError{Provider: p.config.DisplayName, Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, p.contextError(ctx, timeout, err)
		}
		return nil, true, &NetworkError{Provider: p.config.DisplayName, Cause: err}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, false, nil
	}

	upstream := &UpstreamError{
		Provider:   p.config.DisplayName,
		StatusCode: resp.StatusCode,
		Message:    ExtractErrorMessage(body),
	}
	return nil, upstream.Retryable(), upstream
}

// contextError maps a finished context to the matching typed error.
func (p *HTTPProvider) contextError(ctx context.Context, timeout time.Duration, cause error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &TimeoutError{Provider: p.config.DisplayName, Timeout: timeout}
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return cause
}

// DoJSONRequest performs a JSON request and decodes the response into out.
func (p *HTTPProvider) DoJSONRequest(ctx context.Context, call Call, out any) error {
	body, err := p.DoRequest(ctx, call)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &ParseError{
			Provider:    p.config.DisplayName,
			RawResponse: string(body),
			Cause:       fmt.Errorf("failed to unmarshal response: %w", err),
		}
	}
	return nil
}

// Close releases idle connections.
func (p *HTTPProvider) Close() error {
	p.client.CloseIdleConnections()
	slog.Debug("provider closed", "provider", p.config.Name)
	return nil
}

// ExtractErrorMessage pulls the provider error message out of an error body.
// It understands {"error":{"message":...}} and {"error":"..."} and falls back
// to the raw body text.
func ExtractErrorMessage(body []byte) string {
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Error) > 0 {
		var nested struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(envelope.Error, &nested); err == nil && nested.Message != "" {
			return nested.Message
		}
		var flat string
		if err := json.Unmarshal(envelope.Error, &flat); err == nil && flat != "" {
			return flat
		}
	}
	return strings.TrimSpace(string(body))
}

// redactURL strips the query string, which may carry a credential.
func redactURL(raw string) string {
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		return raw[:i] + "?[redacted]"
	}
	return raw
}
