package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"mercator-hq/scribe/pkg/genlog"
	"mercator-hq/scribe/pkg/processing"
	"mercator-hq/scribe/pkg/prompts"
	"mercator-hq/scribe/pkg/providers"
	"mercator-hq/scribe/pkg/settings"
	"mercator-hq/scribe/pkg/telemetry/logging"
	"mercator-hq/scribe/pkg/telemetry/tracing"
)

var tracer = otel.Tracer("mercator-hq/scribe/pkg/generation")

// Dispatcher looks up the adapter for a provider id.
type Dispatcher interface {
	Adapter(id string) (providers.Adapter, bool)
}

// PromptBuilder produces the prompt for a request.
type PromptBuilder interface {
	Build(ctx context.Context, req *providers.GenerationRequest) prompts.Prompt
}

// ConfigSource supplies the caller's saved provider configuration.
type ConfigSource interface {
	Active(ctx context.Context, provider string) (settings.Configuration, bool)
}

// LogRecorder receives one entry per generation attempt.
type LogRecorder interface {
	Record(entry *genlog.Entry) error
}

// Observer receives generation outcomes for metrics.
type Observer interface {
	RecordGeneration(provider, model, fieldType string, success bool, errorKind string, duration time.Duration, tokens int)
}

// Config holds orchestrator tunables.
type Config struct {
	// BatchConcurrency bounds parallel generations in GenerateBatch.
	// Default: 4
	BatchConcurrency int
}

// Service is the generation orchestrator: it builds the prompt, dispatches
// to the provider adapter and records the attempt. GenerateContent always
// returns a response and never panics.
type Service struct {
	dispatcher Dispatcher
	builder    PromptBuilder
	configs    ConfigSource
	recorder   LogRecorder
	observer   Observer
	config     Config
	logger     *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithConfigSource fills missing credentials, endpoints, models and
// sampling parameters from the caller's saved configuration.
func WithConfigSource(c ConfigSource) Option {
	return func(s *Service) { s.configs = c }
}

// WithRecorder sets the generation log recorder.
func WithRecorder(r LogRecorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithObserver sets the metrics observer.
func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

// WithConfig sets orchestrator tunables.
func WithConfig(c Config) Option {
	return func(s *Service) { s.config = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates an orchestrator over dispatcher and builder.
func NewService(dispatcher Dispatcher, builder PromptBuilder, opts ...Option) *Service {
	s := &Service{
		dispatcher: dispatcher,
		builder:    builder,
		logger:     slog.Default().With("component", "generation"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.config.BatchConcurrency <= 0 {
		s.config.BatchConcurrency = 4
	}
	return s
}

// GenerateContent runs BuildPrompt, Dispatch and Normalize for req. Every
// failure, including an unknown provider or a panic, is returned as a
// response with Success false and a non-empty Error.
func (s *Service) GenerateContent(ctx context.Context, req *providers.GenerationRequest) (resp *providers.GenerationResponse) {
	start := time.Now()
	if req == nil {
		return providers.Failure("", "", errors.New("generation request is required"))
	}

	r := *req
	var prompt prompts.Prompt

	ctx, span := tracer.Start(ctx, "generation.generate")
	span.SetAttributes(
		attribute.String(tracing.AttrProvider, r.Provider),
		attribute.String(tracing.AttrFieldType, string(r.FieldType)),
	)

	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("generation panicked",
				"provider", r.Provider,
				"panic", rec,
				"stack", string(debug.Stack()),
			)
			resp = providers.Failure(r.Provider, r.Model, fmt.Errorf("internal error: %v", rec))
			resp.ErrorKind = "internal"
		}
		resp.Latency = time.Since(start)
		s.finish(ctx, &r, prompt, resp)

		span.SetAttributes(tracing.GenerationAttributes(r.Provider, resp.Model, string(r.FieldType), resp.Success, resp.ErrorKind, resp.TokensUsed)...)
		if !resp.Success {
			span.SetStatus(codes.Error, resp.Error)
		}
		span.End()
	}()

	adapter, ok := s.dispatcher.Adapter(r.Provider)
	if !ok {
		return providers.Failure(r.Provider, r.Model, &providers.UnsupportedProviderError{Provider: r.Provider})
	}

	s.applyConfiguration(ctx, &r)

	prompt = s.builder.Build(ctx, &r)
	span.SetAttributes(attribute.String(tracing.AttrPromptSource, string(prompt.Source)))

	resp = adapter.Generate(ctx, prompt.Text, &r)
	if resp == nil {
		return providers.Failure(r.Provider, r.Model, errors.New("provider returned no response"))
	}
	if resp.Provider == "" {
		resp.Provider = r.Provider
	}
	if resp.Success {
		if !resp.Content.IsList() && r.FieldType.IsList() {
			resp.Content = processing.Normalize(resp.Content.Text, r.FieldType)
		}
		if resp.TokensUsed == 0 {
			resp.TokensUsed = processing.EstimateExchange(prompt.Text, resp.Content.String())
		}
	}
	return resp
}

// GenerateBatch generates every request concurrently with bounded
// parallelism. Results are in input order; one failure does not affect the
// others.
func (s *Service) GenerateBatch(ctx context.Context, reqs []*providers.GenerationRequest) []*providers.GenerationResponse {
	out := make([]*providers.GenerationResponse, len(reqs))

	var g errgroup.Group
	g.SetLimit(s.config.BatchConcurrency)
	for i, req := range reqs {
		g.Go(func() error {
			out[i] = s.GenerateContent(ctx, req)
			return nil
		})
	}
	_ = g.Wait()

	return out
}

// ConnectionResult is the verdict of TestConnection.
type ConnectionResult struct {
	OK       bool          `json:"ok"`
	Provider string        `json:"provider"`
	Model    string        `json:"model,omitempty"`
	Message  string        `json:"message"`
	Latency  time.Duration `json:"latency"`
}

// connectionPrompt is the minimal prompt used by TestConnection.
const connectionPrompt = "Reply with the single word OK."

// TestConnection sends a minimal low-token request through the regular
// generation path and reports whether the provider and model answered.
func (s *Service) TestConnection(ctx context.Context, req providers.GenerationRequest) ConnectionResult {
	maxTokens := 10
	req.Prompt = connectionPrompt
	req.MaxTokens = &maxTokens
	req.Attributes = nil
	req.TemplateID = ""

	resp := s.GenerateContent(ctx, &req)

	result := ConnectionResult{
		OK:       resp.Success,
		Provider: req.Provider,
		Model:    resp.Model,
		Latency:  resp.Latency,
	}
	if resp.Success {
		result.Message = fmt.Sprintf("Connected to %s", req.Provider)
		if resp.Model != "" {
			result.Message += " using model " + resp.Model
		}
	} else {
		result.Message = resp.Error
	}
	return result
}

// applyConfiguration fills fields the request leaves empty from the saved
// configuration for its provider. The synthesized default is skipped so the
// adapter's own configuration applies.
func (s *Service) applyConfiguration(ctx context.Context, r *providers.GenerationRequest) {
	if s.configs == nil {
		return
	}
	c, ok := s.configs.Active(ctx, r.Provider)
	if !ok || c.Synthesized {
		return
	}
	if r.APIKey == "" {
		r.APIKey = c.APIKey
	}
	if r.Endpoint == "" {
		r.Endpoint = c.Endpoint
	}
	if r.Model == "" {
		r.Model = c.Model
	}
	if r.Temperature == nil {
		t := c.Temperature
		r.Temperature = &t
	}
	if r.MaxTokens == nil && c.MaxTokens > 0 {
		m := c.MaxTokens
		r.MaxTokens = &m
	}
}

func (s *Service) finish(ctx context.Context, r *providers.GenerationRequest, prompt prompts.Prompt, resp *providers.GenerationResponse) {
	userID := r.UserID
	if userID == "" {
		userID, _ = settings.UserFrom(ctx)
	}
	kind := resp.ErrorKind
	if !resp.Success && kind == "" {
		kind = "other"
	}

	if s.observer != nil {
		s.observer.RecordGeneration(r.Provider, resp.Model, string(r.FieldType), resp.Success, kind, resp.Latency, resp.TokensUsed)
	}

	if resp.Success {
		s.logger.Info("content generated",
			"provider", r.Provider,
			"model", resp.Model,
			"field_type", r.FieldType,
			"prompt_source", prompt.Source,
			"tokens", resp.TokensUsed,
			"duration_ms", resp.Latency.Milliseconds(),
		)
	} else {
		s.logger.Warn("content generation failed",
			"provider", r.Provider,
			"model", resp.Model,
			"field_type", r.FieldType,
			"error_kind", kind,
			"error", resp.Error,
		)
	}

	if s.recorder == nil {
		return
	}
	err := s.recorder.Record(&genlog.Entry{
		RequestID:    logging.RequestID(ctx),
		UserID:       userID,
		Provider:     r.Provider,
		Model:        resp.Model,
		FieldType:    string(r.FieldType),
		PromptSource: string(prompt.Source),
		TemplateID:   prompt.TemplateID,
		Prompt:       prompt.Text,
		Response:     resp.Content.String(),
		TokensUsed:   resp.TokensUsed,
		Success:      resp.Success,
		Error:        resp.Error,
		ErrorKind:    kind,
		Latency:      resp.Latency,
	})
	if err != nil {
		s.logger.Debug("generation log entry dropped", "error", err)
	}
}
