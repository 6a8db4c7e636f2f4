package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"mercator-hq/scribe/pkg/config"
	"mercator-hq/scribe/pkg/telemetry/tracing"
)

// Deps are the components the API serves. Health and Metrics are optional.
type Deps struct {
	Generator Generator
	Catalog   Catalog
	Configs   ConfigStore
	Templates TemplateResolver

	// Health serves /health.
	Health http.Handler

	// Metrics serves the metrics path and records per-route observations.
	Metrics     http.Handler
	MetricsPath string
	Recorder    HTTPRecorder

	// Limiter throttles the generation routes per caller.
	Limiter RateLimiter
}

// Server is the Scribe JSON API.
type Server struct {
	config     *config.ServerConfig
	deps       Deps
	generator  Generator
	catalog    Catalog
	configs    ConfigStore
	templates  TemplateResolver
	logger     *slog.Logger
	httpServer *http.Server

	mu           sync.Mutex
	isRunning    bool
	shutdownOnce sync.Once
}

// New creates a server. Generator, Catalog, Configs and Templates are
// required.
func New(cfg *config.ServerConfig, deps Deps) (*Server, error) {
	switch {
	case deps.Generator == nil:
		return nil, errors.New("server: generator is required")
	case deps.Catalog == nil:
		return nil, errors.New("server: provider catalog is required")
	case deps.Configs == nil:
		return nil, errors.New("server: configuration store is required")
	case deps.Templates == nil:
		return nil, errors.New("server: template resolver is required")
	}
	if deps.MetricsPath == "" {
		deps.MetricsPath = config.DefaultMetricsPath
	}
	return &Server{
		config:    cfg,
		deps:      deps,
		generator: deps.Generator,
		catalog:   deps.Catalog,
		configs:   deps.Configs,
		templates: deps.Templates,
		logger:    slog.Default().With("component", "server"),
	}, nil
}

// Handler returns the routed API with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	limit := RateLimitMiddleware(s.deps.Limiter, s.logger)
	mux.Handle("POST /v1/generate", limit(http.HandlerFunc(s.handleGenerate)))
	mux.Handle("POST /v1/generate/batch", limit(http.HandlerFunc(s.handleGenerateBatch)))
	mux.Handle("POST /v1/connection-test", limit(http.HandlerFunc(s.handleConnectionTest)))
	mux.HandleFunc("GET /v1/providers", s.handleListProviders)
	mux.HandleFunc("GET /v1/providers/{id}", s.handleGetProvider)
	mux.HandleFunc("GET /v1/configurations", s.handleListConfigurations)
	mux.HandleFunc("POST /v1/configurations", s.handleSaveConfiguration)
	mux.HandleFunc("DELETE /v1/configurations/{id}", s.handleDeleteConfiguration)
	mux.HandleFunc("GET /v1/templates/resolve", s.handleResolveTemplate)
	mux.HandleFunc("GET /v1/field-types", s.handleFieldTypes)

	if s.deps.Health != nil {
		mux.Handle("GET /health", s.deps.Health)
	}
	if s.deps.Metrics != nil {
		mux.Handle("GET "+s.deps.MetricsPath, s.deps.Metrics)
	}

	var handler http.Handler = mux
	handler = MetricsMiddleware(s.deps.Recorder)(handler)
	handler = BodyLimitMiddleware(s.config.MaxBodyBytes)(handler)
	handler = UserMiddleware(handler)
	handler = LoggingMiddleware(s.logger)(handler)
	handler = RequestIDMiddleware(handler)
	handler = tracing.HTTPMiddleware(handler)
	handler = RecoveryMiddleware(s.logger)(handler)
	return handler
}

// Start listens on the configured address and serves until ctx is cancelled
// or the listener fails. Cancellation triggers a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return errors.New("server is already running")
	}
	s.isRunning = true
	s.httpServer = &http.Server{
		Addr:         s.config.ListenAddress,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting api server", "address", s.config.ListenAddress)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err, ok := <-errChan:
		if !ok {
			return nil
		}
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		return err
	}
}

// Shutdown drains in-flight requests for at most ShutdownTimeout.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		running := s.isRunning
		s.mu.Unlock()
		if !running || s.httpServer == nil {
			return
		}

		s.logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())
		if s.config.ShutdownTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.config.ShutdownTimeout)
			defer cancel()
		}
		if err := s.httpServer.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		s.logger.Info("api server stopped")
	})

	return shutdownErr
}

// IsRunning reports whether Start is serving.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}
