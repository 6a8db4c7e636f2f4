package settings

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"mercator-hq/scribe/pkg/providers/ollama"
)

// DefaultConfigurationID identifies the synthesized self-hosted fallback.
const DefaultConfigurationID = "default-ollama"

// DefaultConfiguration is the synthesized configuration returned when no
// other source is available. It is never written to the backend.
func DefaultConfiguration() Configuration {
	return Configuration{
		ID:          DefaultConfigurationID,
		Provider:    "ollama",
		Model:       ollama.DefaultModel,
		Endpoint:    ollama.DefaultBaseURL,
		Temperature: 0.7,
		MaxTokens:   2000,
		Active:      true,
		Synthesized: true,
	}
}

// Store manages per-user provider configurations with a three-tier read
// fallback: backend, then local cache, then a synthesized default.
type Store struct {
	backend  Backend
	cache    LocalCache
	recorder FallbackRecorder
	logger   *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithCache sets the local fallback cache.
func WithCache(c LocalCache) Option {
	return func(s *Store) { s.cache = c }
}

// WithRecorder sets the fallback recorder.
func WithRecorder(r FallbackRecorder) Option {
	return func(s *Store) { s.recorder = r }
}

// NewStore creates a store over backend. backend may be nil, in which case
// every read is served from the cache or the default.
func NewStore(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		logger:  slog.Default().With("component", "settings"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save upserts c for the current user and provider. Saving a second
// configuration for the same provider updates the first.
func (s *Store) Save(ctx context.Context, c Configuration) (Configuration, error) {
	userID, ok := UserFrom(ctx)
	if !ok {
		return Configuration{}, ErrUnauthenticated
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 2000
	}
	if err := c.Validate(); err != nil {
		return Configuration{}, err
	}
	if s.backend == nil {
		return Configuration{}, &StorageError{Backend: "none", Operation: "save", Cause: errors.New("no backend configured")}
	}

	c.UserID = userID
	c.Synthesized = false
	saved, err := s.backend.Upsert(ctx, userID, c)
	if err != nil {
		return Configuration{}, err
	}

	s.logger.Info("configuration saved",
		"user_id", userID,
		"provider", saved.Provider,
		"model", saved.Model,
	)

	s.refreshCache(ctx, userID)
	return saved, nil
}

// List returns the current user's active configurations, newest first, and
// the tier that answered. It never fails and never returns an empty list:
// without a user, or when the backend fails, the local cache is used; when
// the cache is empty too, DefaultConfiguration is returned.
func (s *Store) List(ctx context.Context) ([]Configuration, Tier) {
	userID, authenticated := UserFrom(ctx)

	if authenticated && s.backend != nil {
		configs, err := s.backend.ListActive(ctx, userID)
		if err == nil {
			s.saveCache(ctx, userID, configs)
			if len(configs) > 0 {
				s.record(TierRemote)
				return configs, TierRemote
			}
			// The user has nothing saved yet.
			s.record(TierDefault)
			return []Configuration{DefaultConfiguration()}, TierDefault
		}
		s.logger.Warn("configuration backend unavailable, using local cache",
			"user_id", userID,
			"error", err,
		)
	}

	scope := AnonymousScope
	if authenticated {
		scope = userID
	}
	if s.cache != nil {
		cached, err := s.cache.Load(ctx, scope)
		if err != nil {
			s.logger.Debug("configuration cache unreadable", "error", err)
		}
		if len(cached) > 0 {
			s.record(TierCache)
			return cached, TierCache
		}
	}

	s.record(TierDefault)
	return []Configuration{DefaultConfiguration()}, TierDefault
}

// Delete removes configuration id if it belongs to the current user.
// Deleting another user's configuration affects no rows and is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	userID, ok := UserFrom(ctx)
	if !ok {
		return ErrUnauthenticated
	}
	if s.backend == nil {
		return &StorageError{Backend: "none", Operation: "delete", Cause: errors.New("no backend configured")}
	}

	n, err := s.backend.Delete(ctx, userID, id)
	if err != nil {
		return err
	}

	s.logger.Info("configuration deleted", "user_id", userID, "id", id, "rows", n)
	s.refreshCache(ctx, userID)
	return nil
}

// Active returns the newest configuration for provider from List.
func (s *Store) Active(ctx context.Context, provider string) (Configuration, bool) {
	configs, _ := s.List(ctx)
	for _, c := range configs {
		if c.Provider == provider {
			return c, true
		}
	}
	return Configuration{}, false
}

func (s *Store) refreshCache(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	configs, err := s.backend.ListActive(ctx, userID)
	if err != nil {
		return
	}
	s.saveCache(ctx, userID, configs)
}

// saveCache mirrors configs into the cache without credentials, under the
// user's scope and under AnonymousScope so unauthenticated reads see the most
// recent authenticated list.
func (s *Store) saveCache(ctx context.Context, userID string, configs []Configuration) {
	if s.cache == nil {
		return
	}
	redacted := make([]Configuration, len(configs))
	for i, c := range configs {
		redacted[i] = c.Redacted()
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	for _, scope := range []string{userID, AnonymousScope} {
		if err := s.cache.Save(ctx, scope, redacted); err != nil {
			s.logger.Debug("configuration cache write failed", "scope", scope, "error", err)
		}
	}
}

func (s *Store) record(tier Tier) {
	if s.recorder != nil {
		s.recorder.RecordConfigFallback(string(tier))
	}
}
