package settings

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnauthenticated is returned by writes without a user in context.
	ErrUnauthenticated = errors.New("no authenticated user")

	// ErrInvalidConfiguration is wrapped by validation failures.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// Configuration is a user's settings for one AI provider. There is at most
// one configuration per (user, provider).
type Configuration struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id,omitempty"`
	Provider    string    `json:"provider"`
	Model       string    `json:"model_name"`
	Endpoint    string    `json:"api_endpoint,omitempty"`
	APIKey      string    `json:"api_key,omitempty"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	Active      bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Synthesized marks fallback instances that were never persisted.
	Synthesized bool `json:"synthesized,omitempty"`
}

// Validate checks bounds.
func (c *Configuration) Validate() error {
	switch {
	case c.Provider == "":
		return fmt.Errorf("%w: provider is required", ErrInvalidConfiguration)
	case c.Temperature < 0 || c.Temperature > 1:
		return fmt.Errorf("%w: temperature must be between 0 and 1, got %g", ErrInvalidConfiguration, c.Temperature)
	case c.MaxTokens < 0:
		return fmt.Errorf("%w: max_tokens must not be negative", ErrInvalidConfiguration)
	}
	return nil
}

// Redacted returns a copy without the credential.
func (c Configuration) Redacted() Configuration {
	c.APIKey = ""
	return c
}

// Backend is the remote persistence boundary. Every operation is scoped to
// userID.
type Backend interface {
	// Upsert inserts or updates the configuration for (userID, c.Provider)
	// and returns the stored row.
	Upsert(ctx context.Context, userID string, c Configuration) (Configuration, error)

	// ListActive returns the user's active configurations, newest first.
	ListActive(ctx context.Context, userID string) ([]Configuration, error)

	// Delete removes the configuration id owned by userID and reports the
	// number of affected rows.
	Delete(ctx context.Context, userID, id string) (int64, error)
}

// LocalCache holds the last known configuration list. Scope is the user id,
// or "" for unauthenticated reads.
type LocalCache interface {
	Load(ctx context.Context, scope string) ([]Configuration, error)
	Save(ctx context.Context, scope string, configs []Configuration) error
}

// Tier reports which fallback level answered a List call.
type Tier string

const (
	TierRemote  Tier = "remote"
	TierCache   Tier = "cache"
	TierDefault Tier = "default"
)

// FallbackRecorder observes List outcomes.
type FallbackRecorder interface {
	RecordConfigFallback(tier string)
}

// StorageError wraps a backend failure.
type StorageError struct {
	Backend   string
	Operation string
	Cause     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("settings %s: %s failed: %v", e.Backend, e.Operation, e.Cause)
}

func (e *StorageError) Unwrap() error {
	return e.Cause
}
