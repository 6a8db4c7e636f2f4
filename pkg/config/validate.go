package config

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "configuration validation failed with %d errors:\n", len(e.Errors))
	for _, err := range e.Errors {
		fmt.Fprintf(&sb, "  - %s\n", err.Error())
	}
	return sb.String()
}

// Validate validates the entire configuration. All field errors are collected
// and returned together as a ValidationError.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateProviders(cfg.Providers)...)
	errs = append(errs, validateStorage(&cfg.Storage)...)
	errs = append(errs, validateCache(&cfg.Cache)...)
	errs = append(errs, validateTemplates(&cfg.Templates)...)
	errs = append(errs, validateGeneration(&cfg.Generation)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{Field: "server.listen_address", Message: "must not be empty"})
	} else if !strings.Contains(cfg.ListenAddress, ":") {
		errs = append(errs, FieldError{Field: "server.listen_address", Message: "must be in host:port format"})
	}
	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.read_timeout", Message: "must not be negative"})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.write_timeout", Message: "must not be negative"})
	}
	if cfg.MaxBodyBytes < 0 {
		errs = append(errs, FieldError{Field: "server.max_body_bytes", Message: "must not be negative"})
	}
	if cfg.RateLimit.RequestsPerMinute < 0 {
		errs = append(errs, FieldError{Field: "server.rate_limit.requests_per_minute", Message: "must not be negative"})
	}
	if cfg.RateLimit.Burst < 0 {
		errs = append(errs, FieldError{Field: "server.rate_limit.burst", Message: "must not be negative"})
	}

	return errs
}

func validateProviders(providers map[string]ProviderConfig) []FieldError {
	var errs []FieldError

	ids := make([]string, 0, len(providers))
	for id := range providers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		p := providers[id]
		prefix := "providers." + id

		if _, ok := builtinProviders[id]; !ok {
			errs = append(errs, FieldError{Field: prefix, Message: "unknown provider (supported: anthropic, gemini, ollama, openai)"})
			continue
		}
		if p.Disabled {
			continue
		}
		if u, err := url.Parse(p.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, FieldError{Field: prefix + ".base_url", Message: fmt.Sprintf("invalid URL %q", p.BaseURL)})
		}
		if p.Timeout < 0 {
			errs = append(errs, FieldError{Field: prefix + ".timeout", Message: "must not be negative"})
		}
		if p.ProbeTimeout < 0 {
			errs = append(errs, FieldError{Field: prefix + ".probe_timeout", Message: "must not be negative"})
		}
		if p.MaxRetries > 10 {
			errs = append(errs, FieldError{Field: prefix + ".max_retries", Message: "must be at most 10"})
		}
	}

	return errs
}

func validateStorage(cfg *StorageConfig) []FieldError {
	var errs []FieldError

	switch cfg.Driver {
	case "sqlite", "sqlite3":
		if cfg.Path == "" {
			errs = append(errs, FieldError{Field: "storage.path", Message: "required for SQLite"})
		}
	case "postgres":
		if cfg.DSN == "" {
			errs = append(errs, FieldError{Field: "storage.dsn", Message: "required for postgres"})
		}
	default:
		errs = append(errs, FieldError{Field: "storage.driver", Message: fmt.Sprintf("unsupported driver %q (valid: sqlite, sqlite3, postgres)", cfg.Driver)})
	}
	if cfg.MaxOpenConns < 0 {
		errs = append(errs, FieldError{Field: "storage.max_open_conns", Message: "must not be negative"})
	}

	return errs
}

func validateCache(cfg *CacheConfig) []FieldError {
	switch cfg.Backend {
	case "file":
		if cfg.Dir == "" {
			return []FieldError{{Field: "cache.dir", Message: "required for the file cache"}}
		}
	case "redis":
		if cfg.Redis.Address == "" {
			return []FieldError{{Field: "cache.redis.address", Message: "required for the redis cache"}}
		}
	case "none":
	default:
		return []FieldError{{Field: "cache.backend", Message: fmt.Sprintf("unsupported backend %q (valid: file, redis, none)", cfg.Backend)}}
	}
	return nil
}

func validateTemplates(cfg *TemplatesConfig) []FieldError {
	var errs []FieldError

	if cfg.Watch && cfg.SeedFile == "" {
		errs = append(errs, FieldError{Field: "templates.watch", Message: "requires templates.seed_file"})
	}
	if cfg.Git.Repository != "" && cfg.Git.PollInterval < 0 {
		errs = append(errs, FieldError{Field: "templates.git.poll_interval", Message: "must not be negative"})
	}

	return errs
}

func validateGeneration(cfg *GenerationConfig) []FieldError {
	var errs []FieldError

	if cfg.DefaultTemperature < 0 || cfg.DefaultTemperature > 1 {
		errs = append(errs, FieldError{Field: "generation.default_temperature", Message: "must be between 0 and 1"})
	}
	if cfg.DefaultMaxTokens < 0 {
		errs = append(errs, FieldError{Field: "generation.default_max_tokens", Message: "must not be negative"})
	}
	if cfg.BatchConcurrency < 0 {
		errs = append(errs, FieldError{Field: "generation.batch_concurrency", Message: "must not be negative"})
	}
	if cfg.Log.RetentionDays < 0 {
		errs = append(errs, FieldError{Field: "generation.log.retention_days", Message: "must not be negative"})
	}
	if cfg.Log.PruneSchedule != "" {
		if _, err := cron.ParseStandard(cfg.Log.PruneSchedule); err != nil {
			errs = append(errs, FieldError{Field: "generation.log.prune_schedule", Message: fmt.Sprintf("invalid cron expression: %v", err)})
		}
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, FieldError{Field: "telemetry.logging.level", Message: fmt.Sprintf("invalid level %q (valid: debug, info, warn, error)", cfg.Logging.Level)})
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case "json", "text":
	default:
		errs = append(errs, FieldError{Field: "telemetry.logging.format", Message: fmt.Sprintf("invalid format %q (valid: json, text)", cfg.Logging.Format)})
	}
	for i, p := range cfg.Logging.RedactPatterns {
		if p.Pattern == "" {
			errs = append(errs, FieldError{Field: fmt.Sprintf("telemetry.logging.redact_patterns[%d].pattern", i), Message: "must not be empty"})
		}
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{Field: "telemetry.metrics.path", Message: "must start with /"})
	}

	if cfg.Tracing.Enabled {
		switch cfg.Tracing.Sampler {
		case "always", "never", "ratio":
		default:
			errs = append(errs, FieldError{Field: "telemetry.tracing.sampler", Message: fmt.Sprintf("invalid sampler %q (valid: always, never, ratio)", cfg.Tracing.Sampler)})
		}
		if cfg.Tracing.Endpoint == "" {
			errs = append(errs, FieldError{Field: "telemetry.tracing.endpoint", Message: "required when tracing is enabled"})
		}
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		errs = append(errs, FieldError{Field: "telemetry.tracing.sample_ratio", Message: "must be between 0 and 1"})
	}

	return errs
}
