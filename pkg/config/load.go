package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SCRIBE_"

// LoadConfig loads configuration from a YAML file at the specified path.
// The file is decoded on top of DefaultConfig, defaults are applied to
// anything still unset and the result is validated. A missing file yields
// the defaults; an empty path does too.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
			}
		}
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Variables follow SCRIBE_SECTION_FIELD
// (e.g., SCRIBE_SERVER_LISTEN_ADDRESS) and SCRIBE_PROVIDERS_<ID>_FIELD.
// Environment variables always take precedence over the file.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg, os.LookupEnv)
	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

type lookupFunc func(string) (string, bool)

// env reads SCRIBE_<name> and applies it with set when present and parseable.
type env struct {
	lookup lookupFunc
}

func (e env) str(name string, dst *string) {
	if v, ok := e.lookup(EnvPrefix + name); ok && v != "" {
		*dst = v
	}
}

func (e env) duration(name string, dst *time.Duration) {
	if v, ok := e.lookup(EnvPrefix + name); ok {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

func (e env) integer(name string, dst *int) {
	if v, ok := e.lookup(EnvPrefix + name); ok {
		if i, err := strconv.Atoi(v); err == nil {
			*dst = i
		}
	}
}

func (e env) boolean(name string, dst *bool) {
	if v, ok := e.lookup(EnvPrefix + name); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func (e env) float(name string, dst *float64) {
	if v, ok := e.lookup(EnvPrefix + name); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

// applyEnvOverrides applies SCRIBE_* overrides to cfg.
func applyEnvOverrides(cfg *Config, lookup lookupFunc) {
	e := env{lookup: lookup}

	// Server overrides
	e.str("SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	e.duration("SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	e.duration("SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	e.duration("SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	e.integer("SERVER_RATE_LIMIT_REQUESTS_PER_MINUTE", &cfg.Server.RateLimit.RequestsPerMinute)
	e.integer("SERVER_RATE_LIMIT_BURST", &cfg.Server.RateLimit.Burst)

	// Provider overrides
	for id := range cfg.Providers {
		applyProviderEnvOverrides(cfg, id, e)
	}

	// Storage overrides
	e.str("STORAGE_DRIVER", &cfg.Storage.Driver)
	e.str("STORAGE_PATH", &cfg.Storage.Path)
	e.str("STORAGE_DSN", &cfg.Storage.DSN)
	e.integer("STORAGE_MAX_OPEN_CONNS", &cfg.Storage.MaxOpenConns)

	// Cache overrides
	e.str("CACHE_BACKEND", &cfg.Cache.Backend)
	e.str("CACHE_DIR", &cfg.Cache.Dir)
	e.str("CACHE_REDIS_ADDRESS", &cfg.Cache.Redis.Address)
	e.str("CACHE_REDIS_PASSWORD", &cfg.Cache.Redis.Password)
	e.integer("CACHE_REDIS_DB", &cfg.Cache.Redis.DB)

	// Template overrides
	e.str("TEMPLATES_SEED_FILE", &cfg.Templates.SeedFile)
	e.boolean("TEMPLATES_WATCH", &cfg.Templates.Watch)
	e.str("TEMPLATES_GIT_REPOSITORY", &cfg.Templates.Git.Repository)
	e.str("TEMPLATES_GIT_BRANCH", &cfg.Templates.Git.Branch)
	e.str("TEMPLATES_GIT_TOKEN", &cfg.Templates.Git.Token)

	// Generation overrides
	e.float("GENERATION_DEFAULT_TEMPERATURE", &cfg.Generation.DefaultTemperature)
	e.integer("GENERATION_DEFAULT_MAX_TOKENS", &cfg.Generation.DefaultMaxTokens)
	e.integer("GENERATION_BATCH_CONCURRENCY", &cfg.Generation.BatchConcurrency)
	e.boolean("GENERATION_LOG_ENABLED", &cfg.Generation.Log.Enabled)
	e.integer("GENERATION_LOG_RETENTION_DAYS", &cfg.Generation.Log.RetentionDays)
	e.str("GENERATION_LOG_PRUNE_SCHEDULE", &cfg.Generation.Log.PruneSchedule)

	// Secret overrides
	e.str("SECRETS_DIR", &cfg.Secrets.Dir)
	e.str("SECRETS_ENV_PREFIX", &cfg.Secrets.EnvPrefix)

	// Telemetry overrides
	e.str("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	e.str("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	e.boolean("TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	e.str("TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
	e.boolean("TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	e.str("TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
	e.float("TELEMETRY_TRACING_SAMPLE_RATIO", &cfg.Telemetry.Tracing.SampleRatio)
}

// applyProviderEnvOverrides applies SCRIBE_PROVIDERS_<ID>_<FIELD> overrides.
func applyProviderEnvOverrides(cfg *Config, id string, e env) {
	p := cfg.Providers[id]
	prefix := "PROVIDERS_" + strings.ToUpper(id) + "_"

	e.str(prefix+"BASE_URL", &p.BaseURL)
	e.str(prefix+"API_KEY", &p.APIKey)
	e.str(prefix+"DEFAULT_MODEL", &p.DefaultModel)
	e.duration(prefix+"TIMEOUT", &p.Timeout)
	e.integer(prefix+"MAX_RETRIES", &p.MaxRetries)
	e.boolean(prefix+"DISABLED", &p.Disabled)

	cfg.Providers[id] = p
}
