package config

import "time"

// Config is the root configuration structure for Scribe.
// It contains the HTTP server, the provider adapters, persistence, the local
// configuration cache, template sources, generation behavior and telemetry.
type Config struct {
	// Server contains the JSON API server configuration.
	Server ServerConfig `yaml:"server"`

	// Providers contains adapter transport settings keyed by provider id
	// ("ollama", "openai", "anthropic", "gemini"). Every built-in provider is
	// present after ApplyDefaults.
	Providers map[string]ProviderConfig `yaml:"providers"`

	// Storage selects the SQL database holding configurations, templates and
	// the generation log.
	Storage StorageConfig `yaml:"storage"`

	// Cache configures the local fallback cache for provider configurations.
	Cache CacheConfig `yaml:"cache"`

	// Templates configures template seeding.
	Templates TemplatesConfig `yaml:"templates"`

	// Generation contains orchestrator defaults and the generation log.
	Generation GenerationConfig `yaml:"generation"`

	// Telemetry contains logging, metrics and tracing configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Secrets resolves ${secret:name} references in credential fields.
	Secrets SecretsConfig `yaml:"secrets"`
}

// ServerConfig contains configuration for the HTTP API server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Default: "127.0.0.1:8090"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout must exceed the slowest provider timeout since generation
	// responses are written after the backend replies.
	// Default: 180s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxBodyBytes caps request bodies.
	// Default: 1048576 (1MB)
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// RateLimit throttles generation requests per user.
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig configures the per-user token bucket on generation routes.
type RateLimitConfig struct {
	// RequestsPerMinute is the sustained rate. Zero disables limiting.
	RequestsPerMinute int `yaml:"requests_per_minute"`

	// Burst is the bucket capacity. Default: RequestsPerMinute
	Burst int `yaml:"burst"`

	// IdleTTL evicts buckets of users that stopped calling.
	// Default: 10m
	IdleTTL time.Duration `yaml:"idle_ttl"`
}

// SecretsConfig configures secret reference resolution. A credential field
// such as providers.openai.api_key may hold "${secret:openai-api-key}", which
// is looked up in the secret files directory first and then the environment.
type SecretsConfig struct {
	// EnvPrefix namespaces secret environment variables; the secret
	// "openai-api-key" is read from <prefix>OPENAI_API_KEY.
	// Default: "SCRIBE_SECRET_"
	EnvPrefix string `yaml:"env_prefix"`

	// Dir holds one file per secret (Kubernetes-style mounts). Files must be
	// mode 0600 or 0400.
	Dir string `yaml:"dir"`

	// CacheTTL bounds how long a resolved secret is reused.
	// Default: 5m
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// ProviderConfig contains transport settings for one provider adapter.
type ProviderConfig struct {
	// Disabled removes the provider from the dispatcher.
	Disabled bool `yaml:"disabled"`

	// BaseURL is the API endpoint base URL.
	BaseURL string `yaml:"base_url"`

	// APIKey is a server-wide credential used when neither the request nor
	// the caller's saved configuration carries one. Prefer setting it through
	// SCRIBE_PROVIDERS_<ID>_API_KEY.
	APIKey string `yaml:"api_key"`

	// DefaultModel is used when a request names no model.
	DefaultModel string `yaml:"default_model"`

	// Timeout is the generation request timeout.
	// Default: 60s hosted, 120s self-hosted
	Timeout time.Duration `yaml:"timeout"`

	// MaxRetries is the number of retries on network errors and 5xx. Zero
	// uses the default; a negative value disables retries.
	// Default: 2 hosted, 0 self-hosted
	MaxRetries int `yaml:"max_retries"`

	// RetryBackoff is the initial retry backoff, doubled per attempt.
	// Default: 500ms
	RetryBackoff time.Duration `yaml:"retry_backoff"`

	// ProbeTimeout bounds the self-hosted reachability probe.
	// Default: 3s
	ProbeTimeout time.Duration `yaml:"probe_timeout"`

	// VerifyModel checks the requested model is installed before generating
	// (self-hosted only). Default: true
	VerifyModel *bool `yaml:"verify_model"`
}

// StorageConfig selects the SQL backend.
type StorageConfig struct {
	// Driver is "sqlite" (pure Go), "sqlite3" (cgo) or "postgres".
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// Path is the SQLite database file.
	// Default: "data/scribe.db"
	Path string `yaml:"path"`

	// DSN is the Postgres connection string.
	DSN string `yaml:"dsn"`

	// BusyTimeout is how long SQLite waits on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// MaxOpenConns is the connection pool size.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`
}

// CacheConfig configures the local configuration cache.
type CacheConfig struct {
	// Backend is "file", "redis" or "none".
	// Default: "file"
	Backend string `yaml:"backend"`

	// Dir is the directory of the file cache.
	// Default: "data/cache"
	Dir string `yaml:"dir"`

	// Redis contains the Redis cache connection.
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig contains Redis connection settings.
type RedisConfig struct {
	// Address is host:port. Default: "127.0.0.1:6379"
	Address string `yaml:"address"`

	// Password for AUTH, if any.
	Password string `yaml:"password"`

	// DB is the database number.
	DB int `yaml:"db"`

	// KeyPrefix namespaces cache keys. Default: "scribe:"
	KeyPrefix string `yaml:"key_prefix"`

	// TTL expires cached lists. Zero keeps them until overwritten.
	TTL time.Duration `yaml:"ttl"`
}

// TemplatesConfig configures template seeding.
type TemplatesConfig struct {
	// SeedFile is a YAML seed file imported at startup.
	SeedFile string `yaml:"seed_file"`

	// Watch reimports SeedFile when it changes.
	Watch bool `yaml:"watch"`

	// WatchDebounce coalesces bursts of file events.
	// Default: 500ms
	WatchDebounce time.Duration `yaml:"watch_debounce"`

	// Git imports seed files from a Git repository.
	Git GitConfig `yaml:"git"`
}

// GitConfig describes a Git template library.
type GitConfig struct {
	// Repository is the clone URL. Empty disables the Git source.
	Repository string `yaml:"repository"`

	// Branch to track. Default: "main"
	Branch string `yaml:"branch"`

	// Path is the seed directory inside the repository.
	Path string `yaml:"path"`

	// LocalPath is the clone location.
	LocalPath string `yaml:"local_path"`

	// Token is an optional HTTPS access token.
	Token string `yaml:"token"`

	// PollInterval is how often the repository is pulled.
	// Default: 5m
	PollInterval time.Duration `yaml:"poll_interval"`

	// Timeout bounds each clone or pull.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`
}

// GenerationConfig contains orchestrator settings.
type GenerationConfig struct {
	// DefaultTemperature applies when neither the request nor a saved
	// configuration sets one. Default: 0.7
	DefaultTemperature float64 `yaml:"default_temperature"`

	// DefaultMaxTokens applies when neither the request nor a saved
	// configuration sets one. Default: 2000
	DefaultMaxTokens int `yaml:"default_max_tokens"`

	// BatchConcurrency bounds parallel generations in a batch.
	// Default: 4
	BatchConcurrency int `yaml:"batch_concurrency"`

	// Log configures the generation log.
	Log GenerationLogConfig `yaml:"log"`
}

// GenerationLogConfig configures the best-effort generation log.
type GenerationLogConfig struct {
	// Enabled turns recording on. Default: true
	Enabled bool `yaml:"enabled"`

	// AsyncBuffer is the recorder queue size. Default: 1000
	AsyncBuffer int `yaml:"async_buffer"`

	// WriteTimeout bounds each write. Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// MaxFieldLength truncates prompts and responses. Default: 4000
	MaxFieldLength int `yaml:"max_field_length"`

	// RetentionDays is how long entries are kept. 0 keeps them forever.
	// Default: 90
	RetentionDays int `yaml:"retention_days"`

	// PruneSchedule is a cron expression for pruning.
	// Default: "0 3 * * *"
	PruneSchedule string `yaml:"prune_schedule"`

	// MaxRecords caps the number of entries. 0 is unlimited.
	MaxRecords int64 `yaml:"max_records"`

	// ArchiveBeforeDelete writes pruned entries to ArchivePath first.
	ArchiveBeforeDelete bool `yaml:"archive_before_delete"`

	// ArchivePath is the archive directory.
	// Default: "data/archives/"
	ArchivePath string `yaml:"archive_path"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is "debug", "info", "warn" or "error". Default: "info"
	Level string `yaml:"level"`

	// Format is "json" or "text". Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file:line in records.
	AddSource bool `yaml:"add_source"`

	// RedactPatterns are extra regular expressions masked in string values.
	RedactPatterns []RedactPattern `yaml:"redact_patterns"`
}

// RedactPattern defines a custom redaction pattern.
type RedactPattern struct {
	// Name is a descriptive name for the pattern.
	Name string `yaml:"name"`

	// Pattern is the regular expression to match.
	Pattern string `yaml:"pattern"`

	// Replacement is the string to replace matches with.
	Replacement string `yaml:"replacement"`
}

// MetricsConfig contains Prometheus configuration.
type MetricsConfig struct {
	// Enabled exposes the metrics endpoint. Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path. Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace prefixes every metric. Default: "scribe"
	Namespace string `yaml:"namespace"`
}

// TracingConfig contains OpenTelemetry configuration.
type TracingConfig struct {
	// Enabled turns span export on. Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler is "always", "never" or "ratio". Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is used by the "ratio" sampler. Default: 0.1
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP/gRPC collector. Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the resource service name. Default: "scribe"
	ServiceName string `yaml:"service_name"`

	// Insecure disables TLS to the collector. Default: true
	Insecure bool `yaml:"insecure"`

	// Timeout bounds each export. Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// Provider returns the settings for id, or the zero value.
func (c *Config) Provider(id string) ProviderConfig {
	if c == nil || c.Providers == nil {
		return ProviderConfig{}
	}
	return c.Providers[id]
}

// VerifyModelEnabled reports the effective VerifyModel setting.
func (p ProviderConfig) VerifyModelEnabled() bool {
	return p.VerifyModel == nil || *p.VerifyModel
}
