package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8090"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 180 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxBodyBytes    = int64(1 << 20)
	DefaultRateLimitIdle   = 10 * time.Minute

	// Provider defaults
	DefaultHostedTimeout     = 60 * time.Second
	DefaultSelfHostedTimeout = 120 * time.Second
	DefaultHostedRetries     = 2
	DefaultRetryBackoff      = 500 * time.Millisecond
	DefaultProbeTimeout      = 3 * time.Second

	// Storage defaults
	DefaultStorageDriver = "sqlite"
	DefaultStoragePath   = "data/scribe.db"
	DefaultBusyTimeout   = 5 * time.Second
	DefaultMaxOpenConns  = 10

	// Cache defaults
	DefaultCacheBackend   = "file"
	DefaultCacheDir       = "data/cache"
	DefaultRedisAddress   = "127.0.0.1:6379"
	DefaultRedisKeyPrefix = "scribe:"

	// Template defaults
	DefaultWatchDebounce   = 500 * time.Millisecond
	DefaultGitBranch       = "main"
	DefaultGitPollInterval = 5 * time.Minute
	DefaultGitTimeout      = 30 * time.Second

	// Generation defaults
	DefaultTemperature      = 0.7
	DefaultMaxTokens        = 2000
	DefaultBatchConcurrency = 4
	DefaultLogAsyncBuffer   = 1000
	DefaultLogWriteTimeout  = 5 * time.Second
	DefaultLogMaxFieldLen   = 4000
	DefaultRetentionDays    = 90
	DefaultPruneSchedule    = "0 3 * * *"
	DefaultArchivePath      = "data/archives/"

	// Secret defaults
	DefaultSecretEnvPrefix = "SCRIBE_SECRET_"
	DefaultSecretCacheTTL  = 5 * time.Minute

	// Telemetry defaults
	DefaultLogLevel           = "info"
	DefaultLogFormat          = "json"
	DefaultMetricsPath        = "/metrics"
	DefaultMetricsNamespace   = "scribe"
	DefaultTracingSampler     = "ratio"
	DefaultTracingSampleRatio = 0.1
	DefaultTracingEndpoint    = "localhost:4317"
	DefaultTracingService     = "scribe"
	DefaultTracingTimeout     = 10 * time.Second
)

// builtinProviders lists the provider ids every configuration carries with
// their default base URLs.
var builtinProviders = map[string]string{
	"ollama":    "http://localhost:11434",
	"openai":    "https://api.openai.com",
	"anthropic": "https://api.anthropic.com",
	"gemini":    "https://generativelanguage.googleapis.com",
}

// SelfHosted reports whether id names the self-hosted provider family.
func SelfHosted(id string) bool {
	return id == "ollama"
}

// DefaultConfig returns a configuration with every default applied. Boolean
// settings that default to true are only set here; LoadConfig decodes YAML on
// top of this value so an explicit false survives.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Generation.Log.Enabled = true
	cfg.Telemetry.Metrics.Enabled = true
	cfg.Telemetry.Tracing.Insecure = true
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields with defaults.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if rl := &cfg.Server.RateLimit; rl.RequestsPerMinute > 0 {
		if rl.Burst == 0 {
			rl.Burst = rl.RequestsPerMinute
		}
		if rl.IdleTTL == 0 {
			rl.IdleTTL = DefaultRateLimitIdle
		}
	}

	applyProviderDefaults(cfg)

	// Storage defaults
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DefaultStorageDriver
	}
	if cfg.Storage.Path == "" && cfg.Storage.Driver != "postgres" {
		cfg.Storage.Path = DefaultStoragePath
	}
	if cfg.Storage.BusyTimeout == 0 {
		cfg.Storage.BusyTimeout = DefaultBusyTimeout
	}
	if cfg.Storage.MaxOpenConns == 0 {
		cfg.Storage.MaxOpenConns = DefaultMaxOpenConns
	}

	// Cache defaults
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = DefaultCacheBackend
	}
	if cfg.Cache.Dir == "" {
		cfg.Cache.Dir = DefaultCacheDir
	}
	if cfg.Cache.Redis.Address == "" {
		cfg.Cache.Redis.Address = DefaultRedisAddress
	}
	if cfg.Cache.Redis.KeyPrefix == "" {
		cfg.Cache.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}

	// Template defaults
	if cfg.Templates.WatchDebounce == 0 {
		cfg.Templates.WatchDebounce = DefaultWatchDebounce
	}
	if cfg.Templates.Git.Branch == "" {
		cfg.Templates.Git.Branch = DefaultGitBranch
	}
	if cfg.Templates.Git.PollInterval == 0 {
		cfg.Templates.Git.PollInterval = DefaultGitPollInterval
	}
	if cfg.Templates.Git.Timeout == 0 {
		cfg.Templates.Git.Timeout = DefaultGitTimeout
	}

	// Generation defaults
	if cfg.Generation.DefaultTemperature == 0 {
		cfg.Generation.DefaultTemperature = DefaultTemperature
	}
	if cfg.Generation.DefaultMaxTokens == 0 {
		cfg.Generation.DefaultMaxTokens = DefaultMaxTokens
	}
	if cfg.Generation.BatchConcurrency == 0 {
		cfg.Generation.BatchConcurrency = DefaultBatchConcurrency
	}
	log := &cfg.Generation.Log
	if log.AsyncBuffer == 0 {
		log.AsyncBuffer = DefaultLogAsyncBuffer
	}
	if log.WriteTimeout == 0 {
		log.WriteTimeout = DefaultLogWriteTimeout
	}
	if log.MaxFieldLength == 0 {
		log.MaxFieldLength = DefaultLogMaxFieldLen
	}
	if log.RetentionDays == 0 {
		log.RetentionDays = DefaultRetentionDays
	}
	if log.PruneSchedule == "" {
		log.PruneSchedule = DefaultPruneSchedule
	}
	if log.ArchivePath == "" {
		log.ArchivePath = DefaultArchivePath
	}

	// Secret defaults
	if cfg.Secrets.EnvPrefix == "" {
		cfg.Secrets.EnvPrefix = DefaultSecretEnvPrefix
	}
	if cfg.Secrets.CacheTTL == 0 {
		cfg.Secrets.CacheTTL = DefaultSecretCacheTTL
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	tracing := &cfg.Telemetry.Tracing
	if tracing.Sampler == "" {
		tracing.Sampler = DefaultTracingSampler
	}
	if tracing.SampleRatio == 0 && tracing.Sampler == "ratio" {
		tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if tracing.Endpoint == "" {
		tracing.Endpoint = DefaultTracingEndpoint
	}
	if tracing.ServiceName == "" {
		tracing.ServiceName = DefaultTracingService
	}
	if tracing.Timeout == 0 {
		tracing.Timeout = DefaultTracingTimeout
	}
}

func applyProviderDefaults(cfg *Config) {
	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig, len(builtinProviders))
	}
	for id := range builtinProviders {
		if _, ok := cfg.Providers[id]; !ok {
			cfg.Providers[id] = ProviderConfig{}
		}
	}

	for id, p := range cfg.Providers {
		if p.BaseURL == "" {
			p.BaseURL = builtinProviders[id]
		}
		if p.RetryBackoff == 0 {
			p.RetryBackoff = DefaultRetryBackoff
		}
		if SelfHosted(id) {
			if p.Timeout == 0 {
				p.Timeout = DefaultSelfHostedTimeout
			}
			if p.ProbeTimeout == 0 {
				p.ProbeTimeout = DefaultProbeTimeout
			}
			if p.VerifyModel == nil {
				verify := true
				p.VerifyModel = &verify
			}
		} else {
			if p.Timeout == 0 {
				p.Timeout = DefaultHostedTimeout
			}
			if p.MaxRetries == 0 {
				p.MaxRetries = DefaultHostedRetries
			}
		}
		cfg.Providers[id] = p
	}
}
