package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"mercator-hq/scribe/pkg/cli"
	"mercator-hq/scribe/pkg/config"
	"mercator-hq/scribe/pkg/generation"
	"mercator-hq/scribe/pkg/genlog"
	"mercator-hq/scribe/pkg/genlog/storage"
	"mercator-hq/scribe/pkg/prompts"
	"mercator-hq/scribe/pkg/providerfactory"
	"mercator-hq/scribe/pkg/providers"
	"mercator-hq/scribe/pkg/registry"
	"mercator-hq/scribe/pkg/settings"
	"mercator-hq/scribe/pkg/storage/sqldb"
	"mercator-hq/scribe/pkg/telemetry/logging"
	"mercator-hq/scribe/pkg/telemetry/metrics"
	"mercator-hq/scribe/pkg/templates"
)

// loadConfig loads the configuration named by --config and installs the
// default logger. A non-empty level overrides the configured one; --verbose
// overrides both.
func loadConfig(level string) (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	config.SetConfig(cfg)

	logCfg := logging.FromConfig(cfg.Telemetry.Logging)
	switch {
	case verbose:
		logCfg.Level = "debug"
	case level != "":
		logCfg.Level = level
	}
	if _, err := logging.Setup(logCfg); err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	return cfg, nil
}

// app holds the components shared by the server and the commands.
type app struct {
	cfg       *config.Config
	db        *sqldb.DB
	redis     *redis.Client
	collector *metrics.Collector
	configs   *settings.Store
	templates templates.Store
	resolver  *templates.Resolver
	logs      genlog.Storage
	recorder  *genlog.Recorder
	manager   *providerfactory.Manager
	registry  *registry.Registry
	service   *generation.Service
}

// newApp opens the database and builds every component from cfg. Close
// releases them in reverse order.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	db, err := sqldb.Open(ctx, sqldb.Config{
		Driver:       cfg.Storage.Driver,
		Path:         cfg.Storage.Path,
		DSN:          cfg.Storage.DSN,
		BusyTimeout:  cfg.Storage.BusyTimeout,
		MaxOpenConns: cfg.Storage.MaxOpenConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.db = db

	if err := a.build(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) build(ctx context.Context) error {
	cfg := a.cfg
	a.collector = metrics.NewCollector(&cfg.Telemetry.Metrics, prometheus.NewRegistry())

	backend, err := settings.NewSQLBackend(ctx, a.db)
	if err != nil {
		return fmt.Errorf("failed to prepare configuration store: %w", err)
	}
	opts := []settings.Option{settings.WithRecorder(a.collector)}
	cache, err := a.localCache()
	if err != nil {
		return err
	}
	if cache != nil {
		opts = append(opts, settings.WithCache(cache))
	}
	a.configs = settings.NewStore(backend, opts...)

	tmpl, err := templates.NewSQLStore(ctx, a.db)
	if err != nil {
		return fmt.Errorf("failed to prepare template store: %w", err)
	}
	a.templates = tmpl
	a.resolver = templates.NewResolver(tmpl, a.collector)

	if cfg.Templates.SeedFile != "" {
		if _, err := templates.ImportFile(ctx, tmpl, cfg.Templates.SeedFile); err != nil {
			slog.Warn("template seed import failed", "file", cfg.Templates.SeedFile, "error", err)
		}
	}

	logs, err := storage.NewSQLStorage(ctx, a.db)
	if err != nil {
		return fmt.Errorf("failed to prepare generation log: %w", err)
	}
	a.logs = logs
	a.recorder = genlog.NewRecorder(logs, &genlog.Config{
		Enabled:        cfg.Generation.Log.Enabled,
		AsyncBuffer:    cfg.Generation.Log.AsyncBuffer,
		WriteTimeout:   cfg.Generation.Log.WriteTimeout,
		MaxFieldLength: cfg.Generation.Log.MaxFieldLength,
	})
	a.recorder.SetObserver(a.collector)

	a.manager = providerfactory.NewManager()
	if err := a.manager.LoadFromConfig(providerfactory.ConfigsFrom(cfg)); err != nil {
		slog.Warn("some providers failed to initialize", "error", err)
	}

	regOpts := []registry.Option{registry.WithDiscoveryRecorder(a.collector)}
	if adapter, ok := a.manager.Adapter("ollama"); ok {
		if lister, ok := adapter.(providers.ModelLister); ok {
			regOpts = append(regOpts, registry.WithModelLister("ollama", lister))
		}
	}
	a.registry = registry.New(regOpts...)

	a.service = generation.NewService(a.manager, prompts.NewBuilder(a.resolver),
		generation.WithConfigSource(a.configs),
		generation.WithRecorder(a.recorder),
		generation.WithObserver(a.collector),
		generation.WithConfig(generation.Config{BatchConcurrency: cfg.Generation.BatchConcurrency}),
	)
	return nil
}

// localCache builds the configured fallback cache, or nil for "none".
func (a *app) localCache() (settings.LocalCache, error) {
	c := a.cfg.Cache
	switch strings.ToLower(c.Backend) {
	case "file", "":
		return settings.NewFileCache(c.Dir), nil
	case "redis":
		a.redis = redis.NewClient(&redis.Options{
			Addr:     c.Redis.Address,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
		})
		return settings.NewRedisCache(a.redis, c.Redis.KeyPrefix, c.Redis.TTL), nil
	case "none":
		return nil, nil
	default:
		return nil, cli.NewConfigError("cache.backend", fmt.Sprintf("unsupported cache backend %q", c.Backend))
	}
}

// syncProviderHealth copies passive adapter health into the health gauge.
func (a *app) syncProviderHealth() providerfactory.HealthSummary {
	summary := a.manager.GetHealthSummary()
	for id, h := range summary.Details {
		a.collector.UpdateProviderHealth(id, h.IsHealthy)
	}
	return summary
}

// Close drains the generation log and releases every connection.
func (a *app) Close() error {
	var errs []error
	if a.recorder != nil {
		errs = append(errs, a.recorder.Close())
	}
	if a.manager != nil {
		errs = append(errs, a.manager.Close())
	}
	if a.logs != nil {
		errs = append(errs, a.logs.Close())
	}
	if a.templates != nil {
		errs = append(errs, a.templates.Close())
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}

// openApp loads configuration and builds the app for a short-lived command.
func openApp(ctx context.Context, command string) (*app, error) {
	cfg, err := loadConfig("warn")
	if err != nil {
		return nil, err
	}
	if err := resolveSecrets(ctx, cfg); err != nil {
		return nil, err
	}
	a, err := newApp(ctx, cfg)
	if err != nil {
		return nil, cli.NewCommandError(command, err)
	}
	return a, nil
}
