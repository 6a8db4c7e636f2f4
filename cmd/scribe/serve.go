package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"mercator-hq/scribe/pkg/cli"
	"mercator-hq/scribe/pkg/config"
	"mercator-hq/scribe/pkg/genlog/retention"
	"mercator-hq/scribe/pkg/ratelimit"
	"mercator-hq/scribe/pkg/server"
	"mercator-hq/scribe/pkg/telemetry/health"
	"mercator-hq/scribe/pkg/telemetry/tracing"
	"mercator-hq/scribe/pkg/templates"
	"mercator-hq/scribe/pkg/templates/gitsource"
)

var serveFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Scribe API server",
	Long: `Start the Scribe JSON API server with the specified configuration.

Besides the API, serve runs the generation log retention schedule, the
template seed file watcher and the Git template library poller when they are
configured.

Examples:
  # Start with default config
  scribe serve

  # Start with custom config
  scribe serve --config /etc/scribe/config.yaml

  # Override listen address
  scribe serve --listen 0.0.0.0:8090

  # Validate config without starting server
  scribe serve --dry-run`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().StringVar(&serveFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	serveCmd.Flags().BoolVar(&serveFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(serveFlags.logLevel)
	if err != nil {
		return err
	}
	if serveFlags.listenAddress != "" {
		cfg.Server.ListenAddress = serveFlags.listenAddress
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Scribe v%s\n", Version)
	fmt.Fprintf(out, "Loading configuration from: %s\n", cfgFile)
	if err := resolveSecrets(cmd.Context(), cfg); err != nil {
		return err
	}
	fmt.Fprintln(out, "✓ Configuration loaded")
	if serveFlags.dryRun {
		fmt.Fprintln(out, "✓ Configuration valid")
		return nil
	}

	ctx, cancel := cli.SetupSignalHandler(cmd.Context())
	defer cancel()

	tracer, err := tracing.New(&cfg.Telemetry.Tracing, Version)
	if err != nil {
		return cli.NewConfigError("telemetry.tracing", err.Error())
	}
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), cfg.Telemetry.Tracing.Timeout)
		defer done()
		if err := tracer.Shutdown(shutdownCtx); err != nil {
			slog.Warn("tracer shutdown failed", "error", err)
		}
	}()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return cli.NewCommandError("serve", err)
	}
	defer a.Close()
	fmt.Fprintf(out, "✓ Storage ready (%s)\n", a.db.Dialect())
	fmt.Fprintf(out, "✓ Providers initialized (%d providers)\n", len(a.manager.IDs()))

	checker := newHealthChecker(a)

	pruner := retention.NewPruner(a.logs, &retention.Config{
		RetentionDays:       cfg.Generation.Log.RetentionDays,
		PruneSchedule:       cfg.Generation.Log.PruneSchedule,
		MaxRecords:          cfg.Generation.Log.MaxRecords,
		ArchiveBeforeDelete: cfg.Generation.Log.ArchiveBeforeDelete,
		ArchivePath:         cfg.Generation.Log.ArchivePath,
	})
	if err := pruner.Start(ctx); err != nil {
		slog.Warn("failed to start retention scheduler", "error", err)
	} else {
		defer pruner.Stop()
		if next := pruner.NextPruning(); next != nil {
			slog.Debug("generation log retention scheduler started", "next_pruning", next)
		}
	}

	srv, err := server.New(&cfg.Server, server.Deps{
		Generator:   a.service,
		Catalog:     a.registry,
		Configs:     a.configs,
		Templates:   a.resolver,
		Health:      checker.Handler(),
		Metrics:     metricsHandler(a, cfg),
		MetricsPath: cfg.Telemetry.Metrics.Path,
		Recorder:    a.collector,
		Limiter:     rateLimiter(cfg.Server.RateLimit),
	})
	if err != nil {
		return cli.NewCommandError("serve", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(gctx)
	})
	if err := startTemplateSources(gctx, g, a, cfg.Templates); err != nil {
		return cli.NewConfigError("templates", err.Error())
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "✓ Server listening on %s\n", cfg.Server.ListenAddress)
	fmt.Fprintf(out, "✓ Health endpoint: http://%s/health\n", cfg.Server.ListenAddress)
	if cfg.Telemetry.Metrics.Enabled {
		fmt.Fprintf(out, "✓ Metrics endpoint: http://%s%s\n", cfg.Server.ListenAddress, cfg.Telemetry.Metrics.Path)
	}
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return cli.NewCommandError("serve", err)
	}
	fmt.Fprintln(out, "✓ Server stopped")
	return nil
}

// rateLimiter returns the per-user generation limiter, or nil when
// server.rate_limit is off.
func rateLimiter(cfg config.RateLimitConfig) server.RateLimiter {
	if cfg.RequestsPerMinute <= 0 {
		return nil
	}
	return ratelimit.New(ratelimit.PerMinute(cfg.RequestsPerMinute, cfg.Burst, cfg.IdleTTL))
}

func metricsHandler(a *app, cfg *config.Config) http.Handler {
	if !cfg.Telemetry.Metrics.Enabled {
		return nil
	}
	return a.collector.Handler()
}

// startTemplateSources starts the seed file watcher and the Git poller on g.
func startTemplateSources(ctx context.Context, g *errgroup.Group, a *app, cfg config.TemplatesConfig) error {
	if cfg.Watch && cfg.SeedFile != "" {
		watcher, err := templates.NewSeedWatcher(a.templates, cfg.SeedFile, cfg.WatchDebounce)
		if err != nil {
			return fmt.Errorf("failed to watch %s: %w", cfg.SeedFile, err)
		}
		watcher.OnLoad(func(result templates.ImportResult, err error) {
			if err != nil {
				slog.Warn("template seed reload failed", "file", cfg.SeedFile, "error", err)
				return
			}
			slog.Info("template seed reloaded", "file", cfg.SeedFile, "result", result.String())
		})
		g.Go(func() error {
			if err := watcher.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	if cfg.Git.Repository != "" {
		source, err := gitsource.New(gitConfig(cfg.Git), a.templates)
		if err != nil {
			return err
		}
		g.Go(func() error {
			source.Run(ctx)
			return nil
		})
	}
	return nil
}

func gitConfig(c config.GitConfig) gitsource.Config {
	return gitsource.Config{
		Repository:   c.Repository,
		Branch:       c.Branch,
		Path:         c.Path,
		LocalPath:    c.LocalPath,
		Token:        c.Token,
		Timeout:      c.Timeout,
		PollInterval: c.PollInterval,
	}
}

// newHealthChecker registers readiness checks for the database, the Redis
// cache when configured and the provider adapters.
func newHealthChecker(a *app) *health.Checker {
	checker := health.New(2*time.Second, Version)
	checker.RegisterCheck("database", func(ctx context.Context) error {
		return a.db.PingContext(ctx)
	})
	if a.redis != nil {
		checker.RegisterCheck("cache", func(ctx context.Context) error {
			return a.redis.Ping(ctx).Err()
		})
	}
	checker.RegisterCheck("providers", func(ctx context.Context) error {
		summary := a.syncProviderHealth()
		if summary.Total > 0 && summary.Healthy == 0 {
			return fmt.Errorf("all %d providers are unhealthy", summary.Total)
		}
		return nil
	})
	return checker
}
