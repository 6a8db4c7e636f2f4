package main

import (
	"context"
	"testing"

	"mercator-hq/scribe/pkg/cli"
	"mercator-hq/scribe/pkg/config"
)

func TestResolveSecrets(t *testing.T) {
	t.Setenv("SCRIBE_SECRET_OPENAI_API_KEY", "sk-from-env")
	t.Setenv("SCRIBE_SECRET_REDIS_PASSWORD", "hunter2")

	cfg := config.DefaultConfig()
	p := cfg.Providers["openai"]
	p.APIKey = "${secret:openai-api-key}"
	cfg.Providers["openai"] = p
	cfg.Cache.Redis.Password = "${secret:redis-password}"

	if err := resolveSecrets(context.Background(), cfg); err != nil {
		t.Fatalf("resolveSecrets: %v", err)
	}
	if got := cfg.Providers["openai"].APIKey; got != "sk-from-env" {
		t.Errorf("openai api_key = %q", got)
	}
	if cfg.Cache.Redis.Password != "hunter2" {
		t.Errorf("redis password = %q", cfg.Cache.Redis.Password)
	}
	if got := cfg.Providers["anthropic"].APIKey; got != "" {
		t.Errorf("untouched provider changed to %q", got)
	}
}

func TestResolveSecrets_Missing(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Templates.Git.Token = "${secret:scribe-test-absent-token}"

	err := resolveSecrets(context.Background(), cfg)
	if cli.ExitCode(err) != 2 {
		t.Fatalf("exit code = %d (%v), want 2", cli.ExitCode(err), err)
	}
	if cfg.Templates.Git.Token != "${secret:scribe-test-absent-token}" {
		t.Errorf("token = %q", cfg.Templates.Git.Token)
	}
}

func TestResolveSecrets_BadDirectory(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Secrets.Dir = t.TempDir() + "/missing"

	if err := resolveSecrets(context.Background(), cfg); cli.ExitCode(err) != 2 {
		t.Errorf("error = %v, want a config error", err)
	}
}
