package main

import (
	"context"

	"mercator-hq/scribe/pkg/cli"
	"mercator-hq/scribe/pkg/config"
	"mercator-hq/scribe/pkg/secrets"
)

// newSecretResolver builds the resolver for cfg.Secrets: the secret
// directory when configured, then the environment.
func newSecretResolver(cfg *config.Config) (*secrets.Resolver, error) {
	var sources []secrets.Source
	if cfg.Secrets.Dir != "" {
		files, err := secrets.NewFileSource(cfg.Secrets.Dir)
		if err != nil {
			return nil, cli.NewConfigError("secrets.dir", err.Error())
		}
		sources = append(sources, files)
	}
	sources = append(sources, secrets.NewEnvSource(cfg.Secrets.EnvPrefix))
	return secrets.NewResolver(sources, cfg.Secrets.CacheTTL), nil
}

// credentialFields returns the credential settings that may hold secret
// references, keyed by their configuration path.
func credentialFields(cfg *config.Config) map[string]*string {
	fields := map[string]*string{
		"storage.dsn":          &cfg.Storage.DSN,
		"cache.redis.password": &cfg.Cache.Redis.Password,
		"templates.git.token":  &cfg.Templates.Git.Token,
	}
	for id, p := range cfg.Providers {
		key := p.APIKey
		fields["providers."+id+".api_key"] = &key
	}
	return fields
}

// resolveSecrets expands every ${secret:name} reference in cfg in place.
func resolveSecrets(ctx context.Context, cfg *config.Config) error {
	r, err := newSecretResolver(cfg)
	if err != nil {
		return err
	}
	fields := credentialFields(cfg)
	if err := r.ExpandFields(ctx, fields); err != nil {
		return cli.NewConfigError("secrets", err.Error())
	}
	for id, p := range cfg.Providers {
		p.APIKey = *fields["providers."+id+".api_key"]
		cfg.Providers[id] = p
	}
	return nil
}
