package providerfactory

import (
	"sort"

	"mercator-hq/scribe/pkg/config"
	"mercator-hq/scribe/pkg/providers"
)

// ConfigsFrom converts the providers section of cfg into adapter
// configurations in id order. Disabled providers are skipped and the
// generation defaults become each adapter's sampling defaults.
func ConfigsFrom(cfg *config.Config) []providers.ProviderConfig {
	if cfg == nil {
		return nil
	}

	ids := make([]string, 0, len(cfg.Providers))
	for id, p := range cfg.Providers {
		if !p.Disabled {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	out := make([]providers.ProviderConfig, 0, len(ids))
	for _, id := range ids {
		p := cfg.Providers[id]
		retries := p.MaxRetries
		if retries < 0 {
			retries = 0
		}
		out = append(out, providers.ProviderConfig{
			Name:               id,
			Family:             InferFamily(id),
			BaseURL:            p.BaseURL,
			APIKey:             p.APIKey,
			Timeout:            p.Timeout,
			ProbeTimeout:       p.ProbeTimeout,
			MaxRetries:         retries,
			RetryBackoff:       p.RetryBackoff,
			VerifyModel:        p.VerifyModelEnabled(),
			DefaultModel:       p.DefaultModel,
			DefaultTemperature: cfg.Generation.DefaultTemperature,
			DefaultMaxTokens:   cfg.Generation.DefaultMaxTokens,
		})
	}
	return out
}
