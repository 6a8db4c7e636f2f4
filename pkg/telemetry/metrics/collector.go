package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/scribe/pkg/config"
)

// maxModelCardinality bounds distinct provider/model label pairs. Callers
// choose model names, so unbounded values would grow the registry forever.
const maxModelCardinality = 500

// Collector owns every Scribe metric. It satisfies the recorder interfaces
// of the generation, registry, templates, settings and genlog packages.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	generation *GenerationMetrics
	provider   *ProviderMetrics
	lookup     *LookupMetrics
	http       *HTTPMetrics

	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a collector and registers its metrics. A nil registry
// gets a fresh one.
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	mux.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}

	return &Collector{
		config:             cfg,
		registry:           registry,
		generation:         NewGenerationMetrics(cfg.Namespace, registry),
		provider:           NewProviderMetrics(cfg.Namespace, registry),
		lookup:             NewLookupMetrics(cfg.Namespace, registry),
		http:               NewHTTPMetrics(cfg.Namespace, registry),
		cardinalityLimiter: NewCardinalityLimiter(maxModelCardinality),
	}
}

// RecordGeneration records one generation attempt.
func (c *Collector) RecordGeneration(provider, model, fieldType string, success bool, errorKind string, duration time.Duration, tokens int) {
	if !c.config.Enabled {
		return
	}
	if !c.cardinalityLimiter.Allow(provider + "/" + model) {
		model = "other"
	}
	c.generation.Record(provider, model, fieldType, success, errorKind, duration, tokens)
}

// RecordModelDiscovery records a live model listing against a provider.
func (c *Collector) RecordModelDiscovery(provider string, success bool) {
	if !c.config.Enabled {
		return
	}
	c.provider.RecordDiscovery(provider, success)
	if !success {
		c.provider.UpdateHealth(provider, false)
	}
}

// RecordTemplateMatch records which tier served a template lookup.
func (c *Collector) RecordTemplateMatch(fieldType, tier string) {
	if !c.config.Enabled {
		return
	}
	c.lookup.RecordTemplateMatch(fieldType, tier)
}

// RecordConfigFallback records which tier served a configuration listing.
func (c *Collector) RecordConfigFallback(tier string) {
	if !c.config.Enabled {
		return
	}
	c.lookup.RecordConfigFallback(tier)
}

// RecordLogWrite records a generation log write.
func (c *Collector) RecordLogWrite(success bool) {
	if !c.config.Enabled {
		return
	}
	c.lookup.RecordLogWrite(success)
}

// UpdateProviderHealth sets the health gauge of a provider.
func (c *Collector) UpdateProviderHealth(provider string, healthy bool) {
	if !c.config.Enabled {
		return
	}
	c.provider.UpdateHealth(provider, healthy)
}

// RecordHTTPRequest records one API request. route is the mux pattern, not
// the raw path.
func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.http.Record(method, route, status, duration)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter caps the number of unique label sets it admits.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a limiter admitting at most maxCardinality
// distinct label sets.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether labelSet is already known or still fits.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[labelSet]; exists {
		return true
	}
	if len(cl.current) >= cl.maxCardinality {
		return false
	}
	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the number of admitted label sets.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
