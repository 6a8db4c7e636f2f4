package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// LookupMetrics tracks the stores behind a generation: template and
// configuration tiers and generation log writes.
type LookupMetrics struct {
	templateMatches *prometheus.CounterVec
	configFallbacks *prometheus.CounterVec
	logWrites       *prometheus.CounterVec
}

// NewLookupMetrics creates and registers lookup metrics.
func NewLookupMetrics(namespace string, registry *prometheus.Registry) *LookupMetrics {
	lm := &LookupMetrics{
		templateMatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "template_matches_total",
				Help:      "Template lookups by field type and serving tier",
			},
			[]string{"field_type", "tier"},
		),
		configFallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_lookups_total",
				Help:      "Configuration listings by serving tier",
			},
			[]string{"tier"},
		),
		logWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generation_log_writes_total",
				Help:      "Generation log writes by outcome",
			},
			[]string{"status"},
		),
	}

	registry.MustRegister(lm.templateMatches, lm.configFallbacks, lm.logWrites)
	return lm
}

// RecordTemplateMatch counts a template lookup.
func (lm *LookupMetrics) RecordTemplateMatch(fieldType, tier string) {
	lm.templateMatches.WithLabelValues(fieldType, tier).Inc()
}

// RecordConfigFallback counts a configuration listing.
func (lm *LookupMetrics) RecordConfigFallback(tier string) {
	lm.configFallbacks.WithLabelValues(tier).Inc()
}

// RecordLogWrite counts a log write.
func (lm *LookupMetrics) RecordLogWrite(success bool) {
	lm.logWrites.WithLabelValues(status(success)).Inc()
}
