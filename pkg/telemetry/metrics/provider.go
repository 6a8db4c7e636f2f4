package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ProviderMetrics tracks provider reachability.
//
// Metrics:
//   - scribe_provider_health: 1 when the provider's last request succeeded
//   - scribe_model_discovery_total: live model listings by outcome
type ProviderMetrics struct {
	health    *prometheus.GaugeVec
	discovery *prometheus.CounterVec
}

// NewProviderMetrics creates and registers provider metrics.
func NewProviderMetrics(namespace string, registry *prometheus.Registry) *ProviderMetrics {
	pm := &ProviderMetrics{
		health: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "provider_health",
				Help:      "Provider health status (1=healthy, 0=unhealthy)",
			},
			[]string{"provider"},
		),
		discovery: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "model_discovery_total",
				Help:      "Total number of live model listings by outcome",
			},
			[]string{"provider", "status"},
		),
	}

	registry.MustRegister(pm.health, pm.discovery)
	return pm
}

// UpdateHealth sets the health gauge.
func (pm *ProviderMetrics) UpdateHealth(provider string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	pm.health.WithLabelValues(provider).Set(value)
}

// RecordDiscovery counts a model listing.
func (pm *ProviderMetrics) RecordDiscovery(provider string, success bool) {
	pm.discovery.WithLabelValues(provider, status(success)).Inc()
}
