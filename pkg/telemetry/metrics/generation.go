package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Buckets sized for model latencies from sub-second local models to slow
// hosted completions.
var durationBuckets = []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120}

var tokenBuckets = []float64{10, 50, 100, 250, 500, 1000, 2000, 4000, 8000}

// GenerationMetrics tracks generation attempts.
//
// Metrics:
//   - scribe_generations_total: attempts by provider, model, field type, status
//   - scribe_generation_duration_seconds: attempt latency
//   - scribe_generation_tokens: tokens per successful attempt
//   - scribe_generation_errors_total: failures by provider and error kind
type GenerationMetrics struct {
	total    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	tokens   *prometheus.HistogramVec
	errors   *prometheus.CounterVec
}

// NewGenerationMetrics creates and registers generation metrics.
func NewGenerationMetrics(namespace string, registry *prometheus.Registry) *GenerationMetrics {
	gm := &GenerationMetrics{
		total: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generations_total",
				Help:      "Total number of content generation attempts",
			},
			[]string{"provider", "model", "field_type", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "generation_duration_seconds",
				Help:      "Duration of content generation attempts in seconds",
				Buckets:   durationBuckets,
			},
			[]string{"provider", "model"},
		),
		tokens: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "generation_tokens",
				Help:      "Tokens used per successful generation",
				Buckets:   tokenBuckets,
			},
			[]string{"provider", "model"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generation_errors_total",
				Help:      "Total number of failed generations by error kind",
			},
			[]string{"provider", "error_kind"},
		),
	}

	registry.MustRegister(gm.total, gm.duration, gm.tokens, gm.errors)
	return gm
}

// Record records one attempt.
func (gm *GenerationMetrics) Record(provider, model, fieldType string, success bool, errorKind string, duration time.Duration, tokens int) {
	gm.total.WithLabelValues(provider, model, fieldType, status(success)).Inc()
	gm.duration.WithLabelValues(provider, model).Observe(duration.Seconds())
	if success {
		gm.tokens.WithLabelValues(provider, model).Observe(float64(tokens))
		return
	}
	if errorKind == "" {
		errorKind = "other"
	}
	gm.errors.WithLabelValues(provider, errorKind).Inc()
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
