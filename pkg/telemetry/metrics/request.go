package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics tracks API requests.
//
// Metrics:
//   - scribe_http_requests_total: requests by method, route and status code
//   - scribe_http_request_duration_seconds: request latency by route
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewHTTPMetrics creates and registers HTTP metrics.
func NewHTTPMetrics(namespace string, registry *prometheus.Registry) *HTTPMetrics {
	hm := &HTTPMetrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of API requests",
			},
			[]string{"method", "route", "code"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of API requests in seconds",
				Buckets:   durationBuckets,
			},
			[]string{"route"},
		),
	}

	registry.MustRegister(hm.requests, hm.duration)
	return hm
}

// Record records one request.
func (hm *HTTPMetrics) Record(method, route string, code int, duration time.Duration) {
	hm.requests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	hm.duration.WithLabelValues(route).Observe(duration.Seconds())
}
