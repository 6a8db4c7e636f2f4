package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"mercator-hq/scribe/pkg/config"
)

func newTestCollector(enabled bool) *Collector {
	return NewCollector(&config.MetricsConfig{Enabled: enabled, Namespace: "test"}, prometheus.NewRegistry())
}

func TestCollector_RecordGeneration(t *testing.T) {
	c := newTestCollector(true)

	c.RecordGeneration("openai", "gpt-4o", "objectives", true, "", 1200*time.Millisecond, 150)
	c.RecordGeneration("openai", "gpt-4o", "objectives", true, "", 800*time.Millisecond, 90)
	c.RecordGeneration("ollama", "llama3.2", "scope", false, "unreachable", 10*time.Millisecond, 0)
	c.RecordGeneration("gemini", "gemini-1.5-flash", "scope", false, "", time.Second, 0)

	tests := []struct {
		name   string
		metric prometheus.Collector
		want   float64
	}{
		{"openai successes", c.generation.total.WithLabelValues("openai", "gpt-4o", "objectives", "success"), 2},
		{"ollama errors", c.generation.total.WithLabelValues("ollama", "llama3.2", "scope", "error"), 1},
		{"unreachable kind", c.generation.errors.WithLabelValues("ollama", "unreachable"), 1},
		{"empty kind becomes other", c.generation.errors.WithLabelValues("gemini", "other"), 1},
	}
	for _, tt := range tests {
		if got := testutil.ToFloat64(tt.metric); got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
		}
	}

	if n := testutil.CollectAndCount(c.generation.tokens); n != 1 {
		t.Errorf("token histograms = %d, want 1 (failures are not observed)", n)
	}
}

func TestCollector_Disabled(t *testing.T) {
	c := newTestCollector(false)

	c.RecordGeneration("openai", "gpt-4o", "scope", true, "", time.Second, 10)
	c.RecordModelDiscovery("ollama", true)
	c.RecordTemplateMatch("scope", "user")
	c.RecordConfigFallback("memory")
	c.RecordLogWrite(true)
	c.UpdateProviderHealth("openai", true)
	c.RecordHTTPRequest("GET", "/health", 200, time.Millisecond)

	if n := testutil.CollectAndCount(c.generation.total); n != 0 {
		t.Errorf("disabled collector recorded %d series", n)
	}
	if n := testutil.CollectAndCount(c.lookup.logWrites); n != 0 {
		t.Errorf("disabled collector recorded %d log writes", n)
	}
}

func TestCollector_Lookups(t *testing.T) {
	c := newTestCollector(true)

	c.RecordTemplateMatch("objectives", "user")
	c.RecordTemplateMatch("objectives", "user")
	c.RecordTemplateMatch("scope", "library")
	c.RecordConfigFallback("cache")
	c.RecordLogWrite(true)
	c.RecordLogWrite(false)

	if got := testutil.ToFloat64(c.lookup.templateMatches.WithLabelValues("objectives", "user")); got != 2 {
		t.Errorf("user template matches = %v", got)
	}
	if got := testutil.ToFloat64(c.lookup.configFallbacks.WithLabelValues("cache")); got != 1 {
		t.Errorf("cache fallbacks = %v", got)
	}
	if got := testutil.ToFloat64(c.lookup.logWrites.WithLabelValues("error")); got != 1 {
		t.Errorf("failed log writes = %v", got)
	}
}

func TestCollector_ProviderHealth(t *testing.T) {
	c := newTestCollector(true)

	c.UpdateProviderHealth("openai", true)
	if got := testutil.ToFloat64(c.provider.health.WithLabelValues("openai")); got != 1 {
		t.Errorf("health = %v, want 1", got)
	}

	c.RecordModelDiscovery("openai", false)
	if got := testutil.ToFloat64(c.provider.health.WithLabelValues("openai")); got != 0 {
		t.Errorf("health after failed discovery = %v, want 0", got)
	}
	if got := testutil.ToFloat64(c.provider.discovery.WithLabelValues("openai", "error")); got != 1 {
		t.Errorf("failed discoveries = %v", got)
	}
}

func TestCollector_ModelCardinality(t *testing.T) {
	c := newTestCollector(true)
	c.cardinalityLimiter = NewCardinalityLimiter(1)

	c.RecordGeneration("openai", "gpt-4o", "scope", true, "", time.Second, 1)
	c.RecordGeneration("openai", "custom-model-1", "scope", true, "", time.Second, 1)

	if got := testutil.ToFloat64(c.generation.total.WithLabelValues("openai", "other", "scope", "success")); got != 1 {
		t.Errorf("overflow model not folded into other: %v", got)
	}
}

func TestCardinalityLimiter(t *testing.T) {
	cl := NewCardinalityLimiter(2)
	for _, tt := range []struct {
		set  string
		want bool
	}{
		{"a", true},
		{"b", true},
		{"a", true},
		{"c", false},
	} {
		if got := cl.Allow(tt.set); got != tt.want {
			t.Errorf("Allow(%q) = %v, want %v", tt.set, got, tt.want)
		}
	}
	if cl.Count() != 2 {
		t.Errorf("Count() = %d", cl.Count())
	}
}

func TestHandler(t *testing.T) {
	c := newTestCollector(true)
	c.RecordHTTPRequest("POST", "POST /v1/generate", 200, 300*time.Millisecond)
	c.RecordLogWrite(true)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{"test_http_requests_total", "test_generation_log_writes_total"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("exposition missing %s", want)
		}
	}
}
