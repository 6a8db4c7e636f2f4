package providers

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func testProvider(url string, retries int) *HTTPProvider {
	return NewHTTPProvider(ProviderConfig{
		Name:         "test-provider",
		DisplayName:  "Test",
		BaseURL:      url,
		Timeout:      5 * time.Second,
		MaxRetries:   retries,
		RetryBackoff: time.Millisecond,
	})
}

func TestHTTPProvider_RetryOn5xx(t *testing.T) {
	attemptCount := int32(0)

	// Fails twice with 500, then succeeds
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count := atomic.AddInt32(&attemptCount, 1)
		if count <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error": "internal server error"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"message": "success"}`))
	}))
	defer server.Close()

	provider := testProvider(server.URL, 3)

	var out struct {
		Message string `json:"message"`
	}
	err := provider.DoJSONRequest(context.Background(), Call{
		Method: http.MethodPost,
		URL:    server.URL + "/test",
		Body:   map[string]bool{"test": true},
	}, &out)
	if err != nil {
		t.Fatalf("expected request to succeed after retries, got error: %v", err)
	}
	if out.Message != "success" {
		t.Errorf("expected message %q, got %q", "success", out.Message)
	}

	if got := atomic.LoadInt32(&attemptCount); got != 3 {
		t.Errorf("expected 3 attempts (2 retries), got %d", got)
	}
	if !provider.Health().IsHealthy {
		t.Error("expected provider to be healthy after successful retry")
	}
}

func TestHTTPProvider_NoRetryOn4xx(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantMsg    string
	}{
		{
			name:       "400 bad request",
			statusCode: http.StatusBadRequest,
			body:       `{"error": {"message": "max_tokens too large"}}`,
			wantMsg:    "max_tokens too large",
		},
		{
			name:       "401 unauthorized",
			statusCode: http.StatusUnauthorized,
			body:       `{"error": {"message": "Invalid API key"}}`,
			wantMsg:    "Invalid API key",
		},
		{
			name:       "404 flat error",
			statusCode: http.StatusNotFound,
			body:       `{"error": "model not found"}`,
			wantMsg:    "model not found",
		},
		{
			name:       "403 plain text",
			statusCode: http.StatusForbidden,
			body:       "forbidden",
			wantMsg:    "forbidden",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attemptCount := int32(0)
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&attemptCount, 1)
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			provider := testProvider(server.URL, 3)
			_, err := provider.DoRequest(context.Background(), Call{Method: http.MethodPost, URL: server.URL})

			var upstream *UpstreamError
			if !errors.As(err, &upstream) {
				t.Fatalf("expected UpstreamError, got %T: %v", err, err)
			}
			if upstream.StatusCode != tt.statusCode {
				t.Errorf("expected status %d, got %d", tt.statusCode, upstream.StatusCode)
			}
			if upstream.Message != tt.wantMsg {
				t.Errorf("expected message %q, got %q", tt.wantMsg, upstream.Message)
			}
			if got := atomic.LoadInt32(&attemptCount); got != 1 {
				t.Errorf("expected 1 attempt (no retries for 4xx), got %d", got)
			}
		})
	}
}

func TestHTTPProvider_MaxRetries(t *testing.T) {
	attemptCount := int32(0)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attemptCount, 1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "overloaded"}}`))
	}))
	defer server.Close()

	provider := testProvider(server.URL, 2)
	_, err := provider.DoRequest(context.Background(), Call{Method: http.MethodGet, URL: server.URL})
	if err == nil {
		t.Fatal("expected error after max retries exceeded")
	}

	if got := atomic.LoadInt32(&attemptCount); got != 3 {
		t.Errorf("expected 3 attempts (initial + 2 retries), got %d", got)
	}

	health := provider.Health()
	if health.ConsecutiveFailures != 1 {
		t.Errorf("expected 1 consecutive failure, got %d", health.ConsecutiveFailures)
	}
	if health.LastError == "" {
		t.Error("expected last error to be recorded")
	}
}

func TestHTTPProvider_NoRetryFlag(t *testing.T) {
	attemptCount := int32(0)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attemptCount, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	provider := testProvider(server.URL, 3)
	_, _ = provider.DoRequest(context.Background(), Call{Method: http.MethodGet, URL: server.URL, NoRetry: true})

	if got := atomic.LoadInt32(&attemptCount); got != 1 {
		t.Errorf("expected 1 attempt, got %d", got)
	}
}

func TestHTTPProvider_RetryWarningOnlyWhenRetrying(t *testing.T) {
	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	tests := []struct {
		name     string
		retries  int
		noRetry  bool
		warnings int
	}{
		{"no retry flag", 3, true, 0},
		{"zero retries", 0, false, 0},
		{"two retries", 2, false, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs.Reset()
			provider := testProvider(server.URL, tt.retries)
			_, _ = provider.DoRequest(context.Background(), Call{Method: http.MethodGet, URL: server.URL, NoRetry: tt.noRetry})

			if got := strings.Count(logs.String(), "will retry"); got != tt.warnings {
				t.Errorf("expected %d retry warnings, got %d:\n%s", tt.warnings, got, logs.String())
			}
		})
	}
}

func TestHTTPProvider_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	provider := testProvider(server.URL, 0)
	_, err := provider.DoRequest(context.Background(), Call{
		Method:  http.MethodGet,
		URL:     server.URL,
		Timeout: 50 * time.Millisecond,
	})

	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("expected TimeoutError, got %T: %v", err, err)
	}
	if timeoutErr.Timeout != 50*time.Millisecond {
		t.Errorf("expected timeout 50ms, got %s", timeoutErr.Timeout)
	}
}

func TestHTTPProvider_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	provider := testProvider(url, 1)
	_, err := provider.DoRequest(context.Background(), Call{Method: http.MethodGet, URL: url})

	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %T: %v", err, err)
	}
}

func TestHTTPProvider_ParseError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	provider := testProvider(server.URL, 0)
	var out map[string]any
	err := provider.DoJSONRequest(context.Background(), Call{Method: http.MethodGet, URL: server.URL}, &out)

	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %T: %v", err, err)
	}
	if parseErr.RawResponse != "not json" {
		t.Errorf("expected raw response to be kept, got %q", parseErr.RawResponse)
	}
}

func TestHTTPProvider_CircuitBreaker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	provider := testProvider(server.URL, 0)
	for i := 0; i < 3; i++ {
		_, _ = provider.DoRequest(context.Background(), Call{Method: http.MethodGet, URL: server.URL})
	}

	health := provider.Health()
	if health.IsHealthy {
		t.Error("expected provider to be unhealthy after 3 failures")
	}
	if health.TotalRequests != 3 || health.FailedRequests != 3 {
		t.Errorf("expected 3/3 failed requests, got %d/%d", health.FailedRequests, health.TotalRequests)
	}
}

func TestResolveBaseURL(t *testing.T) {
	provider := testProvider("https://api.example.com/", 0)

	if got := provider.ResolveBaseURL(""); got != "https://api.example.com" {
		t.Errorf("expected configured URL, got %q", got)
	}
	if got := provider.ResolveBaseURL("http://override:1234/"); got != "http://override:1234" {
		t.Errorf("expected override URL, got %q", got)
	}
}

func TestRedactURL(t *testing.T) {
	got := redactURL("https://host/v1beta/models/x:generateContent?key=secret")
	if got != "https://host/v1beta/models/x:generateContent?[redacted]" {
		t.Errorf("unexpected redaction: %q", got)
	}
}

func TestHTTPProvider_Effective(t *testing.T) {
	provider := NewHTTPProvider(ProviderConfig{
		Name:               "openai",
		BaseURL:            "https://api.openai.com",
		APIKey:             "configured",
		DefaultModel:       "gpt-4o-mini",
		DefaultTemperature: 0.7,
	})

	eff := provider.Effective(nil)
	if eff.Model != "gpt-4o-mini" || eff.APIKey != "configured" || eff.MaxTokens != 2000 || eff.Temperature != 0.7 {
		t.Errorf("unexpected defaults %+v", eff)
	}

	temp := 0.1
	eff = provider.Effective(&GenerationRequest{
		Model:       "gpt-4o",
		APIKey:      "override",
		Endpoint:    "http://proxy.local/",
		Temperature: &temp,
	})
	if eff.Model != "gpt-4o" || eff.APIKey != "override" || eff.BaseURL != "http://proxy.local" || eff.Temperature != 0.1 {
		t.Errorf("unexpected overrides %+v", eff)
	}
}
