package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestReadiness(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]CheckFunc
		want   string
	}{
		{"no checks", nil, StatusReady},
		{"all ok", map[string]CheckFunc{
			"database": func(context.Context) error { return nil },
			"cache":    func(context.Context) error { return nil },
		}, StatusReady},
		{"one failing", map[string]CheckFunc{
			"database": func(context.Context) error { return nil },
			"cache":    func(context.Context) error { return errors.New("redis: connection refused") },
		}, StatusDegraded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(time.Second, "test")
			for name, check := range tt.checks {
				c.RegisterCheck(name, check)
			}
			report := c.Readiness(context.Background())
			if report.Status != tt.want {
				t.Errorf("status = %s, want %s", report.Status, tt.want)
			}
			if len(report.Checks) != len(tt.checks) {
				t.Errorf("got %d results", len(report.Checks))
			}
		})
	}
}

func TestReadiness_Timeout(t *testing.T) {
	c := New(20*time.Millisecond, "")
	c.RegisterCheck("slow", func(ctx context.Context) error {
		time.Sleep(time.Second)
		return nil
	})

	report := c.Readiness(context.Background())
	if report.Checks["slow"].Status != StatusUnhealthy {
		t.Errorf("slow check = %+v", report.Checks["slow"])
	}
}

func TestHandler(t *testing.T) {
	c := New(time.Second, "1.2.3")
	c.RegisterCheck("database", func(context.Context) error { return errors.New("closed") })

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	var report Report
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatal(err)
	}
	if report.Checks["database"].Message != "closed" || report.Version != "1.2.3" {
		t.Errorf("report = %+v", report)
	}

	rec = httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health?probe=live", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("liveness status = %d", rec.Code)
	}
	if names := c.Names(); len(names) != 1 || names[0] != "database" {
		t.Errorf("Names() = %v", names)
	}
}
