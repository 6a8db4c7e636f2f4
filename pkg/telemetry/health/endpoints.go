package health

import (
	"encoding/json"
	"net/http"
)

// Handler serves the readiness report: 200 when every check passes, 503
// otherwise. "?probe=live" skips the checks.
func (c *Checker) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var report Report
		if r.URL.Query().Get("probe") == "live" {
			report = c.Liveness()
		} else {
			report = c.Readiness(r.Context())
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		if report.Status == StatusDegraded || report.Status == StatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		if r.Method != http.MethodHead {
			_ = json.NewEncoder(w).Encode(report)
		}
	}
}
