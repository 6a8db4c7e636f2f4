// Package health aggregates dependency checks into the /health endpoint.
//
//	checker := health.New(5*time.Second, version)
//	checker.RegisterCheck("database", db.PingContext)
//	mux.Handle("GET /health", checker.Handler())
package health
