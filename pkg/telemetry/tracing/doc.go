// Package tracing sets up OpenTelemetry for Scribe.
//
// New installs an SDK tracer provider exporting over OTLP/gRPC with a
// ParentBased sampler ("always", "never" or "ratio"). Packages create spans
// through otel.Tracer, so spans from the orchestrator and the provider HTTP
// client are exported once New has run:
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, version)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
// HTTPMiddleware continues incoming W3C traceparent headers and starts a
// server span per request.
package tracing
