// Package telemetry groups Scribe's observability packages:
//
//   - logging: slog construction with credential redaction and request ids
//   - metrics: Prometheus collector for generations and lookups
//   - tracing: OpenTelemetry tracer exporting over OTLP/gRPC
//   - health: dependency checks behind /health
package telemetry
