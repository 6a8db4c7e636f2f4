// Package metrics exposes Scribe's Prometheus metrics.
//
// A single Collector registers every metric under the configured namespace
// (default "scribe") and implements the small recorder interfaces other
// packages accept:
//
//   - generation.Observer: RecordGeneration
//   - registry.DiscoveryRecorder: RecordModelDiscovery
//   - templates.MatchRecorder: RecordTemplateMatch
//   - settings.FallbackRecorder: RecordConfigFallback
//   - genlog observers: RecordLogWrite
//
// When metrics are disabled in configuration every Record method is a no-op.
//
// Model names come from callers, so the model label is capped by a
// CardinalityLimiter; overflow is reported as model "other".
package metrics
