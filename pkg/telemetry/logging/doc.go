// Package logging configures log/slog for Scribe.
//
// # Usage
//
//	logger, err := logging.Setup(logging.FromConfig(cfg.Telemetry.Logging))
//	if err != nil {
//	    return err
//	}
//
// Setup installs the logger as the slog default. Components derive their
// loggers from it with slog.Default().With("component", ...).
//
// # Redaction
//
// Values under credential-like keys (api_key, authorization, x-api-key, key,
// password, secret, token) are replaced with [REDACTED]. String values and
// errors are scanned for bearer tokens, sk- keys, Google API keys and key=
// query parameters, which are masked in place.
//
// # Context fields
//
// Records logged with InfoContext and friends carry request_id (set by
// WithRequestID in the HTTP middleware) and the active trace and span ids.
package logging
