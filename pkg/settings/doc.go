// Package settings persists per-user AI provider configurations.
//
// Store.Save upserts by (user, provider), so saving twice for the same
// provider updates the existing row. Store.List never fails: it reads the
// backend for the authenticated user, falls back to the local cache when
// there is no user or the backend is unreachable, and finally synthesizes a
// single configuration for a local Ollama server.
//
// The user comes from the context (see WithUser). Backends scope every
// query to that user; on Postgres, row level security enforces the same
// predicate through the app.current_user_id session setting.
//
// Local caches never hold API keys.
package settings
