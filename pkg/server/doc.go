// Package server exposes Scribe over a JSON HTTP API.
//
// Routes:
//
//	POST   /v1/generate              generate one field
//	POST   /v1/generate/batch        generate several fields concurrently
//	POST   /v1/connection-test       minimal generation to verify a provider
//	GET    /v1/providers             provider catalog
//	GET    /v1/providers/{id}        one provider; ?live=true&endpoint= lists installed models
//	GET    /v1/configurations        the caller's saved provider settings
//	POST   /v1/configurations        create or update a provider setting
//	DELETE /v1/configurations/{id}   delete a provider setting
//	GET    /v1/templates/resolve     preview template selection for a field type
//	GET    /v1/field-types           field type catalog, ?category= filters
//	GET    /health                   dependency checks
//	GET    /metrics                  Prometheus exposition
//
// Generation endpoints answer 200 even when the provider failed; the body
// carries success=false and an actionable error. Other errors use
//
//	{"error": {"message": "...", "type": "invalid_request_error"}}
//
// The caller identity is taken from X-User-ID. Scribe sits behind the
// application's authentication layer and trusts that header.
package server
