package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"mercator-hq/scribe/pkg/settings"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes an API error.
type ErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Param   string `json:"param,omitempty"`
}

// Error types.
const (
	ErrorTypeInvalidRequest     = "invalid_request_error"
	ErrorTypeAuthentication     = "authentication_error"
	ErrorTypeNotFound           = "not_found"
	ErrorTypeRateLimit          = "rate_limit_error"
	ErrorTypeServerError        = "server_error"
	ErrorTypeServiceUnavailable = "service_unavailable"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, typ, message, param string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Message: message, Type: typ, Param: param}})
}

func badRequest(w http.ResponseWriter, message, param string) {
	writeError(w, http.StatusBadRequest, ErrorTypeInvalidRequest, message, param)
}

// writeSettingsError maps configuration store errors to HTTP statuses.
func writeSettingsError(w http.ResponseWriter, err error) {
	var storageErr *settings.StorageError
	switch {
	case errors.Is(err, settings.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, ErrorTypeAuthentication, "X-User-ID header is required", "")
	case errors.Is(err, settings.ErrInvalidConfiguration):
		badRequest(w, err.Error(), "")
	case errors.As(err, &storageErr):
		writeError(w, http.StatusServiceUnavailable, ErrorTypeServiceUnavailable, "configuration storage is unavailable", "")
	default:
		writeError(w, http.StatusInternalServerError, ErrorTypeServerError, "An internal error occurred. Please try again later.", "")
	}
}

// decode reads a JSON body, answering 400 or 413 itself on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrorTypeInvalidRequest, "request body too large", "")
			return false
		}
		badRequest(w, "invalid JSON body: "+err.Error(), "")
		return false
	}
	return true
}
