package providers

import (
	"fmt"
	"strings"
	"time"
)

// ConfigError represents a configuration problem detected before any network
// call, such as a missing credential.
type ConfigError struct {
	// Provider is the name of the provider with invalid configuration
	Provider string

	// Field is the configuration field that is invalid
	Field string

	// Message describes the configuration error
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return e.Message
}

// ReachabilityError reports that a backend could not be reached.
type ReachabilityError struct {
	// Provider is the name of the unreachable provider
	Provider string

	// Endpoint is the base URL that was probed
	Endpoint string

	// Hint is remediation guidance appended to the message
	Hint string

	// Cause is the underlying transport error
	Cause error
}

// Error implements the error interface.
func (e *ReachabilityError) Error() string {
	msg := fmt.Sprintf("Cannot connect to %s at %s", e.Provider, e.Endpoint)
	if e.Hint != "" {
		msg += ". " + e.Hint
	}
	return msg
}

// Unwrap returns the underlying error for error chain support.
func (e *ReachabilityError) Unwrap() error {
	return e.Cause
}

// ModelNotFoundError represents an unknown model error.
// This occurs when a requested model is not available from the provider.
type ModelNotFoundError struct {
	// Provider is the name of the provider
	Provider string

	// Model is the requested model identifier
	Model string

	// Available lists the models the backend does offer, when known
	Available []string

	// Hint is remediation guidance, e.g. the exact pull command
	Hint string
}

// Error implements the error interface.
func (e *ModelNotFoundError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Model %q not found in %s.", e.Model, e.Provider)
	if len(e.Available) > 0 {
		fmt.Fprintf(&sb, " Available models: %s.", strings.Join(e.Available, ", "))
	} else if e.Available != nil {
		sb.WriteString(" No models are installed.")
	}
	if e.Hint != "" {
		sb.WriteString(" ")
		sb.WriteString(e.Hint)
	}
	return sb.String()
}

// UpstreamError represents a non-2xx response from a backend. Message carries
// the provider-supplied error text verbatim.
type UpstreamError struct {
	// Provider is the display name of the provider that returned the error
	Provider string

	// StatusCode is the HTTP status code
	StatusCode int

	// Message is the error message from the provider
	Message string
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s API error (%d): %s", e.Provider, e.StatusCode, e.Message)
}

// Retryable reports whether the status code is worth retrying. Only server
// errors are; 4xx responses are final.
func (e *UpstreamError) Retryable() bool {
	return e.StatusCode >= 500
}

// TimeoutError represents a request timeout.
type TimeoutError struct {
	// Provider is the name of the provider where the timeout occurred
	Provider string

	// Timeout is the configured timeout duration
	Timeout time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s request timed out after %s", e.Provider, e.Timeout)
}

// ParseError represents a response parsing failure.
// This occurs when the provider returns a malformed response.
type ParseError struct {
	// Provider is the name of the provider that returned the malformed response
	Provider string

	// RawResponse is the raw response body that failed to parse
	RawResponse string

	// Cause is the underlying parse error
	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s returned an unexpected response: %v", e.Provider, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// NetworkError represents a transport failure after all retries.
type NetworkError struct {
	Provider string
	Cause    error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.Provider, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *NetworkError) Unwrap() error {
	return e.Cause
}

// UnsupportedProviderError is returned for provider ids with no adapter.
type UnsupportedProviderError struct {
	Provider string
}

// Error implements the error interface.
func (e *UnsupportedProviderError) Error() string {
	return fmt.Sprintf("Unsupported AI provider: %q", e.Provider)
}

// MissingAPIKey builds the configuration error raised when a hosted provider
// is called without a credential.
func MissingAPIKey(displayName string) *ConfigError {
	return &ConfigError{
		Provider: displayName,
		Field:    "api_key",
		Message:  fmt.Sprintf("%s API key is required. Add your API key in the AI configuration settings.", displayName),
	}
}

// ErrorKind returns a short label for err used in metrics and logs.
func ErrorKind(err error) string {
	switch err.(type) {
	case nil:
		return ""
	case *ConfigError:
		return "config"
	case *ReachabilityError:
		return "unreachable"
	case *ModelNotFoundError:
		return "model_not_found"
	case *UpstreamError:
		return "upstream"
	case *TimeoutError:
		return "timeout"
	case *ParseError:
		return "parse"
	case *NetworkError:
		return "network"
	case *UnsupportedProviderError:
		return "unsupported_provider"
	default:
		return "other"
	}
}
