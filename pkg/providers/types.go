package providers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"mercator-hq/scribe/pkg/fields"
)

// Family identifies a provider protocol family.
type Family string

// Supported protocol families.
const (
	// FamilyOllama is the self-hosted, credential-free family.
	FamilyOllama Family = "ollama"

	// FamilyOpenAI speaks the chat-completions protocol with a bearer token.
	FamilyOpenAI Family = "openai"

	// FamilyAnthropic speaks the messages protocol with an x-api-key header.
	FamilyAnthropic Family = "anthropic"

	// FamilyGemini speaks the generateContent protocol with a key query parameter.
	FamilyGemini Family = "gemini"
)

// ProviderDescriptor describes one supported provider.
// Descriptors are immutable; WithModels returns a modified copy.
type ProviderDescriptor struct {
	// ID is the provider identity used in requests (e.g. "openai").
	ID string `json:"id"`

	// Name is the display name.
	Name string `json:"name"`

	// Family is the wire protocol family.
	Family Family `json:"family"`

	// Description is a human-readable summary.
	Description string `json:"description"`

	// RequiresAPIKey reports whether a credential is mandatory.
	RequiresAPIKey bool `json:"requires_api_key"`

	// Models is the ordered list of supported model names.
	Models []string `json:"models"`

	// DefaultModel is the model used when a request names none.
	DefaultModel string `json:"default_model"`

	// DefaultEndpoint is the conventional base URL of the provider.
	DefaultEndpoint string `json:"default_endpoint"`
}

// WithModels returns a copy of d with its model list replaced.
// The default model becomes the first listed model.
func (d ProviderDescriptor) WithModels(models []string) ProviderDescriptor {
	cp := d
	cp.Models = append([]string(nil), models...)
	if len(cp.Models) > 0 {
		cp.DefaultModel = cp.Models[0]
	}
	return cp
}

// HasModel reports whether model is in the descriptor's model list.
func (d ProviderDescriptor) HasModel(model string) bool {
	for _, m := range d.Models {
		if m == model {
			return true
		}
	}
	return false
}

// GenerationRequest is a provider-agnostic content generation request.
// It is transient and never persisted.
type GenerationRequest struct {
	// Provider is the target provider id.
	Provider string `json:"provider"`

	// Model is the target model. Adapters use the provider default when empty.
	Model string `json:"model,omitempty"`

	// Prompt is the final prompt. The prompt builder fills it when empty.
	Prompt string `json:"prompt,omitempty"`

	// Context is free-text context supplied by the caller.
	Context string `json:"context,omitempty"`

	// FieldType selects the piece of business content being generated.
	FieldType fields.FieldType `json:"field_type"`

	// Attributes is the loosely-typed bag of entity attributes
	// (title, audit_type, business_unit, scope, vendor_name, ...).
	Attributes map[string]any `json:"attributes,omitempty"`

	// TemplateID pins a specific template, bypassing specificity ranking.
	TemplateID string `json:"template_id,omitempty"`

	// Industry and Framework are optional template matching hints.
	Industry  string `json:"industry,omitempty"`
	Framework string `json:"framework,omitempty"`

	// Temperature overrides the sampling temperature when set.
	Temperature *float64 `json:"temperature,omitempty"`

	// MaxTokens overrides the maximum output length when set.
	MaxTokens *int `json:"max_tokens,omitempty"`

	// APIKey overrides the provider credential.
	APIKey string `json:"-"`

	// Endpoint overrides the provider base URL.
	Endpoint string `json:"endpoint,omitempty"`

	// UserID identifies the caller for the generation log.
	UserID string `json:"-"`
}

// Attribute returns the attribute under key rendered as a string, or "" when
// it is absent or empty.
func (r *GenerationRequest) Attribute(key string) string {
	if r == nil || r.Attributes == nil {
		return ""
	}
	v, ok := r.Attributes[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	case []string:
		return joinList(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, fmt.Sprint(item))
		}
		return joinList(parts)
	default:
		return fmt.Sprint(t)
	}
}

// Field returns the request field type. It is safe on a nil request.
func (r *GenerationRequest) Field() fields.FieldType {
	if r == nil {
		return ""
	}
	return r.FieldType
}

// TemperatureOr returns the request temperature or def when unset.
func (r *GenerationRequest) TemperatureOr(def float64) float64 {
	if r.Temperature != nil {
		return *r.Temperature
	}
	return def
}

// MaxTokensOr returns the request token limit or def when unset.
func (r *GenerationRequest) MaxTokensOr(def int) int {
	if r.MaxTokens != nil && *r.MaxTokens > 0 {
		return *r.MaxTokens
	}
	return def
}

func joinList(items []string) string {
	var buf bytes.Buffer
	for i, s := range items {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(s)
	}
	return buf.String()
}

// Content is the generated content: either a single text or, for list-shaped
// field types, an array of strings.
type Content struct {
	Text  string
	Items []string
}

// TextContent wraps a plain string.
func TextContent(s string) Content {
	return Content{Text: s}
}

// ListContent wraps a list of strings.
func ListContent(items []string) Content {
	if items == nil {
		items = []string{}
	}
	return Content{Items: items}
}

// IsList reports whether the content is an array.
func (c Content) IsList() bool {
	return c.Items != nil
}

// String renders the content as text. Lists are joined with newlines.
func (c Content) String() string {
	if !c.IsList() {
		return c.Text
	}
	var buf bytes.Buffer
	for i, item := range c.Items {
		if i > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(item)
	}
	return buf.String()
}

// MarshalJSON encodes the content as a JSON string or array.
func (c Content) MarshalJSON() ([]byte, error) {
	if c.IsList() {
		return json.Marshal(c.Items)
	}
	return json.Marshal(c.Text)
}

// UnmarshalJSON accepts either a JSON string or an array of strings.
func (c *Content) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []string
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		*c = ListContent(items)
		return nil
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return err
	}
	*c = TextContent(s)
	return nil
}

// GenerationResponse is the normalized result of a generation attempt.
type GenerationResponse struct {
	// Success reports whether content was generated.
	Success bool `json:"success"`

	// Content is the generated content. Empty on failure.
	Content Content `json:"content"`

	// Error carries an actionable message on failure.
	Error string `json:"error,omitempty"`

	// ErrorKind classifies the failure (see ErrorKind).
	ErrorKind string `json:"error_kind,omitempty"`

	// TokensUsed is the total token usage when the backend reports it.
	TokensUsed int `json:"tokens_used,omitempty"`

	// Model and Provider echo the identifiers used.
	Model    string `json:"model,omitempty"`
	Provider string `json:"provider,omitempty"`

	// Latency is the wall-clock duration of the backend call.
	Latency time.Duration `json:"-"`
}

// Failure builds a failed response for the given provider and model.
func Failure(provider, model string, err error) *GenerationResponse {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return &GenerationResponse{
		Success:   false,
		Error:     msg,
		ErrorKind: ErrorKind(err),
		Provider:  provider,
		Model:     model,
	}
}

// ProviderConfig contains transport configuration for one adapter instance.
type ProviderConfig struct {
	// Name is the provider identifier (e.g., "openai", "ollama").
	Name string

	// Family selects the wire protocol. It is inferred from Name when empty.
	Family Family

	// DisplayName is used in user-facing error messages (e.g., "OpenAI").
	DisplayName string

	// BaseURL is the API endpoint base URL.
	BaseURL string

	// APIKey is the fallback credential used when a request carries none.
	APIKey string

	// Timeout is the request timeout for generation calls.
	Timeout time.Duration

	// ProbeTimeout bounds reachability probes (self-hosted family only).
	ProbeTimeout time.Duration

	// MaxRetries is the number of retries for transient failures.
	MaxRetries int

	// RetryBackoff is the initial backoff between retries; it doubles per attempt.
	RetryBackoff time.Duration

	// VerifyModel enables the model presence check before generation
	// (self-hosted family only).
	VerifyModel bool

	// DefaultModel is used when a request names no model.
	DefaultModel string

	// DefaultTemperature and DefaultMaxTokens apply when a request carries
	// no sampling overrides.
	DefaultTemperature float64
	DefaultMaxTokens   int

	// MaxIdleConns is the maximum number of idle connections in the pool.
	MaxIdleConns int

	// MaxIdleConnsPerHost is the maximum idle connections per host.
	MaxIdleConnsPerHost int

	// IdleConnTimeout is how long an idle connection remains in the pool.
	IdleConnTimeout time.Duration
}

// ProviderHealth tracks the passive health of an adapter, updated by the
// outcome of each backend call.
type ProviderHealth struct {
	IsHealthy             bool      `json:"healthy"`
	LastCheck             time.Time `json:"last_check"`
	LastError             string    `json:"last_error,omitempty"`
	ConsecutiveFailures   int       `json:"consecutive_failures"`
	LastSuccessfulRequest time.Time `json:"last_successful_request"`
	TotalRequests         int64     `json:"total_requests"`
	FailedRequests        int64     `json:"failed_requests"`
}

// Succeeded builds a successful response.
func Succeeded(provider, model string, content Content, tokens int) *GenerationResponse {
	return &GenerationResponse{
		Success:    true,
		Content:    content,
		TokensUsed: tokens,
		Provider:   provider,
		Model:      model,
	}
}
