package genlog

import (
	"context"
	"io"
	"time"
)

// Entry is the audit record of one generation attempt.
type Entry struct {
	ID        string `json:"id"`
	RequestID string `json:"request_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`

	Provider  string `json:"provider"`
	Model     string `json:"model"`
	FieldType string `json:"field_type"`

	// PromptSource is where the prompt came from: caller, template or library.
	PromptSource string `json:"prompt_source,omitempty"`
	TemplateID   string `json:"template_id,omitempty"`

	Prompt     string `json:"prompt"`
	PromptHash string `json:"prompt_hash,omitempty"`
	Response   string `json:"response"`
	TokensUsed int    `json:"tokens_used"`

	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`

	Latency   time.Duration `json:"latency"`
	CreatedAt time.Time     `json:"created_at"`
}

// Status filters for Query.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Query filters generation log entries.
type Query struct {
	StartTime *time.Time `json:"start_time,omitempty"` // inclusive
	EndTime   *time.Time `json:"end_time,omitempty"`   // inclusive

	UserID    string `json:"user_id,omitempty"`
	Provider  string `json:"provider,omitempty"`
	Model     string `json:"model,omitempty"`
	FieldType string `json:"field_type,omitempty"`

	// Status is StatusSuccess, StatusError or empty for both.
	Status string `json:"status,omitempty"`

	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`

	// SortOrder orders by creation time: "asc" or "desc".
	SortOrder string `json:"sort_order,omitempty"`
}

// Matches reports whether e satisfies the filters of q, ignoring
// pagination.
func (q *Query) Matches(e *Entry) bool {
	if q.StartTime != nil && e.CreatedAt.Before(*q.StartTime) {
		return false
	}
	if q.EndTime != nil && e.CreatedAt.After(*q.EndTime) {
		return false
	}
	if q.UserID != "" && e.UserID != q.UserID {
		return false
	}
	if q.Provider != "" && e.Provider != q.Provider {
		return false
	}
	if q.Model != "" && e.Model != q.Model {
		return false
	}
	if q.FieldType != "" && e.FieldType != q.FieldType {
		return false
	}
	switch q.Status {
	case StatusSuccess:
		return e.Success
	case StatusError:
		return !e.Success
	}
	return true
}

// Storage is a generation log backend. Implementations must be safe for
// concurrent use.
type Storage interface {
	// Store appends an entry.
	Store(ctx context.Context, entry *Entry) error

	// Query returns entries matching q. An empty slice means no match.
	Query(ctx context.Context, q *Query) ([]*Entry, error)

	// Count returns the number of entries matching q.
	Count(ctx context.Context, q *Query) (int64, error)

	// Delete removes entries matching q and reports how many were removed.
	// Pagination fields are ignored.
	Delete(ctx context.Context, q *Query) (int64, error)

	// Close releases resources held by the backend.
	Close() error
}

// Exporter writes entries in some serialization format.
type Exporter interface {
	Export(ctx context.Context, entries []*Entry, w io.Writer) error
}
