package genlog

import "fmt"

const (
	// DefaultLimit applies when a query sets no limit.
	DefaultLimit = 100

	// MaxLimit caps a single query.
	MaxLimit = 10000
)

// Validate checks query parameters.
func (q *Query) Validate() error {
	if q.Limit < 0 {
		return &QueryError{Cause: fmt.Errorf("limit must be >= 0, got %d", q.Limit)}
	}
	if q.Limit > MaxLimit {
		return &QueryError{Cause: fmt.Errorf("limit must be <= %d, got %d", MaxLimit, q.Limit)}
	}
	if q.Offset < 0 {
		return &QueryError{Cause: fmt.Errorf("offset must be >= 0, got %d", q.Offset)}
	}
	if q.SortOrder != "" && q.SortOrder != "asc" && q.SortOrder != "desc" {
		return &QueryError{Cause: fmt.Errorf("invalid sort order: %s (must be 'asc' or 'desc')", q.SortOrder)}
	}
	if q.StartTime != nil && q.EndTime != nil && q.StartTime.After(*q.EndTime) {
		return &QueryError{Cause: fmt.Errorf("start_time must be before end_time")}
	}
	if q.Status != "" && q.Status != StatusSuccess && q.Status != StatusError {
		return &QueryError{Cause: fmt.Errorf("invalid status: %s (must be 'success' or 'error')", q.Status)}
	}
	return nil
}

// ApplyDefaults fills the limit and sort order.
func (q *Query) ApplyDefaults() {
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	if q.SortOrder == "" {
		q.SortOrder = "desc"
	}
}
