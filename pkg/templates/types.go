package templates

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"mercator-hq/scribe/pkg/fields"
)

// ErrNotFound is returned when a template id does not exist.
var ErrNotFound = errors.New("template not found")

// Template is a persisted, parametrized prompt body matched to a field type
// and optionally an industry and a framework.
type Template struct {
	ID          string           `json:"id" yaml:"id"`
	Name        string           `json:"name" yaml:"name"`
	Description string           `json:"description,omitempty" yaml:"description,omitempty"`
	FieldType   fields.FieldType `json:"field_type" yaml:"field_type"`

	// Body contains {{placeholder}} tokens.
	Body string `json:"body" yaml:"body"`

	Industry  string `json:"industry,omitempty" yaml:"industry,omitempty"`
	Framework string `json:"framework,omitempty" yaml:"framework,omitempty"`

	// Variables holds default values for placeholders.
	Variables map[string]string `json:"variables,omitempty" yaml:"variables,omitempty"`

	Active    bool `json:"active" yaml:"-"`
	IsDefault bool `json:"is_default" yaml:"default"`

	// Version increases each time the body or matching tags change.
	Version int `json:"version" yaml:"-"`

	CreatedBy string    `json:"created_by,omitempty" yaml:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}

// Generic reports whether the template carries neither industry nor framework.
func (t *Template) Generic() bool {
	return normalizeTag(t.Industry) == "" && normalizeTag(t.Framework) == ""
}

// sameContent reports whether a and b would render the same prompt for the
// same matching hints.
func sameContent(a, b Template) bool {
	return a.Body == b.Body &&
		a.FieldType == b.FieldType &&
		a.Industry == b.Industry &&
		a.Framework == b.Framework &&
		maps.Equal(a.Variables, b.Variables)
}

// Validate checks required fields.
func (t *Template) Validate() error {
	switch {
	case t.ID == "":
		return fmt.Errorf("template id is required")
	case t.Body == "":
		return fmt.Errorf("template %s: body is required", t.ID)
	case !t.FieldType.Valid():
		return fmt.Errorf("template %s: unknown field type %q", t.ID, t.FieldType)
	}
	return nil
}

// Filter narrows template listings. Empty fields match everything.
type Filter struct {
	FieldType  fields.FieldType
	Industry   string
	Framework  string
	ActiveOnly bool
}

// Store is the template persistence boundary.
type Store interface {
	// Candidates returns the active templates for fieldType ordered by
	// default flag descending, then version descending.
	Candidates(ctx context.Context, fieldType fields.FieldType) ([]Template, error)

	// Get returns the template with id, or ErrNotFound.
	Get(ctx context.Context, id string) (Template, error)

	// List returns templates matching filter ordered by field type, then name.
	List(ctx context.Context, filter Filter) ([]Template, error)

	// Upsert inserts or replaces a template by id.
	Upsert(ctx context.Context, t Template) error

	// Close releases resources held by the store.
	Close() error
}

// StoreError wraps a persistence failure.
type StoreError struct {
	Backend   string
	Operation string
	Cause     error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("template store %s: %s failed: %v", e.Backend, e.Operation, e.Cause)
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}
