package templates

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"mercator-hq/scribe/pkg/fields"
)

// MemoryStore is an in-process Store for tests and single-node setups
// without a database.
type MemoryStore struct {
	mu        sync.RWMutex
	templates map[string]Template
	now       func() time.Time
}

// NewMemoryStore creates a store preloaded with templates.
func NewMemoryStore(initial ...Template) *MemoryStore {
	s := &MemoryStore{
		templates: make(map[string]Template),
		now:       time.Now,
	}
	for _, t := range initial {
		_ = s.Upsert(context.Background(), t)
	}
	return s
}

// Candidates implements Store.
func (s *MemoryStore) Candidates(ctx context.Context, fieldType fields.FieldType) ([]Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Template
	for _, t := range s.templates {
		if t.Active && t.FieldType == fieldType {
			out = append(out, clone(t))
		}
	}
	sortCandidates(out)
	return out, nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, id string) (Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.templates[id]
	if !ok {
		return Template{}, ErrNotFound
	}
	return clone(t), nil
}

// List implements Store.
func (s *MemoryStore) List(ctx context.Context, filter Filter) ([]Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Template
	for _, t := range s.templates {
		if matches(t, filter) {
			out = append(out, clone(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FieldType != out[j].FieldType {
			return out[i].FieldType < out[j].FieldType
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// Upsert implements Store.
func (s *MemoryStore) Upsert(ctx context.Context, t Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if existing, ok := s.templates[t.ID]; ok {
		t.CreatedAt = existing.CreatedAt
	} else if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.Version == 0 {
		t.Version = 1
	}
	t.UpdatedAt = now
	s.templates[t.ID] = clone(t)
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}

func clone(t Template) Template {
	t.Variables = maps.Clone(t.Variables)
	return t
}

func matches(t Template, f Filter) bool {
	if f.ActiveOnly && !t.Active {
		return false
	}
	if f.FieldType != "" && t.FieldType != f.FieldType {
		return false
	}
	if f.Industry != "" && t.Industry != f.Industry {
		return false
	}
	if f.Framework != "" && t.Framework != f.Framework {
		return false
	}
	return true
}

// sortCandidates orders by default flag descending, then version descending.
// Id breaks remaining ties so the order is total.
func sortCandidates(ts []Template) {
	sort.SliceStable(ts, func(i, j int) bool {
		if ts[i].IsDefault != ts[j].IsDefault {
			return ts[i].IsDefault
		}
		if ts[i].Version != ts[j].Version {
			return ts[i].Version > ts[j].Version
		}
		return ts[i].ID < ts[j].ID
	})
}
