package storage

import (
	"context"
	"sort"
	"sync"

	"mercator-hq/scribe/pkg/genlog"
)

// MemoryStorage keeps entries in a map. Intended for tests and for running
// without a database.
type MemoryStorage struct {
	entries map[string]*genlog.Entry
	mu      sync.RWMutex
}

// NewMemoryStorage creates an empty in-memory backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{entries: make(map[string]*genlog.Entry)}
}

// Store implements genlog.Storage.
func (s *MemoryStorage) Store(ctx context.Context, entry *genlog.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *entry
	s.entries[entry.ID] = &cp
	return nil
}

// Query implements genlog.Storage.
func (s *MemoryStorage) Query(ctx context.Context, q *genlog.Query) ([]*genlog.Entry, error) {
	s.mu.RLock()
	results := []*genlog.Entry{}
	for _, e := range s.entries {
		if q.Matches(e) {
			cp := *e
			results = append(results, &cp)
		}
	}
	s.mu.RUnlock()

	asc := q.SortOrder == "asc"
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if asc {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.CreatedAt.After(b.CreatedAt)
		}
		if asc {
			return a.ID < b.ID
		}
		return a.ID > b.ID
	})

	start := q.Offset
	if start > len(results) {
		return []*genlog.Entry{}, nil
	}
	results = results[start:]
	if q.Limit > 0 && q.Limit < len(results) {
		results = results[:q.Limit]
	}
	return results, nil
}

// Count implements genlog.Storage.
func (s *MemoryStorage) Count(ctx context.Context, q *genlog.Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, e := range s.entries {
		if q.Matches(e) {
			n++
		}
	}
	return n, nil
}

// Delete implements genlog.Storage.
func (s *MemoryStorage) Delete(ctx context.Context, q *genlog.Query) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, e := range s.entries {
		if q.Matches(e) {
			delete(s.entries, id)
			n++
		}
	}
	return n, nil
}

// Close implements genlog.Storage.
func (s *MemoryStorage) Close() error {
	return nil
}
