package settings

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryBackend is an in-process Backend.
type MemoryBackend struct {
	mu      sync.Mutex
	configs map[string]Configuration // keyed by id
	now     func() time.Time
}

// NewMemoryBackend creates an empty backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		configs: make(map[string]Configuration),
		now:     time.Now,
	}
}

// Upsert implements Backend.
func (m *MemoryBackend) Upsert(ctx context.Context, userID string, c Configuration) (Configuration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	for id, existing := range m.configs {
		if existing.UserID == userID && existing.Provider == c.Provider {
			existing.Model = c.Model
			existing.Endpoint = c.Endpoint
			existing.APIKey = c.APIKey
			existing.Temperature = c.Temperature
			existing.MaxTokens = c.MaxTokens
			existing.Active = c.Active
			existing.UpdatedAt = now
			m.configs[id] = existing
			return existing, nil
		}
	}

	c.ID = uuid.NewString()
	c.UserID = userID
	c.CreatedAt = now
	c.UpdatedAt = now
	m.configs[c.ID] = c
	return c, nil
}

// ListActive implements Backend.
func (m *MemoryBackend) ListActive(ctx context.Context, userID string) ([]Configuration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []Configuration{}
	for _, c := range m.configs {
		if c.UserID == userID && c.Active {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// Delete implements Backend.
func (m *MemoryBackend) Delete(ctx context.Context, userID, id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.configs[id]
	if !ok || c.UserID != userID {
		return 0, nil
	}
	delete(m.configs, id)
	return 1, nil
}
