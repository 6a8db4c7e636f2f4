package providerfactory

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"mercator-hq/scribe/pkg/providers"
)

// Manager is the lookup table of adapters keyed by provider id.
// It handles adapter lifecycle (creation, replacement, shutdown).
//
// Manager is thread-safe and can be used concurrently.
type Manager struct {
	adapters map[string]providers.Adapter
	mu       sync.RWMutex
}

// NewManager creates a new, empty adapter manager.
func NewManager() *Manager {
	return &Manager{
		adapters: make(map[string]providers.Adapter),
	}
}

// AddProvider creates an adapter from config and registers it under
// config.Name. An existing adapter with the same id is closed and replaced.
func (m *Manager) AddProvider(config providers.ProviderConfig) error {
	adapter, err := NewAdapter(config)
	if err != nil {
		return fmt.Errorf("failed to add provider %q: %w", config.Name, err)
	}
	m.Register(config.Name, adapter)
	return nil
}

// Register adds a ready-made adapter under id. Tests use it to inject fakes.
func (m *Manager) Register(id string, adapter providers.Adapter) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.adapters[id]; ok {
		slog.Warn("replacing existing provider", "name", id)
		_ = existing.Close()
	}
	m.adapters[id] = adapter

	slog.Debug("provider registered",
		"name", id,
		"family", adapter.Family(),
		"total_providers", len(m.adapters),
	)
}

// Adapter returns the adapter registered under id.
func (m *Manager) Adapter(id string) (providers.Adapter, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	adapter, ok := m.adapters[id]
	return adapter, ok
}

// IDs returns the registered provider ids in lexical order.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.adapters))
	for id := range m.adapters {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LoadFromConfig creates adapters for every configuration.
// Errors are collected and returned together; valid entries are still loaded.
func (m *Manager) LoadFromConfig(configs []providers.ProviderConfig) error {
	var errs []error

	for _, config := range configs {
		if err := m.AddProvider(config); err != nil {
			errs = append(errs, err)
			slog.Error("failed to load provider",
				"name", config.Name,
				"error", err,
			)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	slog.Info("providers loaded", "count", len(configs))
	return nil
}

// Close closes all adapters.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for id, adapter := range m.adapters {
		if err := adapter.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close provider %q: %w", id, err))
		}
	}
	m.adapters = make(map[string]providers.Adapter)

	return errors.Join(errs...)
}

// HealthSummary provides an overview of passive adapter health.
type HealthSummary struct {
	// Total is the total number of adapters
	Total int `json:"total"`

	// Healthy is the number of healthy adapters
	Healthy int `json:"healthy"`

	// Unhealthy is the number of unhealthy adapters
	Unhealthy int `json:"unhealthy"`

	// Details maps provider id to its health snapshot
	Details map[string]providers.ProviderHealth `json:"details"`
}

// GetHealthSummary returns a summary of adapter health.
func (m *Manager) GetHealthSummary() HealthSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summary := HealthSummary{
		Total:   len(m.adapters),
		Details: make(map[string]providers.ProviderHealth, len(m.adapters)),
	}
	for id, adapter := range m.adapters {
		health := adapter.Health()
		summary.Details[id] = health
		if health.IsHealthy {
			summary.Healthy++
		}
	}
	summary.Unhealthy = summary.Total - summary.Healthy

	return summary
}
