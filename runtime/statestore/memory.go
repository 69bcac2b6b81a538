package statestore

import (
	"context"
	"maps"
	"slices"
	"sync"
)

// MemoryStore provides an in-memory implementation of the Store interface.
// It is thread-safe and suitable for development, testing, and single-instance deployments.
type MemoryStore struct {
	mu       sync.RWMutex
	settings map[string]map[string]any
}

// NewMemoryStore creates a new in-memory settings store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		settings: make(map[string]map[string]any),
	}
}

// LoadSettings returns a copy of the persisted record.
func (s *MemoryStore) LoadSettings(_ context.Context, provider string) (map[string]any, error) {
	if provider == "" {
		return nil, ErrInvalidProvider
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	values, ok := s.settings[provider]
	if !ok {
		return nil, ErrNotFound
	}
	return maps.Clone(values), nil
}

// SaveSettings stores a copy of values.
func (s *MemoryStore) SaveSettings(_ context.Context, provider string, values map[string]any) error {
	if provider == "" {
		return ErrInvalidProvider
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := maps.Clone(values)
	if stored == nil {
		stored = map[string]any{}
	}
	s.settings[provider] = stored
	return nil
}

// DeleteSettings removes the record for provider.
func (s *MemoryStore) DeleteSettings(_ context.Context, provider string) error {
	if provider == "" {
		return ErrInvalidProvider
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.settings[provider]; !ok {
		return ErrNotFound
	}
	delete(s.settings, provider)
	return nil
}

// ListProviders returns the providers with a stored record.
func (s *MemoryStore) ListProviders(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.settings)), nil
}
