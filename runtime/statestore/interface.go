// Package statestore provides persistence backends for provider settings.
package statestore

import (
	"context"
	"errors"
)

// Store persists the flat settings record of each TTS provider.
// Implementations satisfy tts.SettingsPersister.
type Store interface {
	// LoadSettings returns the persisted record for provider.
	// Returns ErrNotFound if nothing was saved.
	LoadSettings(ctx context.Context, provider string) (map[string]any, error)

	// SaveSettings replaces the persisted record for provider.
	SaveSettings(ctx context.Context, provider string, values map[string]any) error

	// DeleteSettings removes the persisted record for provider.
	DeleteSettings(ctx context.Context, provider string) error

	// ListProviders returns the providers with a persisted record, sorted.
	ListProviders(ctx context.Context) ([]string, error)
}

// ErrNotFound is returned when no settings were persisted for a provider.
var ErrNotFound = errors.New("settings not found")

// ErrInvalidProvider is returned for an empty provider name.
var ErrInvalidProvider = errors.New("invalid provider name")

// LoadOrEmpty returns the persisted record, or an empty record when nothing
// was saved yet.
func LoadOrEmpty(ctx context.Context, store Store, provider string) (map[string]any, error) {
	values, err := store.LoadSettings(ctx, provider)
	if errors.Is(err, ErrNotFound) {
		return map[string]any{}, nil
	}
	return values, err
}
