package tts

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/go-viper/mapstructure/v2"

	"github.com/AltairaLabs/cosyvoice-bridge/runtime/logger"
)

// Settings option keys, as persisted by the host and rendered in its UI.
const (
	SettingEndpoint  = "provider_endpoint"
	SettingFormat    = "format"
	SettingLanguage  = "language"
	SettingStreaming = "streaming"

	// legacyLanguageKey is the key older hosts persisted the language under.
	legacyLanguageKey = "lang"
)

// Default settings values.
const (
	DefaultEndpoint = "http://localhost:9880"
	DefaultFormat   = "wav"
	DefaultLanguage = "auto"
)

// Settings is the adapter configuration record.
//
// Format is not validated against SupportedFormats: an unsupported value is
// stored as given and only surfaces when the remote call fails.
type Settings struct {
	Endpoint  string `json:"provider_endpoint" mapstructure:"provider_endpoint" yaml:"provider_endpoint"`
	Format    string `json:"format" mapstructure:"format" yaml:"format"`
	Language  string `json:"language" mapstructure:"language" yaml:"language"`
	Streaming bool   `json:"streaming" mapstructure:"streaming" yaml:"streaming"`

	// Extra keeps persisted keys the adapter does not recognise so that they
	// survive a load/save round trip.
	Extra map[string]any `json:"-" mapstructure:"-" yaml:"-"`
}

// DefaultSettings returns the fixed default record.
func DefaultSettings() Settings {
	return Settings{
		Endpoint:  DefaultEndpoint,
		Format:    DefaultFormat,
		Language:  DefaultLanguage,
		Streaming: false,
	}
}

// knownSettingKeys lists the recognised option keys.
var knownSettingKeys = []string{SettingEndpoint, SettingFormat, SettingLanguage, SettingStreaming}

// SettingKey returns the canonical option key for field, mapping the legacy
// "lang" key to "language". The second result reports whether the field is a
// recognised option.
func SettingKey(field string) (string, bool) {
	if field == legacyLanguageKey {
		field = SettingLanguage
	}
	return field, isKnownSetting(field)
}

func isKnownSetting(key string) bool {
	for _, k := range knownSettingKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Map returns the record as a flat option map, including unrecognised keys.
func (s Settings) Map() map[string]any {
	out := make(map[string]any, len(knownSettingKeys)+len(s.Extra))
	maps.Copy(out, s.Extra)
	out[SettingEndpoint] = s.Endpoint
	out[SettingFormat] = s.Format
	out[SettingLanguage] = s.Language
	out[SettingStreaming] = s.Streaming
	return out
}

func (s Settings) clone() Settings {
	c := s
	if s.Extra != nil {
		c.Extra = maps.Clone(s.Extra)
	}
	return c
}

// decodeSetting decodes a single option onto s. Values are converted weakly,
// so "true" or 1 are accepted for a boolean.
func decodeSetting(s *Settings, key string, value any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           s,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	return dec.Decode(map[string]any{key: value})
}

// LoadSettings merges a persisted partial record over the defaults.
//
// An empty record yields the defaults. Otherwise every present key overrides
// its default (shallow merge). A value that cannot be converted to the
// field's type keeps the default and is logged.
func LoadSettings(persisted map[string]any) Settings {
	settings := DefaultSettings()
	if len(persisted) == 0 {
		return settings
	}

	for key, value := range persisted {
		if key == legacyLanguageKey {
			if _, hasCurrent := persisted[SettingLanguage]; hasCurrent {
				continue
			}
			key = SettingLanguage
		}

		if !isKnownSetting(key) {
			if settings.Extra == nil {
				settings.Extra = make(map[string]any)
			}
			settings.Extra[key] = value
			continue
		}

		if err := decodeSetting(&settings, key, value); err != nil {
			logger.Warn("Ignoring persisted TTS setting", "key", key, "error", err)
		}
	}

	return settings
}

// ChangeHook is called after a settings update has been applied and persisted.
type ChangeHook func(ctx context.Context, field string, settings Settings)

// SettingsStore owns the current Settings record.
// Reads return copies; writes replace the record wholesale.
type SettingsStore struct {
	mu        sync.RWMutex
	current   Settings
	provider  string
	persister SettingsPersister
	hooks     []ChangeHook
}

// NewSettingsStore creates a store holding the defaults. A nil persister
// disables the persistence side effect.
func NewSettingsStore(provider string, persister SettingsPersister) *SettingsStore {
	if persister == nil {
		persister = nopPersister{}
	}
	return &SettingsStore{
		current:   DefaultSettings(),
		provider:  provider,
		persister: persister,
	}
}

// Load replaces the current record with LoadSettings(persisted).
func (s *SettingsStore) Load(persisted map[string]any) Settings {
	loaded := LoadSettings(persisted)
	if len(persisted) == 0 {
		logger.Info("Using default TTS provider settings", "provider", s.provider)
	}

	s.mu.Lock()
	s.current = loaded
	s.mu.Unlock()

	return loaded.clone()
}

// Get returns a copy of the current record.
func (s *SettingsStore) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.clone()
}

// Map returns the current record as a flat option map.
func (s *SettingsStore) Map() map[string]any {
	return s.Get().Map()
}

// Endpoint returns the current endpoint URL.
func (s *SettingsStore) Endpoint() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Endpoint
}

// Streaming returns the current streaming flag.
func (s *SettingsStore) Streaming() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Streaming
}

// OnChange registers a hook run after every successful Update.
func (s *SettingsStore) OnChange(hook ChangeHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, hook)
}

// Update sets a single field and then persists the whole record through the
// host. The value is not validated against the supported sets. Unknown field
// names fail with ErrUnknownSetting. A persistence failure is returned, but
// the in-memory update is kept.
func (s *SettingsStore) Update(ctx context.Context, field string, value any) error {
	field, known := SettingKey(field)
	if !known {
		return fmt.Errorf("%w: %q", ErrUnknownSetting, field)
	}

	s.mu.Lock()
	next := s.current.clone()
	if err := decodeSetting(&next, field, value); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s: %v", ErrInvalidSettingValue, field, err)
	}
	s.current = next
	hooks := append([]ChangeHook(nil), s.hooks...)
	s.mu.Unlock()

	snapshot := next.clone()
	if err := s.persister.SaveSettings(ctx, s.provider, snapshot.Map()); err != nil {
		return fmt.Errorf("persist settings: %w", err)
	}

	for _, hook := range hooks {
		hook(ctx, field, snapshot)
	}
	return nil
}
