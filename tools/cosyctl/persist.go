package main

import (
	"context"
	"maps"
	"sync"

	"github.com/AltairaLabs/cosyvoice-bridge/runtime/statestore"
	"github.com/AltairaLabs/cosyvoice-bridge/runtime/tts"
)

// newOverridePersister saves settings records without the environment and
// flag overrides. An overridden key keeps its previously persisted value, or
// stays absent, unless the record now holds a different value for it, i.e.
// the host changed that setting explicitly.
func newOverridePersister(store statestore.Store, persisted, overrides map[string]any) tts.SettingsPersister {
	var mu sync.Mutex
	base := maps.Clone(persisted)

	return tts.SettingsPersisterFunc(func(ctx context.Context, provider string, values map[string]any) error {
		mu.Lock()
		defer mu.Unlock()

		out := maps.Clone(values)
		for key, override := range overrides {
			if out[key] != override {
				continue
			}
			if prev, ok := base[key]; ok {
				out[key] = prev
			} else {
				delete(out, key)
			}
		}

		if err := store.SaveSettings(ctx, provider, out); err != nil {
			return err
		}
		base = out
		return nil
	})
}
