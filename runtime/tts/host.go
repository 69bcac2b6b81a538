package tts

import (
	"context"

	"github.com/AltairaLabs/cosyvoice-bridge/runtime/logger"
)

// SettingsPersister is the host-provided persistence side effect invoked after
// every settings change.
type SettingsPersister interface {
	SaveSettings(ctx context.Context, provider string, values map[string]any) error
}

// SettingsPersisterFunc adapts a function to SettingsPersister.
type SettingsPersisterFunc func(ctx context.Context, provider string, values map[string]any) error

// SaveSettings calls f.
func (f SettingsPersisterFunc) SaveSettings(ctx context.Context, provider string, values map[string]any) error {
	return f(ctx, provider, values)
}

// Notifier is the host-provided user-facing error display (a toast or similar).
type Notifier interface {
	NotifyError(ctx context.Context, title, message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, title, message string)

// NotifyError calls f.
func (f NotifierFunc) NotifyError(ctx context.Context, title, message string) {
	f(ctx, title, message)
}

// LogNotifier is the default Notifier; it writes notifications to the log.
type LogNotifier struct{}

// NotifyError logs the notification at warn level.
func (LogNotifier) NotifyError(ctx context.Context, title, message string) {
	logger.WarnContext(ctx, "TTS notification", "title", title, "message", message)
}

type nopPersister struct{}

func (nopPersister) SaveSettings(context.Context, string, map[string]any) error { return nil }
