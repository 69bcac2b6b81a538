package tts

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AltairaLabs/cosyvoice-bridge/runtime/events"
	"github.com/AltairaLabs/cosyvoice-bridge/runtime/logger"
)

// ReadinessReport is the outcome of a readiness check. A completed check
// does not imply that either step succeeded.
type ReadinessReport struct {
	// CatalogErr is the voice catalog refresh failure, if any.
	CatalogErr error

	// SettingsErr is the settings push failure, if any.
	SettingsErr error

	// Voices is the number of voices fetched by the refresh.
	Voices int

	// Duration is how long the check took.
	Duration time.Duration
}

// OK reports whether both steps succeeded.
func (r ReadinessReport) OK() bool {
	return r.CatalogErr == nil && r.SettingsErr == nil
}

type readyState struct {
	checked atomic.Bool
	mu      sync.RWMutex
	last    ReadinessReport
}

// CheckReady refreshes the voice catalog and pushes the settings
// concurrently and waits for both to settle. A failure in one step never
// cancels the other, and CheckReady itself never fails.
func (s *CosyVoiceService) CheckReady(ctx context.Context) ReadinessReport {
	ctx = logger.WithOperation(ctx, "check_ready")
	start := time.Now()

	var (
		wg     sync.WaitGroup
		report ReadinessReport
	)
	wg.Go(func() {
		report.CatalogErr = settle(func() error {
			voices, err := s.catalog.Refresh(ctx)
			report.Voices = len(voices)
			return err
		})
	})
	wg.Go(func() {
		report.SettingsErr = settle(func() error {
			return s.PushSettings(ctx)
		})
	})
	wg.Wait()

	report.Duration = time.Since(start)

	if report.CatalogErr != nil {
		logger.WarnContext(ctx, "Voice catalog refresh failed during readiness check", "error", report.CatalogErr)
	}
	if report.SettingsErr != nil {
		logger.WarnContext(ctx, "Settings push failed during readiness check", "error", report.SettingsErr)
	}

	s.ready.mu.Lock()
	s.ready.last = report
	s.ready.mu.Unlock()
	s.ready.checked.Store(true)

	s.emitter.ReadinessChecked(&events.ReadinessCheckedData{
		CatalogError:  report.CatalogErr,
		SettingsError: report.SettingsErr,
		VoiceCount:    report.Voices,
		Duration:      report.Duration,
	})

	return report
}

// settle runs fn, converting a panic into an error.
func settle(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

// Ready reports whether a readiness check has completed, and its report.
func (s *CosyVoiceService) Ready() (ReadinessReport, bool) {
	if !s.ready.checked.Load() {
		return ReadinessReport{}, false
	}
	s.ready.mu.RLock()
	defer s.ready.mu.RUnlock()
	return s.ready.last, true
}

// PushSettings hands the current settings to the configured pusher.
func (s *CosyVoiceService) PushSettings(ctx context.Context) error {
	if s.pusher == nil {
		return nil
	}
	return s.pusher(ctx, s.settings.Get())
}

// LoadSettings replaces the settings with the persisted record merged over
// the defaults and then runs a readiness check.
func (s *CosyVoiceService) LoadSettings(ctx context.Context, persisted map[string]any) ReadinessReport {
	s.settings.Load(persisted)
	report := s.CheckReady(ctx)
	logger.InfoContext(ctx, "TTS settings loaded", "provider", ProviderName, "voices", report.Voices)
	return report
}

// OnSettingsChange applies a single field update from the host UI, persists
// it and pushes the new settings.
func (s *CosyVoiceService) OnSettingsChange(ctx context.Context, field string, value any) error {
	if err := s.settings.Update(ctx, field, value); err != nil {
		return err
	}
	return s.PushSettings(ctx)
}
