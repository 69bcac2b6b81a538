package events

import "time"

// EventType identifies the type of event emitted by the adapter.
type EventType string

const (
	// EventSettingsChanged marks a settings update.
	EventSettingsChanged EventType = "settings.changed"

	// EventCatalogRefreshed marks a successful speaker-list fetch.
	EventCatalogRefreshed EventType = "catalog.refreshed"
	// EventCatalogFailed marks a failed speaker-list fetch.
	EventCatalogFailed EventType = "catalog.failed"

	// EventSynthesisCompleted marks a synthesis call that returned 2xx.
	EventSynthesisCompleted EventType = "synthesis.completed"
	// EventSynthesisFailed marks a synthesis call that failed.
	EventSynthesisFailed EventType = "synthesis.failed"

	// EventReadinessChecked marks the end of a readiness check.
	EventReadinessChecked EventType = "readiness.checked"

	// EventNotificationRaised marks a user-facing notification.
	EventNotificationRaised EventType = "notification.raised"
)

// EventData is a marker interface for event payloads.
type EventData interface {
	eventData()
}

// Event represents a single adapter event.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Provider  string
	RequestID string
	Data      EventData
}

type baseEventData struct{}

func (baseEventData) eventData() {}

// SettingsChangedData contains data for settings change events.
type SettingsChangedData struct {
	baseEventData
	Field  string
	Values map[string]any
}

// CatalogRefreshedData contains data for catalog refresh events.
type CatalogRefreshedData struct {
	baseEventData
	VoiceCount int
	Duration   time.Duration
}

// CatalogFailedData contains data for catalog failure events.
type CatalogFailedData struct {
	baseEventData
	Error    error
	Duration time.Duration
}

// SynthesisCompletedData contains data for successful synthesis events.
type SynthesisCompletedData struct {
	baseEventData
	Voice       string
	Speaker     string
	Emotion     string
	Streaming   bool
	StatusCode  int
	ContentType string
	Duration    time.Duration
}

// SynthesisFailedData contains data for failed synthesis events.
type SynthesisFailedData struct {
	baseEventData
	Voice      string
	StatusCode int
	Error      error
	Duration   time.Duration
}

// ReadinessCheckedData contains data for readiness events.
type ReadinessCheckedData struct {
	baseEventData
	CatalogError  error
	SettingsError error
	VoiceCount    int
	Duration      time.Duration
}

// NotificationRaisedData contains data for user-facing notifications.
type NotificationRaisedData struct {
	baseEventData
	Title   string
	Message string
}
