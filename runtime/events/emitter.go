package events

import "time"

// Emitter provides helpers for publishing adapter events with shared metadata.
// A nil *Emitter is valid and drops every event.
type Emitter struct {
	bus      *EventBus
	provider string
}

// NewEmitter creates a new event emitter.
func NewEmitter(bus *EventBus, provider string) *Emitter {
	return &Emitter{
		bus:      bus,
		provider: provider,
	}
}

// Bus returns the underlying bus.
func (e *Emitter) Bus() *EventBus {
	if e == nil {
		return nil
	}
	return e.bus
}

func (e *Emitter) emit(eventType EventType, requestID string, data EventData) {
	if e == nil || e.bus == nil {
		return
	}

	e.bus.Publish(&Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Provider:  e.provider,
		RequestID: requestID,
		Data:      data,
	})
}

// SettingsChanged emits the settings.changed event.
func (e *Emitter) SettingsChanged(field string, values map[string]any) {
	e.emit(EventSettingsChanged, "", &SettingsChangedData{Field: field, Values: values})
}

// CatalogRefreshed emits the catalog.refreshed event.
func (e *Emitter) CatalogRefreshed(voiceCount int, duration time.Duration) {
	e.emit(EventCatalogRefreshed, "", &CatalogRefreshedData{VoiceCount: voiceCount, Duration: duration})
}

// CatalogFailed emits the catalog.failed event.
func (e *Emitter) CatalogFailed(err error, duration time.Duration) {
	e.emit(EventCatalogFailed, "", &CatalogFailedData{Error: err, Duration: duration})
}

// SynthesisCompleted emits the synthesis.completed event.
func (e *Emitter) SynthesisCompleted(requestID string, data *SynthesisCompletedData) {
	e.emit(EventSynthesisCompleted, requestID, data)
}

// SynthesisFailed emits the synthesis.failed event.
func (e *Emitter) SynthesisFailed(requestID string, data *SynthesisFailedData) {
	e.emit(EventSynthesisFailed, requestID, data)
}

// ReadinessChecked emits the readiness.checked event.
func (e *Emitter) ReadinessChecked(data *ReadinessCheckedData) {
	e.emit(EventReadinessChecked, "", data)
}

// NotificationRaised emits the notification.raised event.
func (e *Emitter) NotificationRaised(title, message string) {
	e.emit(EventNotificationRaised, "", &NotificationRaisedData{Title: title, Message: message})
}
