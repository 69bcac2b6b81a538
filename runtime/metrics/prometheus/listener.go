package prometheus

import (
	"github.com/AltairaLabs/cosyvoice-bridge/runtime/events"
)

// Status constants for metric labels.
const (
	statusSuccess = "success"
	statusError   = "error"
	statusOK      = "ok"
)

// MetricsListener records adapter events as Prometheus metrics.
// It implements the events.Listener signature and should be registered
// with an EventBus using SubscribeAll.
type MetricsListener struct{}

// NewMetricsListener creates a new MetricsListener.
func NewMetricsListener() *MetricsListener {
	return &MetricsListener{}
}

// Handle processes an event and records relevant metrics.
func (l *MetricsListener) Handle(event *events.Event) {
	//exhaustive:ignore
	switch event.Type {
	case events.EventSynthesisCompleted:
		l.handleSynthesisCompleted(event)
	case events.EventSynthesisFailed:
		l.handleSynthesisFailed(event)
	case events.EventCatalogRefreshed:
		l.handleCatalogRefreshed(event)
	case events.EventCatalogFailed:
		l.handleCatalogFailed(event)
	case events.EventReadinessChecked:
		l.handleReadinessChecked(event)
	case events.EventNotificationRaised:
		RecordNotification(event.Provider)
	case events.EventSettingsChanged:
		l.handleSettingsChanged(event)
	default:
		// Ignore events that don't have metrics
	}
}

func (l *MetricsListener) handleSynthesisCompleted(event *events.Event) {
	if data, ok := event.Data.(*events.SynthesisCompletedData); ok {
		RecordSynthesis(event.Provider, statusSuccess, data.StatusCode, data.Streaming, data.Duration.Seconds())
		if data.Emotion != "" {
			RecordEmotionTag(event.Provider)
		}
	}
}

func (l *MetricsListener) handleSynthesisFailed(event *events.Event) {
	if data, ok := event.Data.(*events.SynthesisFailedData); ok {
		RecordSynthesis(event.Provider, statusError, data.StatusCode, false, data.Duration.Seconds())
	}
}

func (l *MetricsListener) handleCatalogRefreshed(event *events.Event) {
	if data, ok := event.Data.(*events.CatalogRefreshedData); ok {
		RecordCatalogRefresh(event.Provider, statusSuccess, data.VoiceCount, data.Duration.Seconds())
	}
}

func (l *MetricsListener) handleCatalogFailed(event *events.Event) {
	if data, ok := event.Data.(*events.CatalogFailedData); ok {
		RecordCatalogRefresh(event.Provider, statusError, 0, data.Duration.Seconds())
	}
}

func (l *MetricsListener) handleReadinessChecked(event *events.Event) {
	if data, ok := event.Data.(*events.ReadinessCheckedData); ok {
		RecordReadinessCheck(event.Provider, data.CatalogError, data.SettingsError)
	}
}

func (l *MetricsListener) handleSettingsChanged(event *events.Event) {
	if data, ok := event.Data.(*events.SettingsChangedData); ok {
		RecordSettingsChange(event.Provider, data.Field)
	}
}

// Listener returns an events.Listener function that can be registered with an EventBus.
func (l *MetricsListener) Listener() events.Listener {
	return l.Handle
}
