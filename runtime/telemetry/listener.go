package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AltairaLabs/cosyvoice-bridge/runtime/events"
)

// OTelEventListener turns catalog and readiness events into spans. Synthesis
// calls are traced inline by the tts package and are not duplicated here.
//
// Events arrive after the fact, so each span is back-dated by the event's
// duration and ended at the event timestamp.
type OTelEventListener struct {
	tracer trace.Tracer
}

// NewOTelEventListener creates a listener using tracer.
func NewOTelEventListener(tracer trace.Tracer) *OTelEventListener {
	return &OTelEventListener{tracer: tracer}
}

// OnEvent handles a single event. It can be passed to EventBus.SubscribeAll.
func (l *OTelEventListener) OnEvent(evt *events.Event) {
	//nolint:exhaustive // Only handling span-producing events
	switch evt.Type {
	case events.EventCatalogRefreshed:
		if data, ok := evt.Data.(*events.CatalogRefreshedData); ok {
			l.record(evt, "tts.catalog.refresh", data.Duration, nil,
				attribute.Int("tts.voices", data.VoiceCount))
		}
	case events.EventCatalogFailed:
		if data, ok := evt.Data.(*events.CatalogFailedData); ok {
			l.record(evt, "tts.catalog.refresh", data.Duration, data.Error)
		}
	case events.EventReadinessChecked:
		if data, ok := evt.Data.(*events.ReadinessCheckedData); ok {
			l.record(evt, "tts.check_ready", data.Duration, nil,
				attribute.Int("tts.voices", data.VoiceCount),
				attribute.Bool("tts.catalog_ok", data.CatalogError == nil),
				attribute.Bool("tts.settings_ok", data.SettingsError == nil),
			)
		}
	}
}

func (l *OTelEventListener) record(
	evt *events.Event, name string, d time.Duration, err error, attrs ...attribute.KeyValue,
) {
	end := evt.Timestamp
	if end.IsZero() {
		end = time.Now()
	}
	attrs = append(attrs, attribute.String("tts.provider", evt.Provider))

	_, span := l.tracer.Start(context.Background(), name,
		trace.WithTimestamp(end.Add(-d)),
		trace.WithAttributes(attrs...),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End(trace.WithTimestamp(end))
}
