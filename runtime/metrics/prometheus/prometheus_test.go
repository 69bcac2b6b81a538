package prometheus

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AltairaLabs/cosyvoice-bridge/runtime/events"
)

func TestRecordSynthesis(t *testing.T) {
	synthesisDuration.Reset()
	synthesisRequestsTotal.Reset()

	RecordSynthesis("cosyvoice", statusSuccess, 200, true, 0.4)
	RecordSynthesis("cosyvoice", statusSuccess, 200, true, 0.6)
	RecordSynthesis("cosyvoice", statusError, 0, false, 0.1)

	assert.Equal(t, 2.0, testutil.ToFloat64(synthesisRequestsTotal.WithLabelValues("cosyvoice", "success", "200", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(synthesisRequestsTotal.WithLabelValues("cosyvoice", "error", "none", "false")))
	assert.Equal(t, 2, testutil.CollectAndCount(synthesisDuration))
}

func TestRecordCatalogRefresh(t *testing.T) {
	catalogRefreshDuration.Reset()
	catalogVoices.Reset()

	RecordCatalogRefresh("cosyvoice", statusSuccess, 7, 0.05)
	RecordCatalogRefresh("cosyvoice", statusError, 0, 0.01)

	assert.Equal(t, 7.0, testutil.ToFloat64(catalogVoices.WithLabelValues("cosyvoice")))
}

func TestRecordReadinessCheck(t *testing.T) {
	readinessChecksTotal.Reset()

	RecordReadinessCheck("cosyvoice", errors.New("down"), nil)
	RecordReadinessCheck("cosyvoice", nil, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(readinessChecksTotal.WithLabelValues("cosyvoice", "error", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(readinessChecksTotal.WithLabelValues("cosyvoice", "ok", "ok")))
}

func TestMetricsListener_Handle(t *testing.T) {
	synthesisRequestsTotal.Reset()
	synthesisEmotionTagsTotal.Reset()
	notificationsTotal.Reset()
	settingsChangesTotal.Reset()
	catalogVoices.Reset()

	bus := events.NewEventBus()
	bus.SubscribeAll(NewMetricsListener().Listener())
	emitter := events.NewEmitter(bus, "cosyvoice")

	emitter.SynthesisCompleted("req-1", &events.SynthesisCompletedData{
		Voice: "alice", Emotion: "happy", StatusCode: 200, Duration: time.Second,
	})
	emitter.SynthesisFailed("req-2", &events.SynthesisFailedData{
		Voice: "alice", StatusCode: 500, Duration: time.Second,
	})
	emitter.NotificationRaised("TTS generation failed", "Internal Server Error")
	emitter.SettingsChanged("format", map[string]any{"format": "mp3"})
	emitter.CatalogRefreshed(3, time.Millisecond)
	bus.Wait()

	assert.Equal(t, 1.0, testutil.ToFloat64(synthesisRequestsTotal.WithLabelValues("cosyvoice", "success", "200", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(synthesisRequestsTotal.WithLabelValues("cosyvoice", "error", "500", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(synthesisEmotionTagsTotal.WithLabelValues("cosyvoice")))
	assert.Equal(t, 1.0, testutil.ToFloat64(notificationsTotal.WithLabelValues("cosyvoice")))
	assert.Equal(t, 1.0, testutil.ToFloat64(settingsChangesTotal.WithLabelValues("cosyvoice", "format")))
	assert.Equal(t, 3.0, testutil.ToFloat64(catalogVoices.WithLabelValues("cosyvoice")))
}

func TestMetricsListener_IgnoresMismatchedData(t *testing.T) {
	notificationsTotal.Reset()
	listener := NewMetricsListener()

	assert.NotPanics(t, func() {
		listener.Handle(&events.Event{Type: events.EventSynthesisCompleted})
		listener.Handle(&events.Event{Type: events.EventType("unknown")})
	})
}

func TestExporter_Handler(t *testing.T) {
	RecordNotification("cosyvoice")
	exporter := NewExporter(":0")

	server := httptest.NewServer(exporter.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "cosyvoice_notifications_total")
	assert.Contains(t, string(body), "go_goroutines")
}

func TestExporter_ServeStopsOnCancel(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	exporter := NewExporterWithRegistry(addr, prometheus.NewRegistry())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- exporter.Serve(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/health")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return strings.TrimSpace(string(body)) == "ok"
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
