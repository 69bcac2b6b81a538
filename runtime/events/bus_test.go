package events

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBusPublishesToSpecificAndGlobalListeners(t *testing.T) {
	t.Parallel()

	bus := NewEventBus()

	var mu sync.Mutex
	var received []EventType

	bus.Subscribe(EventCatalogRefreshed, func(e *Event) {
		mu.Lock()
		received = append(received, e.Type)
		mu.Unlock()
	})
	bus.SubscribeAll(func(e *Event) {
		mu.Lock()
		received = append(received, e.Type)
		mu.Unlock()
	})

	bus.Publish(&Event{Type: EventCatalogRefreshed})
	bus.Publish(&Event{Type: EventSynthesisFailed})
	bus.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, received, 3)
}

func TestEventBusRecoversFromPanic(t *testing.T) {
	t.Parallel()

	bus := NewEventBus()
	fired := make(chan struct{}, 1)

	bus.Subscribe(EventSynthesisFailed, func(*Event) {
		panic("listener panic")
	})
	bus.Subscribe(EventSynthesisFailed, func(*Event) {
		fired <- struct{}{}
	})

	bus.Publish(&Event{Type: EventSynthesisFailed})

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("listener after panic did not fire")
	}
}

func TestEventBusClear(t *testing.T) {
	t.Parallel()

	bus := NewEventBus()
	called := false
	bus.SubscribeAll(func(*Event) { called = true })
	bus.Clear()

	bus.Publish(&Event{Type: EventSettingsChanged})
	bus.Wait()
	assert.False(t, called)
}

func TestEmitter_NilIsSafe(t *testing.T) {
	t.Parallel()

	var e *Emitter
	assert.NotPanics(t, func() {
		e.CatalogRefreshed(3, time.Second)
		e.NotificationRaised("title", "msg")
	})
	assert.Nil(t, e.Bus())
}

func TestEmitter_PopulatesEvents(t *testing.T) {
	t.Parallel()

	bus := NewEventBus()
	emitter := NewEmitter(bus, "cosyvoice")

	var mu sync.Mutex
	var got []*Event
	bus.SubscribeAll(func(e *Event) {
		mu.Lock()
		got = append(got, e)
		mu.Unlock()
	})

	emitter.SynthesisFailed("req-1", &SynthesisFailedData{Voice: "alice", StatusCode: 500, Error: errors.New("x")})
	emitter.SettingsChanged("streaming", map[string]any{"streaming": true})
	bus.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 2)

	byType := map[EventType]*Event{}
	for _, e := range got {
		byType[e.Type] = e
	}

	failed := byType[EventSynthesisFailed]
	require.NotNil(t, failed)
	assert.Equal(t, "cosyvoice", failed.Provider)
	assert.Equal(t, "req-1", failed.RequestID)
	data, ok := failed.Data.(*SynthesisFailedData)
	require.True(t, ok)
	assert.Equal(t, 500, data.StatusCode)

	changed := byType[EventSettingsChanged]
	require.NotNil(t, changed)
	assert.False(t, changed.Timestamp.IsZero())
}
