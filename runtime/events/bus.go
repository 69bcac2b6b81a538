// Package events provides a lightweight pub/sub event bus for adapter
// observability and host integration.
package events

import "sync"

// Listener is a function that handles events.
type Listener func(*Event)

// EventBus manages event distribution to listeners.
type EventBus struct {
	mu              sync.RWMutex
	listeners       map[EventType][]Listener
	globalListeners []Listener
	inflight        sync.WaitGroup
}

// NewEventBus creates a new event bus.
func NewEventBus() *EventBus {
	return &EventBus{
		listeners: make(map[EventType][]Listener),
	}
}

// Subscribe registers a listener for a specific event type.
func (eb *EventBus) Subscribe(eventType EventType, listener Listener) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.listeners[eventType] = append(eb.listeners[eventType], listener)
}

// SubscribeAll registers a listener for all event types.
func (eb *EventBus) SubscribeAll(listener Listener) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.globalListeners = append(eb.globalListeners, listener)
}

// Publish sends an event to all registered listeners asynchronously.
// Listeners for one event run sequentially, specific listeners first.
func (eb *EventBus) Publish(event *Event) {
	eb.mu.RLock()
	specific := append([]Listener(nil), eb.listeners[event.Type]...)
	global := append([]Listener(nil), eb.globalListeners...)
	eb.mu.RUnlock()

	if len(specific) == 0 && len(global) == 0 {
		return
	}

	eb.inflight.Add(1)
	go func() {
		defer eb.inflight.Done()
		for _, listener := range specific {
			safeInvoke(listener, event)
		}
		for _, listener := range global {
			safeInvoke(listener, event)
		}
	}()
}

// Wait blocks until every event published so far has been delivered.
func (eb *EventBus) Wait() {
	eb.inflight.Wait()
}

// Clear removes all listeners (primarily for tests).
func (eb *EventBus) Clear() {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.listeners = make(map[EventType][]Listener)
	eb.globalListeners = nil
}

func safeInvoke(listener Listener, event *Event) {
	defer func() { _ = recover() }()
	listener(event)
}
