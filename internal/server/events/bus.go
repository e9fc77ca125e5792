package events

import (
	"context"
	"log/slog"
	"sync"
)

// HandlerFunc is a function that handles an event.
type HandlerFunc func(ctx context.Context, event Event) error

// Bus is an asynchronous publish-subscribe hub. Handler errors and panics
// are logged and never reach the emitter.
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]handlerEntry
	stopped  bool
	wg       sync.WaitGroup
	log      *slog.Logger
}

type handlerEntry struct {
	name    string
	handler HandlerFunc
}

func NewBus(log *slog.Logger) *Bus {
	return &Bus{
		handlers: make(map[EventType][]handlerEntry),
		log:      log,
	}
}

// Subscribe registers a handler for an event type. The name is used in logs.
func (b *Bus) Subscribe(eventType EventType, name string, handler HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handlerEntry{
		name:    name,
		handler: handler,
	})

	b.log.Debug("subscribed to event", "event", eventType, "handler", name)
}

// Unsubscribe removes a named handler from an event type.
func (b *Bus) Unsubscribe(eventType EventType, name string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	handlers := b.handlers[eventType]
	filtered := make([]handlerEntry, 0, len(handlers))
	for _, h := range handlers {
		if h.name != name {
			filtered = append(filtered, h)
		}
	}
	b.handlers[eventType] = filtered
}

// Emit delivers event to every subscriber, each in its own goroutine.
// It never blocks on handlers.
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.stopped {
		return
	}

	for _, h := range b.handlers[event.Type] {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					b.log.Error("event handler panicked", "event", event.Type, "handler", h.name, "panic", r)
				}
			}()

			if err := h.handler(ctx, event); err != nil {
				b.log.Warn("event handler failed", "event", event.Type, "handler", h.name, "error", err)
			}
		}()
	}
}

// Stop rejects further events and waits for in-flight handlers.
func (b *Bus) Stop() {
	b.mu.Lock()
	b.stopped = true
	b.mu.Unlock()

	b.wg.Wait()
	b.log.Info("event bus stopped")
}

func (b *Bus) HandlerCount(eventType EventType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[eventType])
}
