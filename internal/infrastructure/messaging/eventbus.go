// Package messaging provides the in-process event bus. Domain events are
// published after storage commits and are informational: no business decision
// depends on a handler having run.
package messaging

import (
	"sync"

	"go.uber.org/zap"

	"github.com/course-hub/course-market-hub/internal/domain/shared"
)

// EventBus is an in-memory publish/subscribe bus for domain events.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[shared.EventType][]shared.EventHandler
	log      *zap.Logger
	async    bool
}

// Option configures the event bus.
type Option func(*EventBus)

// WithAsync makes Publish dispatch handlers in goroutines.
func WithAsync() Option {
	return func(b *EventBus) {
		b.async = true
	}
}

// WithLogger sets the bus logger.
func WithLogger(log *zap.Logger) Option {
	return func(b *EventBus) {
		if log != nil {
			b.log = log
		}
	}
}

// NewEventBus creates a new event bus.
func NewEventBus(opts ...Option) *EventBus {
	b := &EventBus{
		handlers: make(map[shared.EventType][]shared.EventHandler),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

var _ shared.EventPublisher = (*EventBus)(nil)

// Subscribe registers a handler for the given event type.
func (b *EventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Publish delivers the event to all subscribed handlers.
// A panicking handler is recovered and logged; it never takes down the caller.
func (b *EventBus) Publish(event shared.Event) error {
	b.mu.RLock()
	handlers := make([]shared.EventHandler, len(b.handlers[event.EventType()]))
	copy(handlers, b.handlers[event.EventType()])
	b.mu.RUnlock()

	if len(handlers) == 0 {
		return nil
	}

	b.log.Debug("publishing event",
		zap.String("event_type", string(event.EventType())),
		zap.String("aggregate_id", event.AggregateID()),
		zap.Int("handlers", len(handlers)),
	)

	for _, handler := range handlers {
		if b.async {
			go b.dispatch(handler, event)
		} else {
			b.dispatch(handler, event)
		}
	}
	return nil
}

func (b *EventBus) dispatch(handler shared.EventHandler, event shared.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event handler panicked",
				zap.String("event_type", string(event.EventType())),
				zap.Any("panic", r),
			)
		}
	}()
	handler(event)
}
