package monitoring

import (
	stderrors "errors"
	"sync"

	"go.uber.org/zap"

	"github.com/dietcompass/planner/internal/domain/shared"
)

// EventBus is an in-process EventDispatcher. Every event is logged, then
// handed to the handlers registered for its name in registration order.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[string][]shared.EventHandler
	logger   *zap.Logger
}

// NewEventBus creates an event bus
func NewEventBus(logger *zap.Logger) *EventBus {
	return &EventBus{
		handlers: make(map[string][]shared.EventHandler),
		logger:   logger.Named("events"),
	}
}

// Register adds a handler for eventName
func (b *EventBus) Register(eventName string, handler shared.EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventName] = append(b.handlers[eventName], handler)
}

// Dispatch runs every handler registered for the event. Handler errors are
// joined; a failing handler does not stop the others.
func (b *EventBus) Dispatch(event shared.DomainEvent) error {
	b.mu.RLock()
	handlers := b.handlers[event.EventName()]
	b.mu.RUnlock()

	b.logger.Info("Domain event",
		zap.String("event", event.EventName()),
		zap.Time("occurred_at", event.OccurredAt()),
		zap.Any("payload", event),
	)

	var errs []error
	for _, handler := range handlers {
		if err := handler(event); err != nil {
			b.logger.Warn("Event handler failed",
				zap.String("event", event.EventName()),
				zap.Error(err),
			)
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

var _ shared.EventDispatcher = (*EventBus)(nil)
