package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/phrazzld/verbdrill/internal/platform/logger"
	"github.com/phrazzld/verbdrill/internal/redact"
)

// InMemoryEventEmitter dispatches events synchronously to handlers registered
// in process. A handler either receives every event or only the types it
// subscribed to.
type InMemoryEventEmitter struct {
	mu     sync.RWMutex
	all    []EventHandler
	byType map[string][]EventHandler
	logger *slog.Logger
}

var _ EventEmitter = (*InMemoryEventEmitter)(nil)

// NewInMemoryEventEmitter creates an emitter with no handlers.
// If logger is nil, the default logger is used.
func NewInMemoryEventEmitter(log *slog.Logger) *InMemoryEventEmitter {
	if log == nil {
		log = slog.Default()
	}
	return &InMemoryEventEmitter{
		byType: make(map[string][]EventHandler),
		logger: log.With(slog.String("component", "event_emitter")),
	}
}

// RegisterHandler adds a handler that receives every event.
func (e *InMemoryEventEmitter) RegisterHandler(handler EventHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.all = append(e.all, handler)
}

// Subscribe adds a handler that only receives events of the given types.
func (e *InMemoryEventEmitter) Subscribe(handler EventHandler, eventTypes ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, t := range eventTypes {
		e.byType[t] = append(e.byType[t], handler)
	}
}

func (e *InMemoryEventEmitter) handlersFor(eventType string) []EventHandler {
	e.mu.RLock()
	defer e.mu.RUnlock()
	handlers := make([]EventHandler, 0, len(e.all)+len(e.byType[eventType]))
	handlers = append(handlers, e.all...)
	return append(handlers, e.byType[eventType]...)
}

// EmitEvent delivers event to every matching handler, even when some fail.
// The returned error joins all handler failures.
func (e *InMemoryEventEmitter) EmitEvent(ctx context.Context, event *Event) error {
	log := logger.FromContextOrDefault(ctx, e.logger)
	handlers := e.handlersFor(event.Type)

	if len(handlers) == 0 {
		log.Debug("no handlers for event", slog.String("event_type", event.Type))
		return nil
	}

	var errs []error
	for i, handler := range handlers {
		if err := handler.HandleEvent(ctx, event); err != nil {
			log.Error("event handler failed",
				redact.Attr(err),
				slog.Int("handler_index", i),
				slog.String("event_id", event.ID.String()),
				slog.String("event_type", event.Type))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
