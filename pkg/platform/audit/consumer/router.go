// Package consumer routes audit events from the Kafka stream to downstream
// processors.
package consumer

import (
	"context"
	"log/slog"

	"foundry/internal/platform/kafka/consumer"
	"foundry/pkg/platform/audit"
)

// EventHandler processes one decoded audit event.
type EventHandler interface {
	Handle(ctx context.Context, event audit.Event) error
}

// Router decodes stream messages and dispatches them to handlers registered
// by event name. It implements the Kafka consumer's Handler interface.
type Router struct {
	handlers map[audit.EventName][]EventHandler
	fallback EventHandler
	logger   *slog.Logger
}

// NewRouter creates an event router with an optional fallback handler for
// unregistered event names.
func NewRouter(logger *slog.Logger, fallback EventHandler) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		handlers: make(map[audit.EventName][]EventHandler),
		fallback: fallback,
		logger:   logger,
	}
}

// Register adds a handler for a specific event name. Multiple handlers per
// name run in registration order.
func (r *Router) Register(name audit.EventName, handler EventHandler) {
	r.handlers[name] = append(r.handlers[name], handler)
}

// Handle decodes the message and routes it. Undecodable messages are logged
// and committed; redelivery cannot fix them.
func (r *Router) Handle(ctx context.Context, msg *consumer.Message) error {
	event, err := audit.Decode(msg.Value)
	if err != nil {
		r.logger.WarnContext(ctx, "skipping undecodable audit message",
			"topic", msg.Topic,
			"offset", msg.Offset,
			"error", err,
		)
		return nil
	}

	handlers, ok := r.handlers[event.Name]
	if !ok {
		if r.fallback != nil {
			return r.fallback.Handle(ctx, event)
		}
		r.logger.DebugContext(ctx, "no handler for audit event",
			"event", string(event.Name),
			"event_id", event.ID,
		)
		return nil
	}

	for _, h := range handlers {
		if err := h.Handle(ctx, event); err != nil {
			return err
		}
	}
	return nil
}
