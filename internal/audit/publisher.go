// Package audit is the service-facing side of the audit pipeline: domain
// services emit events through the Publisher and the Worker persists them
// to the store and the stream.
package audit

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	paudit "foundry/pkg/platform/audit"
	"foundry/pkg/requestcontext"
)

const defaultBuffer = 1024

// Publisher accepts events from domain services without blocking them.
// When the buffer is full the event is dropped and counted; a slow audit
// backend must not stall request handling.
type Publisher struct {
	inbox   chan paudit.Event
	logger  *slog.Logger
	metrics *Metrics
}

// PublisherOption configures the Publisher.
type PublisherOption func(*Publisher)

// WithPublisherLogger sets the logger used for drop warnings.
func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithPublisherMetrics sets the metrics collector.
func WithPublisherMetrics(m *Metrics) PublisherOption {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// NewPublisher creates a publisher with the given buffer size. Zero or
// negative sizes fall back to the default.
func NewPublisher(buffer int, opts ...PublisherOption) *Publisher {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	p := &Publisher{
		inbox:  make(chan paudit.Event, buffer),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit enqueues one event, stamping identity, category, request correlation,
// and the request-scoped timestamp when the caller left them zero.
func (p *Publisher) Emit(ctx context.Context, event paudit.Event) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Category == "" {
		event.Category = event.Name.Category()
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = requestcontext.Now(ctx)
	}

	select {
	case p.inbox <- event:
		if p.metrics != nil {
			p.metrics.IncEmitted(event.Name)
		}
	default:
		if p.metrics != nil {
			p.metrics.IncDropped()
		}
		p.logger.WarnContext(ctx, "audit buffer full, dropping event",
			"event", string(event.Name),
			"subject", event.Subject,
		)
	}
}

// Events exposes the inbox for the worker.
func (p *Publisher) Events() <-chan paudit.Event {
	return p.inbox
}
