package audit

import (
	"context"
	"log/slog"
	"time"

	paudit "foundry/pkg/platform/audit"
)

const drainTimeout = 5 * time.Second

// Store persists audit events and serves the admin trail queries.
type Store interface {
	Append(ctx context.Context, event paudit.Event) error
	ListRecent(ctx context.Context, limit int) ([]paudit.Event, error)
	ListBySubject(ctx context.Context, subject string) ([]paudit.Event, error)
}

// StreamProducer publishes encoded events to the message stream.
type StreamProducer interface {
	Produce(ctx context.Context, topic string, key, value []byte) error
}

// Worker drains the publisher inbox, appending each event to the store and,
// when a stream is configured, to the Kafka topic. Failures are logged and
// counted; the worker never stops on them.
type Worker struct {
	store    Store
	inbox    <-chan paudit.Event
	producer StreamProducer
	topic    string
	logger   *slog.Logger
	metrics  *Metrics
}

// WorkerOption configures the Worker.
type WorkerOption func(*Worker)

// WithWorkerLogger sets the logger.
func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return func(w *Worker) {
		w.logger = logger
	}
}

// WithStream publishes every processed event to the given topic.
func WithStream(producer StreamProducer, topic string) WorkerOption {
	return func(w *Worker) {
		w.producer = producer
		w.topic = topic
	}
}

// WithWorkerMetrics sets the metrics collector.
func WithWorkerMetrics(m *Metrics) WorkerOption {
	return func(w *Worker) {
		w.metrics = m
	}
}

// NewWorker creates a worker reading from the given inbox.
func NewWorker(store Store, inbox <-chan paudit.Event, opts ...WorkerOption) *Worker {
	w := &Worker{
		store:  store,
		inbox:  inbox,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run processes events until the context is canceled, then drains whatever
// is still buffered so accepted events are not lost on shutdown.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return ctx.Err()
		case event := <-w.inbox:
			w.process(ctx, event)
		}
	}
}

func (w *Worker) process(ctx context.Context, event paudit.Event) {
	if err := w.store.Append(ctx, event); err != nil {
		if w.metrics != nil {
			w.metrics.IncPersistFailures()
		}
		w.logger.ErrorContext(ctx, "audit store append failed",
			"event", string(event.Name),
			"event_id", event.ID,
			"error", err,
		)
	}

	if w.producer == nil {
		return
	}
	data, err := paudit.Encode(event)
	if err != nil {
		w.logger.ErrorContext(ctx, "audit event encode failed",
			"event", string(event.Name),
			"event_id", event.ID,
			"error", err,
		)
		return
	}
	if err := w.producer.Produce(ctx, w.topic, []byte(event.ID.String()), data); err != nil {
		if w.metrics != nil {
			w.metrics.IncPublishFailures()
		}
		w.logger.ErrorContext(ctx, "audit stream publish failed",
			"event", string(event.Name),
			"event_id", event.ID,
			"error", err,
		)
	}
}

func (w *Worker) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	for {
		select {
		case event := <-w.inbox:
			w.process(ctx, event)
		default:
			return
		}
	}
}
