package consumer

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"foundry/pkg/platform/audit"
)

// SecurityAlertHandler surfaces security-category events at warn level so
// log-based alerting can pick them up. Stands in for a SIEM forwarder.
type SecurityAlertHandler struct {
	logger *slog.Logger
}

// NewSecurityAlertHandler creates a security alert handler.
func NewSecurityAlertHandler(logger *slog.Logger) *SecurityAlertHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SecurityAlertHandler{logger: logger}
}

// Handle logs the event. Always commits; alerting is best-effort.
func (h *SecurityAlertHandler) Handle(ctx context.Context, event audit.Event) error {
	h.logger.WarnContext(ctx, "security audit event",
		"event", string(event.Name),
		"event_id", event.ID,
		"actor", event.Actor,
		"subject", event.Subject,
		"request_id", event.RequestID,
	)
	return nil
}

// MetricsHandler counts consumed events by name and category.
type MetricsHandler struct {
	consumed *prometheus.CounterVec
}

// NewMetricsHandler creates a metrics handler with its counter registered.
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{
		consumed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "foundry_audit_events_consumed_total",
			Help: "Total number of audit events consumed from the stream",
		}, []string{"event", "category"}),
	}
}

// Handle bumps the counter for the event.
func (h *MetricsHandler) Handle(_ context.Context, event audit.Event) error {
	h.consumed.WithLabelValues(string(event.Name), string(event.Category)).Inc()
	return nil
}
