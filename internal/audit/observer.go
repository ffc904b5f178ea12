package audit

import (
	"context"
	"log/slog"

	"foundry/pkg/attrs"
	paudit "foundry/pkg/platform/audit"
	"foundry/pkg/requestcontext"
)

// Emitter is the publisher seam domain services depend on, so tests can
// capture events without a running worker.
type Emitter interface {
	Emit(ctx context.Context, event paudit.Event)
}

// subjectKeys is the priority order for picking the event subject out of an
// attribute list.
var subjectKeys = []string{"instance_id", "blueprint_id", "account", "beneficiary", "token"}

// LogAudit logs an audit event and forwards it to the publisher when one is
// configured. The attribute list follows slog conventions; "actor" and the
// subject keys are promoted into the event, everything lands in Metadata.
func LogAudit(ctx context.Context, logger *slog.Logger, emitter Emitter, name paudit.EventName, attrList ...any) {
	requestID := requestcontext.RequestID(ctx)
	if requestID != "" {
		attrList = append(attrList, "request_id", requestID)
	}

	args := append(attrList, "event", string(name), "log_type", "audit")
	if logger != nil {
		logger.InfoContext(ctx, string(name), args...)
	}

	if emitter == nil {
		return
	}
	emitter.Emit(ctx, paudit.Event{
		Name:      name,
		Actor:     attrs.ExtractString(attrList, "actor"),
		Subject:   extractSubject(attrList),
		RequestID: requestID,
		Metadata:  attrs.ToMap(attrList),
	})
}

func extractSubject(attrList []any) string {
	for _, key := range subjectKeys {
		if val := attrs.ExtractString(attrList, key); val != "" {
			return val
		}
	}
	return ""
}
