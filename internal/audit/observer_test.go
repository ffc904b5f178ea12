package audit_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foundry/internal/audit"
	paudit "foundry/pkg/platform/audit"
	"foundry/pkg/requestcontext"
)

// captureEmitter records emitted events for assertions.
type captureEmitter struct {
	events []paudit.Event
}

func (c *captureEmitter) Emit(_ context.Context, event paudit.Event) {
	c.events = append(c.events, event)
}

func TestLogAuditPromotesActorAndSubject(t *testing.T) {
	emitter := &captureEmitter{}
	ctx := requestcontext.WithRequestID(context.Background(), "req-9")

	audit.LogAudit(ctx, slog.Default(), emitter, paudit.EventVestingClaimed,
		"actor", "acct-1",
		"instance_id", "inst-1",
		"amount", int64(500),
	)

	require.Len(t, emitter.events, 1)
	event := emitter.events[0]
	assert.Equal(t, paudit.EventVestingClaimed, event.Name)
	assert.Equal(t, "acct-1", event.Actor)
	assert.Equal(t, "inst-1", event.Subject)
	assert.Equal(t, "req-9", event.RequestID)
	assert.Equal(t, int64(500), event.Metadata["amount"])
	assert.Equal(t, "req-9", event.Metadata["request_id"])
}

func TestLogAuditSubjectPriority(t *testing.T) {
	emitter := &captureEmitter{}

	// instance_id outranks blueprint_id and account.
	audit.LogAudit(context.Background(), nil, emitter, paudit.EventInstanceDeployed,
		"account", "acct-1",
		"blueprint_id", "bp-1",
		"instance_id", "inst-1",
	)

	require.Len(t, emitter.events, 1)
	assert.Equal(t, "inst-1", emitter.events[0].Subject)
}

func TestLogAuditNilEmitterOnlyLogs(t *testing.T) {
	// Must not panic without an emitter or logger.
	audit.LogAudit(context.Background(), nil, nil, paudit.EventAssetMinted, "account", "a")
}
