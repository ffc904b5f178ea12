package token

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "foundry/pkg/domain"
	dErrors "foundry/pkg/domain-errors"
	paudit "foundry/pkg/platform/audit"
	"foundry/pkg/requestcontext"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService("test-signing-key", "test-issuer", "test-audience", time.Hour)
	require.NoError(t, err)
	return svc
}

func TestIssueAndValidate(t *testing.T) {
	svc := newTestService(t)
	account := id.NewAccountID()

	issued, err := svc.Issue(context.Background(), account, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, issued.Token)

	claims, err := svc.Validate(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, account.String(), claims.AccountID)
	assert.Equal(t, id.DefaultVersion().String(), claims.APIVersion)
	assert.Equal(t, "test-issuer", claims.Issuer)
	assert.NotEmpty(t, claims.ID, "JTI should be set")
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestIssueUsesRequestClock(t *testing.T) {
	svc := newTestService(t)
	now := time.Now().Add(-10 * time.Minute).Truncate(time.Second)
	ctx := requestcontext.WithTime(context.Background(), now)

	issued, err := svc.Issue(ctx, id.NewAccountID(), 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, now.Add(30*time.Minute), issued.ExpiresAt)
}

func TestIssueDefaultsTTL(t *testing.T) {
	svc := newTestService(t)
	now := time.Now().Truncate(time.Second)
	ctx := requestcontext.WithTime(context.Background(), now)

	issued, err := svc.Issue(ctx, id.NewAccountID(), 0)
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), issued.ExpiresAt)
}

func TestIssueRejectsZeroAccount(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Issue(context.Background(), id.AccountID{}, time.Hour)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestValidateRejectsTamperedToken(t *testing.T) {
	svc := newTestService(t)
	other, err := NewService("other-signing-key", "test-issuer", "test-audience", time.Hour)
	require.NoError(t, err)

	issued, err := other.Issue(context.Background(), id.NewAccountID(), time.Hour)
	require.NoError(t, err)

	_, err = svc.Validate(issued.Token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	svc := newTestService(t)

	issued, err := svc.Issue(context.Background(), id.NewAccountID(), time.Nanosecond)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	_, err = svc.Validate(issued.Token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}

func TestValidateRejectsGarbage(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Validate("not-a-token")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

type captureEmitter struct {
	events []paudit.Event
}

func (c *captureEmitter) Emit(_ context.Context, event paudit.Event) {
	c.events = append(c.events, event)
}

func TestIssueEmitsAuditEvent(t *testing.T) {
	emitter := &captureEmitter{}
	svc, err := NewService("key", "iss", "aud", time.Hour, WithAuditPublisher(emitter))
	require.NoError(t, err)

	account := id.NewAccountID()
	_, err = svc.Issue(context.Background(), account, time.Hour)
	require.NoError(t, err)

	require.Len(t, emitter.events, 1)
	assert.Equal(t, paudit.EventTokenIssued, emitter.events[0].Name)
	assert.Equal(t, account.String(), emitter.events[0].Subject)
	assert.Equal(t, "admin", emitter.events[0].Actor)
}

func TestValidatorAdapter(t *testing.T) {
	svc := newTestService(t)
	adapter := NewValidatorAdapter(svc)
	account := id.NewAccountID()

	issued, err := svc.Issue(context.Background(), account, time.Hour)
	require.NoError(t, err)

	claims, err := adapter.ValidateToken(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, account, claims.Account)
	assert.Equal(t, id.DefaultVersion(), claims.APIVersion)
	assert.NotEmpty(t, claims.JTI)

	_, err = adapter.ValidateToken("garbage")
	assert.Error(t, err)
}

func TestValidatorAdapterRejectsForeignAccountClaim(t *testing.T) {
	// A token whose account claim is not a UUID must not authenticate.
	svc := newTestService(t)
	signed, err := svc.sign(Claims{AccountID: "not-a-uuid"})
	require.NoError(t, err)

	adapter := NewValidatorAdapter(svc)
	_, err = adapter.ValidateToken(signed)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
