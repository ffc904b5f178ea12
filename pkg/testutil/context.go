package testutil

import (
	"context"
	"net/http"
	"time"

	id "foundry/pkg/domain"
	"foundry/pkg/requestcontext"
)

// WithCaller adds a caller account ID to the request context.
// This simulates what the auth middleware would do for authenticated requests.
// If the accountID is not a valid UUID, it will not be added to the context.
func WithCaller(req *http.Request, accountID string) *http.Request {
	if parsed, err := id.ParseAccountID(accountID); err == nil {
		return req.WithContext(requestcontext.WithCallerID(req.Context(), parsed))
	}
	return req
}

// WithAdmin marks the request context as carrying admin privileges,
// as the admin token middleware would after a successful check.
func WithAdmin(req *http.Request) *http.Request {
	return req.WithContext(requestcontext.WithAdmin(req.Context(), true))
}

// WithRequestTime pins the request timestamp so time-dependent handlers
// observe a deterministic clock.
func WithRequestTime(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
