// Package request provides request ID middleware. Every request gets a
// UUID that follows it through logs, audit events, and error responses.
package request

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"foundry/pkg/requestcontext"
)

// HeaderRequestID is honored when an upstream proxy already assigned an ID.
const HeaderRequestID = "X-Request-Id"

// Middleware assigns a request ID, preferring one supplied by the caller.
// The ID is stored in the context and echoed on the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		w.Header().Set(HeaderRequestID, requestID)
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	return requestcontext.RequestID(ctx)
}
