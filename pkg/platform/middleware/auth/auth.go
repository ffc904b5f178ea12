// Package auth authenticates callers from Bearer tokens. The deploy and
// vesting surfaces act on behalf of an account; this middleware resolves
// which one and makes it available via requestcontext.CallerID.
package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	id "foundry/pkg/domain"
	request "foundry/pkg/platform/middleware/request"
	"foundry/pkg/requestcontext"
)

// Claims carries the validated identity extracted from an access token.
type Claims struct {
	Account    id.AccountID
	APIVersion id.APIVersion
	JTI        string
}

// TokenValidator validates an access token string and returns its claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

// writeJSONError writes a JSON error response with the given status code and error details.
func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// RequireAuth rejects requests without a valid Bearer token and stores the
// caller account and token API version in the context for handlers.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			const bearerPrefix = "Bearer "
			after, ok := strings.CutPrefix(authHeader, bearerPrefix)
			if !ok {
				// No Authorization header or invalid format
				ctx := r.Context()
				requestID := request.GetRequestID(ctx)
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(after)
			if err != nil {
				ctx := r.Context()
				requestID := request.GetRequestID(ctx)
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			if claims.Account.IsZero() {
				ctx := r.Context()
				requestID := request.GetRequestID(ctx)
				logger.WarnContext(ctx, "unauthorized access - token without account",
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			ctx := requestcontext.WithCallerID(r.Context(), claims.Account)
			if !claims.APIVersion.IsNil() {
				ctx = requestcontext.WithTokenAPIVersion(ctx, claims.APIVersion)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
