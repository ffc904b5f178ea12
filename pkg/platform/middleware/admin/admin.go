// Package admin gates the platform operator surface. The gate is a single
// shared token, deliberately not a user system: the catalog has exactly one
// administrator, configured at startup.
package admin

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	request "foundry/pkg/platform/middleware/request"
	"foundry/pkg/requestcontext"
	"foundry/pkg/secrets"
)

// RequireAdminToken admits requests whose X-Admin-Token header matches
// expectedToken. The comparison is constant-time to prevent timing attacks.
func RequireAdminToken(expectedToken string, logger *slog.Logger) func(http.Handler) http.Handler {
	return gate(logger, func(token string) bool {
		return subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) == 1
	})
}

// RequireHashedAdminToken admits requests whose X-Admin-Token header verifies
// against a bcrypt hash. Deployments that keep only the hash on disk use this
// variant; bcrypt comparison is constant-time by construction.
func RequireHashedAdminToken(tokenHash string, logger *slog.Logger) func(http.Handler) http.Handler {
	return gate(logger, func(token string) bool {
		return token != "" && secrets.Verify(token, tokenHash) == nil
	})
}

func gate(logger *slog.Logger, verify func(token string) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get("X-Admin-Token")
			if !verify(token) {
				ctx := r.Context()
				requestID := request.GetRequestID(ctx)
				logger.WarnContext(ctx, "admin token mismatch",
					"request_id", requestID,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"admin token required"}`))
				return
			}

			ctx := requestcontext.WithAdmin(r.Context(), true)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
