// Package httpapi assembles the HTTP surface: operational endpoints, the
// admin surface behind the operator token gate, and the authenticated
// surface behind JWT auth. Handlers stay in their domain packages; this
// package only mounts them.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	assethandler "foundry/internal/asset/handler"
	factoryhandler "foundry/internal/factory/handler"
	platformmetrics "foundry/internal/platform/metrics"
	registryhandler "foundry/internal/registry/handler"
	tokenhandler "foundry/internal/token/handler"
	vestinghandler "foundry/internal/vesting/handler"
	id "foundry/pkg/domain"
	"foundry/pkg/platform/httputil"
	"foundry/pkg/platform/middleware/admin"
	authmw "foundry/pkg/platform/middleware/auth"
	"foundry/pkg/platform/middleware/metadata"
	"foundry/pkg/platform/middleware/request"
	"foundry/pkg/platform/middleware/requesttime"
	"foundry/pkg/platform/middleware/version"
)

// ReadyCheck is a named dependency probe for the readiness endpoint.
type ReadyCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Deps carries everything the router mounts. Nil handlers are not allowed;
// optional backends surface only through ReadyChecks.
type Deps struct {
	Logger         *slog.Logger
	Metrics        *platformmetrics.HTTP
	Validator      authmw.TokenValidator
	AdminToken     string
	AdminTokenHash string

	Registry *registryhandler.Handler
	Factory  *factoryhandler.Handler
	Vesting  *vestinghandler.Handler
	Assets   *assethandler.Handler
	Tokens   *tokenhandler.Handler

	ReadyChecks []ReadyCheck
}

// New builds the service router.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(request.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}

	r.Get("/healthz", handleHealthz)
	r.Get("/readyz", handleReadyz(deps.ReadyChecks))
	r.Handle("/metrics", promhttp.Handler())

	adminGate := admin.RequireAdminToken(deps.AdminToken, deps.Logger)
	if deps.AdminTokenHash != "" {
		adminGate = admin.RequireHashedAdminToken(deps.AdminTokenHash, deps.Logger)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(version.ExtractVersion(id.APIVersionV1))

		r.Route("/admin", func(r chi.Router) {
			r.Use(adminGate)
			deps.Registry.RegisterAdmin(r)
			deps.Assets.RegisterAdmin(r)
			deps.Tokens.RegisterAdmin(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(authmw.RequireAuth(deps.Validator, deps.Logger))
			r.Use(version.ValidateTokenVersion(deps.Logger))
			deps.Registry.Register(r)
			deps.Factory.Register(r)
			deps.Vesting.Register(r)
			deps.Assets.Register(r)
		})
	})

	return r
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReadyz pings every configured backend. A service running purely on
// in-memory stores has no checks and is always ready.
func handleReadyz(checks []ReadyCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		for _, c := range checks {
			if err := c.Check(ctx); err != nil {
				httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "unavailable",
					"failed": c.Name,
				})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
