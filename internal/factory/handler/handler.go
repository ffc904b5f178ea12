// Package handler wires the deploy engine's HTTP surface: deployments and
// instance reads for authenticated callers.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"foundry/internal/blueprint"
	"foundry/internal/factory/models"
	id "foundry/pkg/domain"
	dErrors "foundry/pkg/domain-errors"
	"foundry/pkg/platform/httputil"
	"foundry/pkg/requestcontext"
)

// Service defines the deploy operations the handler needs.
type Service interface {
	Deploy(ctx context.Context, deployer id.AccountID, blueprintID id.BlueprintID, payload blueprint.Payload, paidAmount int64) (*models.Instance, error)
	GetInstance(ctx context.Context, instanceID id.InstanceID) (*models.Instance, error)
	ListDeployments(ctx context.Context, deployer id.AccountID) ([]models.Instance, error)
}

// Handler exposes deployment endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a deployment handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the endpoints available to authenticated callers.
func (h *Handler) Register(r chi.Router) {
	r.Post("/deployments", h.HandleDeploy)
	r.Get("/deployments", h.HandleListDeployments)
	r.Get("/instances/{instanceID}", h.HandleGetInstance)
}

// HandleDeploy handles POST /v1/deployments. The caller is the deployer;
// paid_amount is the attached value the fee is settled from.
func (h *Handler) HandleDeploy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller := requestcontext.CallerID(ctx)
	if caller.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "caller account is required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[DeployRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	instance, err := h.service.Deploy(ctx, caller, req.ParsedBlueprintID(), req.Init, req.PaidAmount)
	if err != nil {
		h.logger.WarnContext(ctx, "deployment failed",
			"request_id", requestID,
			"blueprint_id", req.BlueprintID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, NewInstanceResponse(instance))
}

// HandleListDeployments handles GET /v1/deployments: the caller's own
// record, in append order.
func (h *Handler) HandleListDeployments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller := requestcontext.CallerID(ctx)
	if caller.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "caller account is required"))
		return
	}

	instances, err := h.service.ListDeployments(ctx, caller)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, NewDeploymentListResponse(instances))
}

// HandleGetInstance handles GET /v1/instances/{instanceID}.
func (h *Handler) HandleGetInstance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	instanceID, err := id.ParseInstanceID(chi.URLParam(r, "instanceID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	instance, err := h.service.GetInstance(ctx, instanceID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, NewInstanceResponse(instance))
}
