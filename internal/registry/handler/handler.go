// Package handler wires the blueprint catalog's HTTP surface: admin
// registration and lifecycle endpoints plus the public lookup.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"foundry/internal/blueprint"
	"foundry/internal/registry/models"
	id "foundry/pkg/domain"
	"foundry/pkg/platform/httputil"
	"foundry/pkg/requestcontext"
)

// Service defines the catalog operations the handler needs.
type Service interface {
	Register(ctx context.Context, blueprintID id.BlueprintID, kind blueprint.Kind, fee int64, active bool) (*models.Entry, error)
	UpdateFee(ctx context.Context, blueprintID id.BlueprintID, newFee int64) (*models.Entry, error)
	SetActive(ctx context.Context, blueprintID id.BlueprintID, active bool) (*models.Entry, error)
	Lookup(ctx context.Context, blueprintID id.BlueprintID) (*models.Entry, error)
}

// Handler exposes blueprint catalog endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a catalog handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterAdmin mounts the endpoints that must sit behind the admin gate.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/blueprints", h.HandleRegister)
	r.Put("/blueprints/{blueprintID}/fee", h.HandleUpdateFee)
	r.Post("/blueprints/{blueprintID}/activate", h.HandleActivate)
	r.Post("/blueprints/{blueprintID}/deactivate", h.HandleDeactivate)
}

// Register mounts the endpoints available to authenticated callers.
func (h *Handler) Register(r chi.Router) {
	r.Get("/blueprints/{blueprintID}", h.HandleLookup)
}

// HandleRegister handles POST /v1/admin/blueprints. Registering an existing
// id overwrites it, so the endpoint is idempotent per payload.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	entry, err := h.service.Register(ctx, req.ParsedID(), req.ParsedKind(), req.Fee, req.Active)
	if err != nil {
		h.logger.ErrorContext(ctx, "blueprint registration failed",
			"request_id", requestID,
			"blueprint_id", req.ID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, NewEntryResponse(entry))
}

// HandleUpdateFee handles PUT /v1/admin/blueprints/{blueprintID}/fee.
func (h *Handler) HandleUpdateFee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	blueprintID, err := id.ParseBlueprintID(chi.URLParam(r, "blueprintID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpdateFeeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	entry, err := h.service.UpdateFee(ctx, blueprintID, req.Fee)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, NewEntryResponse(entry))
}

// HandleActivate handles POST /v1/admin/blueprints/{blueprintID}/activate.
func (h *Handler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

// HandleDeactivate handles POST /v1/admin/blueprints/{blueprintID}/deactivate.
func (h *Handler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	ctx := r.Context()

	blueprintID, err := id.ParseBlueprintID(chi.URLParam(r, "blueprintID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	entry, err := h.service.SetActive(ctx, blueprintID, active)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, NewEntryResponse(entry))
}

// HandleLookup handles GET /v1/blueprints/{blueprintID}. Unknown ids are not
// an error: the response carries registered=false so deployers can probe
// before paying.
func (h *Handler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	blueprintID, err := id.ParseBlueprintID(chi.URLParam(r, "blueprintID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	entry, err := h.service.Lookup(ctx, blueprintID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, NewEntryResponse(entry))
}
