// Package handler wires the vesting instance HTTP surface: one-time
// schedule seeding and parameter retunes for the owner, claimable reads and
// claims for beneficiaries.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"foundry/internal/vesting"
	"foundry/internal/vesting/models"
	id "foundry/pkg/domain"
	dErrors "foundry/pkg/domain-errors"
	"foundry/pkg/platform/httputil"
	"foundry/pkg/requestcontext"
)

// Service defines the vesting operations the handler needs. Initialize is
// absent on purpose: instances are only ever initialized through the deploy
// path.
type Service interface {
	StartVesting(ctx context.Context, instanceID id.InstanceID, caller id.AccountID, data vesting.VestingData) (*models.Config, error)
	ClaimableAmount(ctx context.Context, instanceID id.InstanceID, beneficiary id.AccountID) (int64, error)
	Claim(ctx context.Context, instanceID id.InstanceID, caller id.AccountID) (int64, error)
	SetClaimParameters(ctx context.Context, instanceID id.InstanceID, caller id.AccountID, cooldown time.Duration, minClaim int64) (*models.Config, error)
}

// Handler exposes vesting endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a vesting handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the endpoints available to authenticated callers.
func (h *Handler) Register(r chi.Router) {
	r.Post("/instances/{instanceID}/vesting/start", h.HandleStartVesting)
	r.Put("/instances/{instanceID}/vesting/parameters", h.HandleSetParameters)
	r.Get("/instances/{instanceID}/vesting/claimable", h.HandleClaimable)
	r.Post("/instances/{instanceID}/vesting/claim", h.HandleClaim)
}

func callerAndInstance(w http.ResponseWriter, r *http.Request) (id.AccountID, id.InstanceID, bool) {
	ctx := r.Context()
	caller := requestcontext.CallerID(ctx)
	if caller.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "caller account is required"))
		return id.AccountID{}, id.InstanceID{}, false
	}
	instanceID, err := id.ParseInstanceID(chi.URLParam(r, "instanceID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.AccountID{}, id.InstanceID{}, false
	}
	return caller, instanceID, true
}

// HandleStartVesting handles POST /v1/instances/{instanceID}/vesting/start.
// The batch seeds every schedule at once and can never run twice.
func (h *Handler) HandleStartVesting(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, instanceID, ok := callerAndInstance(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[StartVestingRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	config, err := h.service.StartVesting(ctx, instanceID, caller, req.VestingData())
	if err != nil {
		h.logger.WarnContext(ctx, "start vesting failed",
			"request_id", requestID,
			"instance_id", instanceID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, NewConfigResponse(config))
}

// HandleSetParameters handles PUT /v1/instances/{instanceID}/vesting/parameters.
func (h *Handler) HandleSetParameters(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, instanceID, ok := callerAndInstance(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[ParametersRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	config, err := h.service.SetClaimParameters(ctx, instanceID, caller, req.Cooldown(), req.MinClaimAmount)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, NewConfigResponse(config))
}

// HandleClaimable handles GET /v1/instances/{instanceID}/vesting/claimable.
// The beneficiary query parameter defaults to the caller, so anyone can
// check their own position and owners can check anyone's.
func (h *Handler) HandleClaimable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, instanceID, ok := callerAndInstance(w, r)
	if !ok {
		return
	}

	beneficiary := caller
	if raw := r.URL.Query().Get("beneficiary"); raw != "" {
		parsed, err := id.ParseAccountID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		beneficiary = parsed
	}

	amount, err := h.service.ClaimableAmount(ctx, instanceID, beneficiary)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, ClaimableResponse{
		InstanceID:  instanceID.String(),
		Beneficiary: beneficiary.String(),
		Claimable:   amount,
	})
}

// HandleClaim handles POST /v1/instances/{instanceID}/vesting/claim. The
// caller must be a beneficiary; the payout goes to their own account.
func (h *Handler) HandleClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, instanceID, ok := callerAndInstance(w, r)
	if !ok {
		return
	}

	amount, err := h.service.Claim(ctx, instanceID, caller)
	if err != nil {
		h.logger.WarnContext(ctx, "claim failed",
			"request_id", requestID,
			"instance_id", instanceID.String(),
			"beneficiary", caller.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, ClaimResponse{
		InstanceID:  instanceID.String(),
		Beneficiary: caller.String(),
		Amount:      amount,
	})
}
