// Package handler wires the ledger's HTTP surface: admin minting and the
// caller's own balance read.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	id "foundry/pkg/domain"
	dErrors "foundry/pkg/domain-errors"
	"foundry/pkg/platform/httputil"
	"foundry/pkg/requestcontext"
)

// Service defines the ledger operations the handler needs.
type Service interface {
	Mint(ctx context.Context, token id.TokenID, to id.AccountID, amount int64) error
	Balance(ctx context.Context, token id.TokenID, account id.AccountID) (int64, error)
}

// Handler exposes ledger endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a ledger handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterAdmin mounts the endpoints that must sit behind the admin gate.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/assets/{token}/mint", h.HandleMint)
}

// Register mounts the endpoints available to authenticated callers.
func (h *Handler) Register(r chi.Router) {
	r.Get("/assets/{token}/balance", h.HandleBalance)
}

// HandleMint handles POST /v1/admin/assets/{token}/mint.
func (h *Handler) HandleMint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	token, err := id.ParseTokenID(chi.URLParam(r, "token"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[MintRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.Mint(ctx, token, req.ParsedAccount(), req.Amount); err != nil {
		h.logger.ErrorContext(ctx, "mint failed",
			"request_id", requestID,
			"token", token,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleBalance handles GET /v1/assets/{token}/balance. It always reads the
// caller's own balance; there is no cross-account read on this surface.
func (h *Handler) HandleBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller := requestcontext.CallerID(ctx)
	if caller.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	token, err := id.ParseTokenID(chi.URLParam(r, "token"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	balance, err := h.service.Balance(ctx, token, caller)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, BalanceResponse{
		Token:   token.String(),
		Account: caller.String(),
		Balance: balance,
	})
}
