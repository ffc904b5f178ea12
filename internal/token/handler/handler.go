// Package handler wires the access token issuance endpoint. Issuance lives
// on the admin surface: operators mint tokens for accounts out of band.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"foundry/internal/token"
	id "foundry/pkg/domain"
	"foundry/pkg/platform/httputil"
	"foundry/pkg/requestcontext"
)

// Service defines the issuance operation the handler needs.
type Service interface {
	Issue(ctx context.Context, account id.AccountID, ttl time.Duration) (*token.IssuedToken, error)
}

// Handler exposes the token issuance endpoint.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a token handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterAdmin mounts the endpoints that must sit behind the admin gate.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/tokens", h.HandleIssue)
}

// HandleIssue handles POST /v1/admin/tokens.
func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[IssueRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	issued, err := h.service.Issue(ctx, req.ParsedAccount(), req.TTL())
	if err != nil {
		h.logger.ErrorContext(ctx, "token issuance failed",
			"request_id", requestID,
			"account", req.Account,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, IssueResponse{
		Account:   req.ParsedAccount().String(),
		Token:     issued.Token,
		ExpiresAt: issued.ExpiresAt.Unix(),
	})
}
