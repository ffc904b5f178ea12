package handler

import (
	"time"

	"foundry/internal/blueprint"
	"foundry/internal/registry/models"
	id "foundry/pkg/domain"
	dErrors "foundry/pkg/domain-errors"
)

// RegisterRequest is the admin payload for adding a blueprint to the
// catalog. The id is chosen by the admin so that off-platform paperwork can
// reference the blueprint before it goes live.
type RegisterRequest struct {
	ID     string `json:"id"`
	Kind   string `json:"kind"`
	Fee    int64  `json:"fee"`
	Active bool   `json:"active"`

	parsedID id.BlueprintID
}

func (r *RegisterRequest) Validate() error {
	parsed, err := id.ParseBlueprintID(r.ID)
	if err != nil {
		return err
	}
	r.parsedID = parsed
	if r.Kind == "" {
		return dErrors.New(dErrors.CodeValidation, "kind is required")
	}
	if r.Fee < 0 {
		return dErrors.New(dErrors.CodeValidation, "fee must not be negative")
	}
	return nil
}

// ParsedID returns the blueprint id parsed during validation.
func (r *RegisterRequest) ParsedID() id.BlueprintID {
	return r.parsedID
}

// ParsedKind returns the kind as the domain type. Whether the kind is known
// to the host is the service's call, not the decoder's.
func (r *RegisterRequest) ParsedKind() blueprint.Kind {
	return blueprint.Kind(r.Kind)
}

// UpdateFeeRequest is the admin payload for changing a deployment fee.
type UpdateFeeRequest struct {
	Fee int64 `json:"fee"`
}

func (r *UpdateFeeRequest) Validate() error {
	if r.Fee < 0 {
		return dErrors.New(dErrors.CodeValidation, "fee must not be negative")
	}
	return nil
}

// EntryResponse renders a catalog entry. Lookups for unknown ids succeed
// with registered=false and no registered_at, mirroring the zero-valued
// entry the catalog hands back.
type EntryResponse struct {
	ID           string     `json:"id"`
	Kind         string     `json:"kind,omitempty"`
	Fee          int64      `json:"fee"`
	Active       bool       `json:"active"`
	Registered   bool       `json:"registered"`
	RegisteredAt *time.Time `json:"registered_at,omitempty"`
}

// NewEntryResponse converts a catalog entry into its wire form.
func NewEntryResponse(entry *models.Entry) EntryResponse {
	resp := EntryResponse{
		ID:         entry.ID.String(),
		Kind:       entry.Kind.String(),
		Fee:        entry.Fee,
		Active:     entry.Active,
		Registered: entry.Registered(),
	}
	if entry.Registered() {
		at := entry.RegisteredAt
		resp.RegisteredAt = &at
	}
	return resp
}
