// Package domain holds the primitive identifier types shared by every
// component. IDs are distinct types over uuid.UUID so a beneficiary account
// can never be passed where a blueprint id is expected; the compiler enforces
// what code review would otherwise have to catch.
package domain

import (
	"github.com/google/uuid"

	dErrors "foundry/pkg/domain-errors"
)

// AccountID identifies a caller: platform admin, deployer, instance owner,
// or beneficiary. Ledger accounts are keyed by it.
type AccountID uuid.UUID

// BlueprintID identifies a catalog entry in the blueprint registry.
type BlueprintID uuid.UUID

// InstanceID identifies one deployed instance of a blueprint. The instance's
// ledger account shares this value.
type InstanceID uuid.UUID

// TokenID identifies a fungible asset namespace in the ledger.
type TokenID uuid.UUID

// NewAccountID returns a fresh random AccountID.
func NewAccountID() AccountID { return AccountID(uuid.New()) }

// NewBlueprintID returns a fresh random BlueprintID.
func NewBlueprintID() BlueprintID { return BlueprintID(uuid.New()) }

// NewInstanceID returns a fresh random InstanceID.
func NewInstanceID() InstanceID { return InstanceID(uuid.New()) }

// NewTokenID returns a fresh random TokenID.
func NewTokenID() TokenID { return TokenID(uuid.New()) }

func (id AccountID) String() string   { return uuid.UUID(id).String() }
func (id BlueprintID) String() string { return uuid.UUID(id).String() }
func (id InstanceID) String() string  { return uuid.UUID(id).String() }
func (id TokenID) String() string     { return uuid.UUID(id).String() }

// IsZero reports whether the ID is the nil UUID. Zero IDs are never valid
// references; they act as "unset" sentinels in requests and models.
func (id AccountID) IsZero() bool   { return uuid.UUID(id) == uuid.Nil }
func (id BlueprintID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }
func (id InstanceID) IsZero() bool  { return uuid.UUID(id) == uuid.Nil }
func (id TokenID) IsZero() bool     { return uuid.UUID(id) == uuid.Nil }

// Account returns the ledger account an instance holds funds under. An
// instance and its account share one underlying UUID, so the mapping needs
// no lookup table and survives restarts.
func (id InstanceID) Account() AccountID { return AccountID(id) }

// parseUUID enforces the shared invariant: IDs must be valid, non-empty,
// non-nil UUIDs. Called only at trust boundaries; internal code passes typed
// IDs around without re-validating.
func parseUUID(s, kind string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+kind+" id")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id cannot be the nil uuid")
	}
	return u, nil
}

// ParseAccountID constructs an AccountID from external input.
func ParseAccountID(s string) (AccountID, error) {
	u, err := parseUUID(s, "account")
	return AccountID(u), err
}

// ParseBlueprintID constructs a BlueprintID from external input.
func ParseBlueprintID(s string) (BlueprintID, error) {
	u, err := parseUUID(s, "blueprint")
	return BlueprintID(u), err
}

// ParseInstanceID constructs an InstanceID from external input.
func ParseInstanceID(s string) (InstanceID, error) {
	u, err := parseUUID(s, "instance")
	return InstanceID(u), err
}

// ParseTokenID constructs a TokenID from external input.
func ParseTokenID(s string) (TokenID, error) {
	u, err := parseUUID(s, "token")
	return TokenID(u), err
}
