// Package audit defines the transport-agnostic audit event model shared by
// the publisher, the stores, the Kafka stream, and downstream consumers.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// EventCategory classifies audit events by their primary purpose. Categories
// drive retention and downstream routing, not emission: every event flows
// through the same pipeline.
type EventCategory string

const (
	// CategoryCompliance covers events that change who owns what: ledger
	// movements, deployments, vesting grants and claims.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers admin-surface actions and credential issuance.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity useful for debugging.
	CategoryOperations EventCategory = "operations"
)

// EventName identifies what happened. Names are dot-scoped by domain.
type EventName string

const (
	// Blueprint catalog events.
	EventBlueprintRegistered    EventName = "blueprint.registered"
	EventBlueprintFeeUpdated    EventName = "blueprint.fee_updated"
	EventBlueprintStatusChanged EventName = "blueprint.status_changed"

	// Factory events.
	EventInstanceDeployed EventName = "instance.deployed"

	// Vesting events.
	EventVestingInitialized       EventName = "vesting.initialized"
	EventVestingStarted           EventName = "vesting.started"
	EventVestingBeneficiaryAdded  EventName = "vesting.beneficiary_added"
	EventVestingClaimed           EventName = "vesting.claimed"
	EventVestingParametersUpdated EventName = "vesting.parameters_updated"

	// Ledger events.
	EventAssetMinted EventName = "asset.minted"

	// Auth events.
	EventTokenIssued EventName = "auth.token_issued"
)

// eventCategories maps each event to its category. Admin catalog mutations
// and credential issuance are security-relevant; anything that moves funds
// or fixes a grant is compliance; the rest is operations.
var eventCategories = map[EventName]EventCategory{
	EventBlueprintRegistered:    CategorySecurity,
	EventBlueprintFeeUpdated:    CategorySecurity,
	EventBlueprintStatusChanged: CategorySecurity,
	EventTokenIssued:            CategorySecurity,

	EventInstanceDeployed:        CategoryCompliance,
	EventVestingInitialized:      CategoryCompliance,
	EventVestingStarted:          CategoryCompliance,
	EventVestingBeneficiaryAdded: CategoryCompliance,
	EventVestingClaimed:          CategoryCompliance,
	EventAssetMinted:             CategoryCompliance,

	EventVestingParametersUpdated: CategoryOperations,
}

// Category returns the category for this event name. Unknown names default
// to CategoryOperations.
func (e EventName) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Event is emitted from domain logic on every state-changing success,
// exactly once per operation.
type Event struct {
	ID        uuid.UUID
	Name      EventName
	Category  EventCategory
	Actor     string
	Subject   string
	RequestID string
	Metadata  map[string]any
	CreatedAt time.Time
}
