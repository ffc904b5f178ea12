package vesting

import (
	"context"

	"foundry/internal/blueprint"
	id "foundry/pkg/domain"
)

// Initializer is the slice of the vesting service the blueprint host calls
// into when the factory deploys a new instance.
type Initializer interface {
	Initialize(ctx context.Context, instanceID id.InstanceID, owner id.AccountID, data InitData) error
}

// NewBlueprintFactory returns the factory the blueprint host clones vesting
// instances from. Each clone is independent; all state lives in the store
// behind the service.
func NewBlueprintFactory(svc Initializer) blueprint.Factory {
	return func() blueprint.Instance { return &instance{svc: svc} }
}

type instance struct {
	svc Initializer
}

func (i *instance) Initialize(ctx context.Context, instanceID id.InstanceID, deployer id.AccountID, payload blueprint.Payload) error {
	data, err := DecodeInitData(payload)
	if err != nil {
		return err
	}
	return i.svc.Initialize(ctx, instanceID, deployer, data)
}
