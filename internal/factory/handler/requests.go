package handler

import (
	"time"

	"foundry/internal/blueprint"
	"foundry/internal/factory/models"
	id "foundry/pkg/domain"
	dErrors "foundry/pkg/domain-errors"
)

// DeployRequest is the caller payload for deploying an instance. Init is
// the tagged payload forwarded verbatim to the new instance's initialize;
// its spec is only decoded by the blueprint itself.
type DeployRequest struct {
	BlueprintID string            `json:"blueprint_id"`
	PaidAmount  int64             `json:"paid_amount"`
	Init        blueprint.Payload `json:"init"`

	parsedBlueprintID id.BlueprintID
}

func (r *DeployRequest) Validate() error {
	parsed, err := id.ParseBlueprintID(r.BlueprintID)
	if err != nil {
		return err
	}
	r.parsedBlueprintID = parsed
	if r.PaidAmount < 0 {
		return dErrors.New(dErrors.CodeValidation, "paid_amount must not be negative")
	}
	return r.Init.Validate()
}

// ParsedBlueprintID returns the blueprint id parsed during validation.
func (r *DeployRequest) ParsedBlueprintID() id.BlueprintID {
	return r.parsedBlueprintID
}

// InstanceResponse renders one deployed instance.
type InstanceResponse struct {
	InstanceID  string    `json:"instance_id"`
	BlueprintID string    `json:"blueprint_id"`
	Kind        string    `json:"kind"`
	Deployer    string    `json:"deployer"`
	FeePaid     int64     `json:"fee_paid"`
	Seq         int64     `json:"seq"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewInstanceResponse converts an instance row into its wire form.
func NewInstanceResponse(instance *models.Instance) InstanceResponse {
	return InstanceResponse{
		InstanceID:  instance.ID.String(),
		BlueprintID: instance.BlueprintID.String(),
		Kind:        instance.Kind.String(),
		Deployer:    instance.Deployer.String(),
		FeePaid:     instance.FeePaid,
		Seq:         instance.Seq,
		CreatedAt:   instance.CreatedAt,
	}
}

// DeploymentListResponse renders a deployer's record in append order.
type DeploymentListResponse struct {
	Deployments []InstanceResponse `json:"deployments"`
}

// NewDeploymentListResponse converts an instance list into its wire form.
func NewDeploymentListResponse(instances []models.Instance) DeploymentListResponse {
	out := make([]InstanceResponse, 0, len(instances))
	for i := range instances {
		out = append(out, NewInstanceResponse(&instances[i]))
	}
	return DeploymentListResponse{Deployments: out}
}
