package handler

import (
	"time"

	"foundry/internal/vesting"
	"foundry/internal/vesting/models"
	id "foundry/pkg/domain"
	dErrors "foundry/pkg/domain-errors"
)

// StartVestingRequest carries the one-time seeding batch as five parallel
// arrays, one entry per beneficiary. Times travel as unix seconds, spans as
// whole seconds, matching the schedule math. Shape and per-entry rules are
// the service's business; the decoder only parses ids and signs.
type StartVestingRequest struct {
	Beneficiaries   []string `json:"beneficiaries"`
	TotalAmounts    []int64  `json:"total_amounts"`
	StartTimes      []int64  `json:"start_times"`
	CliffSeconds    []int64  `json:"cliff_seconds"`
	DurationSeconds []int64  `json:"duration_seconds"`

	parsedBeneficiaries []id.AccountID
}

func (r *StartVestingRequest) Validate() error {
	r.parsedBeneficiaries = make([]id.AccountID, 0, len(r.Beneficiaries))
	for _, raw := range r.Beneficiaries {
		parsed, err := id.ParseAccountID(raw)
		if err != nil {
			return err
		}
		r.parsedBeneficiaries = append(r.parsedBeneficiaries, parsed)
	}
	for _, seconds := range r.CliffSeconds {
		if seconds < 0 {
			return dErrors.New(dErrors.CodeValidation, "cliff_seconds must not be negative")
		}
	}
	for _, seconds := range r.DurationSeconds {
		if seconds < 0 {
			return dErrors.New(dErrors.CodeValidation, "duration_seconds must not be negative")
		}
	}
	return nil
}

// VestingData converts the request into the service's batch form.
func (r *StartVestingRequest) VestingData() vesting.VestingData {
	starts := make([]time.Time, 0, len(r.StartTimes))
	for _, unix := range r.StartTimes {
		starts = append(starts, time.Unix(unix, 0).UTC())
	}
	cliffs := make([]time.Duration, 0, len(r.CliffSeconds))
	for _, seconds := range r.CliffSeconds {
		cliffs = append(cliffs, time.Duration(seconds)*time.Second)
	}
	durations := make([]time.Duration, 0, len(r.DurationSeconds))
	for _, seconds := range r.DurationSeconds {
		durations = append(durations, time.Duration(seconds)*time.Second)
	}
	return vesting.EncodeVestingData(r.parsedBeneficiaries, r.TotalAmounts, starts, cliffs, durations)
}

// ParametersRequest retunes the claim cooldown and minimum claim size.
type ParametersRequest struct {
	CooldownSeconds int64 `json:"cooldown_seconds"`
	MinClaimAmount  int64 `json:"min_claim_amount"`
}

func (r *ParametersRequest) Validate() error {
	if r.CooldownSeconds < 0 {
		return dErrors.New(dErrors.CodeValidation, "cooldown_seconds must not be negative")
	}
	if r.MinClaimAmount < 0 {
		return dErrors.New(dErrors.CodeValidation, "min_claim_amount must not be negative")
	}
	return nil
}

// Cooldown returns the requested cooldown as a duration.
func (r *ParametersRequest) Cooldown() time.Duration {
	return time.Duration(r.CooldownSeconds) * time.Second
}

// ConfigResponse renders an instance's vesting configuration.
type ConfigResponse struct {
	InstanceID      string `json:"instance_id"`
	Owner           string `json:"owner"`
	Token           string `json:"token"`
	CooldownSeconds int64  `json:"cooldown_seconds"`
	MinClaimAmount  int64  `json:"min_claim_amount"`
	State           string `json:"state"`
	StartedAt       *int64 `json:"started_at,omitempty"`
}

// NewConfigResponse converts a vesting config into its wire form.
func NewConfigResponse(config *models.Config) ConfigResponse {
	resp := ConfigResponse{
		InstanceID:      config.InstanceID.String(),
		Owner:           config.Owner.String(),
		Token:           config.Token.String(),
		CooldownSeconds: int64(config.ClaimCooldown / time.Second),
		MinClaimAmount:  config.MinClaim,
		State:           config.State.String(),
	}
	if !config.StartedAt.IsZero() {
		at := config.StartedAt.Unix()
		resp.StartedAt = &at
	}
	return resp
}

// ClaimableResponse reports a beneficiary's currently claimable amount.
type ClaimableResponse struct {
	InstanceID  string `json:"instance_id"`
	Beneficiary string `json:"beneficiary"`
	Claimable   int64  `json:"claimable"`
}

// ClaimResponse reports a successful claim payout.
type ClaimResponse struct {
	InstanceID  string `json:"instance_id"`
	Beneficiary string `json:"beneficiary"`
	Amount      int64  `json:"amount"`
}
