// Package deploy holds the account, funding, and deployment step
// definitions.
package deploy

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cucumber/godog"
)

// TestContext is the slice of the suite context these steps need.
type TestContext interface {
	AdminPOST(path string, body any) error
	POST(path string, body any, account string) error
	GET(path, account string) error
	GetResponseField(field string) (any, error)
	Status() int
	EnsureAccount(name string) (string, error)
	Account(name string) (string, error)
	FeeToken() (string, error)
	BlueprintID() string
	SetInstanceID(id string)
}

// RegisterSteps registers the deployment step definitions.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &deploySteps{tc: tc}

	ctx.Step(`^an account "([^"]*)" with an access token$`, steps.accountWithToken)
	ctx.Step(`^"([^"]*)" is funded with (\d+) of the fee token$`, steps.fundAccount)
	ctx.Step(`^"([^"]*)" deploys the blueprint paying (\d+)$`, steps.deployBlueprint)
	ctx.Step(`^the deployment succeeds$`, steps.deploymentSucceeds)
	ctx.Step(`^"([^"]*)" holds (\d+) of the fee token$`, steps.accountHolds)
}

type deploySteps struct {
	tc TestContext
}

func (s *deploySteps) accountWithToken(ctx context.Context, name string) error {
	_, err := s.tc.EnsureAccount(name)
	return err
}

func (s *deploySteps) fundAccount(ctx context.Context, name string, amount int) error {
	account, err := s.tc.Account(name)
	if err != nil {
		return err
	}
	feeToken, err := s.tc.FeeToken()
	if err != nil {
		return err
	}
	if err := s.tc.AdminPOST("/v1/admin/assets/"+feeToken+"/mint", map[string]any{
		"account": account,
		"amount":  amount,
	}); err != nil {
		return err
	}
	if s.tc.Status() != http.StatusNoContent {
		return fmt.Errorf("mint returned status %d", s.tc.Status())
	}
	return nil
}

// deployBlueprint deploys a vesting instance whose payout token is the fee
// token so one mint endpoint covers both funding legs.
func (s *deploySteps) deployBlueprint(ctx context.Context, name string, paid int) error {
	feeToken, err := s.tc.FeeToken()
	if err != nil {
		return err
	}
	body := map[string]any{
		"blueprint_id": s.tc.BlueprintID(),
		"paid_amount":  paid,
		"init": map[string]any{
			"kind": "vesting",
			"spec": map[string]any{
				"token":            feeToken,
				"cooldown_seconds": 0,
				"min_claim_amount": 0,
			},
		},
	}
	if err := s.tc.POST("/v1/deployments", body, name); err != nil {
		return err
	}
	if s.tc.Status() == http.StatusOK {
		instanceID, err := s.tc.GetResponseField("instance_id")
		if err != nil {
			return err
		}
		s.tc.SetInstanceID(instanceID.(string))
	}
	return nil
}

func (s *deploySteps) deploymentSucceeds(ctx context.Context) error {
	if s.tc.Status() != http.StatusOK {
		return fmt.Errorf("deploy returned status %d", s.tc.Status())
	}
	instanceID, err := s.tc.GetResponseField("instance_id")
	if err != nil {
		return err
	}
	if instanceID == "" {
		return fmt.Errorf("deploy response has empty instance_id")
	}
	return nil
}

func (s *deploySteps) accountHolds(ctx context.Context, name string, expected int) error {
	feeToken, err := s.tc.FeeToken()
	if err != nil {
		return err
	}
	if err := s.tc.GET("/v1/assets/"+feeToken+"/balance", name); err != nil {
		return err
	}
	if s.tc.Status() != http.StatusOK {
		return fmt.Errorf("balance read returned status %d", s.tc.Status())
	}
	balance, err := s.tc.GetResponseField("balance")
	if err != nil {
		return err
	}
	if got := fmt.Sprintf("%v", balance); got != fmt.Sprintf("%d", expected) {
		return fmt.Errorf("expected %s to hold %d, got %s", name, expected, got)
	}
	return nil
}
