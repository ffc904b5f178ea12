// Package vesting holds the schedule seeding and claim step definitions.
package vesting

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cucumber/godog"
)

// TestContext is the slice of the suite context these steps need.
type TestContext interface {
	AdminPOST(path string, body any) error
	POST(path string, body any, account string) error
	GET(path, account string) error
	GetResponseField(field string) (any, error)
	Status() int
	Account(name string) (string, error)
	FeeToken() (string, error)
	InstanceID() string
}

// RegisterSteps registers the vesting step definitions.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &vestingSteps{tc: tc}

	ctx.Step(`^the instance is funded with (\d+) of the fee token$`, steps.fundInstance)
	ctx.Step(`^"([^"]*)" starts vesting of (\d+) to "([^"]*)" over (\d+) seconds with a (\d+) second cliff$`, steps.startVesting)
	ctx.Step(`^after (\d+) seconds$`, steps.wait)
	ctx.Step(`^"([^"]*)" claims from the instance$`, steps.claim)
	ctx.Step(`^"([^"]*)" has (\d+) claimable$`, steps.hasClaimable)
}

type vestingSteps struct {
	tc TestContext
}

// fundInstance mints the vesting deposit straight onto the instance's
// ledger account; ids are shared between instances and their accounts.
func (s *vestingSteps) fundInstance(ctx context.Context, amount int) error {
	feeToken, err := s.tc.FeeToken()
	if err != nil {
		return err
	}
	if err := s.tc.AdminPOST("/v1/admin/assets/"+feeToken+"/mint", map[string]any{
		"account": s.tc.InstanceID(),
		"amount":  amount,
	}); err != nil {
		return err
	}
	if s.tc.Status() != http.StatusNoContent {
		return fmt.Errorf("instance funding returned status %d", s.tc.Status())
	}
	return nil
}

func (s *vestingSteps) startVesting(ctx context.Context, owner string, total int, beneficiary string, duration, cliff int) error {
	account, err := s.tc.Account(beneficiary)
	if err != nil {
		return err
	}
	body := map[string]any{
		"beneficiaries":    []string{account},
		"total_amounts":    []int{total},
		"start_times":      []int64{time.Now().Unix()},
		"cliff_seconds":    []int{cliff},
		"duration_seconds": []int{duration},
	}
	return s.tc.POST("/v1/instances/"+s.tc.InstanceID()+"/vesting/start", body, owner)
}

func (s *vestingSteps) wait(ctx context.Context, seconds int) error {
	time.Sleep(time.Duration(seconds) * time.Second)
	return nil
}

func (s *vestingSteps) claim(ctx context.Context, beneficiary string) error {
	return s.tc.POST("/v1/instances/"+s.tc.InstanceID()+"/vesting/claim", nil, beneficiary)
}

func (s *vestingSteps) hasClaimable(ctx context.Context, beneficiary string, expected int) error {
	if err := s.tc.GET("/v1/instances/"+s.tc.InstanceID()+"/vesting/claimable", beneficiary); err != nil {
		return err
	}
	if s.tc.Status() != http.StatusOK {
		return fmt.Errorf("claimable read returned status %d", s.tc.Status())
	}
	claimable, err := s.tc.GetResponseField("claimable")
	if err != nil {
		return err
	}
	if got := fmt.Sprintf("%v", claimable); got != fmt.Sprintf("%d", expected) {
		return fmt.Errorf("expected %s to have %d claimable, got %s", beneficiary, expected, got)
	}
	return nil
}
