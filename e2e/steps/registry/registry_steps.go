// Package registry holds the blueprint catalog step definitions.
package registry

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cucumber/godog"
)

// TestContext is the slice of the suite context these steps need.
type TestContext interface {
	AdminPOST(path string, body any) error
	GET(path, account string) error
	GetResponseField(field string) (any, error)
	Status() int
	NewID() string
	SetBlueprintID(id string)
	BlueprintID() string
}

// RegisterSteps registers the catalog step definitions.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &registrySteps{tc: tc}

	ctx.Step(`^an active "([^"]*)" blueprint with fee (\d+)$`, steps.activeBlueprint)
	ctx.Step(`^the blueprint is deactivated$`, steps.deactivateBlueprint)
	ctx.Step(`^"([^"]*)" looks up the blueprint$`, steps.lookupBlueprint)
	ctx.Step(`^"([^"]*)" looks up an unknown blueprint$`, steps.lookupUnknownBlueprint)
}

type registrySteps struct {
	tc TestContext
}

func (s *registrySteps) activeBlueprint(ctx context.Context, kind string, fee int) error {
	blueprintID := s.tc.NewID()
	body := map[string]any{
		"id":     blueprintID,
		"kind":   kind,
		"fee":    fee,
		"active": true,
	}
	if err := s.tc.AdminPOST("/v1/admin/blueprints", body); err != nil {
		return err
	}
	if s.tc.Status() != http.StatusOK {
		return fmt.Errorf("blueprint registration returned status %d", s.tc.Status())
	}
	s.tc.SetBlueprintID(blueprintID)
	return nil
}

func (s *registrySteps) deactivateBlueprint(ctx context.Context) error {
	path := "/v1/admin/blueprints/" + s.tc.BlueprintID() + "/deactivate"
	if err := s.tc.AdminPOST(path, nil); err != nil {
		return err
	}
	if s.tc.Status() != http.StatusOK {
		return fmt.Errorf("blueprint deactivation returned status %d", s.tc.Status())
	}
	return nil
}

func (s *registrySteps) lookupBlueprint(ctx context.Context, account string) error {
	return s.tc.GET("/v1/blueprints/"+s.tc.BlueprintID(), account)
}

func (s *registrySteps) lookupUnknownBlueprint(ctx context.Context, account string) error {
	return s.tc.GET("/v1/blueprints/"+s.tc.NewID(), account)
}
