package e2e

import (
	"github.com/cucumber/godog"

	"foundry/e2e/steps/common"
	"foundry/e2e/steps/deploy"
	"foundry/e2e/steps/registry"
	"foundry/e2e/steps/vesting"
)

// RegisterSteps registers all step definitions from the modular packages.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	registry.RegisterSteps(ctx, tc)
	deploy.RegisterSteps(ctx, tc)
	vesting.RegisterSteps(ctx, tc)
}
