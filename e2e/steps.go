package e2e

import (
	"github.com/cucumber/godog"

	"discovery/e2e/steps/availability"
	"discovery/e2e/steps/common"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Register common steps (requests, status and header assertions)
	common.RegisterSteps(ctx, tc)

	// Register availability resolution steps
	availability.RegisterSteps(ctx, tc)
}
