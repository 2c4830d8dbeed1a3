package common

import (
	"context"
	"fmt"
	"time"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	GET(path string) error
	SetHeader(name, value string)
	LastStatus() int
	LastHeader(name string) string
	LastDuration() time.Duration
}

// RegisterSteps registers generic request and response step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^the discovery service is running$`, steps.serviceIsRunning)
	ctx.Step(`^I send header "([^"]*)" with value "([^"]*)"$`, steps.sendHeader)
	ctx.Step(`^I GET "([^"]*)"$`, steps.get)

	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^the response header "([^"]*)" should be "([^"]*)"$`, steps.headerShouldBe)
	ctx.Step(`^the response should arrive within (\d+) seconds$`, steps.arrivesWithin)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) serviceIsRunning(ctx context.Context) error {
	if err := s.tc.GET("/healthz"); err != nil {
		return err
	}
	return s.statusShouldBe(ctx, 200)
}

func (s *commonSteps) sendHeader(_ context.Context, name, value string) error {
	s.tc.SetHeader(name, value)
	return nil
}

func (s *commonSteps) get(_ context.Context, path string) error {
	return s.tc.GET(path)
}

func (s *commonSteps) statusShouldBe(_ context.Context, want int) error {
	if got := s.tc.LastStatus(); got != want {
		return fmt.Errorf("expected status %d, got %d", want, got)
	}
	return nil
}

func (s *commonSteps) headerShouldBe(_ context.Context, name, want string) error {
	if got := s.tc.LastHeader(name); got != want {
		return fmt.Errorf("expected header %s=%q, got %q", name, want, got)
	}
	return nil
}

func (s *commonSteps) arrivesWithin(_ context.Context, seconds int) error {
	if d := s.tc.LastDuration(); d > time.Duration(seconds)*time.Second {
		return fmt.Errorf("response took %s", d)
	}
	return nil
}
