package availability

import (
	"context"
	"fmt"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
	GET(path string) error
	DecodeResponse(out any) error
}

// RegisterSteps registers availability resolution step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &availabilitySteps{tc: tc}

	// Catalog items
	ctx.Step(`^an item "([^"]*)" at location "([^"]*)"$`, steps.itemAtLocation)
	ctx.Step(`^the item has barcode "([^"]*)"$`, steps.itemHasBarcode)
	ctx.Step(`^the item has recap customer code "([^"]*)"$`, steps.itemHasRecapCode)
	ctx.Step(`^the item has division code "([^"]*)"$`, steps.itemHasDivisionCode)
	ctx.Step(`^the item is not available in the index$`, steps.itemNotAvailable)

	// Requests
	ctx.Step(`^I resolve the items$`, steps.resolve)
	ctx.Step(`^I resolve the items for scholar room "([^"]*)"$`, steps.resolveForScholar)
	ctx.Step(`^I request availability of "([^"]*)" bib "([^"]*)"$`, steps.requestBib)

	// Assertions
	ctx.Step(`^item "([^"]*)" should( not)? be physically requestable$`, steps.physRequestable)
	ctx.Step(`^item "([^"]*)" should( not)? be deliverable electronically$`, steps.eddRequestable)
	ctx.Step(`^item "([^"]*)" should have status "([^"]*)"$`, steps.hasStatus)
	ctx.Step(`^item "([^"]*)" should have (\d+) delivery locations$`, steps.deliveryCount)
	ctx.Step(`^item "([^"]*)" should have delivery locations:$`, steps.deliveryTable)
	ctx.Step(`^the response should( not)? be degraded$`, steps.degraded)
	ctx.Step(`^barcode "([^"]*)" should be "([^"]*)"$`, steps.bibBarcodeStatus)
}

type status struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type item struct {
	ID                string            `json:"id"`
	HoldingLocation   map[string]string `json:"holdingLocation,omitempty"`
	Identifiers       []string          `json:"identifiers,omitempty"`
	RecapCustomerCode string            `json:"recapCustomerCode,omitempty"`
	M2CustomerCode    string            `json:"m2CustomerCode,omitempty"`
	Status            *status           `json:"status,omitempty"`
}

type deliveryLocation struct {
	ID           string `json:"id"`
	Label        string `json:"label"`
	SortPosition int    `json:"sortPosition"`
}

type resolvedItem struct {
	ID               string             `json:"id"`
	Status           *status            `json:"status"`
	PhysRequestable  bool               `json:"physRequestable"`
	EddRequestable   bool               `json:"eddRequestable"`
	DeliveryLocation []deliveryLocation `json:"deliveryLocation"`
}

type resolveResponse struct {
	Items    []resolvedItem `json:"items"`
	Degraded bool           `json:"degraded"`
}

type bibResponse struct {
	Items []struct {
		Barcode string `json:"barcode"`
		Status  string `json:"availabilityStatus"`
	} `json:"items"`
}

type availabilitySteps struct {
	tc    TestContext
	items []item
}

func (s *availabilitySteps) current() (*item, error) {
	if len(s.items) == 0 {
		return nil, fmt.Errorf("no item declared")
	}
	return &s.items[len(s.items)-1], nil
}

func (s *availabilitySteps) itemAtLocation(_ context.Context, id, location string) error {
	s.items = append(s.items, item{
		ID:              id,
		HoldingLocation: map[string]string{"code": "loc:" + location},
		Status:          &status{ID: "status:a", Label: "Available"},
	})
	return nil
}

func (s *availabilitySteps) itemHasBarcode(_ context.Context, barcode string) error {
	it, err := s.current()
	if err != nil {
		return err
	}
	it.Identifiers = append(it.Identifiers, "urn:barcode:"+barcode)
	return nil
}

func (s *availabilitySteps) itemHasRecapCode(_ context.Context, code string) error {
	it, err := s.current()
	if err != nil {
		return err
	}
	it.RecapCustomerCode = code
	return nil
}

func (s *availabilitySteps) itemHasDivisionCode(_ context.Context, code string) error {
	it, err := s.current()
	if err != nil {
		return err
	}
	it.M2CustomerCode = code
	return nil
}

func (s *availabilitySteps) itemNotAvailable(_ context.Context) error {
	it, err := s.current()
	if err != nil {
		return err
	}
	it.Status = &status{ID: "status:na", Label: "Not available"}
	return nil
}

func (s *availabilitySteps) resolve(ctx context.Context) error {
	return s.resolveForScholar(ctx, "")
}

func (s *availabilitySteps) resolveForScholar(_ context.Context, room string) error {
	body := map[string]any{"items": s.items}
	if room != "" {
		body["scholarRoom"] = room
	}
	return s.tc.POST("/v1/availability/resolve", body)
}

func (s *availabilitySteps) requestBib(_ context.Context, institution, bibID string) error {
	return s.tc.GET("/v1/availability/bibs/" + institution + "/" + bibID)
}

func (s *availabilitySteps) resolved(id string) (resolvedItem, error) {
	var resp resolveResponse
	if err := s.tc.DecodeResponse(&resp); err != nil {
		return resolvedItem{}, err
	}
	for _, it := range resp.Items {
		if it.ID == id {
			return it, nil
		}
	}
	return resolvedItem{}, fmt.Errorf("item %q not in response", id)
}

func (s *availabilitySteps) physRequestable(_ context.Context, id, not string) error {
	it, err := s.resolved(id)
	if err != nil {
		return err
	}
	if want := not == ""; it.PhysRequestable != want {
		return fmt.Errorf("item %s: physRequestable=%t, want %t", id, it.PhysRequestable, want)
	}
	return nil
}

func (s *availabilitySteps) eddRequestable(_ context.Context, id, not string) error {
	it, err := s.resolved(id)
	if err != nil {
		return err
	}
	if want := not == ""; it.EddRequestable != want {
		return fmt.Errorf("item %s: eddRequestable=%t, want %t", id, it.EddRequestable, want)
	}
	return nil
}

func (s *availabilitySteps) hasStatus(_ context.Context, id, want string) error {
	it, err := s.resolved(id)
	if err != nil {
		return err
	}
	if it.Status == nil || it.Status.ID != want {
		return fmt.Errorf("item %s: status %+v, want %s", id, it.Status, want)
	}
	return nil
}

func (s *availabilitySteps) deliveryCount(_ context.Context, id string, n int) error {
	it, err := s.resolved(id)
	if err != nil {
		return err
	}
	if len(it.DeliveryLocation) != n {
		return fmt.Errorf("item %s: %d delivery locations, want %d", id, len(it.DeliveryLocation), n)
	}
	return nil
}

// deliveryTable compares ids in order; the table has an "id" header row.
func (s *availabilitySteps) deliveryTable(_ context.Context, id string, table *godog.Table) error {
	it, err := s.resolved(id)
	if err != nil {
		return err
	}
	var want []string
	for _, row := range table.Rows[1:] {
		want = append(want, row.Cells[0].Value)
	}
	got := make([]string, 0, len(it.DeliveryLocation))
	for _, dl := range it.DeliveryLocation {
		got = append(got, dl.ID)
	}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		return fmt.Errorf("item %s: delivery locations %v, want %v", id, got, want)
	}
	return nil
}

func (s *availabilitySteps) degraded(_ context.Context, not string) error {
	var resp resolveResponse
	if err := s.tc.DecodeResponse(&resp); err != nil {
		return err
	}
	if want := not == ""; resp.Degraded != want {
		return fmt.Errorf("degraded=%t, want %t", resp.Degraded, want)
	}
	return nil
}

func (s *availabilitySteps) bibBarcodeStatus(_ context.Context, barcode, want string) error {
	var resp bibResponse
	if err := s.tc.DecodeResponse(&resp); err != nil {
		return err
	}
	for _, it := range resp.Items {
		if it.Barcode == barcode {
			if it.Status != want {
				return fmt.Errorf("barcode %s: %q, want %q", barcode, it.Status, want)
			}
			return nil
		}
	}
	return fmt.Errorf("barcode %s not in response", barcode)
}
