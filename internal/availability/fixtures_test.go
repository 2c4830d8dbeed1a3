package availability

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"discovery/internal/anomaly"
	"discovery/internal/catalog"
	"discovery/internal/features"
	"discovery/internal/policy"
)

const (
	onsiteBarcode  = "33433000000001"
	offsiteBarcode = "33433000000002"
	partnerBarcode = "CU00000001"
)

func ref(code string) policy.LocationRef { return policy.LocationRef{Code: code} }

func testRegistry(t *testing.T) *policy.Snapshot {
	t.Helper()
	snap, err := policy.NewSnapshot(policy.Document{
		Locations: map[string]policy.LocationEntry{
			"mal":   {Label: "Schwarzman Building - Main Reading Room 315", Requestable: true},
			"mal17": {Label: "Scholar Room 217", DeliveryLocationTypes: []string{"Scholar"}},
			"mal18": {Label: "Scholar Room 218", DeliveryLocationTypes: []string{"Scholar"}},
			"mab":   {Label: "Art & Architecture Room 300"},
			"mag":   {Label: "Map Division Room 117"},
			"myr":   {Label: "Performing Arts Research Collections"},
			"sc":    {Label: "Schomburg Center - Research and Reference"},
			"mal82": {
				Label:             "Schwarzman Building - Periodicals 108",
				Requestable:       true,
				DeliveryLocations: []policy.LocationRef{ref("mal"), ref("mal17"), ref("mal18"), ref("mab")},
			},
			"scf": {
				Label:             "Schomburg Center - General Research",
				Requestable:       true,
				DeliveryLocations: []policy.LocationRef{{Code: "sc", Label: "Reading Room"}},
			},
			"mapp8": {
				Label:             "Schwarzman Building - Closed Stacks",
				Requestable:       false,
				DeliveryLocations: []policy.LocationRef{ref("mal")},
			},
			"mai": {
				Label:                   "Schwarzman Building - Division Collections",
				Requestable:             true,
				DeliverableToResolution: "m2-customer-code",
			},
			"maj": {Label: "Schwarzman Building - Empty", Requestable: true},
			"scff2": {
				Label:                "Schomburg Center - Manuscripts & Archives",
				Requestable:          true,
				CollectionAccessType: "special",
				DeliveryLocations:    []policy.LocationRef{ref("sc")},
			},
			"rc2ma": {Label: "Offsite", Requestable: true, DeliverableToResolution: "recap-customer-code"},
			"rcma2": {Label: "Offsite - Restricted", Requestable: false, DeliverableToResolution: "recap-customer-code"},
			"hd":    {Label: "Offsite - Depository", Requestable: true, DeliverableToResolution: "recap-customer-code"},
		},
		RecapCustomerCodes: map[string]policy.RecapCustomerCodeEntry{
			"NA": {Label: "NYPL Offsite", EddRequestable: true, DeliveryLocations: []policy.LocationRef{ref("mal"), ref("mab"), ref("mal17")}},
			"NH": {Label: "NYPL Offsite No EDD", EddRequestable: false, DeliveryLocations: []policy.LocationRef{ref("mal")}},
			"NX": {Label: "NYPL Offsite Nowhere", EddRequestable: true},
			"CU": {Label: "Columbia", EddRequestable: true, DeliveryLocations: []policy.LocationRef{ref("mal")}},
		},
		M2CustomerCodes: map[string]policy.M2CustomerCodeEntry{
			"XA": {Requestable: true, DeliveryLocations: []policy.LocationRef{ref("sc"), ref("myr"), ref("mag"), ref("mab"), ref("mal")}},
			"XB": {Requestable: false, DeliveryLocations: []policy.LocationRef{ref("mal")}},
		},
	})
	require.NoError(t, err)
	return snap
}

func statusOf(s catalog.Status) *catalog.Status { return &s }

func loc(code string) *catalog.Location {
	return &catalog.Location{Code: "loc:" + code}
}

func barcodes(bcs ...string) []string {
	out := make([]string, 0, len(bcs))
	for _, bc := range bcs {
		out = append(out, "urn:barcode:"+bc)
	}
	return out
}

func onsiteItem(location string) catalog.Item {
	return catalog.Item{
		ID:              "i10000001",
		HoldingLocation: loc(location),
		Identifiers:     barcodes(onsiteBarcode),
		CatalogItemType: "catalogItemType:55",
		AccessMessage:   "accessMessage:1",
		Status:          statusOf(catalog.StatusAvailable),
	}
}

func offsiteItem(customerCode string) catalog.Item {
	return catalog.Item{
		ID:                "i10000002",
		HoldingLocation:   loc("rc2ma"),
		Identifiers:       barcodes(offsiteBarcode),
		RecapCustomerCode: customerCode,
		Status:            statusOf(catalog.StatusAvailable),
	}
}

func partnerItem(customerCode string) catalog.Item {
	return catalog.Item{
		ID:                "ci1000003",
		HoldingLocation:   loc("rc2ma"),
		Identifiers:       barcodes(partnerBarcode),
		RecapCustomerCode: customerCode,
		Status:            statusOf(catalog.StatusAvailable),
	}
}

func electronicItem() catalog.Item {
	it := onsiteItem("mal82")
	it.ElectronicLocator = []catalog.ElectronicResource{{URL: "https://example.org/scan.pdf"}}
	return it
}

func flags(names ...string) features.Check {
	return features.Parse(names).Check()
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []anomaly.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e anomaly.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) kinds() []anomaly.Kind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]anomaly.Kind, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Kind)
	}
	return out
}
