package availability

import (
	"context"

	"discovery/internal/anomaly"
	"discovery/internal/availability/metrics"
	"discovery/internal/availability/ports"
	"discovery/internal/catalog"
	"discovery/internal/features"
	"discovery/internal/policy"
)

// Engine computes request eligibility for reconciled items. It holds no
// per-request state and is safe for concurrent use.
type Engine struct {
	registry policy.Registry
	reporter reporter
}

func NewEngine(registry policy.Registry, anomalies ports.AnomalyPort, m *metrics.Metrics) *Engine {
	return &Engine{registry: registry, reporter: reporter{anomalies: anomalies, metrics: m}}
}

// ruleInput is everything the per-regime rules may read.
type ruleInput struct {
	item          catalog.Item
	regime        Regime
	location      policy.LocationPolicy
	hasLocation   bool
	recap         policy.RecapCustomerCodePolicy
	hasRecap      bool
	deliveryCount int
	onsiteEdd     bool
}

// Evaluate classifies the item and applies the per-regime rules. deliveries
// is the item's resolved delivery location list. Missing data resolves to
// the closed branch and is reported as an anomaly.
func (e *Engine) Evaluate(ctx context.Context, rec ReconciledItem, deliveries []DeliveryLocation, flags features.Check) Eligibility {
	in := e.buildInput(ctx, rec.Item, flags)
	in.deliveryCount = len(deliveries)

	spec := specRequestable(in)
	elig := Eligibility{
		Phys: physRequestable(in, spec),
		Edd:  eddRequestable(in),
		Spec: spec,
	}

	switch rec.Live {
	case ports.LiveUnknownBarcode:
		// the shared inventory cannot locate the item; no channel can serve it
		return Eligibility{}
	case ports.LiveNotAvailable:
		elig.Phys = false
		elig.Edd = false
	}

	if elig.Spec {
		elig.Edd = false
	}
	return elig
}

func (e *Engine) buildInput(ctx context.Context, it catalog.Item, flags features.Check) ruleInput {
	in := ruleInput{item: it, regime: ClassifyRegime(it)}
	if in.regime == RegimeElectronic {
		return in
	}

	// classified as a partner item; edd stays open for it
	if it.Owner() == catalog.InstitutionUnknown {
		e.reporter.report(ctx, anomaly.KindUnknownOwner, it.ID, it.Barcode(), it.OwnerInstitution)
	}

	code := it.LocationCode()
	switch {
	case code == "":
		e.reporter.report(ctx, anomaly.KindMissingHoldingLocation, it.ID, it.Barcode(), "")
	default:
		in.location, in.hasLocation = e.registry.LocationPolicy(code)
		if !in.hasLocation {
			e.reporter.report(ctx, anomaly.KindUnknownLocation, it.ID, it.Barcode(), code)
		}
	}

	if it.Barcode() == "" {
		e.reporter.report(ctx, anomaly.KindMissingBarcode, it.ID, "", "")
	}

	if in.regime.withCode() {
		in.recap, in.hasRecap = e.registry.RecapCustomerCodePolicy(it.RecapCustomerCode)
		if !in.hasRecap {
			e.reporter.report(ctx, anomaly.KindUnmappedCustomerCode, it.ID, it.Barcode(), it.RecapCustomerCode)
		}
	}

	if in.regime == RegimeOwnedOnSite && flags != nil && flags(features.OnsiteEdd) {
		if it.Status == nil {
			e.reporter.report(ctx, anomaly.KindMissingStatus, it.ID, it.Barcode(), "")
		}
		in.onsiteEdd = MeetsOnsiteEddCriteria(it, e.registry.OnsiteEddCriteria())
	}
	return in
}

// specRequestable is the special collections channel. Same rule in every
// non-electronic regime.
func specRequestable(in ruleInput) bool {
	if in.regime == RegimeElectronic {
		return false
	}
	if in.item.HasAeonURL() {
		return true
	}
	return in.hasLocation && in.location.IsSpecialCollection()
}

func physRequestable(in ruleInput, spec bool) bool {
	switch in.regime {
	case RegimeElectronic:
		return false
	case RegimeOwnedOnSite:
		return physOwnedOnSite(in, spec)
	case RegimeOwnedOffSiteNoCode, RegimePartnerNoCode:
		// optimistic until a customer code is known
		return in.hasLocation && in.location.Requestable
	default:
		return in.deliveryCount > 0
	}
}

func physOwnedOnSite(in ruleInput, spec bool) bool {
	// Rule 1: special collections items go through that channel only
	if spec {
		return false
	}
	// Rule 2: untracked items cannot be paged
	if in.item.Barcode() == "" {
		return false
	}
	// Rule 3: the location must allow requests
	if !in.hasLocation || !in.location.Requestable {
		return false
	}
	// Rule 4: somewhere to deliver to
	return in.deliveryCount > 0
}

func eddRequestable(in ruleInput) bool {
	switch in.regime {
	case RegimeElectronic:
		return false
	case RegimeOwnedOnSite:
		return in.onsiteEdd
	case RegimeOwnedOffSiteNoCode:
		return in.hasLocation && in.location.Requestable
	case RegimePartnerNoCode:
		return true
	case RegimeOwnedOffSiteWithCode, RegimePartnerWithCode:
		return eddWithCode(in)
	default:
		return false
	}
}

func eddWithCode(in ruleInput) bool {
	if !in.regime.partner() && !(in.hasLocation && in.location.Requestable) {
		return false
	}
	return in.hasRecap && in.recap.EddRequestable
}
