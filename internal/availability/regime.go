package availability

import "discovery/internal/catalog"

// Regime is the location regime an item falls into. Every eligibility rule
// dispatches on it.
type Regime int

const (
	RegimeElectronic Regime = iota + 1
	RegimeOwnedOnSite
	RegimeOwnedOffSiteWithCode
	RegimeOwnedOffSiteNoCode
	RegimePartnerWithCode
	RegimePartnerNoCode
)

func (r Regime) String() string {
	switch r {
	case RegimeElectronic:
		return "electronic"
	case RegimeOwnedOnSite:
		return "owned_onsite"
	case RegimeOwnedOffSiteWithCode:
		return "owned_offsite_with_code"
	case RegimeOwnedOffSiteNoCode:
		return "owned_offsite_no_code"
	case RegimePartnerWithCode:
		return "partner_with_code"
	case RegimePartnerNoCode:
		return "partner_no_code"
	default:
		return "unknown"
	}
}

func (r Regime) partner() bool {
	return r == RegimePartnerWithCode || r == RegimePartnerNoCode
}

func (r Regime) withCode() bool {
	return r == RegimeOwnedOffSiteWithCode || r == RegimePartnerWithCode
}

func (r Regime) noCode() bool {
	return r == RegimeOwnedOffSiteNoCode || r == RegimePartnerNoCode
}

func (r Regime) offsite() bool {
	return r.withCode() || r.noCode()
}

// IsOffsite reports whether an item is held in remote storage. Items owned
// by a partner institution, or by an unrecognized one, are always off-site.
func IsOffsite(it catalog.Item) bool {
	return !it.Owner().IsPrimary() || catalog.IsOffsiteLocation(it.LocationCode())
}

// ClassifyRegime places an item in exactly one regime, checked in priority
// order: electronic, owned on-site, owned off-site, partner.
func ClassifyRegime(it catalog.Item) Regime {
	hasCode := it.RecapCustomerCode != ""
	switch {
	case it.HasElectronicLocator():
		return RegimeElectronic
	case !it.Owner().IsPrimary():
		if hasCode {
			return RegimePartnerWithCode
		}
		return RegimePartnerNoCode
	case !catalog.IsOffsiteLocation(it.LocationCode()):
		return RegimeOwnedOnSite
	case hasCode:
		return RegimeOwnedOffSiteWithCode
	default:
		return RegimeOwnedOffSiteNoCode
	}
}
