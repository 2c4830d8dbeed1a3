package policy

// Resolution selects where a location's delivery locations come from.
type Resolution string

const (
	ResolutionNone              Resolution = "none"
	ResolutionRecapCustomerCode Resolution = "recap-customer-code"
	ResolutionM2CustomerCode    Resolution = "m2-customer-code"
)

// ParseResolution maps a document value to a Resolution. Unknown values
// report ok=false and resolve to ResolutionNone.
func ParseResolution(raw string) (r Resolution, ok bool) {
	switch Resolution(raw) {
	case "", ResolutionNone:
		return ResolutionNone, true
	case ResolutionRecapCustomerCode:
		return ResolutionRecapCustomerCode, true
	case ResolutionM2CustomerCode:
		return ResolutionM2CustomerCode, true
	default:
		return ResolutionNone, false
	}
}

// CollectionAccessSpecial routes items through the special collections channel.
const CollectionAccessSpecial = "special"

// DeliveryLocationTypeScholar marks rooms restricted to scholar patrons.
const DeliveryLocationTypeScholar = "Scholar"

// DeliveryLocation is a pickup room with the type tags of its own location.
type DeliveryLocation struct {
	Code  string
	Label string
	Types []string
}

// HasType reports whether the location carries the given type tag.
func (d DeliveryLocation) HasType(t string) bool {
	for _, v := range d.Types {
		if v == t {
			return true
		}
	}
	return false
}

type LocationPolicy struct {
	Code                    string
	Label                   string
	Requestable             bool
	DeliveryLocations       []DeliveryLocation
	DeliveryLocationTypes   []string
	CollectionAccessType    string
	DeliverableToResolution Resolution
}

// IsSpecialCollection reports whether requests must go through special
// collections.
func (p LocationPolicy) IsSpecialCollection() bool {
	return p.CollectionAccessType == CollectionAccessSpecial
}

type RecapCustomerCodePolicy struct {
	Code              string
	Label             string
	EddRequestable    bool
	DeliveryLocations []DeliveryLocation
}

type M2CustomerCodePolicy struct {
	Code              string
	Requestable       bool
	DeliveryLocations []DeliveryLocation
}

// OnsiteEddCriteria holds the per-field allow-lists an on-site item must
// satisfy for electronic delivery. Values are bare codes without namespace.
type OnsiteEddCriteria struct {
	Statuses         []string `json:"statuses" yaml:"statuses"`
	CatalogItemTypes []string `json:"catalogItemTypes" yaml:"catalogItemTypes"`
	HoldingLocations []string `json:"holdingLocations" yaml:"holdingLocations"`
	AccessMessages   []string `json:"accessMessages" yaml:"accessMessages"`
}

// DefaultOnsiteEddCriteria applies when a document carries no criteria.
func DefaultOnsiteEddCriteria() OnsiteEddCriteria {
	return OnsiteEddCriteria{
		Statuses:         []string{"a"},
		CatalogItemTypes: []string{"2", "55"},
		HoldingLocations: []string{"mal", "mal82", "mal92", "mab82", "mab92", "mab98", "map82", "map92", "mag82", "mag92"},
		AccessMessages:   []string{"1"},
	}
}
