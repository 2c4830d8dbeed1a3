package policy

// Document is the serialized form of the registry, shared by every source.
type Document struct {
	Locations          map[string]LocationEntry          `json:"locations" yaml:"locations"`
	RecapCustomerCodes map[string]RecapCustomerCodeEntry `json:"recapCustomerCodes" yaml:"recapCustomerCodes"`
	M2CustomerCodes    map[string]M2CustomerCodeEntry    `json:"m2CustomerCodes" yaml:"m2CustomerCodes"`
	OnsiteEddCriteria  *OnsiteEddCriteria                `json:"onsiteEddCriteria,omitempty" yaml:"onsiteEddCriteria,omitempty"`
}

// LocationRef points at a delivery location. Label is optional and falls back
// to the referenced location's own label.
type LocationRef struct {
	Code  string `json:"code" yaml:"code"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

type LocationEntry struct {
	Label                   string        `json:"label,omitempty" yaml:"label,omitempty"`
	Requestable             bool          `json:"requestable" yaml:"requestable"`
	DeliveryLocations       []LocationRef `json:"deliveryLocations,omitempty" yaml:"deliveryLocations,omitempty"`
	DeliveryLocationTypes   []string      `json:"deliveryLocationTypes,omitempty" yaml:"deliveryLocationTypes,omitempty"`
	CollectionAccessType    string        `json:"collectionAccessType,omitempty" yaml:"collectionAccessType,omitempty"`
	DeliverableToResolution string        `json:"deliverableToResolution,omitempty" yaml:"deliverableToResolution,omitempty"`
}

type RecapCustomerCodeEntry struct {
	Label             string        `json:"label,omitempty" yaml:"label,omitempty"`
	EddRequestable    bool          `json:"eddRequestable" yaml:"eddRequestable"`
	DeliveryLocations []LocationRef `json:"deliveryLocations,omitempty" yaml:"deliveryLocations,omitempty"`
}

type M2CustomerCodeEntry struct {
	Requestable       bool          `json:"requestable" yaml:"requestable"`
	DeliveryLocations []LocationRef `json:"deliveryLocations,omitempty" yaml:"deliveryLocations,omitempty"`
}
