package availability

import (
	"discovery/internal/availability/ports"
	"discovery/internal/catalog"
	"discovery/internal/features"
)

// Request is one batch of items from a single search response.
type Request struct {
	Items []catalog.Item
	// ScholarRoom is the caller's scholar room code; empty hides every
	// scholar-only room.
	ScholarRoom string
	// Flags reports per-request feature flags. Nil means every flag is off.
	Flags features.Check
}

func (r Request) enabled(f features.Flag) bool {
	return r.Flags != nil && r.Flags(f)
}

// ReconciledItem is an item after its status has been checked against the
// shared inventory.
type ReconciledItem struct {
	Item    catalog.Item
	Offsite bool
	// Live is the shared inventory's answer; zero when there was none.
	Live ports.LiveStatus
}

// DeliveryLocation is one resolved pickup room.
type DeliveryLocation struct {
	ID           string `json:"id"`
	Label        string `json:"label"`
	SortPosition int    `json:"sortPosition"`
}

// Eligibility holds the three independent request channels for an item.
type Eligibility struct {
	Phys bool
	Edd  bool
	Spec bool
}

// Requestable is true when any channel is open.
func (e Eligibility) Requestable() bool {
	return e.Phys || e.Edd || e.Spec
}

// ResolvedItem is an item with every derived field attached.
type ResolvedItem struct {
	catalog.Item
	Requestable      []bool             `json:"requestable"`
	PhysRequestable  bool               `json:"physRequestable"`
	EddRequestable   bool               `json:"eddRequestable"`
	SpecRequestable  bool               `json:"specRequestable"`
	DeliveryLocation []DeliveryLocation `json:"deliveryLocation"`
	Fulfillment      []string           `json:"fulfillment,omitempty"`
}

// Result is the resolved batch in input order.
type Result struct {
	Items []ResolvedItem
	// Degraded is set when some off-site items kept their index status
	// because the shared inventory did not answer.
	Degraded bool
}
