// Package anomaly reports data quality problems found while resolving items:
// records missing fields the engine relies on, codes the policy registry does
// not know, and live inventory answers that could not be used.
package anomaly

import (
	"context"
	"time"

	"github.com/google/uuid"

	"discovery/pkg/requestcontext"
)

// Kind classifies an anomaly.
type Kind string

const (
	KindUnknownOwner           Kind = "unknown_owner"
	KindMissingHoldingLocation Kind = "missing_holding_location"
	KindUnknownLocation        Kind = "unknown_location"
	KindMissingBarcode         Kind = "missing_barcode"
	KindMissingStatus          Kind = "missing_status"
	KindUnknownBarcode         Kind = "unknown_barcode"
	KindUnmappedCustomerCode   Kind = "unmapped_customer_code"
	KindUnrecognizedStatus     Kind = "unrecognized_status"
	KindInventoryUnavailable   Kind = "inventory_unavailable"
)

// Event is one observed anomaly.
type Event struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"kind"`
	ItemID     string    `json:"itemId,omitempty"`
	Barcode    string    `json:"barcode,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	RequestID  string    `json:"requestId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// New stamps an event with an id, the request id and the request time.
func New(ctx context.Context, kind Kind, itemID, barcode, detail string) Event {
	return Event{
		ID:         uuid.NewString(),
		Kind:       kind,
		ItemID:     itemID,
		Barcode:    barcode,
		Detail:     detail,
		RequestID:  requestcontext.RequestID(ctx),
		OccurredAt: requestcontext.Now(ctx),
	}
}
