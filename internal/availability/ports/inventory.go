package ports

import (
	"context"

	"discovery/internal/catalog"
)

//go:generate mockgen -source=inventory.go -destination=../mocks/mocks.go -package=mocks

// LiveStatus is the shared inventory's answer for one barcode.
type LiveStatus int

const (
	LiveAvailable LiveStatus = iota + 1
	LiveNotAvailable
	LiveUnknownBarcode
)

// ItemAvailability is one barcode's live answer (port model).
type ItemAvailability struct {
	Barcode      string
	Status       LiveStatus
	CustomerCode string
}

// InventoryPort is the resolution engine's view of the shared inventory.
// Barcodes missing from a lookup result had no usable answer.
type InventoryPort interface {
	// LookupAvailability answers one batch of barcodes
	LookupAvailability(ctx context.Context, barcodes []string) (map[string]ItemAvailability, error)

	// LookupCustomerCode returns "" with a nil error when the barcode has no code
	LookupCustomerCode(ctx context.Context, barcode string) (string, error)

	// LookupBibAvailability answers every item on one bibliographic record
	LookupBibAvailability(ctx context.Context, inst catalog.Institution, bibID string) ([]ItemAvailability, error)
}
