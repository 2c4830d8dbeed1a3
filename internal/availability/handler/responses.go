package handler

import (
	"discovery/internal/availability"
	"discovery/internal/availability/ports"
	"discovery/internal/catalog"
)

// ResolveResponse is the HTTP response for POST /v1/availability/resolve.
type ResolveResponse struct {
	Items    []availability.ResolvedItem `json:"items"`
	Degraded bool                        `json:"degraded"`
	Features []string                    `json:"features"`
}

// BibAvailabilityResponse is the HTTP response for
// GET /v1/availability/bibs/{institution}/{bibID}.
type BibAvailabilityResponse struct {
	Institution string                     `json:"institution"`
	BibID       string                     `json:"bibId"`
	Items       []ItemAvailabilityResponse `json:"items"`
}

type ItemAvailabilityResponse struct {
	Barcode      string `json:"barcode"`
	Status       string `json:"availabilityStatus"`
	CustomerCode string `json:"customerCode,omitempty"`
}

func fromBibRows(inst catalog.Institution, bibID string, rows []ports.ItemAvailability) *BibAvailabilityResponse {
	items := make([]ItemAvailabilityResponse, 0, len(rows))
	for _, row := range rows {
		items = append(items, ItemAvailabilityResponse{
			Barcode:      row.Barcode,
			Status:       row.Status.String(),
			CustomerCode: row.CustomerCode,
		})
	}
	return &BibAvailabilityResponse{Institution: string(inst), BibID: bibID, Items: items}
}
