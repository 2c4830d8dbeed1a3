package inventory

import "strings"

// Status is a normalized live availability answer.
type Status int

const (
	StatusUnrecognized Status = iota
	StatusAvailable
	StatusNotAvailable
	StatusUnknownBarcode
)

func (s Status) String() string {
	switch s {
	case StatusAvailable:
		return "available"
	case StatusNotAvailable:
		return "not_available"
	case StatusUnknownBarcode:
		return "unknown_barcode"
	default:
		return "unrecognized"
	}
}

const unknownBarcodePrefix = "Item Barcode doesn't exist"

// ParseStatus maps the wire status string.
func ParseStatus(raw string) Status {
	v := strings.TrimSpace(raw)
	switch {
	case strings.EqualFold(v, "Available"):
		return StatusAvailable
	case strings.EqualFold(v, "Not Available"):
		return StatusNotAvailable
	case strings.HasPrefix(v, unknownBarcodePrefix):
		return StatusUnknownBarcode
	default:
		return StatusUnrecognized
	}
}

// ItemStatus is one item's live answer.
type ItemStatus struct {
	Barcode      string
	Status       Status
	RawStatus    string
	CustomerCode string
}

type itemAvailabilityRequest struct {
	Barcodes []string `json:"barcodes"`
}

type bibAvailabilityRequest struct {
	BibliographicID string `json:"bibliographicId"`
	InstitutionID   string `json:"institutionId"`
}

type availabilityRow struct {
	ItemBarcode            string  `json:"itemBarcode"`
	ItemAvailabilityStatus string  `json:"itemAvailabilityStatus"`
	CustomerCode           string  `json:"customerCode,omitempty"`
	ErrorMessage           *string `json:"errorMessage"`
}

type searchRequest struct {
	FieldName  string `json:"fieldName"`
	FieldValue string `json:"fieldValue"`
	Deleted    bool   `json:"deleted"`
}

type searchResponse struct {
	SearchResultRows []searchResultRow `json:"searchResultRows"`
}

type searchResultRow struct {
	Barcode              string          `json:"barcode"`
	CustomerCode         string          `json:"customerCode"`
	SearchItemResultRows []searchItemRow `json:"searchItemResultRows"`
}

type searchItemRow struct {
	Barcode      string `json:"barcode"`
	CustomerCode string `json:"customerCode"`
}
