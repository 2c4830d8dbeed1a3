// Package catalog models item records as they arrive from the search index.
// Records are read-only inputs; resolution stages build new values rather than
// mutating them.
package catalog

import (
	"encoding/json"
	"regexp"
	"strings"
)

const (
	barcodePrefix  = "urn:barcode:"
	locationPrefix = "loc:"
)

// Location is a holding or delivery location reference.
type Location struct {
	Code  string `json:"code"`
	Label string `json:"label,omitempty"`
}

// UnmarshalJSON accepts the index's {"id": "loc:..."} shape as well as
// {"code": ...}. code wins when both are set.
func (l *Location) UnmarshalJSON(b []byte) error {
	var raw struct {
		Code  string `json:"code"`
		ID    string `json:"id"`
		Label string `json:"label"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	l.Code = raw.Code
	if l.Code == "" {
		l.Code = raw.ID
	}
	l.Label = raw.Label
	return nil
}

// Status is the index-supplied circulation status.
type Status struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

var (
	StatusAvailable    = Status{ID: "status:a", Label: "Available"}
	StatusNotAvailable = Status{ID: "status:na", Label: "Not available"}
)

// Code returns the status code with its namespace removed ("a", "na").
func (s Status) Code() string {
	return strings.TrimPrefix(s.ID, "status:")
}

// ElectronicResource is an online representation of the item.
type ElectronicResource struct {
	URL   string `json:"url"`
	Label string `json:"label,omitempty"`
}

// Item is one item record from a search response.
type Item struct {
	ID                string               `json:"id"`
	OwnerInstitution  string               `json:"ownerInstitution,omitempty"`
	HoldingLocation   *Location            `json:"holdingLocation,omitempty"`
	Identifiers       []string             `json:"identifiers,omitempty"`
	RecapCustomerCode string               `json:"recapCustomerCode,omitempty"`
	M2CustomerCode    string               `json:"m2CustomerCode,omitempty"`
	CatalogItemType   string               `json:"catalogItemType,omitempty"`
	AccessMessage     string               `json:"accessMessage,omitempty"`
	ElectronicLocator []ElectronicResource `json:"electronicLocator,omitempty"`
	AeonURL           string               `json:"aeonUrl,omitempty"`
	Status            *Status              `json:"status,omitempty"`
}

// Owner resolves the owning institution from the explicit tag, falling back
// to the id prefix.
func (it Item) Owner() Institution {
	if inst := ParseInstitution(it.OwnerInstitution); inst != InstitutionUnknown {
		return inst
	}
	return InstitutionFromItemID(it.ID)
}

// Barcodes returns the barcode-tagged identifiers in order.
func (it Item) Barcodes() []string {
	var out []string
	for _, ident := range it.Identifiers {
		if bc, ok := strings.CutPrefix(strings.TrimSpace(ident), barcodePrefix); ok && bc != "" {
			out = append(out, bc)
		}
	}
	return out
}

// Barcode returns the first barcode, or "".
func (it Item) Barcode() string {
	if bcs := it.Barcodes(); len(bcs) > 0 {
		return bcs[0]
	}
	return ""
}

// LocationCode returns the normalized holding location code, or "".
func (it Item) LocationCode() string {
	if it.HoldingLocation == nil {
		return ""
	}
	return NormalizeLocationCode(it.HoldingLocation.Code)
}

func (it Item) HasElectronicLocator() bool {
	return len(it.ElectronicLocator) > 0
}

func (it Item) HasAeonURL() bool {
	return strings.TrimSpace(it.AeonURL) != ""
}

// NormalizeLocationCode strips the "loc:" namespace and lowercases.
func NormalizeLocationCode(code string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(code), locationPrefix))
}

// LocationID renders a location code in its namespaced form.
func LocationID(code string) string {
	return locationPrefix + NormalizeLocationCode(code)
}

var primaryBarcodePattern = regexp.MustCompile(`^33433\d{9}$`)

// IsValidPrimaryBarcode reports whether bc has the primary institution's
// 14 digit barcode shape.
func IsValidPrimaryBarcode(bc string) bool {
	return primaryBarcodePattern.MatchString(bc)
}

// IsOffsiteLocation reports whether a location code belongs to the off-site
// storage family.
func IsOffsiteLocation(code string) bool {
	c := NormalizeLocationCode(code)
	return strings.HasPrefix(c, "rc") || c == DepositoryLocation
}

// DepositoryLocation is the off-site depository that is distinct from the
// shared storage facility.
const DepositoryLocation = "hd"
