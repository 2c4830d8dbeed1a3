package availability

import (
	"slices"
	"strings"

	"discovery/internal/catalog"
	"discovery/internal/policy"
)

// MeetsOnsiteEddCriteria reports whether an on-site item may be scanned for
// electronic delivery. Every field must be on its allow-list and the barcode
// must have the primary institution's format.
func MeetsOnsiteEddCriteria(it catalog.Item, c policy.OnsiteEddCriteria) bool {
	if it.Status == nil || !catalog.IsValidPrimaryBarcode(it.Barcode()) {
		return false
	}
	return allowed(c.Statuses, it.Status.Code()) &&
		allowed(c.CatalogItemTypes, it.CatalogItemType) &&
		allowed(c.HoldingLocations, it.LocationCode()) &&
		allowed(c.AccessMessages, it.AccessMessage)
}

func allowed(list []string, value string) bool {
	v := bareCode(value)
	if v == "" {
		return false
	}
	return slices.ContainsFunc(list, func(s string) bool { return bareCode(s) == v })
}

// bareCode drops any namespace ("accessMessage:1" -> "1").
func bareCode(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndex(s, ":"); i >= 0 {
		s = s[i+1:]
	}
	return strings.ToLower(s)
}
