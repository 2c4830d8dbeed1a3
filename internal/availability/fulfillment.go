package availability

import (
	"strings"

	"discovery/internal/catalog"
)

const fulfillmentPrefix = "fulfillment:"

// ClassifyFulfillment returns the fulfillment tags for an item's open
// channels, physical first. Off-site items use the storage facility tags
// (or the depository's); on-site items use their building's. Items with no
// open channel, or at an unrecognized on-site location, get none.
func ClassifyFulfillment(rec ReconciledItem, elig Eligibility) []string {
	family := fulfillmentFamily(rec)
	if family == "" {
		return nil
	}
	var tags []string
	if elig.Phys {
		tags = append(tags, fulfillmentPrefix+family.phys())
	}
	if elig.Edd {
		tags = append(tags, fulfillmentPrefix+family.edd())
	}
	return tags
}

type fulfillmentGroup string

const (
	groupRecap      fulfillmentGroup = "recap"
	groupDepository fulfillmentGroup = "hd"
	groupSASB       fulfillmentGroup = "sasb"
	groupLPA        fulfillmentGroup = "lpa"
	groupSC         fulfillmentGroup = "sc"
)

func (g fulfillmentGroup) phys() string {
	if g == groupRecap || g == groupDepository {
		return string(g) + "-offsite"
	}
	return string(g) + "-onsite"
}

func (g fulfillmentGroup) edd() string {
	return string(g) + "-edd"
}

func fulfillmentFamily(rec ReconciledItem) fulfillmentGroup {
	code := rec.Item.LocationCode()
	if rec.Offsite {
		if code == catalog.DepositoryLocation {
			return groupDepository
		}
		return groupRecap
	}
	switch {
	case strings.HasPrefix(code, "ma"):
		return groupSASB
	case strings.HasPrefix(code, "my"), strings.HasPrefix(code, "pa"):
		return groupLPA
	case strings.HasPrefix(code, "sc"):
		return groupSC
	default:
		return ""
	}
}
