package availability

import (
	"cmp"
	"slices"
	"strings"

	"discovery/internal/catalog"
	"discovery/internal/policy"
)

// PrimaryRoom is the primary institution's default delivery room.
const PrimaryRoom = "mal"

// Sort tiers for delivery rooms, lowest first.
const (
	tierScholar = iota
	tierPrimary
	tierMainBuilding
	tierPerformingArts
	tierResearchCenter
	tierOther
)

// DeliveryResolver computes the pickup rooms for an item.
type DeliveryResolver struct {
	registry policy.Registry
}

func NewDeliveryResolver(registry policy.Registry) *DeliveryResolver {
	return &DeliveryResolver{registry: registry}
}

// Resolve returns the item's delivery rooms, filtered for scholarRoom and
// sorted. The result depends only on the item, the registry and
// scholarRoom, and is never nil.
func (d *DeliveryResolver) Resolve(it catalog.Item, scholarRoom string) []DeliveryLocation {
	scholarRoom = catalog.NormalizeLocationCode(scholarRoom)
	rooms := filterScholarRooms(dedupeRooms(d.candidates(it)), scholarRoom)

	out := make([]DeliveryLocation, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, DeliveryLocation{
			ID:           catalog.LocationID(room.Code),
			Label:        room.Label,
			SortPosition: SortPosition(room, scholarRoom),
		})
	}
	slices.SortStableFunc(out, func(a, b DeliveryLocation) int {
		return cmp.Or(
			cmp.Compare(a.SortPosition, b.SortPosition),
			cmp.Compare(a.Label, b.Label),
			cmp.Compare(a.ID, b.ID),
		)
	})
	return out
}

// candidates applies the source precedence: recap customer code policy,
// then the M2 strategy, then the location's own rooms.
func (d *DeliveryResolver) candidates(it catalog.Item) []policy.DeliveryLocation {
	if it.HasElectronicLocator() {
		return nil
	}
	if it.RecapCustomerCode != "" {
		if recap, ok := d.registry.RecapCustomerCodePolicy(it.RecapCustomerCode); ok {
			return recap.DeliveryLocations
		}
	}
	code := it.LocationCode()
	if code == "" {
		return nil
	}
	loc, ok := d.registry.LocationPolicy(code)
	if !ok {
		return nil
	}
	if loc.DeliverableToResolution == policy.ResolutionM2CustomerCode {
		if it.M2CustomerCode == "" {
			return nil
		}
		m2, ok := d.registry.M2CustomerCodePolicy(it.M2CustomerCode)
		if !ok || !m2.Requestable {
			return nil
		}
		return m2.DeliveryLocations
	}
	return loc.DeliveryLocations
}

func dedupeRooms(rooms []policy.DeliveryLocation) []policy.DeliveryLocation {
	seen := make(map[string]struct{}, len(rooms))
	out := make([]policy.DeliveryLocation, 0, len(rooms))
	for _, room := range rooms {
		code := catalog.NormalizeLocationCode(room.Code)
		if code == "" {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		room.Code = code
		out = append(out, room)
	}
	return out
}

// filterScholarRooms drops scholar rooms other than scholarRoom. An empty
// scholarRoom drops them all.
func filterScholarRooms(rooms []policy.DeliveryLocation, scholarRoom string) []policy.DeliveryLocation {
	out := make([]policy.DeliveryLocation, 0, len(rooms))
	for _, room := range rooms {
		if room.HasType(policy.DeliveryLocationTypeScholar) && (scholarRoom == "" || room.Code != scholarRoom) {
			continue
		}
		out = append(out, room)
	}
	return out
}

// SortPosition ranks a room: the caller's scholar room, the primary room,
// the main building, the performing arts library, the research center, then
// everything else.
func SortPosition(room policy.DeliveryLocation, scholarRoom string) int {
	code := catalog.NormalizeLocationCode(room.Code)
	switch {
	case scholarRoom != "" && code == scholarRoom && room.HasType(policy.DeliveryLocationTypeScholar):
		return tierScholar
	case code == PrimaryRoom:
		return tierPrimary
	case strings.HasPrefix(code, "ma"):
		return tierMainBuilding
	case strings.HasPrefix(code, "my"), strings.HasPrefix(code, "pa"):
		return tierPerformingArts
	case strings.HasPrefix(code, "sc"):
		return tierResearchCenter
	default:
		return tierOther
	}
}
