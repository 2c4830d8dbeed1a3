package policy

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"discovery/internal/catalog"
)

// ErrInvalidDocument is returned when a document cannot be turned into a
// snapshot.
var ErrInvalidDocument = errors.New("invalid policy document")

// Snapshot is an immutable in-memory Registry.
type Snapshot struct {
	locations map[string]LocationPolicy
	recap     map[string]RecapCustomerCodePolicy
	m2        map[string]M2CustomerCodePolicy
	onsiteEdd OnsiteEddCriteria
	warnings  []string
}

var _ Registry = (*Snapshot)(nil)

// Stats summarizes a snapshot for startup logging.
type Stats struct {
	Locations          int
	RecapCustomerCodes int
	M2CustomerCodes    int
}

// NewSnapshot validates doc and resolves every delivery location reference
// against the location vocabulary. Unrecognized resolution values are
// recorded as warnings and treated as ResolutionNone.
func NewSnapshot(doc Document) (*Snapshot, error) {
	s := &Snapshot{
		locations: make(map[string]LocationPolicy, len(doc.Locations)),
		recap:     make(map[string]RecapCustomerCodePolicy, len(doc.RecapCustomerCodes)),
		m2:        make(map[string]M2CustomerCodePolicy, len(doc.M2CustomerCodes)),
		onsiteEdd: DefaultOnsiteEddCriteria(),
	}
	if doc.OnsiteEddCriteria != nil {
		s.onsiteEdd = *doc.OnsiteEddCriteria
	}

	vocab := make(map[string]LocationEntry, len(doc.Locations))
	for raw, entry := range doc.Locations {
		code := catalog.NormalizeLocationCode(raw)
		if code == "" {
			return nil, fmt.Errorf("%w: empty location code", ErrInvalidDocument)
		}
		if _, dup := vocab[code]; dup {
			return nil, fmt.Errorf("%w: duplicate location %q", ErrInvalidDocument, code)
		}
		vocab[code] = entry
	}

	resolve := func(owner string, refs []LocationRef) ([]DeliveryLocation, error) {
		out := make([]DeliveryLocation, 0, len(refs))
		for _, ref := range refs {
			code := catalog.NormalizeLocationCode(ref.Code)
			if code == "" {
				return nil, fmt.Errorf("%w: %s has a delivery location without code", ErrInvalidDocument, owner)
			}
			dl := DeliveryLocation{Code: code, Label: ref.Label}
			if target, ok := vocab[code]; ok {
				if dl.Label == "" {
					dl.Label = target.Label
				}
				dl.Types = slices.Clone(target.DeliveryLocationTypes)
			}
			if dl.Label == "" {
				dl.Label = code
			}
			out = append(out, dl)
		}
		return out, nil
	}

	for code, entry := range vocab {
		dls, err := resolve("location "+code, entry.DeliveryLocations)
		if err != nil {
			return nil, err
		}
		res, ok := ParseResolution(entry.DeliverableToResolution)
		if !ok {
			s.warnings = append(s.warnings, fmt.Sprintf("location %s: unknown deliverableToResolution %q", code, entry.DeliverableToResolution))
		}
		s.locations[code] = LocationPolicy{
			Code:                    code,
			Label:                   entry.Label,
			Requestable:             entry.Requestable,
			DeliveryLocations:       dls,
			DeliveryLocationTypes:   slices.Clone(entry.DeliveryLocationTypes),
			CollectionAccessType:    strings.ToLower(strings.TrimSpace(entry.CollectionAccessType)),
			DeliverableToResolution: res,
		}
	}

	for raw, entry := range doc.RecapCustomerCodes {
		code := NormalizeCustomerCode(raw)
		if code == "" {
			return nil, fmt.Errorf("%w: empty recap customer code", ErrInvalidDocument)
		}
		dls, err := resolve("recap customer code "+code, entry.DeliveryLocations)
		if err != nil {
			return nil, err
		}
		s.recap[code] = RecapCustomerCodePolicy{
			Code:              code,
			Label:             entry.Label,
			EddRequestable:    entry.EddRequestable,
			DeliveryLocations: dls,
		}
	}

	for raw, entry := range doc.M2CustomerCodes {
		code := NormalizeCustomerCode(raw)
		if code == "" {
			return nil, fmt.Errorf("%w: empty m2 customer code", ErrInvalidDocument)
		}
		dls, err := resolve("m2 customer code "+code, entry.DeliveryLocations)
		if err != nil {
			return nil, err
		}
		s.m2[code] = M2CustomerCodePolicy{
			Code:              code,
			Requestable:       entry.Requestable,
			DeliveryLocations: dls,
		}
	}

	slices.Sort(s.warnings)
	return s, nil
}

// NormalizeCustomerCode trims and uppercases a customer code.
func NormalizeCustomerCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (s *Snapshot) LocationPolicy(code string) (LocationPolicy, bool) {
	p, ok := s.locations[catalog.NormalizeLocationCode(code)]
	if !ok {
		return LocationPolicy{}, false
	}
	p.DeliveryLocations = cloneLocations(p.DeliveryLocations)
	p.DeliveryLocationTypes = slices.Clone(p.DeliveryLocationTypes)
	return p, true
}

func (s *Snapshot) RecapCustomerCodePolicy(code string) (RecapCustomerCodePolicy, bool) {
	p, ok := s.recap[NormalizeCustomerCode(code)]
	if !ok {
		return RecapCustomerCodePolicy{}, false
	}
	p.DeliveryLocations = cloneLocations(p.DeliveryLocations)
	return p, true
}

func (s *Snapshot) M2CustomerCodePolicy(code string) (M2CustomerCodePolicy, bool) {
	p, ok := s.m2[NormalizeCustomerCode(code)]
	if !ok {
		return M2CustomerCodePolicy{}, false
	}
	p.DeliveryLocations = cloneLocations(p.DeliveryLocations)
	return p, true
}

func (s *Snapshot) OnsiteEddCriteria() OnsiteEddCriteria {
	c := s.onsiteEdd
	c.Statuses = slices.Clone(c.Statuses)
	c.CatalogItemTypes = slices.Clone(c.CatalogItemTypes)
	c.HoldingLocations = slices.Clone(c.HoldingLocations)
	c.AccessMessages = slices.Clone(c.AccessMessages)
	return c
}

// Warnings lists the non-fatal problems found while building the snapshot.
func (s *Snapshot) Warnings() []string {
	return slices.Clone(s.warnings)
}

func (s *Snapshot) Stats() Stats {
	return Stats{
		Locations:          len(s.locations),
		RecapCustomerCodes: len(s.recap),
		M2CustomerCodes:    len(s.m2),
	}
}

func cloneLocations(in []DeliveryLocation) []DeliveryLocation {
	if in == nil {
		return nil
	}
	out := make([]DeliveryLocation, len(in))
	for i, dl := range in {
		dl.Types = slices.Clone(dl.Types)
		out[i] = dl
	}
	return out
}
