package catalog

import "strings"

// Institution identifies the library that owns an item.
type Institution string

const (
	InstitutionUnknown   Institution = ""
	InstitutionNYPL      Institution = "nypl"
	InstitutionPrinceton Institution = "princeton"
	InstitutionColumbia  Institution = "columbia"
	InstitutionHarvard   Institution = "harvard"
)

// PrimaryInstitution owns the on-site collections and the location policies.
const PrimaryInstitution = InstitutionNYPL

// itemIDPrefixes maps item id prefixes to owners. Longer prefixes are
// checked before the single letter primary prefix.
var itemIDPrefixes = []struct {
	prefix string
	inst   Institution
}{
	{"pi", InstitutionPrinceton},
	{"ci", InstitutionColumbia},
	{"hi", InstitutionHarvard},
	{"i", InstitutionNYPL},
}

var orgIDs = map[string]Institution{
	"orgs:1000": InstitutionNYPL,
	"orgs:0003": InstitutionPrinceton,
	"orgs:0002": InstitutionColumbia,
	"orgs:0004": InstitutionHarvard,
}

// shared inventory institution identifiers
var inventoryIDs = map[Institution]string{
	InstitutionNYPL:      "NYPL",
	InstitutionPrinceton: "PUL",
	InstitutionColumbia:  "CUL",
	InstitutionHarvard:   "HL",
}

// ParseInstitution accepts an org id ("orgs:1000"), a shared inventory code
// ("PUL") or a plain name ("princeton").
func ParseInstitution(raw string) Institution {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" {
		return InstitutionUnknown
	}
	if inst, ok := orgIDs[v]; ok {
		return inst
	}
	for inst, code := range inventoryIDs {
		if strings.EqualFold(code, v) || string(inst) == v {
			return inst
		}
	}
	return InstitutionUnknown
}

// InstitutionFromItemID derives the owner from an item id such as "i10283664"
// or "pi189241".
func InstitutionFromItemID(id string) Institution {
	id = strings.TrimPrefix(strings.TrimSpace(id), "urn:item:")
	for _, p := range itemIDPrefixes {
		rest, ok := strings.CutPrefix(id, p.prefix)
		if ok && rest != "" && isDigits(rest) {
			return p.inst
		}
	}
	return InstitutionUnknown
}

// InventoryID returns the shared inventory code for the institution.
func (i Institution) InventoryID() string {
	return inventoryIDs[i]
}

func (i Institution) IsPrimary() bool {
	return i == PrimaryInstitution
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
