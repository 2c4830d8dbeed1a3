package availability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"discovery/internal/anomaly"
	"discovery/internal/availability/ports"
	"discovery/internal/catalog"
	"discovery/internal/features"
)

func evaluate(t *testing.T, rec ReconciledItem, check features.Check) (Eligibility, []DeliveryLocation) {
	t.Helper()
	reg := testRegistry(t)
	deliveries := NewDeliveryResolver(reg).Resolve(rec.Item, "")
	return NewEngine(reg, nil, nil).Evaluate(context.Background(), rec, deliveries, check), deliveries
}

func reconciled(it catalog.Item) ReconciledItem {
	return ReconciledItem{Item: it, Offsite: IsOffsite(it)}
}

func TestClassifyRegime(t *testing.T) {
	unknownOwner := onsiteItem("mal82")
	unknownOwner.ID = "x123"

	tests := []struct {
		name string
		item catalog.Item
		want Regime
	}{
		{"electronic wins over everything", electronicItem(), RegimeElectronic},
		{"owned on-site", onsiteItem("mal82"), RegimeOwnedOnSite},
		{"owned off-site with code", offsiteItem("NA"), RegimeOwnedOffSiteWithCode},
		{"owned off-site without code", offsiteItem(""), RegimeOwnedOffSiteNoCode},
		{"owned depository", func() catalog.Item { it := offsiteItem(""); it.HoldingLocation = loc("hd"); return it }(), RegimeOwnedOffSiteNoCode},
		{"partner with code", partnerItem("CU"), RegimePartnerWithCode},
		{"partner without code", partnerItem(""), RegimePartnerNoCode},
		{"partner at an on-site location", func() catalog.Item { it := partnerItem(""); it.HoldingLocation = loc("mal82"); return it }(), RegimePartnerNoCode},
		{"unrecognized owner is treated as partner", unknownOwner, RegimePartnerNoCode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyRegime(tt.item))
		})
	}
}

func TestIsOffsite(t *testing.T) {
	assert.False(t, IsOffsite(onsiteItem("mal82")))
	assert.True(t, IsOffsite(offsiteItem("")))
	assert.True(t, IsOffsite(partnerItem("")))

	partnerOnsite := partnerItem("")
	partnerOnsite.HoldingLocation = loc("mal82")
	assert.True(t, IsOffsite(partnerOnsite), "partner items are off-site regardless of location")

	explicitOwner := onsiteItem("mal82")
	explicitOwner.ID = "i1"
	explicitOwner.OwnerInstitution = "orgs:0003"
	assert.True(t, IsOffsite(explicitOwner), "owner tag overrides the id prefix")
}

func TestElectronicItemsAreNeverRequestable(t *testing.T) {
	items := []catalog.Item{electronicItem()}

	withAeon := electronicItem()
	withAeon.AeonURL = "https://specialcollections.example.org/request"
	items = append(items, withAeon)

	special := electronicItem()
	special.HoldingLocation = loc("scff2")
	items = append(items, special)

	offsite := offsiteItem("NA")
	offsite.ElectronicLocator = []catalog.ElectronicResource{{URL: "https://example.org"}}
	items = append(items, offsite)

	for _, it := range items {
		elig, _ := evaluate(t, reconciled(it), flags(string(features.OnsiteEdd)))
		assert.Equal(t, Eligibility{}, elig, it.ID)
		assert.False(t, elig.Requestable())
	}
}

// generatedItems crosses locations, owners, customer codes and the special
// collections markers.
func generatedItems() []catalog.Item {
	var out []catalog.Item
	locations := []string{"mal82", "scf", "mapp8", "mai", "scff2", "rc2ma", "rcma2", "hd", "zzz", ""}
	codes := []string{"", "NA", "NH", "NX", "CU", "QQ"}
	ids := []string{"i10000001", "pi2000001", "ci3000001"}
	for _, l := range locations {
		for _, code := range codes {
			for _, id := range ids {
				for _, aeon := range []string{"", "https://aeon.example.org/request"} {
					it := catalog.Item{
						ID:                id,
						Identifiers:       barcodes(onsiteBarcode),
						RecapCustomerCode: code,
						M2CustomerCode:    "XA",
						CatalogItemType:   "55",
						AccessMessage:     "1",
						AeonURL:           aeon,
						Status:            statusOf(catalog.StatusAvailable),
					}
					if l != "" {
						it.HoldingLocation = loc(l)
					}
					out = append(out, it)
				}
			}
		}
	}
	return out
}

func TestSpecRequestableInvariants(t *testing.T) {
	reg := testRegistry(t)
	engine := NewEngine(reg, nil, nil)
	resolver := NewDeliveryResolver(reg)
	check := flags(string(features.OnsiteEdd))

	for _, it := range generatedItems() {
		for _, live := range []ports.LiveStatus{0, ports.LiveAvailable, ports.LiveNotAvailable} {
			rec := ReconciledItem{Item: it, Offsite: IsOffsite(it), Live: live}
			elig := engine.Evaluate(context.Background(), rec, resolver.Resolve(it, ""), check)

			locPolicy, ok := reg.LocationPolicy(it.LocationCode())
			wantSpec := it.AeonURL != "" || (ok && locPolicy.IsSpecialCollection())
			assert.Equal(t, wantSpec, elig.Spec, "spec for %s at %s", it.ID, it.LocationCode())
			if elig.Spec {
				assert.False(t, elig.Edd, "spec and edd are exclusive for %s at %s", it.ID, it.LocationCode())
			}
			assert.Equal(t, elig.Phys || elig.Edd || elig.Spec, elig.Requestable())
		}
	}
}

func TestUnknownBarcodeClosesEveryChannel(t *testing.T) {
	for _, it := range []catalog.Item{offsiteItem(""), offsiteItem("NA"), partnerItem("CU"), partnerItem("")} {
		rec := ReconciledItem{Item: it, Offsite: true, Live: ports.LiveUnknownBarcode}
		elig, _ := evaluate(t, rec, nil)
		assert.False(t, elig.Phys)
		assert.False(t, elig.Requestable())
	}
}

func TestNotAvailableClosesPhysicalAndEdd(t *testing.T) {
	rec := ReconciledItem{Item: offsiteItem("NA"), Offsite: true, Live: ports.LiveNotAvailable}
	elig, deliveries := evaluate(t, rec, nil)
	require.NotEmpty(t, deliveries)
	assert.Equal(t, Eligibility{}, elig)

	withAeon := offsiteItem("NA")
	withAeon.AeonURL = "https://aeon.example.org/request"
	elig, _ = evaluate(t, ReconciledItem{Item: withAeon, Offsite: true, Live: ports.LiveNotAvailable}, nil)
	assert.Equal(t, Eligibility{Spec: true}, elig)
}

func TestOnsiteNotRequestableLocationIgnoresDeliveryCount(t *testing.T) {
	elig, deliveries := evaluate(t, reconciled(onsiteItem("mapp8")), nil)
	require.Len(t, deliveries, 1)
	assert.False(t, elig.Phys)
}

func TestPhysRequestableByRegime(t *testing.T) {
	noBarcode := onsiteItem("mal82")
	noBarcode.Identifiers = nil

	unknownLocation := onsiteItem("zzz")
	missingLocation := onsiteItem("mal82")
	missingLocation.HoldingLocation = nil

	restricted := offsiteItem("")
	restricted.HoldingLocation = loc("rcma2")

	partnerUnknownLocation := partnerItem("")
	partnerUnknownLocation.HoldingLocation = loc("rczz")

	tests := []struct {
		name string
		item catalog.Item
		want bool
	}{
		{"on-site with rooms", onsiteItem("mal82"), true},
		{"on-site special collections", onsiteItem("scff2"), false},
		{"on-site without barcode", noBarcode, false},
		{"on-site unknown location", unknownLocation, false},
		{"on-site missing location", missingLocation, false},
		{"on-site requestable with no rooms", onsiteItem("maj"), false},
		{"off-site no code, requestable location", offsiteItem(""), true},
		{"off-site no code, restricted location", restricted, false},
		{"off-site with code and rooms", offsiteItem("NA"), true},
		{"off-site with code and no rooms", offsiteItem("NX"), false},
		{"off-site with unmapped code", offsiteItem("QQ"), false},
		{"partner no code", partnerItem(""), true},
		{"partner no code, unknown location", partnerUnknownLocation, false},
		{"partner with code", partnerItem("CU"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			elig, _ := evaluate(t, reconciled(tt.item), nil)
			assert.Equal(t, tt.want, elig.Phys)
		})
	}
}

func TestEddRequestableByRegime(t *testing.T) {
	restricted := offsiteItem("")
	restricted.HoldingLocation = loc("rcma2")

	restrictedWithCode := offsiteItem("NA")
	restrictedWithCode.HoldingLocation = loc("rcma2")

	partnerRestricted := partnerItem("CU")
	partnerRestricted.HoldingLocation = loc("rcma2")

	onsiteWrongType := onsiteItem("mal82")
	onsiteWrongType.CatalogItemType = "catalogItemType:3"

	tests := []struct {
		name  string
		item  catalog.Item
		flags []string
		want  bool
	}{
		{"on-site meeting criteria with flag", onsiteItem("mal82"), []string{"on-site-edd"}, true},
		{"on-site meeting criteria without flag", onsiteItem("mal82"), nil, false},
		{"on-site failing one criterion", onsiteWrongType, []string{"on-site-edd"}, false},
		{"off-site no code, requestable location", offsiteItem(""), nil, true},
		{"off-site no code, restricted location", restricted, nil, false},
		{"off-site code allows edd", offsiteItem("NA"), nil, true},
		{"off-site code denies edd", offsiteItem("NH"), nil, false},
		{"off-site code, restricted location", restrictedWithCode, nil, false},
		{"off-site unmapped code", offsiteItem("QQ"), nil, false},
		{"partner no code", partnerItem(""), nil, true},
		{"partner with code ignores location", partnerRestricted, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			elig, _ := evaluate(t, reconciled(tt.item), flags(tt.flags...))
			assert.Equal(t, tt.want, elig.Edd)
		})
	}
}

func TestScenarioOffsiteCodeWithoutEdd(t *testing.T) {
	elig, _ := evaluate(t, reconciled(offsiteItem("NH")), nil)
	assert.False(t, elig.Edd)
	assert.True(t, elig.Phys)
}

func TestScenarioOffsiteWithoutCodeIsOptimistic(t *testing.T) {
	elig, deliveries := evaluate(t, reconciled(offsiteItem("")), nil)
	assert.Empty(t, deliveries)
	assert.True(t, elig.Phys)
	assert.True(t, elig.Edd)
}

func TestEvaluateReportsUnknownOwner(t *testing.T) {
	pub := &recordingPublisher{}
	engine := NewEngine(testRegistry(t), pub, nil)

	it := partnerItem("")
	it.ID = "b12345"
	it.OwnerInstitution = "orgs:9999"

	elig := engine.Evaluate(context.Background(), reconciled(it), nil, nil)

	assert.True(t, elig.Edd, "unknown owners keep the partner rules")
	require.Equal(t, []anomaly.Kind{anomaly.KindUnknownOwner}, pub.kinds())
	assert.Equal(t, "b12345", pub.events[0].ItemID)
	assert.Equal(t, "orgs:9999", pub.events[0].Detail)

	pub.events = nil
	engine.Evaluate(context.Background(), reconciled(partnerItem("")), nil, nil)
	assert.Empty(t, pub.kinds(), "recognized partners are not reported")
}

func TestEvaluateReportsDataAnomalies(t *testing.T) {
	reg := testRegistry(t)
	pub := &recordingPublisher{}
	engine := NewEngine(reg, pub, nil)

	noLocation := onsiteItem("mal82")
	noLocation.HoldingLocation = nil
	noLocation.Identifiers = nil

	noStatus := onsiteItem("mal82")
	noStatus.Status = nil

	ctx := context.Background()
	engine.Evaluate(ctx, reconciled(noLocation), nil, nil)
	engine.Evaluate(ctx, reconciled(onsiteItem("zzz")), nil, nil)
	engine.Evaluate(ctx, reconciled(offsiteItem("QQ")), nil, nil)
	elig := engine.Evaluate(ctx, reconciled(noStatus), nil, flags("on-site-edd"))
	engine.Evaluate(ctx, reconciled(electronicItem()), nil, nil)

	assert.False(t, elig.Edd)
	assert.Equal(t, []anomaly.Kind{
		anomaly.KindMissingHoldingLocation,
		anomaly.KindMissingBarcode,
		anomaly.KindUnknownLocation,
		anomaly.KindUnmappedCustomerCode,
		anomaly.KindMissingStatus,
	}, pub.kinds())
}
