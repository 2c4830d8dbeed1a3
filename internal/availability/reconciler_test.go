package availability

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"discovery/internal/anomaly"
	"discovery/internal/availability/mocks"
	"discovery/internal/availability/ports"
	"discovery/internal/catalog"
)

type ReconcilerSuite struct {
	suite.Suite
	ctrl       *gomock.Controller
	inventory  *mocks.MockInventoryPort
	publisher  *recordingPublisher
	reconciler *Reconciler
}

func TestReconcilerSuite(t *testing.T) {
	suite.Run(t, new(ReconcilerSuite))
}

func (s *ReconcilerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.inventory = mocks.NewMockInventoryPort(s.ctrl)
	s.publisher = &recordingPublisher{}
	s.reconciler = &Reconciler{
		inventory:     s.inventory,
		reporter:      reporter{anomalies: s.publisher},
		logger:        slog.Default(),
		batchSize:     defaultBatchSize,
		maxConcurrent: defaultMaxConcurrent,
		lookupTimeout: time.Second,
	}
}

func live(bc string, st ports.LiveStatus, code string) map[string]ports.ItemAvailability {
	return map[string]ports.ItemAvailability{bc: {Barcode: bc, Status: st, CustomerCode: code}}
}

func (s *ReconcilerSuite) TestOnsiteItemsAreNeverLookedUp() {
	res := s.reconciler.Reconcile(context.Background(), []catalog.Item{onsiteItem("mal82"), electronicItem()}, false)

	s.Require().Len(res.Items, 2)
	s.False(res.Items[0].Offsite)
	s.Zero(res.Items[0].Live)
	s.False(res.Degraded)
}

func (s *ReconcilerSuite) TestLiveStatusRuleTable() {
	s.Run("available overrides a stale not available", func() {
		it := offsiteItem("NA")
		it.Status = statusOf(catalog.StatusNotAvailable)
		s.inventory.EXPECT().LookupAvailability(gomock.Any(), []string{offsiteBarcode}).
			Return(live(offsiteBarcode, ports.LiveAvailable, ""), nil)

		res := s.reconciler.Reconcile(context.Background(), []catalog.Item{it}, false)
		s.Equal(catalog.StatusAvailable, *res.Items[0].Item.Status)
		s.Equal(ports.LiveAvailable, res.Items[0].Live)
		s.Equal(catalog.StatusNotAvailable, *it.Status, "input item must not change")
	})

	s.Run("not available overrides a stale available", func() {
		s.inventory.EXPECT().LookupAvailability(gomock.Any(), gomock.Any()).
			Return(live(offsiteBarcode, ports.LiveNotAvailable, ""), nil)

		res := s.reconciler.Reconcile(context.Background(), []catalog.Item{offsiteItem("NA")}, false)
		s.Equal(catalog.StatusNotAvailable, *res.Items[0].Item.Status)
	})

	s.Run("unknown barcode keeps the status and reports it", func() {
		s.inventory.EXPECT().LookupAvailability(gomock.Any(), gomock.Any()).
			Return(live(offsiteBarcode, ports.LiveUnknownBarcode, ""), nil)

		res := s.reconciler.Reconcile(context.Background(), []catalog.Item{offsiteItem("NA")}, false)
		s.Equal(catalog.StatusAvailable, *res.Items[0].Item.Status)
		s.Equal(ports.LiveUnknownBarcode, res.Items[0].Live)
		s.Contains(s.publisher.kinds(), anomaly.KindUnknownBarcode)
	})

	s.Run("absent answer keeps the status", func() {
		s.inventory.EXPECT().LookupAvailability(gomock.Any(), gomock.Any()).
			Return(map[string]ports.ItemAvailability{}, nil)

		res := s.reconciler.Reconcile(context.Background(), []catalog.Item{offsiteItem("NA")}, false)
		s.Equal(catalog.StatusAvailable, *res.Items[0].Item.Status)
		s.Zero(res.Items[0].Live)
		s.False(res.Degraded)
	})
}

func (s *ReconcilerSuite) TestLookupFailureKeepsIndexStatus() {
	s.inventory.EXPECT().LookupAvailability(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("connection refused"))

	it := offsiteItem("NA")
	it.Status = statusOf(catalog.StatusNotAvailable)
	res := s.reconciler.Reconcile(context.Background(), []catalog.Item{it}, false)

	s.True(res.Degraded)
	s.Equal(catalog.StatusNotAvailable, *res.Items[0].Item.Status)
	s.Contains(s.publisher.kinds(), anomaly.KindInventoryUnavailable)
}

func (s *ReconcilerSuite) TestBarcodesAreLookedUpOnce() {
	dup := offsiteItem("NA")
	dup.ID = "i10000009"
	partner := partnerItem("CU")

	s.inventory.EXPECT().LookupAvailability(gomock.Any(), []string{offsiteBarcode, partnerBarcode}).
		Return(map[string]ports.ItemAvailability{
			offsiteBarcode: {Barcode: offsiteBarcode, Status: ports.LiveNotAvailable},
			partnerBarcode: {Barcode: partnerBarcode, Status: ports.LiveAvailable},
		}, nil).
		Times(1)

	res := s.reconciler.Reconcile(context.Background(), []catalog.Item{offsiteItem("NA"), dup, partner, onsiteItem("mal82")}, false)

	s.Equal(ports.LiveNotAvailable, res.Items[0].Live)
	s.Equal(ports.LiveNotAvailable, res.Items[1].Live)
	s.Equal(ports.LiveAvailable, res.Items[2].Live)
	s.Zero(res.Items[3].Live)
}

func (s *ReconcilerSuite) TestBatchesRespectBatchSize() {
	s.reconciler.batchSize = 2
	var items []catalog.Item
	for _, bc := range []string{"1", "2", "3", "4", "5"} {
		it := offsiteItem("NA")
		it.Identifiers = barcodes(bc)
		items = append(items, it)
	}

	s.inventory.EXPECT().LookupAvailability(gomock.Any(), []string{"1", "2"}).Return(nil, nil)
	s.inventory.EXPECT().LookupAvailability(gomock.Any(), []string{"3", "4"}).Return(nil, errors.New("boom"))
	s.inventory.EXPECT().LookupAvailability(gomock.Any(), []string{"5"}).Return(live("5", ports.LiveAvailable, ""), nil)

	res := s.reconciler.Reconcile(context.Background(), items, false)
	s.True(res.Degraded)
	s.Equal(ports.LiveAvailable, res.Items[4].Live)
	s.Zero(res.Items[0].Live)
}

func (s *ReconcilerSuite) TestCustomerCodes() {
	s.Run("code from the availability answer fills a missing code", func() {
		s.inventory.EXPECT().LookupAvailability(gomock.Any(), gomock.Any()).
			Return(live(offsiteBarcode, ports.LiveAvailable, "NA"), nil)

		res := s.reconciler.Reconcile(context.Background(), []catalog.Item{offsiteItem("")}, false)
		s.Equal("NA", res.Items[0].Item.RecapCustomerCode)
	})

	s.Run("index code is kept", func() {
		s.inventory.EXPECT().LookupAvailability(gomock.Any(), gomock.Any()).
			Return(live(offsiteBarcode, ports.LiveAvailable, "NH"), nil)

		res := s.reconciler.Reconcile(context.Background(), []catalog.Item{offsiteItem("NA")}, false)
		s.Equal("NA", res.Items[0].Item.RecapCustomerCode)
	})

	s.Run("separate lookup runs once per barcode", func() {
		dup := offsiteItem("")
		dup.ID = "i10000009"
		s.inventory.EXPECT().LookupAvailability(gomock.Any(), gomock.Any()).
			Return(live(offsiteBarcode, ports.LiveAvailable, ""), nil)
		s.inventory.EXPECT().LookupCustomerCode(gomock.Any(), offsiteBarcode).Return("NH", nil).Times(1)

		res := s.reconciler.Reconcile(context.Background(), []catalog.Item{offsiteItem(""), dup}, false)
		s.Equal("NH", res.Items[0].Item.RecapCustomerCode)
		s.Equal("NH", res.Items[1].Item.RecapCustomerCode)
	})

	s.Run("no lookup for unknown barcodes", func() {
		s.inventory.EXPECT().LookupAvailability(gomock.Any(), gomock.Any()).
			Return(live(offsiteBarcode, ports.LiveUnknownBarcode, ""), nil)

		res := s.reconciler.Reconcile(context.Background(), []catalog.Item{offsiteItem("")}, false)
		s.Empty(res.Items[0].Item.RecapCustomerCode)
	})

	s.Run("failed lookup leaves the code empty", func() {
		s.inventory.EXPECT().LookupAvailability(gomock.Any(), gomock.Any()).
			Return(live(offsiteBarcode, ports.LiveAvailable, ""), nil)
		s.inventory.EXPECT().LookupCustomerCode(gomock.Any(), offsiteBarcode).Return("", errors.New("timeout"))

		res := s.reconciler.Reconcile(context.Background(), []catalog.Item{offsiteItem("")}, false)
		s.Empty(res.Items[0].Item.RecapCustomerCode)
		s.True(res.Degraded)
	})
}

func (s *ReconcilerSuite) TestSkipLive() {
	res := s.reconciler.Reconcile(context.Background(), []catalog.Item{offsiteItem("NA")}, true)
	s.Zero(res.Items[0].Live)
	s.True(res.Items[0].Offsite)
}

func TestLookupCacheSharesCustomerCodeFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	inv := mocks.NewMockInventoryPort(ctrl)
	inv.EXPECT().LookupCustomerCode(gomock.Any(), "1").Return("", errors.New("down")).Times(1)

	cache := newLookupCache(inv)
	_, err := cache.customerCode(context.Background(), "1")
	require.Error(t, err)
	_, err = cache.customerCode(context.Background(), "1")
	assert.Error(t, err)

	assert.Equal(t, []string{"2"}, cache.claim([]string{"2", "2"}))
	assert.Empty(t, cache.claim([]string{"2"}))
}
