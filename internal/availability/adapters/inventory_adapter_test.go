package adapters

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"discovery/internal/anomaly"
	"discovery/internal/availability/ports"
	"discovery/internal/catalog"
	"discovery/internal/inventory"
)

type events []anomaly.Event

func (e *events) Publish(_ context.Context, ev anomaly.Event) {
	*e = append(*e, ev)
}

func newAdapter(t *testing.T, h http.HandlerFunc, opts ...AdapterOption) ports.InventoryPort {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	client, err := inventory.New(srv.URL, "key", inventory.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return NewInventoryAdapter(client, opts...)
}

func TestLookupAvailabilityDropsUnrecognizedRows(t *testing.T) {
	var seen events
	a := newAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"itemBarcode": "1", "itemAvailabilityStatus": "Available", "customerCode": "NA"},
			{"itemBarcode": "2", "itemAvailabilityStatus": "In Transit"},
			{"itemBarcode": "3", "itemAvailabilityStatus": "Item Barcode doesn't exist in SCSB database."}
		]`))
	}, WithAnomalies(&seen))

	got, err := a.LookupAvailability(context.Background(), []string{"1", "2", "3"})
	require.NoError(t, err)

	assert.Equal(t, map[string]ports.ItemAvailability{
		"1": {Barcode: "1", Status: ports.LiveAvailable, CustomerCode: "NA"},
		"3": {Barcode: "3", Status: ports.LiveUnknownBarcode},
	}, got)

	require.Len(t, seen, 1)
	assert.Equal(t, anomaly.KindUnrecognizedStatus, seen[0].Kind)
	assert.Equal(t, "2", seen[0].Barcode)
	assert.Equal(t, "In Transit", seen[0].Detail)
}

func TestLookupCustomerCodeNotFoundIsEmpty(t *testing.T) {
	a := newAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"searchResultRows": []}`))
	})

	code, err := a.LookupCustomerCode(context.Background(), "1")
	require.NoError(t, err)
	assert.Empty(t, code)
}

func TestLookupCustomerCodePropagatesOutage(t *testing.T) {
	a := newAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := a.LookupCustomerCode(context.Background(), "1")
	assert.Equal(t, inventory.CategoryProviderOutage, inventory.CategoryOf(err))
}

func TestLookupBibAvailability(t *testing.T) {
	a := newAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"itemBarcode": "33433000000001", "itemAvailabilityStatus": "Not Available"}]`))
	})

	got, err := a.LookupBibAvailability(context.Background(), catalog.InstitutionNYPL, "b1234")
	require.NoError(t, err)
	assert.Equal(t, []ports.ItemAvailability{{Barcode: "33433000000001", Status: ports.LiveNotAvailable}}, got)
}
