package inventory

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"discovery/internal/catalog"
	"discovery/pkg/platform/circuit"
)

func newTestClient(t *testing.T, h http.Handler, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	opts = append([]Option{
		WithHTTPClient(srv.Client()),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}, opts...)
	c, err := New(srv.URL, "secret", opts...)
	require.NoError(t, err)
	return c
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New("  ", "key")
	assert.Error(t, err)
}

func TestItemAvailability(t *testing.T) {
	var gotBody itemAvailabilityRequest
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, itemAvailabilityPath, r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("api_key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`[
			{"itemBarcode": "33433000000001", "itemAvailabilityStatus": "Available", "customerCode": "NA", "errorMessage": null},
			{"itemBarcode": "33433000000002", "itemAvailabilityStatus": "Not Available", "errorMessage": null},
			{"itemBarcode": "33433000000003", "itemAvailabilityStatus": "Item Barcode doesn't exist in SCSB database.", "errorMessage": null},
			{"itemBarcode": "33433000000004", "itemAvailabilityStatus": "Mystery", "errorMessage": null}
		]`))
	}))

	got, err := c.ItemAvailability(context.Background(), []string{"33433000000001", "33433000000002", "33433000000003", "33433000000004"})
	require.NoError(t, err)

	assert.Len(t, gotBody.Barcodes, 4)
	require.Len(t, got, 4)
	assert.Equal(t, ItemStatus{Barcode: "33433000000001", Status: StatusAvailable, RawStatus: "Available", CustomerCode: "NA"}, got[0])
	assert.Equal(t, StatusNotAvailable, got[1].Status)
	assert.Equal(t, StatusUnknownBarcode, got[2].Status)
	assert.Equal(t, StatusUnrecognized, got[3].Status)
}

func TestItemAvailabilityEmptyInputSkipsCall(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))

	got, err := c.ItemAvailability(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Zero(t, calls.Load())
}

func TestTimeoutCancelsRequest(t *testing.T) {
	cancelled := make(chan struct{})
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// the server only notices a client abort once the body has been read
		_, _ = io.Copy(io.Discard, r.Body)
		select {
		case <-r.Context().Done():
			close(cancelled)
		case <-time.After(5 * time.Second):
		}
	}), WithTimeout(50*time.Millisecond))

	start := time.Now()
	_, err := c.ItemAvailability(context.Background(), []string{"33433000000001"})

	require.Error(t, err)
	assert.Equal(t, CategoryTimeout, CategoryOf(err))
	assert.Less(t, time.Since(start), 2*time.Second)
	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("server request was not cancelled after the deadline")
	}
}

func TestStatusCodeCategories(t *testing.T) {
	tests := []struct {
		status int
		body   string
		want   Category
	}{
		{http.StatusUnauthorized, "", CategoryAuthentication},
		{http.StatusNotFound, "", CategoryNotFound},
		{http.StatusTooManyRequests, "", CategoryRateLimited},
		{http.StatusBadGateway, "", CategoryProviderOutage},
		{http.StatusTeapot, "", CategoryContractMismatch},
		{http.StatusOK, "{not json", CategoryBadData},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))

			_, err := c.ItemAvailability(context.Background(), []string{"1"})
			assert.Equal(t, tt.want, CategoryOf(err))
		})
	}
}

func TestCustomerCode(t *testing.T) {
	t.Run("prefers matching item row", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, searchPath, r.URL.Path)
			var req searchRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "Barcode", req.FieldName)
			_, _ = w.Write([]byte(`{"searchResultRows": [{"customerCode": "", "searchItemResultRows": [
				{"barcode": "other", "customerCode": "XX"},
				{"barcode": "` + req.FieldValue + `", "customerCode": "NH"}
			]}]}`))
		}))

		code, err := c.CustomerCode(context.Background(), "33433000000001")
		require.NoError(t, err)
		assert.Equal(t, "NH", code)
	})

	t.Run("falls back to bib row", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"searchResultRows": [{"barcode": "33433000000001", "customerCode": "NA", "searchItemResultRows": []}]}`))
		}))

		code, err := c.CustomerCode(context.Background(), "33433000000001")
		require.NoError(t, err)
		assert.Equal(t, "NA", code)
	})

	t.Run("no code is not_found", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"searchResultRows": []}`))
		}))

		_, err := c.CustomerCode(context.Background(), "33433000000001")
		assert.True(t, IsNotFound(err))
	})
}

func TestBibAvailability(t *testing.T) {
	var got bibAvailabilityRequest
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, bibAvailabilityPath, r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`[{"itemBarcode": "32101000000001", "itemAvailabilityStatus": "Available"}]`))
	}))

	rows, err := c.BibAvailability(context.Background(), catalog.InstitutionPrinceton, "pb9912345")
	require.NoError(t, err)

	assert.Equal(t, bibAvailabilityRequest{BibliographicID: "9912345", InstitutionID: "PUL"}, got)
	require.Len(t, rows, 1)
	assert.Equal(t, StatusAvailable, rows[0].Status)

	_, err = c.BibAvailability(context.Background(), catalog.InstitutionUnknown, "b1")
	assert.Equal(t, CategoryBadData, CategoryOf(err))
}

func TestPadBibID(t *testing.T) {
	tests := []struct {
		inst    catalog.Institution
		in      string
		want    string
		wantErr bool
	}{
		{catalog.InstitutionNYPL, "b1234", "00001234", false},
		{catalog.InstitutionNYPL, "b12345678", "12345678", false},
		{catalog.InstitutionNYPL, "b123456789", "123456789", false},
		{catalog.InstitutionNYPL, "bxyz", "", true},
		{catalog.InstitutionColumbia, "cb77", "77", false},
		{catalog.InstitutionHarvard, "hb990001", "990001", false},
		{catalog.InstitutionUnknown, "b1", "", true},
	}
	for _, tt := range tests {
		t.Run(string(tt.inst)+"/"+tt.in, func(t *testing.T) {
			got, err := PadBibID(tt.inst, tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBreakerShortCircuitsAfterFailures(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}), WithBreaker(circuit.New("inventory", circuit.WithFailureThreshold(2), circuit.WithCooldown(time.Hour))))

	for range 2 {
		_, err := c.ItemAvailability(context.Background(), []string{"1"})
		assert.Equal(t, CategoryProviderOutage, CategoryOf(err))
	}
	_, err := c.ItemAvailability(context.Background(), []string{"1"})

	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(2), calls.Load())
}

func TestNotFoundDoesNotTripBreaker(t *testing.T) {
	b := circuit.New("inventory", circuit.WithFailureThreshold(1))
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"searchResultRows": []}`))
	}), WithBreaker(b))

	_, err := c.CustomerCode(context.Background(), "1")
	assert.True(t, IsNotFound(err))
	assert.False(t, b.IsOpen())
}

func TestParseStatus(t *testing.T) {
	assert.Equal(t, StatusAvailable, ParseStatus(" available "))
	assert.Equal(t, StatusNotAvailable, ParseStatus("Not Available"))
	assert.Equal(t, StatusUnknownBarcode, ParseStatus("Item Barcode doesn't exist in SCSB database."))
	assert.Equal(t, StatusUnrecognized, ParseStatus(""))
}
