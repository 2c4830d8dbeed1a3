package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"discovery/internal/anomaly"
	"discovery/internal/availability"
	availabilityHandler "discovery/internal/availability/handler"
	"discovery/internal/features"
	"discovery/internal/policy"
	"discovery/pkg/platform/middleware/request"
	"discovery/pkg/testutil"
)

func testRouter(t *testing.T, health map[string]healthCheck) http.Handler {
	t.Helper()
	snap, err := policy.NewSnapshot(policy.Document{
		Locations: map[string]policy.LocationEntry{
			"mal": {Label: "Schwarzman Building - Main Reading Room 315"},
			"mal82": {
				Label:             "Schwarzman Building - Periodicals 108",
				Requestable:       true,
				DeliveryLocations: []policy.LocationRef{{Code: "mal"}},
			},
		},
	})
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := availability.New(snap, nil,
		availability.WithLogger(logger),
		availability.WithAnomalies(anomaly.Discard{}),
	)
	require.NoError(t, err)

	return newRouter(routerDeps{
		logger:       logger,
		availability: availabilityHandler.New(svc, logger, nil),
		features:     features.Parse([]string{"on-site-edd"}),
		corsOrigins:  []string{"*"},
		health:       health,
	})
}

func TestRouter(t *testing.T) {
	body := map[string]any{
		"items": []map[string]any{{
			"id":              "i10283664",
			"holdingLocation": map[string]string{"code": "loc:mal82", "label": "Periodicals"},
			"identifiers":     []string{"urn:barcode:33433058338470"},
			"status":          map[string]string{"id": "status:a", "label": "Available"},
		}},
	}

	t.Run("resolve applies process and request flags", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/v1/availability/resolve", body)
		req.Header.Set(features.HeaderName, "no-on-site-edd,hide-partner-items")
		rr := testutil.DoRequest(testRouter(t, nil), req)

		testutil.AssertStatusOK(t, rr)
		resp := testutil.UnmarshalResponse[availabilityHandler.ResolveResponse](t, rr)
		assert.Equal(t, []string{"hide-partner-items"}, resp.Features)
		require.Len(t, resp.Items, 1)
		assert.True(t, resp.Items[0].PhysRequestable)
		assert.False(t, resp.Degraded)
		assert.NotEmpty(t, rr.Header().Get(request.HeaderRequestID))
	})

	t.Run("request id is echoed", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/v1/availability/resolve", body)
		req.Header.Set(request.HeaderRequestID, "req-123")
		rr := testutil.DoRequest(testRouter(t, nil), req)

		assert.Equal(t, "req-123", rr.Header().Get(request.HeaderRequestID))
	})

	t.Run("health reports failing dependencies", func(t *testing.T) {
		router := testRouter(t, map[string]healthCheck{
			"redis": func(context.Context) error { return nil },
			"postgres": func(context.Context) error {
				return errors.New("connection refused")
			},
		})
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/healthz"))

		testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
		resp := testutil.UnmarshalResponse[map[string]string](t, rr)
		assert.Equal(t, "ok", (*resp)["redis"])
		assert.Equal(t, "connection refused", (*resp)["postgres"])
	})

	t.Run("health is ok with no dependencies", func(t *testing.T) {
		rr := testutil.DoRequest(testRouter(t, nil), testutil.NewRequest(t, http.MethodGet, "/healthz"))
		testutil.AssertStatusOK(t, rr)
	})

	t.Run("metrics are exposed", func(t *testing.T) {
		rr := testutil.DoRequest(testRouter(t, nil), testutil.NewRequest(t, http.MethodGet, "/metrics"))
		testutil.AssertStatusOK(t, rr)
	})
}
