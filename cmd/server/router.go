package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	availabilityHandler "discovery/internal/availability/handler"
	"discovery/internal/features"
	platformMetrics "discovery/internal/platform/metrics"
	"discovery/pkg/platform/httputil"
	"discovery/pkg/platform/middleware/metadata"
	"discovery/pkg/platform/middleware/request"
	"discovery/pkg/platform/middleware/requesttime"
)

// healthCheck reports whether a dependency is usable.
type healthCheck func(ctx context.Context) error

type routerDeps struct {
	logger       *slog.Logger
	metrics      *platformMetrics.Metrics
	availability *availabilityHandler.Handler
	features     features.Set
	corsOrigins  []string
	health       map[string]healthCheck
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(request.Recover(d.logger))
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(d.metrics.Middleware)
	r.Use(request.Logger(d.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", request.HeaderRequestID, features.HeaderName},
		ExposedHeaders: []string{request.HeaderRequestID},
		MaxAge:         300,
	}))
	r.Use(features.Middleware(d.features))

	r.Get("/healthz", healthHandler(d.health))
	r.Handle("/metrics", platformMetrics.Handler())
	d.availability.Register(r)
	return r
}

func healthHandler(checks map[string]healthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]string{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				body[name] = err.Error()
				continue
			}
			body[name] = "ok"
		}
		httputil.WriteJSON(w, status, body)
	}
}
