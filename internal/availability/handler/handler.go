package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"discovery/internal/availability"
	"discovery/internal/availability/metrics"
	"discovery/internal/availability/ports"
	"discovery/internal/catalog"
	"discovery/internal/features"
	"discovery/pkg/platform/httputil"
	"discovery/pkg/requestcontext"
)

// Service defines the availability operations the handler needs.
type Service interface {
	Resolve(ctx context.Context, req availability.Request) *availability.Result
	BibAvailability(ctx context.Context, inst catalog.Institution, bibID string) ([]ports.ItemAvailability, error)
}

// Handler wires availability endpoints to the resolution service.
type Handler struct {
	service Service
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func New(service Service, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
		metrics: metrics,
	}
}

// Register mounts availability endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/availability/resolve", h.HandleResolve)
	r.Get("/v1/availability/bibs/{institution}/{bibID}", h.HandleBibAvailability)
}

// HandleResolve handles POST /v1/availability/resolve. Data problems in the
// items never fail the request.
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[ResolveRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	flagSet := features.FromContext(ctx).With(req.Features)
	result := h.service.Resolve(ctx, availability.Request{
		Items:       req.Items,
		ScholarRoom: req.ScholarRoom,
		Flags:       flagSet.Check(),
	})
	if result.Degraded {
		h.metrics.IncDegradedResponse()
	}

	h.logger.InfoContext(ctx, "availability resolved",
		"request_id", requestID,
		"items", len(result.Items),
		"degraded", result.Degraded,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, &ResolveResponse{
		Items:    result.Items,
		Degraded: result.Degraded,
		Features: flagSet.List(),
	})
}

// HandleBibAvailability handles GET /v1/availability/bibs/{institution}/{bibID}.
func (h *Handler) HandleBibAvailability(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	inst := catalog.ParseInstitution(chi.URLParam(r, "institution"))
	bibID := chi.URLParam(r, "bibID")

	rows, err := h.service.BibAvailability(ctx, inst, bibID)
	if err != nil {
		h.logger.WarnContext(ctx, "bib availability failed",
			"request_id", requestID,
			"institution", chi.URLParam(r, "institution"),
			"bib_id", bibID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromBibRows(inst, bibID, rows))
}
