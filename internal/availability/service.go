package availability

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"discovery/internal/anomaly"
	"discovery/internal/availability/metrics"
	"discovery/internal/availability/ports"
	"discovery/internal/catalog"
	"discovery/internal/features"
	"discovery/internal/inventory"
	"discovery/internal/policy"
	dErrors "discovery/pkg/domain-errors"
	"discovery/pkg/requestcontext"
)

// Service runs the resolution pipeline: reconcile with the shared inventory,
// resolve delivery rooms, evaluate eligibility, tag fulfillment. Data
// problems never fail a batch; every item comes back with safe defaults.
type Service struct {
	registry        policy.Registry
	inventory       ports.InventoryPort
	anomalies       ports.AnomalyPort
	logger          *slog.Logger
	metrics         *metrics.Metrics
	tracer          trace.Tracer
	batchSize       int
	maxConcurrent   int
	lookupTimeout   time.Duration
	skipLiveForBots bool

	reconciler *Reconciler
	engine     *Engine
	delivery   *DeliveryResolver
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithAnomalies replaces the default log publisher.
func WithAnomalies(p ports.AnomalyPort) Option {
	return func(s *Service) {
		s.anomalies = p
	}
}

// WithBatchSize caps the barcodes sent in one availability call.
func WithBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithMaxConcurrent caps in-flight inventory calls per batch of items.
func WithMaxConcurrent(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxConcurrent = n
		}
	}
}

// WithLookupTimeout bounds each inventory call. The call is cancelled when
// the deadline passes.
func WithLookupTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.lookupTimeout = d
		}
	}
}

// WithSkipLiveForBots keeps index status for crawler traffic.
func WithSkipLiveForBots(skip bool) Option {
	return func(s *Service) {
		s.skipLiveForBots = skip
	}
}

// New builds a Service. inventory may be nil, in which case every item
// keeps its index status.
func New(registry policy.Registry, inventory ports.InventoryPort, opts ...Option) (*Service, error) {
	if registry == nil {
		return nil, fmt.Errorf("policy registry is required")
	}
	s := &Service{
		registry:      registry,
		inventory:     inventory,
		logger:        slog.Default(),
		tracer:        otel.Tracer("discovery/availability"),
		batchSize:     defaultBatchSize,
		maxConcurrent: defaultMaxConcurrent,
		lookupTimeout: defaultLookupTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.anomalies == nil {
		s.anomalies = anomaly.NewLogPublisher(s.logger)
	}

	rep := reporter{anomalies: s.anomalies, metrics: s.metrics}
	s.reconciler = &Reconciler{
		inventory:     inventory,
		reporter:      rep,
		metrics:       s.metrics,
		logger:        s.logger,
		batchSize:     s.batchSize,
		maxConcurrent: s.maxConcurrent,
		lookupTimeout: s.lookupTimeout,
	}
	s.engine = NewEngine(registry, s.anomalies, s.metrics)
	s.delivery = NewDeliveryResolver(registry)
	return s, nil
}

// Resolve resolves every item in req and returns them in input order. It
// does not modify req.Items.
func (s *Service) Resolve(ctx context.Context, req Request) *Result {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "availability.resolve",
		trace.WithAttributes(attribute.Int("items", len(req.Items))))
	defer span.End()
	defer func() { s.metrics.ObserveResolve(time.Since(start)) }()

	items := req.Items
	if req.enabled(features.HidePartnerItems) {
		items = primaryOnly(items)
	}

	skipLive := s.skipLiveForBots && requestcontext.IsBot(ctx)
	rctx, rspan := s.tracer.Start(ctx, "availability.reconcile")
	reconciled := s.reconciler.Reconcile(rctx, items, skipLive)
	rspan.SetAttributes(attribute.Bool("degraded", reconciled.Degraded))
	rspan.End()

	out := make([]ResolvedItem, len(reconciled.Items))
	for i, rec := range reconciled.Items {
		out[i] = s.resolveOne(ctx, rec, req)
	}

	span.SetAttributes(attribute.Bool("degraded", reconciled.Degraded))
	s.logger.DebugContext(ctx, "items resolved",
		"items", len(out),
		"degraded", reconciled.Degraded,
		"request_id", requestcontext.RequestID(ctx),
	)
	return &Result{Items: out, Degraded: reconciled.Degraded}
}

func (s *Service) resolveOne(ctx context.Context, rec ReconciledItem, req Request) ResolvedItem {
	deliveries := s.delivery.Resolve(rec.Item, req.ScholarRoom)
	elig := s.engine.Evaluate(ctx, rec, deliveries, req.Flags)

	s.metrics.IncResolved(ClassifyRegime(rec.Item).String())
	if elig.Phys {
		s.metrics.IncRequestable("phys")
	}
	if elig.Edd {
		s.metrics.IncRequestable("edd")
	}
	if elig.Spec {
		s.metrics.IncRequestable("spec")
	}

	return ResolvedItem{
		Item:             rec.Item,
		Requestable:      []bool{elig.Requestable()},
		PhysRequestable:  elig.Phys,
		EddRequestable:   elig.Edd,
		SpecRequestable:  elig.Spec,
		DeliveryLocation: deliveries,
		Fulfillment:      ClassifyFulfillment(rec, elig),
	}
}

func primaryOnly(items []catalog.Item) []catalog.Item {
	out := make([]catalog.Item, 0, len(items))
	for _, it := range items {
		if it.Owner().IsPrimary() {
			out = append(out, it)
		}
	}
	return out
}

// BibAvailability returns the live status of every item on a record.
func (s *Service) BibAvailability(ctx context.Context, inst catalog.Institution, bibID string) ([]ports.ItemAvailability, error) {
	if inst == catalog.InstitutionUnknown {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown institution")
	}
	if bibID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "bib id is required")
	}
	if s.inventory == nil {
		return nil, dErrors.New(dErrors.CodeUnavailable, "shared inventory is not configured")
	}
	rows, err := s.inventory.LookupBibAvailability(ctx, inst, bibID)
	if err != nil {
		s.logger.WarnContext(ctx, "bib availability lookup failed",
			"institution", string(inst),
			"bib_id", bibID,
			"error", err,
		)
		return nil, dErrors.Wrap(err, bibErrorCode(err), "bib availability lookup failed")
	}
	return rows, nil
}

func bibErrorCode(err error) dErrors.Code {
	switch inventory.CategoryOf(err) {
	case inventory.CategoryBadData:
		return dErrors.CodeBadRequest
	case inventory.CategoryNotFound:
		return dErrors.CodeNotFound
	case inventory.CategoryTimeout:
		return dErrors.CodeTimeout
	default:
		return dErrors.CodeUnavailable
	}
}
