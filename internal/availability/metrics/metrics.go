package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics covers item resolution.
type Metrics struct {
	ResolveLatency    prometheus.Histogram
	ItemsResolved     *prometheus.CounterVec
	Requestable       *prometheus.CounterVec
	LiveOverrides     *prometheus.CounterVec
	LiveLookupsFailed prometheus.Counter
	LiveSkipped       prometheus.Counter
	Anomalies         *prometheus.CounterVec
	DegradedResponses prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		ResolveLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "discovery_resolve_duration_seconds",
			Help:    "Time to resolve one batch of items",
			Buckets: prometheus.DefBuckets,
		}),
		ItemsResolved: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "discovery_items_resolved_total",
			Help: "Items resolved by location regime",
		}, []string{"regime"}),
		Requestable: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "discovery_items_requestable_total",
			Help: "Items with an open request channel, by channel",
		}, []string{"channel"}), // phys, edd, spec
		LiveOverrides: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "discovery_live_status_total",
			Help: "Live inventory answers applied to off-site items",
		}, []string{"status"}),
		LiveLookupsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "discovery_live_lookup_failures_total",
			Help: "Live lookups that failed and fell back to index status",
		}),
		LiveSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "discovery_live_lookup_skipped_total",
			Help: "Batches that skipped live lookups for crawler traffic",
		}),
		Anomalies: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "discovery_item_anomalies_total",
			Help: "Item data anomalies by kind",
		}, []string{"kind"}),
		DegradedResponses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "discovery_degraded_responses_total",
			Help: "Resolve responses served with index status for some off-site items",
		}),
	}
}

func (m *Metrics) ObserveResolve(d time.Duration) {
	if m != nil {
		m.ResolveLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) IncResolved(regime string) {
	if m != nil {
		m.ItemsResolved.WithLabelValues(regime).Inc()
	}
}

func (m *Metrics) IncRequestable(channel string) {
	if m != nil {
		m.Requestable.WithLabelValues(channel).Inc()
	}
}

func (m *Metrics) IncLiveOverride(status string) {
	if m != nil {
		m.LiveOverrides.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) IncLiveLookupFailed() {
	if m != nil {
		m.LiveLookupsFailed.Inc()
	}
}

func (m *Metrics) IncLiveSkipped() {
	if m != nil {
		m.LiveSkipped.Inc()
	}
}

func (m *Metrics) IncAnomaly(kind string) {
	if m != nil {
		m.Anomalies.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) IncDegradedResponse() {
	if m != nil {
		m.DegradedResponses.Inc()
	}
}
