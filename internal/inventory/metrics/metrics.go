package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics covers calls to the shared inventory.
type Metrics struct {
	// Call latency by operation and outcome category
	CallLatency *prometheus.HistogramVec

	// Calls rejected by an open breaker
	ShortCircuited *prometheus.CounterVec

	// 1 while the breaker is open
	BreakerOpen prometheus.Gauge

	// Status strings that did not map to a known availability
	UnrecognizedStatus prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		CallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "discovery_inventory_call_duration_seconds",
			Help:    "Duration of shared inventory calls by operation and outcome",
			Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"op", "outcome"}), // outcome: "ok" or an error category

		ShortCircuited: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "discovery_inventory_short_circuited_total",
			Help: "Shared inventory calls skipped because the circuit breaker was open",
		}, []string{"op"}),

		BreakerOpen: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "discovery_inventory_breaker_open",
			Help: "Whether the shared inventory circuit breaker is open",
		}),

		UnrecognizedStatus: promauto.NewCounter(prometheus.CounterOpts{
			Name: "discovery_inventory_unrecognized_status_total",
			Help: "Availability status strings that did not match a known value",
		}),
	}
}

func (m *Metrics) ObserveCall(op, outcome string, d time.Duration) {
	if m != nil {
		m.CallLatency.WithLabelValues(op, outcome).Observe(d.Seconds())
	}
}

func (m *Metrics) IncShortCircuited(op string) {
	if m != nil {
		m.ShortCircuited.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) SetBreakerOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.BreakerOpen.Set(1)
		return
	}
	m.BreakerOpen.Set(0)
}

func (m *Metrics) IncUnrecognizedStatus() {
	if m != nil {
		m.UnrecognizedStatus.Inc()
	}
}
