package availability

import (
	"context"

	"discovery/internal/anomaly"
	"discovery/internal/availability/metrics"
	"discovery/internal/availability/ports"
)

type reporter struct {
	anomalies ports.AnomalyPort
	metrics   *metrics.Metrics
}

func (r reporter) report(ctx context.Context, kind anomaly.Kind, itemID, barcode, detail string) {
	r.metrics.IncAnomaly(string(kind))
	if r.anomalies != nil {
		r.anomalies.Publish(ctx, anomaly.New(ctx, kind, itemID, barcode, detail))
	}
}
