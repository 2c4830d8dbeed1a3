package ports

import (
	"context"

	"discovery/internal/anomaly"
)

// AnomalyPort receives data quality events. It matches anomaly.Publisher but
// is declared here to keep the module boundary.
type AnomalyPort interface {
	Publish(ctx context.Context, e anomaly.Event)
}
