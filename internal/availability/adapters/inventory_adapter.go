package adapters

import (
	"context"

	"discovery/internal/anomaly"
	"discovery/internal/availability/ports"
	"discovery/internal/catalog"
	"discovery/internal/inventory"
)

// InventoryAdapter implements ports.InventoryPort on top of the HTTP client.
// Unrecognized statuses are dropped so callers keep the index status.
type InventoryAdapter struct {
	client    *inventory.Client
	anomalies ports.AnomalyPort
}

type AdapterOption func(*InventoryAdapter)

// WithAnomalies reports dropped statuses as unrecognized_status events.
func WithAnomalies(p ports.AnomalyPort) AdapterOption {
	return func(a *InventoryAdapter) {
		a.anomalies = p
	}
}

func NewInventoryAdapter(client *inventory.Client, opts ...AdapterOption) ports.InventoryPort {
	a := &InventoryAdapter{client: client, anomalies: anomaly.Discard{}}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *InventoryAdapter) LookupAvailability(ctx context.Context, barcodes []string) (map[string]ports.ItemAvailability, error) {
	rows, err := a.client.ItemAvailability(ctx, barcodes)
	if err != nil {
		return nil, err
	}
	out := make(map[string]ports.ItemAvailability, len(rows))
	for _, row := range a.toPort(ctx, rows) {
		out[row.Barcode] = row
	}
	return out, nil
}

func (a *InventoryAdapter) LookupCustomerCode(ctx context.Context, barcode string) (string, error) {
	code, err := a.client.CustomerCode(ctx, barcode)
	if err != nil {
		if inventory.IsNotFound(err) {
			return "", nil
		}
		return "", err
	}
	return code, nil
}

func (a *InventoryAdapter) LookupBibAvailability(ctx context.Context, inst catalog.Institution, bibID string) ([]ports.ItemAvailability, error) {
	rows, err := a.client.BibAvailability(ctx, inst, bibID)
	if err != nil {
		return nil, err
	}
	return a.toPort(ctx, rows), nil
}

func (a *InventoryAdapter) toPort(ctx context.Context, rows []inventory.ItemStatus) []ports.ItemAvailability {
	out := make([]ports.ItemAvailability, 0, len(rows))
	for _, row := range rows {
		var st ports.LiveStatus
		switch row.Status {
		case inventory.StatusAvailable:
			st = ports.LiveAvailable
		case inventory.StatusNotAvailable:
			st = ports.LiveNotAvailable
		case inventory.StatusUnknownBarcode:
			st = ports.LiveUnknownBarcode
		default:
			a.anomalies.Publish(ctx, anomaly.New(ctx, anomaly.KindUnrecognizedStatus, "", row.Barcode, row.RawStatus))
			continue
		}
		if row.Barcode == "" {
			continue
		}
		out = append(out, ports.ItemAvailability{
			Barcode:      row.Barcode,
			Status:       st,
			CustomerCode: row.CustomerCode,
		})
	}
	return out
}
