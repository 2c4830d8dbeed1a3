package availability

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"discovery/internal/anomaly"
	"discovery/internal/availability/metrics"
	"discovery/internal/availability/ports"
	"discovery/internal/catalog"
)

const (
	defaultBatchSize     = 100
	defaultMaxConcurrent = 4
	defaultLookupTimeout = 5 * time.Second
)

// Reconciler checks off-site items against the shared inventory and applies
// the live status where it disagrees with the index. Lookup failures leave
// the index status in place and never reach the caller.
type Reconciler struct {
	inventory     ports.InventoryPort
	reporter      reporter
	metrics       *metrics.Metrics
	logger        *slog.Logger
	batchSize     int
	maxConcurrent int
	lookupTimeout time.Duration
}

// ReconcileResult is the reconciled batch in input order.
type ReconcileResult struct {
	Items []ReconciledItem
	// Degraded is set when at least one lookup failed.
	Degraded bool
}

// Reconcile returns new item values; the input slice is not modified. When
// skipLive is set no lookups are made and every item keeps its index status.
func (r *Reconciler) Reconcile(ctx context.Context, items []catalog.Item, skipLive bool) ReconcileResult {
	out := make([]ReconciledItem, len(items))
	var barcodes []string
	for i, it := range items {
		out[i] = ReconciledItem{Item: it, Offsite: IsOffsite(it)}
		if out[i].Offsite && !it.HasElectronicLocator() {
			if bc := it.Barcode(); bc != "" {
				barcodes = append(barcodes, bc)
			}
		}
	}
	if len(barcodes) == 0 || r.inventory == nil {
		return ReconcileResult{Items: out}
	}
	if skipLive {
		r.metrics.IncLiveSkipped()
		r.logger.DebugContext(ctx, "live lookups skipped for crawler", "barcodes", len(barcodes))
		return ReconcileResult{Items: out}
	}

	cache := newLookupCache(r.inventory)
	degraded := r.fetchAvailability(ctx, cache, barcodes)

	for i := range out {
		if !out[i].Offsite {
			continue
		}
		bc := out[i].Item.Barcode()
		row, ok := cache.status(bc)
		if !ok {
			continue
		}
		out[i] = r.apply(ctx, out[i], row)
	}

	if r.fillCustomerCodes(ctx, cache, out) {
		degraded = true
	}
	return ReconcileResult{Items: out, Degraded: degraded}
}

// apply is the live status rule table. Absent answers never reach it.
func (r *Reconciler) apply(ctx context.Context, rec ReconciledItem, row ports.ItemAvailability) ReconciledItem {
	rec.Live = row.Status
	switch row.Status {
	case ports.LiveAvailable:
		st := catalog.StatusAvailable
		rec.Item.Status = &st
		r.metrics.IncLiveOverride("available")
	case ports.LiveNotAvailable:
		st := catalog.StatusNotAvailable
		rec.Item.Status = &st
		r.metrics.IncLiveOverride("not_available")
	case ports.LiveUnknownBarcode:
		r.metrics.IncLiveOverride("unknown_barcode")
		r.reporter.report(ctx, anomaly.KindUnknownBarcode, rec.Item.ID, row.Barcode,
			"barcode not found in shared inventory")
	}
	if rec.Item.RecapCustomerCode == "" && row.CustomerCode != "" {
		rec.Item.RecapCustomerCode = row.CustomerCode
	}
	return rec
}

// fetchAvailability issues bounded, concurrent batch lookups. Each batch
// fails on its own; the return value reports whether any did.
func (r *Reconciler) fetchAvailability(ctx context.Context, cache *lookupCache, barcodes []string) bool {
	pending := cache.claim(barcodes)

	var g errgroup.Group
	g.SetLimit(r.maxConcurrent)
	failed := make([]bool, (len(pending)+r.batchSize-1)/r.batchSize)
	for idx := range failed {
		start := idx * r.batchSize
		batch := pending[start:min(start+r.batchSize, len(pending))]
		g.Go(func() error {
			lookupCtx, cancel := context.WithTimeout(ctx, r.lookupTimeout)
			defer cancel()
			rows, err := r.inventory.LookupAvailability(lookupCtx, batch)
			if err != nil {
				failed[idx] = true
				r.metrics.IncLiveLookupFailed()
				r.logger.WarnContext(ctx, "live availability lookup failed, keeping index status",
					"barcodes", len(batch),
					"error", err,
				)
				r.reporter.report(ctx, anomaly.KindInventoryUnavailable, "", "", err.Error())
				return nil
			}
			cache.store(rows)
			return nil
		})
	}
	_ = g.Wait()
	return slices.Contains(failed, true)
}

// fillCustomerCodes looks up recap customer codes for off-site items the
// index and the availability answer both left without one.
func (r *Reconciler) fillCustomerCodes(ctx context.Context, cache *lookupCache, out []ReconciledItem) bool {
	var g errgroup.Group
	g.SetLimit(r.maxConcurrent)
	codes := make([]string, len(out))
	failed := make([]bool, len(out))
	for i, rec := range out {
		if !rec.Offsite || rec.Item.RecapCustomerCode != "" || rec.Item.HasElectronicLocator() {
			continue
		}
		if rec.Live == 0 || rec.Live == ports.LiveUnknownBarcode {
			continue
		}
		bc := rec.Item.Barcode()
		g.Go(func() error {
			lookupCtx, cancel := context.WithTimeout(ctx, r.lookupTimeout)
			defer cancel()
			code, err := cache.customerCode(lookupCtx, bc)
			if err != nil {
				failed[i] = true
				r.metrics.IncLiveLookupFailed()
				r.logger.WarnContext(ctx, "customer code lookup failed",
					"barcode", bc,
					"error", err,
				)
				return nil
			}
			codes[i] = code
			return nil
		})
	}
	_ = g.Wait()

	degraded := false
	for i := range out {
		if codes[i] != "" {
			out[i].Item.RecapCustomerCode = codes[i]
		}
		degraded = degraded || failed[i]
	}
	return degraded
}
