package availability

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"discovery/internal/availability/ports"
)

// lookupCache lives for one Resolve call. Each barcode is sent to the shared
// inventory at most once per lookup kind, including failed attempts.
type lookupCache struct {
	inventory ports.InventoryPort
	group     singleflight.Group

	mu      sync.Mutex
	claimed map[string]struct{}
	live    map[string]ports.ItemAvailability
	codes   map[string]codeResult
}

type codeResult struct {
	code string
	err  error
}

func newLookupCache(inventory ports.InventoryPort) *lookupCache {
	return &lookupCache{
		inventory: inventory,
		claimed:   make(map[string]struct{}),
		live:      make(map[string]ports.ItemAvailability),
		codes:     make(map[string]codeResult),
	}
}

// claim returns the barcodes not yet requested, in input order, and marks
// them requested.
func (c *lookupCache) claim(barcodes []string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, bc := range barcodes {
		if _, ok := c.claimed[bc]; ok {
			continue
		}
		c.claimed[bc] = struct{}{}
		out = append(out, bc)
	}
	return out
}

func (c *lookupCache) store(rows map[string]ports.ItemAvailability) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for bc, row := range rows {
		c.live[bc] = row
	}
}

func (c *lookupCache) status(barcode string) (ports.ItemAvailability, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	row, ok := c.live[barcode]
	return row, ok
}

// customerCode memoizes customer code lookups. Concurrent callers for the
// same barcode share one call.
func (c *lookupCache) customerCode(ctx context.Context, barcode string) (string, error) {
	c.mu.Lock()
	if res, ok := c.codes[barcode]; ok {
		c.mu.Unlock()
		return res.code, res.err
	}
	c.mu.Unlock()

	v, _, _ := c.group.Do(barcode, func() (any, error) {
		code, err := c.inventory.LookupCustomerCode(ctx, barcode)
		res := codeResult{code: code, err: err}
		c.mu.Lock()
		c.codes[barcode] = res
		c.mu.Unlock()
		return res, nil
	})
	res := v.(codeResult)
	return res.code, res.err
}
