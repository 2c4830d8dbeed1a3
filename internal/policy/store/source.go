// Package store loads policy documents from files, Redis or Postgres.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"discovery/internal/policy"
)

// Source reads a policy document from backing storage.
type Source interface {
	Name() string
	Load(ctx context.Context) (policy.Document, error)
}

// LoadSnapshot reads src once and builds the immutable registry snapshot.
func LoadSnapshot(ctx context.Context, src Source, logger *slog.Logger) (*policy.Snapshot, error) {
	doc, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load policy from %s: %w", src.Name(), err)
	}
	snap, err := policy.NewSnapshot(doc)
	if err != nil {
		return nil, fmt.Errorf("build policy snapshot from %s: %w", src.Name(), err)
	}
	for _, w := range snap.Warnings() {
		logger.WarnContext(ctx, "policy document warning", "source", src.Name(), "warning", w)
	}
	stats := snap.Stats()
	logger.InfoContext(ctx, "policy registry loaded",
		"source", src.Name(),
		"locations", stats.Locations,
		"recap_customer_codes", stats.RecapCustomerCodes,
		"m2_customer_codes", stats.M2CustomerCodes,
	)
	return snap, nil
}
