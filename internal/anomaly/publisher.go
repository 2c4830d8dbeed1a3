package anomaly

import (
	"context"
	"log/slog"
)

// Publisher accepts anomaly events. Implementations must not block the
// resolution path and never return errors to it.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// LogPublisher writes each event as a warning.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, e Event) {
	p.logger.WarnContext(ctx, "item data anomaly",
		"kind", string(e.Kind),
		"item_id", e.ItemID,
		"barcode", e.Barcode,
		"detail", e.Detail,
		"request_id", e.RequestID,
		"anomaly_id", e.ID,
	)
}

// Fanout publishes to every publisher in order.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, e Event) {
	for _, p := range f {
		if p != nil {
			p.Publish(ctx, e)
		}
	}
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, Event) {}
