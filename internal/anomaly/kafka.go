package anomaly

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaPublisher produces events asynchronously, keyed by item id so one
// item's events stay ordered within a partition.
type KafkaPublisher struct {
	client  *kgo.Client
	topic   string
	sampler *Sampler
	logger  *slog.Logger
}

type KafkaOption func(*KafkaPublisher)

func WithSampler(s *Sampler) KafkaOption {
	return func(p *KafkaPublisher) {
		p.sampler = s
	}
}

func NewKafkaPublisher(client *kgo.Client, topic string, logger *slog.Logger, opts ...KafkaOption) *KafkaPublisher {
	p := &KafkaPublisher{client: client, topic: topic, logger: logger}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) {
	if p.sampler != nil && !p.sampler.Keep(e.Kind) {
		return
	}
	value, err := json.Marshal(e)
	if err != nil {
		p.logger.ErrorContext(ctx, "encode anomaly event", "error", err, "anomaly_id", e.ID)
		return
	}
	rec := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(e.ItemID),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "kind", Value: []byte(e.Kind)},
		},
	}
	// The request context ends with the response; delivery must outlive it.
	p.client.Produce(context.WithoutCancel(ctx), rec, func(r *kgo.Record, err error) {
		if err != nil {
			p.logger.Warn("anomaly event not delivered",
				"topic", r.Topic,
				"anomaly_id", e.ID,
				"error", err,
			)
		}
	})
}

// Flush waits for buffered events, bounded by timeout.
func (p *KafkaPublisher) Flush(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return p.client.Flush(ctx)
}
