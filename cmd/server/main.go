package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"discovery/internal/anomaly"
	"discovery/internal/availability"
	"discovery/internal/availability/adapters"
	availabilityHandler "discovery/internal/availability/handler"
	availabilityMetrics "discovery/internal/availability/metrics"
	"discovery/internal/availability/ports"
	"discovery/internal/features"
	"discovery/internal/inventory"
	inventoryMetrics "discovery/internal/inventory/metrics"
	"discovery/internal/platform/config"
	"discovery/internal/platform/httpserver"
	"discovery/internal/platform/kafka"
	"discovery/internal/platform/logger"
	platformMetrics "discovery/internal/platform/metrics"
	"discovery/internal/platform/postgres"
	"discovery/internal/platform/redis"
	"discovery/internal/platform/tracing"
	"discovery/internal/policy"
	"discovery/internal/policy/store"
	"discovery/pkg/platform/circuit"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal packages.
func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(log)

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn("tracing shutdown failed", "error", err)
		}
	}()

	health := map[string]healthCheck{}

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		health["redis"] = redisClient.Health
	}

	db, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		health["postgres"] = db.PingContext
	}

	appMetrics := platformMetrics.New()
	registry, err := loadPolicy(ctx, cfg, redisClient, db, log)
	if err != nil {
		return err
	}
	stats := registry.Stats()
	appMetrics.SetPolicyEntries("locations", stats.Locations)
	appMetrics.SetPolicyEntries("recap_customer_codes", stats.RecapCustomerCodes)
	appMetrics.SetPolicyEntries("m2_customer_codes", stats.M2CustomerCodes)

	publisher, closeAnomalies, err := buildAnomalyPublisher(ctx, cfg.Kafka, log)
	if err != nil {
		return err
	}
	defer closeAnomalies()

	inv, err := buildInventory(cfg.Inventory, publisher, log)
	if err != nil {
		return err
	}

	resolutionMetrics := availabilityMetrics.New()
	svc, err := availability.New(registry, inv,
		availability.WithLogger(log),
		availability.WithMetrics(resolutionMetrics),
		availability.WithAnomalies(publisher),
		availability.WithBatchSize(cfg.Inventory.BatchSize),
		availability.WithMaxConcurrent(cfg.Inventory.MaxConcurrent),
		availability.WithLookupTimeout(cfg.Inventory.Timeout),
		availability.WithSkipLiveForBots(cfg.Inventory.SkipForBots),
	)
	if err != nil {
		return err
	}

	router := newRouter(routerDeps{
		logger:       log,
		metrics:      appMetrics,
		availability: availabilityHandler.New(svc, log, resolutionMetrics),
		features:     features.Parse(cfg.Features.Enabled),
		corsOrigins:  cfg.Server.CORSOrigins,
		health:       health,
	})

	srv := httpserver.New(cfg.Server.Addr, otelHandler(router))
	return httpserver.Run(ctx, srv, log, cfg.Server.ShutdownTimeout)
}

func loadPolicy(ctx context.Context, cfg *config.Config, rc *redis.Client, db *sql.DB, log *slog.Logger) (*policy.Snapshot, error) {
	var src store.Source
	switch cfg.Policy.Source {
	case config.PolicySourceRedis:
		src = store.NewRedisSource(rc.Client, store.WithKeyPrefix(cfg.Policy.RedisPrefix))
	case config.PolicySourcePostgres:
		src = store.NewPostgresSource(db)
	default:
		src = store.NewFileSource(cfg.Policy.Path)
	}
	return store.LoadSnapshot(ctx, src, log)
}

// buildAnomalyPublisher always logs anomalies and also streams them to Kafka
// when brokers are configured.
func buildAnomalyPublisher(ctx context.Context, cfg config.Kafka, log *slog.Logger) (anomaly.Publisher, func(), error) {
	logPub := anomaly.NewLogPublisher(log)
	cl, err := kafka.NewClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	if cl == nil {
		return logPub, func() {}, nil
	}
	if cfg.CreateTopic {
		if err := kafka.EnsureTopic(ctx, cl, cfg.Topic, cfg.Partitions); err != nil {
			cl.Close()
			return nil, nil, err
		}
	}
	kafkaPub := anomaly.NewKafkaPublisher(cl, cfg.Topic, log,
		anomaly.WithSampler(anomaly.NewSamplerWithRates(cfg.SampleRate, cfg.KindSampleRates)))
	closeFn := func() {
		if err := kafkaPub.Flush(5 * time.Second); err != nil {
			log.Warn("anomaly flush failed", "error", err)
		}
		cl.Close()
	}
	return anomaly.Fanout{logPub, kafkaPub}, closeFn, nil
}

func buildInventory(cfg config.Inventory, anomalies anomaly.Publisher, log *slog.Logger) (ports.InventoryPort, error) {
	if cfg.BaseURL == "" {
		log.Warn("no shared inventory configured; index status is served as-is")
		return nil, nil
	}
	breaker := circuit.New("shared-inventory",
		circuit.WithFailureThreshold(cfg.FailureThreshold),
		circuit.WithSuccessThreshold(cfg.SuccessThreshold),
		circuit.WithCooldown(cfg.Cooldown),
	)
	client, err := inventory.New(cfg.BaseURL, cfg.APIKey,
		inventory.WithTimeout(cfg.Timeout),
		inventory.WithBreaker(breaker),
		inventory.WithMetrics(inventoryMetrics.New()),
		inventory.WithLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("shared inventory client: %w", err)
	}
	return adapters.NewInventoryAdapter(client, adapters.WithAnomalies(anomalies)), nil
}
