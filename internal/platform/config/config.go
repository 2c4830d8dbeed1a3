// Package config loads the service configuration: built-in defaults, an
// optional config file named by CONFIG_FILE, then environment variables.
// A .env file in the working directory is loaded first when present.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	dstrings "discovery/pkg/platform/strings"
)

// Policy source kinds.
const (
	PolicySourceFile     = "file"
	PolicySourceRedis    = "redis"
	PolicySourcePostgres = "postgres"
)

type Config struct {
	Server    Server    `mapstructure:"server"`
	Log       Log       `mapstructure:"log"`
	Inventory Inventory `mapstructure:"inventory"`
	Policy    Policy    `mapstructure:"policy"`
	Redis     Redis     `mapstructure:"redis"`
	Postgres  Postgres  `mapstructure:"postgres"`
	Kafka     Kafka     `mapstructure:"kafka"`
	Tracing   Tracing   `mapstructure:"tracing"`
	Features  Features  `mapstructure:"features"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or text
}

// Inventory configures the shared inventory client and how lookups fan out.
type Inventory struct {
	BaseURL          string        `mapstructure:"base_url"`
	APIKey           string        `mapstructure:"api_key"`
	Timeout          time.Duration `mapstructure:"timeout"`
	BatchSize        int           `mapstructure:"batch_size"`
	MaxConcurrent    int           `mapstructure:"max_concurrent"`
	FailureThreshold int           `mapstructure:"failure_threshold"`
	SuccessThreshold int           `mapstructure:"success_threshold"`
	Cooldown         time.Duration `mapstructure:"cooldown"`
	SkipForBots      bool          `mapstructure:"skip_for_bots"`
}

type Policy struct {
	Source      string `mapstructure:"source"`
	Path        string `mapstructure:"path"`
	RedisPrefix string `mapstructure:"redis_prefix"`
}

type Redis struct {
	URL          string        `mapstructure:"url"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type Postgres struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// Kafka configures anomaly publishing. No brokers disables it.
type Kafka struct {
	Brokers     []string `mapstructure:"brokers"`
	Topic       string   `mapstructure:"topic"`
	CreateTopic bool     `mapstructure:"create_topic"`
	Partitions  int32    `mapstructure:"partitions"`
	SampleRate  float64  `mapstructure:"sample_rate"`
	// KindSampleRates overrides SampleRate per anomaly kind. Set from
	// "kind=rate" pairs, e.g. KAFKA_KIND_SAMPLE_RATES=unknown_location=0.1
	KindSampleRates map[string]float64 `mapstructure:"-"`
}

// Tracing exports spans over OTLP gRPC when an endpoint is set.
type Tracing struct {
	Endpoint    string `mapstructure:"endpoint"`
	Insecure    bool   `mapstructure:"insecure"`
	ServiceName string `mapstructure:"service_name"`
}

// Features holds the process-wide default flags.
type Features struct {
	Enabled []string `mapstructure:"enabled"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("inventory.base_url", "")
	v.SetDefault("inventory.api_key", "")
	v.SetDefault("inventory.timeout", 5*time.Second)
	v.SetDefault("inventory.batch_size", 100)
	v.SetDefault("inventory.max_concurrent", 4)
	v.SetDefault("inventory.failure_threshold", 5)
	v.SetDefault("inventory.success_threshold", 3)
	v.SetDefault("inventory.cooldown", 30*time.Second)
	v.SetDefault("inventory.skip_for_bots", false)

	v.SetDefault("policy.source", PolicySourceFile)
	v.SetDefault("policy.path", "config/policy.yaml")
	v.SetDefault("policy.redis_prefix", "policy:")

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)

	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.max_open_conns", 10)
	v.SetDefault("postgres.max_idle_conns", 2)
	v.SetDefault("postgres.conn_max_lifetime", 30*time.Minute)

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "discovery.item-anomalies")
	v.SetDefault("kafka.create_topic", false)
	v.SetDefault("kafka.partitions", 3)
	v.SetDefault("kafka.sample_rate", 1.0)
	v.SetDefault("kafka.kind_sample_rates", []string{})

	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.insecure", true)
	v.SetDefault("tracing.service_name", "discovery")

	v.SetDefault("features.enabled", []string{})
}

// Load reads configuration. Environment keys are the upper-cased paths with
// dots replaced by underscores, e.g. INVENTORY_BASE_URL.
func Load() (*Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := v.GetString("config_file"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	// list values from the environment arrive as one comma separated string
	cfg.Server.CORSOrigins = splitList(v.GetStringSlice("server.cors_origins"))
	cfg.Kafka.Brokers = splitList(v.GetStringSlice("kafka.brokers"))
	cfg.Features.Enabled = splitList(v.GetStringSlice("features.enabled"))
	rates, err := parseRates(splitList(v.GetStringSlice("kafka.kind_sample_rates")))
	if err != nil {
		return nil, err
	}
	cfg.Kafka.KindSampleRates = rates

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	var errs []error
	switch c.Policy.Source {
	case PolicySourceFile:
		if c.Policy.Path == "" {
			errs = append(errs, errors.New("policy.path is required for the file source"))
		}
	case PolicySourceRedis:
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("redis.url is required for the redis policy source"))
		}
	case PolicySourcePostgres:
		if c.Postgres.DSN == "" {
			errs = append(errs, errors.New("postgres.dsn is required for the postgres policy source"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown policy.source %q", c.Policy.Source))
	}
	if c.Inventory.Timeout <= 0 {
		errs = append(errs, errors.New("inventory.timeout must be positive"))
	}
	if c.Inventory.BatchSize <= 0 || c.Inventory.MaxConcurrent <= 0 {
		errs = append(errs, errors.New("inventory.batch_size and inventory.max_concurrent must be positive"))
	}
	if c.Kafka.SampleRate < 0 || c.Kafka.SampleRate > 1 {
		errs = append(errs, errors.New("kafka.sample_rate must be between 0 and 1"))
	}
	for kind, rate := range c.Kafka.KindSampleRates {
		if rate < 0 || rate > 1 {
			errs = append(errs, fmt.Errorf("kafka.kind_sample_rates %s must be between 0 and 1", kind))
		}
	}
	return errors.Join(errs...)
}

func parseRates(pairs []string) (map[string]float64, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		kind, raw, ok := strings.Cut(pair, "=")
		kind = strings.TrimSpace(kind)
		if !ok || kind == "" {
			return nil, fmt.Errorf("kafka.kind_sample_rates: %q is not kind=rate", pair)
		}
		rate, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("kafka.kind_sample_rates: %q: %w", pair, err)
		}
		out[kind] = rate
	}
	return out, nil
}

func splitList(in []string) []string {
	var parts []string
	for _, v := range in {
		parts = append(parts, strings.Split(v, ",")...)
	}
	return dstrings.DedupeAndTrim(parts)
}
