package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"discovery/internal/policy"
	"discovery/pkg/platform/sentinel"
)

const defaultRedisKeyPrefix = "policy:"

// Hash layout under the prefix. Each hash field is a code and each value is
// the JSON encoded entry.
const (
	redisLocationsKey = "locations"
	redisRecapKey     = "recap-customer-codes"
	redisM2Key        = "m2-customer-codes"
	redisOnsiteEddKey = "onsite-edd-criteria"
)

// RedisSource reads a document stored as Redis hashes.
type RedisSource struct {
	client *redis.Client
	prefix string
}

type RedisSourceOption func(*RedisSource)

func WithKeyPrefix(prefix string) RedisSourceOption {
	return func(s *RedisSource) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

func NewRedisSource(client *redis.Client, opts ...RedisSourceOption) *RedisSource {
	s := &RedisSource{client: client, prefix: defaultRedisKeyPrefix}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *RedisSource) Name() string { return "redis:" + s.prefix }

func (s *RedisSource) Load(ctx context.Context) (policy.Document, error) {
	pipe := s.client.Pipeline()
	locCmd := pipe.HGetAll(ctx, s.prefix+redisLocationsKey)
	recapCmd := pipe.HGetAll(ctx, s.prefix+redisRecapKey)
	m2Cmd := pipe.HGetAll(ctx, s.prefix+redisM2Key)
	eddCmd := pipe.Get(ctx, s.prefix+redisOnsiteEddKey)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return policy.Document{}, fmt.Errorf("read policy hashes: %w: %w", sentinel.ErrUnavailable, err)
	}

	var doc policy.Document
	var err error
	if doc.Locations, err = decodeHash[policy.LocationEntry](locCmd.Val()); err != nil {
		return policy.Document{}, fmt.Errorf("decode locations: %w", err)
	}
	if doc.RecapCustomerCodes, err = decodeHash[policy.RecapCustomerCodeEntry](recapCmd.Val()); err != nil {
		return policy.Document{}, fmt.Errorf("decode recap customer codes: %w", err)
	}
	if doc.M2CustomerCodes, err = decodeHash[policy.M2CustomerCodeEntry](m2Cmd.Val()); err != nil {
		return policy.Document{}, fmt.Errorf("decode m2 customer codes: %w", err)
	}

	raw, err := eddCmd.Bytes()
	switch {
	case errors.Is(err, redis.Nil):
	case err != nil:
		return policy.Document{}, fmt.Errorf("read onsite edd criteria: %w", err)
	default:
		var c policy.OnsiteEddCriteria
		if err := json.Unmarshal(raw, &c); err != nil {
			return policy.Document{}, fmt.Errorf("decode onsite edd criteria: %w", err)
		}
		doc.OnsiteEddCriteria = &c
	}

	if len(doc.Locations) == 0 {
		return policy.Document{}, fmt.Errorf("no locations under %s%s: %w", s.prefix, redisLocationsKey, sentinel.ErrNotFound)
	}
	return doc, nil
}

// Publish replaces the stored document atomically.
func (s *RedisSource) Publish(ctx context.Context, doc policy.Document) error {
	locs, err := encodeHash(doc.Locations)
	if err != nil {
		return err
	}
	recap, err := encodeHash(doc.RecapCustomerCodes)
	if err != nil {
		return err
	}
	m2, err := encodeHash(doc.M2CustomerCodes)
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.prefix+redisLocationsKey, s.prefix+redisRecapKey, s.prefix+redisM2Key, s.prefix+redisOnsiteEddKey)
		if len(locs) > 0 {
			pipe.HSet(ctx, s.prefix+redisLocationsKey, locs)
		}
		if len(recap) > 0 {
			pipe.HSet(ctx, s.prefix+redisRecapKey, recap)
		}
		if len(m2) > 0 {
			pipe.HSet(ctx, s.prefix+redisM2Key, m2)
		}
		if doc.OnsiteEddCriteria != nil {
			raw, err := json.Marshal(doc.OnsiteEddCriteria)
			if err != nil {
				return fmt.Errorf("encode onsite edd criteria: %w", err)
			}
			pipe.Set(ctx, s.prefix+redisOnsiteEddKey, raw, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("publish policy to redis: %w", err)
	}
	return nil
}

func decodeHash[T any](fields map[string]string) (map[string]T, error) {
	out := make(map[string]T, len(fields))
	for code, raw := range fields {
		var v T
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("field %q: %w", code, err)
		}
		out[code] = v
	}
	return out, nil
}

func encodeHash[T any](entries map[string]T) (map[string]any, error) {
	out := make(map[string]any, len(entries))
	for code, v := range entries {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %q: %w", code, err)
		}
		out[code] = string(raw)
	}
	return out, nil
}
