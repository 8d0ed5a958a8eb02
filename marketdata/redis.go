package marketdata

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// DefaultQuoteKey is the Redis hash read when no key is configured.
const DefaultQuoteKey = "ratecurve:quotes"

// RedisSource reads quotes from one Redis hash: field = quote id, value = decimal.
type RedisSource struct {
	rdb *redis.Client
	key string
}

// NewRedisSource connects lazily to Redis; use Ping to verify connectivity.
func NewRedisSource(opts *redis.Options, key string) (*RedisSource, error) {
	if key == "" {
		return nil, fmt.Errorf("marketdata: quote hash key cannot be empty")
	}
	return &RedisSource{rdb: redis.NewClient(opts), key: key}, nil
}

// Key returns the hash key.
func (s *RedisSource) Key() string { return s.key }

// Ping verifies Redis connectivity.
func (s *RedisSource) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *RedisSource) Close() error {
	return s.rdb.Close()
}

// Quotes reads the whole hash. Fields that do not parse as numbers are left
// out of the result and reported together as InvalidQuotes.
func (s *RedisSource) Quotes(ctx context.Context) (map[string]float64, error) {
	fields, err := s.rdb.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read quotes from Redis: %w", err)
	}
	out := make(map[string]float64, len(fields))
	var invalid InvalidQuotes
	for id, raw := range fields {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			if invalid == nil {
				invalid = make(InvalidQuotes)
			}
			invalid[id] = fmt.Errorf("quote '%s' in %s: %w", id, s.key, err)
			continue
		}
		out[id] = v
	}
	if invalid != nil {
		return out, invalid
	}
	return out, nil
}

// Publish writes quote values into the hash.
func (s *RedisSource) Publish(ctx context.Context, quotes map[string]float64) error {
	if len(quotes) == 0 {
		return nil
	}
	values := make(map[string]interface{}, len(quotes))
	for id, v := range quotes {
		values[id] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	if err := s.rdb.HSet(ctx, s.key, values).Err(); err != nil {
		return fmt.Errorf("failed to write quotes to Redis: %w", err)
	}
	return nil
}
