// Package cache stores computed cohort views in Redis. A nil *Cache is valid
// and never hits. While Redis keeps failing a breaker turns every call into
// a miss.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/maturity-cli/internal/config"
	"github.com/sells-group/maturity-cli/internal/resilience"
)

const keyPrefix = "maturity:"

// Cache is a JSON value cache with a fixed TTL.
type Cache struct {
	client  *redis.Client
	ttl     time.Duration
	breaker *resilience.Breaker
}

// New connects to Redis. It returns a nil cache when caching is disabled.
func New(ctx context.Context, cfg config.CacheConfig) (*Cache, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close() //nolint:errcheck
		return nil, eris.Wrapf(err, "cache: ping redis at %s", cfg.RedisAddr)
	}
	return newCache(client, cfg), nil
}

func newCache(client *redis.Client, cfg config.CacheConfig) *Cache {
	breaker := resilience.NewBreaker(resilience.BreakerConfig{
		Threshold: cfg.BreakerThreshold,
		Cooldown:  cfg.BreakerCooldown(),
		OnTransition: func(from, to resilience.State) {
			zap.L().Warn("cache: redis breaker changed state",
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
		},
	})
	return &Cache{client: client, ttl: cfg.TTL(), breaker: breaker}
}

// IndustryKey is the key of the industry benchmark view.
func IndustryKey(minSample int) string {
	return fmt.Sprintf("%scohort:industry:%d", keyPrefix, minSample)
}

// LeaderboardKey is the key of a leaderboard view. An empty sector means all
// sectors.
func LeaderboardKey(sector string, limit int) string {
	if sector == "" {
		sector = "all"
	}
	return fmt.Sprintf("%scohort:leaderboard:%s:%d", keyPrefix, sector, limit)
}

// Get decodes the value at key into dst. It reports false on a miss.
func (c *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	if c == nil {
		return false, nil
	}
	var data []byte
	err := c.breaker.Call(ctx, func(ctx context.Context) error {
		var err error
		data, err = c.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			data = nil
			return nil
		}
		return err
	})
	if errors.Is(err, resilience.ErrOpen) {
		return false, nil
	}
	if err != nil {
		return false, eris.Wrapf(err, "cache: get %s", key)
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, eris.Wrapf(err, "cache: decode %s", key)
	}
	return true, nil
}

// Set stores v at key for the cache TTL.
func (c *Cache) Set(ctx context.Context, key string, v any) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return eris.Wrapf(err, "cache: encode %s", key)
	}
	err = c.breaker.Call(ctx, func(ctx context.Context) error {
		return c.client.Set(ctx, key, data, c.ttl).Err()
	})
	if errors.Is(err, resilience.ErrOpen) {
		return nil
	}
	return eris.Wrapf(err, "cache: set %s", key)
}

// InvalidateCohort drops every cached cohort view. It is called whenever an
// assessment is completed. It bypasses the breaker: stale views must not
// outlive a completion.
func (c *Cache) InvalidateCohort(ctx context.Context) error {
	if c == nil {
		return nil
	}
	pattern := keyPrefix + "cohort:*"
	var cursor uint64
	var deleted int
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return eris.Wrap(err, "cache: scan cohort keys")
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return eris.Wrap(err, "cache: delete cohort keys")
			}
			deleted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	zap.L().Debug("cache: cohort views invalidated", zap.Int("keys", deleted))
	return nil
}

// Close releases the Redis connection.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
