// Package redis implements the report cache against a Redis server, for
// deployments where multiple API replicas share one cache.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"cardano-token-metrics/internal/cache"
	"cardano-token-metrics/internal/config"
	"cardano-token-metrics/internal/domain"
)

// reportKey is the single key holding the serialized report.
const reportKey = "token-metrics:report"

// Cache is the Redis-backed ReportCache implementation. TTL handling is
// delegated to Redis key expiry.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a Redis report cache and verifies connectivity.
func New(cfg config.CacheConfig) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &Cache{client: client, ttl: cfg.TTL()}, nil
}

// Compile-time interface check.
var _ cache.ReportCache = (*Cache)(nil)

// Get returns the cached report, or false when absent or expired.
func (c *Cache) Get(ctx context.Context) (*domain.MarketCapReport, bool, error) {
	data, err := c.client.Get(ctx, reportKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var report domain.MarketCapReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, false, fmt.Errorf("decode cached report: %w", err)
	}
	return &report, true, nil
}

// Set stores the report with the configured TTL.
func (c *Cache) Set(ctx context.Context, report *domain.MarketCapReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := c.client.Set(ctx, reportKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Invalidate drops the cached report immediately.
func (c *Cache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, reportKey).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (c *Cache) Close() error {
	return c.client.Close()
}
