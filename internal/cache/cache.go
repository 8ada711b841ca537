// Package cache provides the report cache port with explicit invalidation
// and get-or-compute semantics. Expiry is driven by an injectable clock so
// tests control time deterministically.
package cache

import (
	"context"
	"sync"
	"time"

	"cardano-token-metrics/internal/domain"
)

// ReportCache caches the published market cap report for the read path.
type ReportCache interface {
	// Get returns the cached report, or false when absent or expired.
	Get(ctx context.Context) (*domain.MarketCapReport, bool, error)

	// Set stores the report until the TTL elapses.
	Set(ctx context.Context, report *domain.MarketCapReport) error

	// Invalidate drops the cached report immediately.
	Invalidate(ctx context.Context) error
}

// Clock returns the current time. Injected so expiry is testable.
type Clock func() time.Time

// MemoryCache is the in-memory ReportCache implementation.
type MemoryCache struct {
	mu       sync.RWMutex
	report   *domain.MarketCapReport
	storedAt time.Time
	ttl      time.Duration
	clock    Clock
}

// NewMemoryCache creates an in-memory cache with the given TTL. A nil
// clock defaults to time.Now.
func NewMemoryCache(ttl time.Duration, clock Clock) *MemoryCache {
	if clock == nil {
		clock = time.Now
	}
	return &MemoryCache{ttl: ttl, clock: clock}
}

// Compile-time interface check.
var _ ReportCache = (*MemoryCache)(nil)

// Get returns the cached report when present and fresh.
func (c *MemoryCache) Get(_ context.Context) (*domain.MarketCapReport, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.report == nil {
		return nil, false, nil
	}
	if c.ttl > 0 && c.clock().Sub(c.storedAt) >= c.ttl {
		return nil, false, nil
	}
	reportCopy := *c.report
	return &reportCopy, true, nil
}

// Set stores the report and restarts the TTL window.
func (c *MemoryCache) Set(_ context.Context, report *domain.MarketCapReport) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	reportCopy := *report
	c.report = &reportCopy
	c.storedAt = c.clock()
	return nil
}

// Invalidate drops the cached report.
func (c *MemoryCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.report = nil
	return nil
}

// GetOrCompute returns the cached report or computes, stores and returns a
// fresh one.
func GetOrCompute(ctx context.Context, c ReportCache, compute func(context.Context) (*domain.MarketCapReport, error)) (*domain.MarketCapReport, error) {
	report, ok, err := c.Get(ctx)
	if err != nil {
		return nil, err
	}
	if ok {
		return report, nil
	}

	report, err = compute(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.Set(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}
