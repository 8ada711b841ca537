package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"cardano-token-metrics/internal/domain"
)

// fakeClock advances only when told to.
type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func testReport(total int) *domain.MarketCapReport {
	return &domain.MarketCapReport{
		GeneratedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		TotalTokens: total,
	}
}

func TestMemoryCache_ExpiryIsClockDriven(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	c := NewMemoryCache(5*time.Minute, clock.Now)
	ctx := context.Background()

	if _, ok, _ := c.Get(ctx); ok {
		t.Fatal("empty cache should miss")
	}

	if err := c.Set(ctx, testReport(3)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	report, ok, err := c.Get(ctx)
	if err != nil || !ok {
		t.Fatalf("fresh entry should hit: ok=%v err=%v", ok, err)
	}
	if report.TotalTokens != 3 {
		t.Errorf("TotalTokens = %d, want 3", report.TotalTokens)
	}

	// One second before expiry: still a hit.
	clock.Advance(5*time.Minute - time.Second)
	if _, ok, _ := c.Get(ctx); !ok {
		t.Error("entry expired early")
	}

	// At expiry: miss.
	clock.Advance(time.Second)
	if _, ok, _ := c.Get(ctx); ok {
		t.Error("entry should have expired")
	}
}

func TestMemoryCache_Invalidate(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	c := NewMemoryCache(time.Hour, clock.Now)
	ctx := context.Background()

	if err := c.Set(ctx, testReport(1)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := c.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}
	if _, ok, _ := c.Get(ctx); ok {
		t.Error("invalidated entry should miss")
	}
}

func TestGetOrCompute(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	c := NewMemoryCache(time.Hour, clock.Now)
	ctx := context.Background()

	computes := 0
	compute := func(context.Context) (*domain.MarketCapReport, error) {
		computes++
		return testReport(7), nil
	}

	report, err := GetOrCompute(ctx, c, compute)
	if err != nil {
		t.Fatalf("GetOrCompute failed: %v", err)
	}
	if report.TotalTokens != 7 || computes != 1 {
		t.Errorf("first call: tokens=%d computes=%d", report.TotalTokens, computes)
	}

	// Second call is served from cache.
	if _, err := GetOrCompute(ctx, c, compute); err != nil {
		t.Fatalf("second GetOrCompute failed: %v", err)
	}
	if computes != 1 {
		t.Errorf("computes = %d, want 1", computes)
	}

	// After expiry the compute runs again.
	clock.Advance(2 * time.Hour)
	if _, err := GetOrCompute(ctx, c, compute); err != nil {
		t.Fatalf("third GetOrCompute failed: %v", err)
	}
	if computes != 2 {
		t.Errorf("computes = %d, want 2", computes)
	}
}

func TestGetOrCompute_ComputeError(t *testing.T) {
	c := NewMemoryCache(time.Hour, nil)
	wantErr := errors.New("store unavailable")

	_, err := GetOrCompute(context.Background(), c, func(context.Context) (*domain.MarketCapReport, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want %v", err, wantErr)
	}

	// The failure was not cached.
	if _, ok, _ := c.Get(context.Background()); ok {
		t.Error("error result must not be cached")
	}
}
