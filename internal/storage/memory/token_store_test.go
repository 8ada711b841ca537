package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"cardano-token-metrics/internal/domain"
	"cardano-token-metrics/internal/storage"
)

func TestTokenStore_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	store := NewTokenStore()

	record := &domain.TokenRecord{TokenID: "asset1snek", Ticker: "SNEK", Price: 0.002}
	if err := store.SaveEnhancedToken(ctx, record); err != nil {
		t.Fatalf("SaveEnhancedToken: %v", err)
	}

	got, err := store.LoadTokenSummary(ctx, "asset1snek")
	if err != nil {
		t.Fatalf("LoadTokenSummary: %v", err)
	}
	if got.Ticker != "SNEK" || got.Price != 0.002 {
		t.Errorf("loaded record mismatch: %+v", got)
	}

	if _, err := store.LoadTokenSummary(ctx, "asset1missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("missing token: err = %v, want ErrNotFound", err)
	}
}

func TestTokenStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewTokenStore()
	store.Seed(&domain.TokenRecord{TokenID: "asset1snek", Price: 1})

	got, err := store.LoadTokenSummary(ctx, "asset1snek")
	if err != nil {
		t.Fatalf("LoadTokenSummary: %v", err)
	}
	got.Price = 999

	again, err := store.LoadTokenSummary(ctx, "asset1snek")
	if err != nil {
		t.Fatalf("LoadTokenSummary: %v", err)
	}
	if again.Price != 1 {
		t.Errorf("mutating a loaded record leaked into the store: price = %v", again.Price)
	}
}

func TestTokenStore_InvalidInput(t *testing.T) {
	ctx := context.Background()
	store := NewTokenStore()

	if err := store.SaveEnhancedToken(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("nil record: err = %v, want ErrInvalidInput", err)
	}
	if err := store.SaveEnhancedToken(ctx, &domain.TokenRecord{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("empty token ID: err = %v, want ErrInvalidInput", err)
	}
}

func TestTokenStore_FailSaves(t *testing.T) {
	ctx := context.Background()
	store := NewTokenStore()
	boom := errors.New("disk full")
	store.FailSaves = boom

	err := store.SaveEnhancedToken(ctx, &domain.TokenRecord{TokenID: "asset1snek"})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want injected failure", err)
	}
}

func TestTokenStore_ReportRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewTokenStore()

	if _, err := store.LoadLatestReport(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("empty store: err = %v, want ErrNotFound", err)
	}

	report := &domain.MarketCapReport{GeneratedAt: time.Now().UTC(), TotalTokens: 2}
	if err := store.SaveReport(ctx, report); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}

	got, err := store.LoadLatestReport(ctx)
	if err != nil {
		t.Fatalf("LoadLatestReport: %v", err)
	}
	if got.TotalTokens != 2 {
		t.Errorf("TotalTokens = %d, want 2", got.TotalTokens)
	}
}

func TestMetricHistoryStore_OrderedByPassTime(t *testing.T) {
	ctx := context.Background()
	store := NewMetricHistoryStore()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	err := store.InsertSnapshots(ctx, []*domain.MetricSnapshot{
		{TokenID: "asset1snek", Price: 3, PassAt: base.Add(2 * time.Hour)},
		{TokenID: "asset1snek", Price: 1, PassAt: base},
		{TokenID: "asset1other", Price: 9, PassAt: base},
		{TokenID: "asset1snek", Price: 2, PassAt: base.Add(time.Hour)},
	})
	if err != nil {
		t.Fatalf("InsertSnapshots: %v", err)
	}

	got, err := store.GetByTokenID(ctx, "asset1snek")
	if err != nil {
		t.Fatalf("GetByTokenID: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("snapshot count = %d, want 3", len(got))
	}
	for i, wantPrice := range []float64{1, 2, 3} {
		if got[i].Price != wantPrice {
			t.Errorf("snapshot %d price = %v, want %v", i, got[i].Price, wantPrice)
		}
	}
}

func TestMetricHistoryStore_InvalidInput(t *testing.T) {
	ctx := context.Background()
	store := NewMetricHistoryStore()

	err := store.InsertSnapshots(ctx, []*domain.MetricSnapshot{{TokenID: ""}})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}
