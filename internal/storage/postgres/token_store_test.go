package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardano-token-metrics/internal/domain"
	"cardano-token-metrics/internal/storage"
)

func TestTokenStore_SaveAndLoadTokenSummary(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTokenStore(pool)

	record := &domain.TokenRecord{
		TokenID:           "asset1snek",
		Ticker:            "SNEK",
		DisplayName:       "Snek",
		Price:             0.0021,
		MarketCap:         160000,
		Liquidity:         42000,
		TVL:               84000,
		TotalSupply:       76715880000,
		CirculatingSupply: 76000000000,
		PoolCount:         4,
		TokenAgeDays:      400,
		TrustAssessment: &domain.TrustAssessment{
			Score:      125,
			TrustLevel: domain.TrustHigh,
			Bonuses: []domain.PointAdjustment{
				{Reason: "4 active pools", Points: 10},
			},
		},
		Validation: domain.ValidationResult{Valid: true},
		UpdatedAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	err := store.SaveEnhancedToken(ctx, record)
	require.NoError(t, err)

	retrieved, err := store.LoadTokenSummary(ctx, "asset1snek")
	require.NoError(t, err)

	assert.Equal(t, record.TokenID, retrieved.TokenID)
	assert.Equal(t, record.Ticker, retrieved.Ticker)
	assert.InDelta(t, record.Price, retrieved.Price, 1e-9)
	assert.InDelta(t, record.MarketCap, retrieved.MarketCap, 0.0001)
	assert.Equal(t, record.PoolCount, retrieved.PoolCount)
	require.NotNil(t, retrieved.TrustAssessment)
	assert.Equal(t, 125, retrieved.TrustAssessment.Score)
	assert.Equal(t, domain.TrustHigh, retrieved.TrustAssessment.TrustLevel)
	require.Len(t, retrieved.TrustAssessment.Bonuses, 1)
	assert.Equal(t, "4 active pools", retrieved.TrustAssessment.Bonuses[0].Reason)
	assert.True(t, retrieved.Validation.Valid)
	assert.True(t, record.UpdatedAt.Equal(retrieved.UpdatedAt))
}

func TestTokenStore_UpsertOverwrites(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTokenStore(pool)

	record := &domain.TokenRecord{
		TokenID:   "asset1hosky",
		Ticker:    "HOSKY",
		Price:     0.000001,
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.SaveEnhancedToken(ctx, record))

	record.Price = 0.000002
	record.PoolCount = 2
	require.NoError(t, store.SaveEnhancedToken(ctx, record))

	retrieved, err := store.LoadTokenSummary(ctx, "asset1hosky")
	require.NoError(t, err)
	assert.InDelta(t, 0.000002, retrieved.Price, 1e-12)
	assert.Equal(t, 2, retrieved.PoolCount)

	records, err := store.LoadAllTokenRecords(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestTokenStore_LoadMissingToken(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTokenStore(pool)

	_, err := store.LoadTokenSummary(ctx, "asset1missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTokenStore_DegradedRecordRoundTrip(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTokenStore(pool)

	record := &domain.TokenRecord{
		TokenID:         "asset1broken",
		Ticker:          "BRKN",
		EnrichmentError: "fetch pools: upstream returned 502",
		UpdatedAt:       time.Now().UTC(),
	}
	require.NoError(t, store.SaveEnhancedToken(ctx, record))

	retrieved, err := store.LoadTokenSummary(ctx, "asset1broken")
	require.NoError(t, err)
	assert.Equal(t, record.EnrichmentError, retrieved.EnrichmentError)
	assert.Nil(t, retrieved.TrustAssessment)
}

func TestTokenStore_ReportLatestWins(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTokenStore(pool)

	_, err := store.LoadLatestReport(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	older := &domain.MarketCapReport{
		GeneratedAt: time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC),
		TotalTokens: 3,
	}
	newer := &domain.MarketCapReport{
		GeneratedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		TotalTokens: 5,
		TopTokensByMarketCapValid: []*domain.TokenRecord{
			{TokenID: "asset1snek", MarketCap: 160000},
		},
	}
	require.NoError(t, store.SaveReport(ctx, older))
	require.NoError(t, store.SaveReport(ctx, newer))

	latest, err := store.LoadLatestReport(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, latest.TotalTokens)
	require.Len(t, latest.TopTokensByMarketCapValid, 1)
	assert.Equal(t, "asset1snek", latest.TopTokensByMarketCapValid[0].TokenID)
}

func TestTokenStore_InvalidInput(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTokenStore(pool)

	assert.ErrorIs(t, store.SaveEnhancedToken(ctx, nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.SaveEnhancedToken(ctx, &domain.TokenRecord{}), storage.ErrInvalidInput)
	_, err := store.LoadTokenSummary(ctx, "")
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
	assert.ErrorIs(t, store.SaveReport(ctx, nil), storage.ErrInvalidInput)
}
