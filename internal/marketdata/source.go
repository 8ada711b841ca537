// Package marketdata provides the price/liquidity source client for the
// upstream DEX aggregator. The aggregator is rate-limited and occasionally
// returns partial or empty data; callers own the recovery policy.
package marketdata

import (
	"context"
	"errors"

	"cardano-token-metrics/internal/domain"
)

// ErrNoPrice is returned by GetFallbackPrice when the aggregator has no
// average price for the requested pair in either direction.
var ErrNoPrice = errors.New("no price available")

// TokenMetadata is the aggregator's token description.
type TokenMetadata struct {
	TokenID           string
	Ticker            string
	Name              string
	TotalSupply       float64
	CirculatingSupply float64
	AgeDays           int
}

// PriceSource is the external price/liquidity collaborator.
type PriceSource interface {
	// GetPools returns the liquidity pools for the token/ADA pair.
	// An empty slice is a valid response.
	GetPools(ctx context.Context, tokenID string) ([]domain.PoolQuote, error)

	// GetFallbackPrice returns the aggregator's average price for
	// base quoted in quote. Returns ErrNoPrice when absent.
	GetFallbackPrice(ctx context.Context, baseID, quoteID string) (float64, error)

	// GetTokenMetadata returns supply and age metadata for the token.
	GetTokenMetadata(ctx context.Context, tokenID string) (*TokenMetadata, error)
}
