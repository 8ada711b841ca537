package stub

import (
	"context"
	"sync"

	"cardano-token-metrics/internal/domain"
	"cardano-token-metrics/internal/marketdata"
)

// StubPriceSource returns fixed in-memory pool and price data for testing.
// Implements marketdata.PriceSource.
type StubPriceSource struct {
	mu sync.Mutex

	Pools          map[string][]domain.PoolQuote        // keyed by token ID
	FallbackPrices map[string]float64                   // keyed by "base/quote"
	Metadata       map[string]*marketdata.TokenMetadata // keyed by token ID

	// Errs forces GetPools to fail for a token ID.
	Errs map[string]error

	// Call counters for assertions.
	PoolCalls     int
	FallbackCalls int
	MetadataCalls int
}

// NewStubPriceSource creates an empty stub price source.
func NewStubPriceSource() *StubPriceSource {
	return &StubPriceSource{
		Pools:          make(map[string][]domain.PoolQuote),
		FallbackPrices: make(map[string]float64),
		Metadata:       make(map[string]*marketdata.TokenMetadata),
		Errs:           make(map[string]error),
	}
}

// GetPools returns the configured pools for the token. Returns copies to
// prevent mutation.
func (s *StubPriceSource) GetPools(_ context.Context, tokenID string) ([]domain.PoolQuote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PoolCalls++

	if err, ok := s.Errs[tokenID]; ok {
		return nil, err
	}
	pools := s.Pools[tokenID]
	result := make([]domain.PoolQuote, len(pools))
	copy(result, pools)
	return result, nil
}

// GetFallbackPrice returns the configured average price for base/quote.
func (s *StubPriceSource) GetFallbackPrice(_ context.Context, baseID, quoteID string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FallbackCalls++

	price, ok := s.FallbackPrices[baseID+"/"+quoteID]
	if !ok || price <= 0 {
		return 0, marketdata.ErrNoPrice
	}
	return price, nil
}

// GetTokenMetadata returns the configured metadata for the token.
func (s *StubPriceSource) GetTokenMetadata(_ context.Context, tokenID string) (*marketdata.TokenMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.MetadataCalls++

	meta, ok := s.Metadata[tokenID]
	if !ok {
		return nil, marketdata.ErrNoPrice
	}
	metaCopy := *meta
	return &metaCopy, nil
}
