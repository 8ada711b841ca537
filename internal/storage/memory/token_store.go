package memory

import (
	"context"
	"sync"

	"cardano-token-metrics/internal/domain"
	"cardano-token-metrics/internal/storage"
)

// TokenStore is an in-memory implementation of storage.TokenStore.
// Used by tests and the default dev configuration.
type TokenStore struct {
	mu     sync.RWMutex
	tokens map[string]*domain.TokenRecord
	report *domain.MarketCapReport

	// FailSaves forces SaveEnhancedToken to fail, for fault injection.
	FailSaves error
}

// NewTokenStore creates a new in-memory token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{
		tokens: make(map[string]*domain.TokenRecord),
	}
}

// Compile-time interface check.
var _ storage.TokenStore = (*TokenStore)(nil)

// Seed inserts base records without going through enrichment.
func (s *TokenStore) Seed(records ...*domain.TokenRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		recordCopy := *r
		s.tokens[r.TokenID] = &recordCopy
	}
}

// LoadAllTokenRecords returns every known token record. Order is unspecified.
func (s *TokenStore) LoadAllTokenRecords(_ context.Context) ([]*domain.TokenRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.TokenRecord, 0, len(s.tokens))
	for _, r := range s.tokens {
		recordCopy := *r
		result = append(result, &recordCopy)
	}
	return result, nil
}

// LoadTokenSummary retrieves one token by ID. Returns ErrNotFound if absent.
func (s *TokenStore) LoadTokenSummary(_ context.Context, tokenID string) (*domain.TokenRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.tokens[tokenID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	recordCopy := *r
	return &recordCopy, nil
}

// SaveEnhancedToken creates or overwrites the enriched record.
func (s *TokenStore) SaveEnhancedToken(_ context.Context, record *domain.TokenRecord) error {
	if record == nil || record.TokenID == "" {
		return storage.ErrInvalidInput
	}
	if s.FailSaves != nil {
		return s.FailSaves
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	recordCopy := *record
	s.tokens[record.TokenID] = &recordCopy
	return nil
}

// SaveReport replaces the published report.
func (s *TokenStore) SaveReport(_ context.Context, report *domain.MarketCapReport) error {
	if report == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	reportCopy := *report
	s.report = &reportCopy
	return nil
}

// LoadLatestReport returns the most recently published report.
func (s *TokenStore) LoadLatestReport(_ context.Context) (*domain.MarketCapReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.report == nil {
		return nil, storage.ErrNotFound
	}
	reportCopy := *s.report
	return &reportCopy, nil
}
