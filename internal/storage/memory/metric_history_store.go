package memory

import (
	"context"
	"sort"
	"sync"

	"cardano-token-metrics/internal/domain"
	"cardano-token-metrics/internal/storage"
)

// MetricHistoryStore is an in-memory implementation of
// storage.MetricHistoryStore.
type MetricHistoryStore struct {
	mu        sync.RWMutex
	snapshots []*domain.MetricSnapshot
}

// NewMetricHistoryStore creates a new in-memory metric history store.
func NewMetricHistoryStore() *MetricHistoryStore {
	return &MetricHistoryStore{}
}

// Compile-time interface check.
var _ storage.MetricHistoryStore = (*MetricHistoryStore)(nil)

// InsertSnapshots adds one pass worth of snapshots.
func (s *MetricHistoryStore) InsertSnapshots(_ context.Context, snapshots []*domain.MetricSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, snap := range snapshots {
		if snap == nil || snap.TokenID == "" {
			return storage.ErrInvalidInput
		}
		snapCopy := *snap
		s.snapshots = append(s.snapshots, &snapCopy)
	}
	return nil
}

// GetByTokenID retrieves all snapshots for a token, ordered by pass time ASC.
func (s *MetricHistoryStore) GetByTokenID(_ context.Context, tokenID string) ([]*domain.MetricSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.MetricSnapshot
	for _, snap := range s.snapshots {
		if snap.TokenID == tokenID {
			snapCopy := *snap
			result = append(result, &snapCopy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].PassAt.Before(result[j].PassAt)
	})
	return result, nil
}
