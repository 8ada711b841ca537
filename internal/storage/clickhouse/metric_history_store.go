package clickhouse

import (
	"context"
	"fmt"
	"time"

	"cardano-token-metrics/internal/domain"
	"cardano-token-metrics/internal/storage"
)

// MetricHistoryStore implements storage.MetricHistoryStore using ClickHouse.
type MetricHistoryStore struct {
	conn *Conn
}

// NewMetricHistoryStore creates a new MetricHistoryStore.
func NewMetricHistoryStore(conn *Conn) *MetricHistoryStore {
	return &MetricHistoryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.MetricHistoryStore = (*MetricHistoryStore)(nil)

// InsertSnapshots adds one pass worth of snapshots as a single batch.
func (s *MetricHistoryStore) InsertSnapshots(ctx context.Context, snapshots []*domain.MetricSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO metric_history (
			token_id, price, market_cap, liquidity, trust_score, pass_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, snap := range snapshots {
		err = batch.Append(
			snap.TokenID, snap.Price, snap.MarketCap,
			snap.Liquidity, int32(snap.TrustScore), snap.PassAt,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByTokenID retrieves all snapshots for a token, ordered by pass time ASC.
func (s *MetricHistoryStore) GetByTokenID(ctx context.Context, tokenID string) ([]*domain.MetricSnapshot, error) {
	query := `
		SELECT token_id, price, market_cap, liquidity, trust_score, pass_at
		FROM metric_history
		WHERE token_id = ?
		ORDER BY pass_at ASC
	`

	rows, err := s.conn.Query(ctx, query, tokenID)
	if err != nil {
		return nil, fmt.Errorf("query by token id: %w", err)
	}
	defer rows.Close()

	var snapshots []*domain.MetricSnapshot
	for rows.Next() {
		var (
			snap       domain.MetricSnapshot
			trustScore int32
			passAt     time.Time
		)
		if err := rows.Scan(
			&snap.TokenID, &snap.Price, &snap.MarketCap,
			&snap.Liquidity, &trustScore, &passAt,
		); err != nil {
			return nil, fmt.Errorf("scan metric history row: %w", err)
		}
		snap.TrustScore = int(trustScore)
		snap.PassAt = passAt
		snapshots = append(snapshots, &snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate metric history rows: %w", err)
	}

	return snapshots, nil
}
