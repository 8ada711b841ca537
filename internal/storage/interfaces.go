package storage

import (
	"context"

	"cardano-token-metrics/internal/domain"
)

// TokenStore provides access to enriched token records and the published
// report. Implementations: memory (tests/dev), file (flat JSON files),
// postgres. Selected at construction time, never by branching inside
// business logic.
type TokenStore interface {
	// LoadAllTokenRecords returns every known token record. May return an
	// empty slice; order is unspecified.
	LoadAllTokenRecords(ctx context.Context) ([]*domain.TokenRecord, error)

	// LoadTokenSummary retrieves one token by ID. Returns ErrNotFound if
	// the token does not exist.
	LoadTokenSummary(ctx context.Context, tokenID string) (*domain.TokenRecord, error)

	// SaveEnhancedToken creates or overwrites the enriched record.
	SaveEnhancedToken(ctx context.Context, record *domain.TokenRecord) error

	// SaveReport replaces the published market cap report.
	SaveReport(ctx context.Context, report *domain.MarketCapReport) error

	// LoadLatestReport returns the most recently published report.
	// Returns ErrNotFound when no pass has completed yet.
	LoadLatestReport(ctx context.Context) (*domain.MarketCapReport, error)
}

// MetricHistoryStore records append-only per-pass metric snapshots.
type MetricHistoryStore interface {
	// InsertSnapshots adds one pass worth of snapshots.
	InsertSnapshots(ctx context.Context, snapshots []*domain.MetricSnapshot) error

	// GetByTokenID retrieves all snapshots for a token, ordered by pass time ASC.
	GetByTokenID(ctx context.Context, tokenID string) ([]*domain.MetricSnapshot, error)
}
