package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"cardano-token-metrics/internal/domain"
	"cardano-token-metrics/internal/storage"
)

// TokenStore implements storage.TokenStore using PostgreSQL.
//
// Token records live in the tokens table, one row per token, upserted on
// each enrichment pass. Reports are appended to the reports table so the
// latest published report survives a failed pass untouched.
type TokenStore struct {
	pool *Pool
}

// NewTokenStore creates a new TokenStore.
func NewTokenStore(pool *Pool) *TokenStore {
	return &TokenStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenStore = (*TokenStore)(nil)

// LoadAllTokenRecords retrieves every token record.
func (s *TokenStore) LoadAllTokenRecords(ctx context.Context) ([]*domain.TokenRecord, error) {
	query := `
		SELECT token_id, ticker, display_name, price, market_cap, liquidity,
		       tvl, total_supply, circulating_supply, pool_count, token_age_days,
		       trust_assessment, validation, enrichment_error, updated_at
		FROM tokens
		ORDER BY token_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query all token records: %w", err)
	}
	defer rows.Close()

	var records []*domain.TokenRecord
	for rows.Next() {
		record, err := scanTokenRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan token record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate token records: %w", err)
	}

	return records, nil
}

// LoadTokenSummary retrieves one token by ID. Returns ErrNotFound if not exists.
func (s *TokenStore) LoadTokenSummary(ctx context.Context, tokenID string) (*domain.TokenRecord, error) {
	if tokenID == "" {
		return nil, storage.ErrInvalidInput
	}

	query := `
		SELECT token_id, ticker, display_name, price, market_cap, liquidity,
		       tvl, total_supply, circulating_supply, pool_count, token_age_days,
		       trust_assessment, validation, enrichment_error, updated_at
		FROM tokens
		WHERE token_id = $1
	`

	record, err := scanTokenRecord(s.pool.QueryRow(ctx, query, tokenID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get token record by id: %w", err)
	}
	return record, nil
}

// SaveEnhancedToken creates or overwrites the enriched record.
func (s *TokenStore) SaveEnhancedToken(ctx context.Context, record *domain.TokenRecord) error {
	if record == nil || record.TokenID == "" {
		return storage.ErrInvalidInput
	}

	trustJSON, err := marshalNullable(record.TrustAssessment)
	if err != nil {
		return fmt.Errorf("encode trust assessment: %w", err)
	}
	validationJSON, err := json.Marshal(record.Validation)
	if err != nil {
		return fmt.Errorf("encode validation result: %w", err)
	}

	query := `
		INSERT INTO tokens (
			token_id, ticker, display_name, price, market_cap, liquidity,
			tvl, total_supply, circulating_supply, pool_count, token_age_days,
			trust_assessment, validation, enrichment_error, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (token_id) DO UPDATE SET
			ticker = EXCLUDED.ticker,
			display_name = EXCLUDED.display_name,
			price = EXCLUDED.price,
			market_cap = EXCLUDED.market_cap,
			liquidity = EXCLUDED.liquidity,
			tvl = EXCLUDED.tvl,
			total_supply = EXCLUDED.total_supply,
			circulating_supply = EXCLUDED.circulating_supply,
			pool_count = EXCLUDED.pool_count,
			token_age_days = EXCLUDED.token_age_days,
			trust_assessment = EXCLUDED.trust_assessment,
			validation = EXCLUDED.validation,
			enrichment_error = EXCLUDED.enrichment_error,
			updated_at = EXCLUDED.updated_at
	`

	_, err = s.pool.Exec(ctx, query,
		record.TokenID,
		record.Ticker,
		record.DisplayName,
		record.Price,
		record.MarketCap,
		record.Liquidity,
		record.TVL,
		record.TotalSupply,
		record.CirculatingSupply,
		record.PoolCount,
		record.TokenAgeDays,
		trustJSON,
		validationJSON,
		record.EnrichmentError,
		record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert token record: %w", err)
	}
	return nil
}

// SaveReport appends a new report row.
func (s *TokenStore) SaveReport(ctx context.Context, report *domain.MarketCapReport) error {
	if report == nil {
		return storage.ErrInvalidInput
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	query := `INSERT INTO reports (generated_at, payload) VALUES ($1, $2)`
	if _, err := s.pool.Exec(ctx, query, report.GeneratedAt, payload); err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// LoadLatestReport returns the most recently generated report.
// Returns ErrNotFound if no report has been published yet.
func (s *TokenStore) LoadLatestReport(ctx context.Context) (*domain.MarketCapReport, error) {
	query := `
		SELECT payload
		FROM reports
		ORDER BY generated_at DESC, id DESC
		LIMIT 1
	`

	var payload []byte
	if err := s.pool.QueryRow(ctx, query).Scan(&payload); err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest report: %w", err)
	}

	var report domain.MarketCapReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, fmt.Errorf("decode report payload: %w", err)
	}
	return &report, nil
}

// scanTokenRecord scans a single row into TokenRecord.
func scanTokenRecord(row pgx.Row) (*domain.TokenRecord, error) {
	var (
		record         domain.TokenRecord
		trustJSON      []byte
		validationJSON []byte
	)

	err := row.Scan(
		&record.TokenID,
		&record.Ticker,
		&record.DisplayName,
		&record.Price,
		&record.MarketCap,
		&record.Liquidity,
		&record.TVL,
		&record.TotalSupply,
		&record.CirculatingSupply,
		&record.PoolCount,
		&record.TokenAgeDays,
		&trustJSON,
		&validationJSON,
		&record.EnrichmentError,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(trustJSON) > 0 {
		var trust domain.TrustAssessment
		if err := json.Unmarshal(trustJSON, &trust); err != nil {
			return nil, fmt.Errorf("decode trust assessment: %w", err)
		}
		record.TrustAssessment = &trust
	}
	if len(validationJSON) > 0 {
		if err := json.Unmarshal(validationJSON, &record.Validation); err != nil {
			return nil, fmt.Errorf("decode validation result: %w", err)
		}
	}

	return &record, nil
}

// marshalNullable encodes v to JSON, mapping a nil pointer to SQL NULL.
func marshalNullable(v *domain.TrustAssessment) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}
