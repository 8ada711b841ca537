// Package enrichment drives the pricing, scoring and validation pipeline
// over the full token set in rate-limited batches and emits the ranked
// market cap report.
package enrichment

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"cardano-token-metrics/internal/config"
	"cardano-token-metrics/internal/domain"
	"cardano-token-metrics/internal/marketdata"
	"cardano-token-metrics/internal/observability"
	"cardano-token-metrics/internal/pricing"
	"cardano-token-metrics/internal/storage"
	"cardano-token-metrics/internal/trust"
	"cardano-token-metrics/internal/validation"
)

// validRankingMinScore is the trust score floor for the public ranking.
const validRankingMinScore = 40

// Orchestrator coordinates one enrichment pass.
// Flow: load tokens → price → score → validate → persist → report.
type Orchestrator struct {
	store     storage.TokenStore
	history   storage.MetricHistoryStore // optional
	source    marketdata.PriceSource
	resolver  *pricing.Resolver
	scorer    *trust.Scorer
	validator *validation.Validator

	batchSize int
	limiter   *rate.Limiter // inter-batch pacing
	params    domain.ValidationParameters

	clock   func() time.Time
	metrics *observability.Metrics // optional
	logger  zerolog.Logger
}

// Options for creating an Orchestrator.
type Options struct {
	Store     storage.TokenStore
	History   storage.MetricHistoryStore // nil disables history snapshots
	Source    marketdata.PriceSource
	Resolver  *pricing.Resolver
	Scorer    *trust.Scorer
	Validator *validation.Validator

	Enrichment config.EnrichmentConfig
	Pricing    config.PricingConfig
	Scoring    config.ScoringConfig

	Clock   func() time.Time       // nil means time.Now
	Metrics *observability.Metrics // nil disables instrumentation
	Logger  zerolog.Logger
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	batchSize := opts.Enrichment.BatchSize
	if batchSize <= 0 {
		batchSize = 10
	}

	// The inter-batch delay becomes a token-bucket rate: one batch per
	// delay interval, with no burst beyond the first batch.
	limit := rate.Inf
	if delay := opts.Enrichment.BatchDelay(); delay > 0 {
		limit = rate.Every(delay)
	}

	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Orchestrator{
		store:     opts.Store,
		history:   opts.History,
		source:    opts.Source,
		resolver:  opts.Resolver,
		scorer:    opts.Scorer,
		validator: opts.Validator,
		batchSize: batchSize,
		limiter:   rate.NewLimiter(limit, 1),
		params: domain.ValidationParameters{
			MinTrustScore:         validRankingMinScore,
			MinPoolsRequired:      opts.Scoring.MinPoolsRequired,
			MinLiquidityThreshold: opts.Scoring.MinLiquidityThreshold,
			MaxMcapLiquidityRatio: opts.Scoring.MaxMcapLiquidityRatio,
			MinReasonablePrice:    opts.Pricing.MinReasonablePrice,
			MaxReasonablePrice:    opts.Pricing.MaxReasonablePrice,
		},
		clock:   clock,
		metrics: opts.Metrics,
		logger:  opts.Logger.With().Str("component", "enrichment").Logger(),
	}
}

// RunPass enriches every known token and publishes the ranked report.
// Individual token failures degrade that token only; store failures fail
// the pass and leave the previously published report untouched.
func (o *Orchestrator) RunPass(ctx context.Context) (*domain.MarketCapReport, error) {
	start := o.clock()

	records, err := o.store.LoadAllTokenRecords(ctx)
	if err != nil {
		o.observePass("failed", start)
		return nil, fmt.Errorf("load token records: %w", err)
	}
	o.logger.Info().Int("tokens", len(records)).Msg("starting enrichment pass")

	enriched := make([]*domain.TokenRecord, 0, len(records))
	var persistErr error

	for batchStart := 0; batchStart < len(records); batchStart += o.batchSize {
		if err := o.limiter.Wait(ctx); err != nil {
			o.observePass("failed", start)
			return nil, fmt.Errorf("inter-batch wait: %w", err)
		}

		batchEnd := batchStart + o.batchSize
		if batchEnd > len(records) {
			batchEnd = len(records)
		}
		batch := records[batchStart:batchEnd]

		results := make([]*domain.TokenRecord, len(batch))
		saveErrs := make([]error, len(batch))

		var wg sync.WaitGroup
		for i, record := range batch {
			wg.Add(1)
			go func(i int, record *domain.TokenRecord) {
				defer wg.Done()
				result := o.enrichToken(ctx, record)
				results[i] = result
				saveErrs[i] = o.store.SaveEnhancedToken(ctx, result)
			}(i, record)
		}
		wg.Wait()

		for i, result := range results {
			enriched = append(enriched, result)
			if saveErrs[i] != nil && persistErr == nil {
				persistErr = fmt.Errorf("save token %s: %w", result.TokenID, saveErrs[i])
			}
		}
	}

	if persistErr != nil {
		if o.metrics != nil {
			o.metrics.StoreOperationErrors.WithLabelValues("save_token").Inc()
		}
		o.observePass("failed", start)
		return nil, persistErr
	}

	report := o.buildReport(enriched)
	if err := o.store.SaveReport(ctx, report); err != nil {
		if o.metrics != nil {
			o.metrics.StoreOperationErrors.WithLabelValues("save_report").Inc()
		}
		o.observePass("failed", start)
		return nil, fmt.Errorf("save report: %w", err)
	}

	o.recordHistory(ctx, report.GeneratedAt, enriched)
	o.observePass("success", start)
	if o.metrics != nil {
		o.metrics.HoneypotsFlagged.Set(float64(report.HoneypotsFlagged))
		o.metrics.ValidTokens.Set(float64(len(report.TopTokensByMarketCapValid)))
		o.metrics.LastSuccessfulPass.Set(float64(o.clock().Unix()))
	}

	o.logger.Info().
		Int("tokens", report.TotalTokens).
		Int("valid", len(report.TopTokensByMarketCapValid)).
		Int("honeypots", report.HoneypotsFlagged).
		Int("degraded", report.DegradedTokens).
		Dur("elapsed", o.clock().Sub(start)).
		Msg("enrichment pass complete")
	return report, nil
}

// enrichToken runs the per-token pipeline. Any failure, including a panic
// in a rule, is converted into a degraded record carrying the original
// input plus an error marker; it never aborts the batch.
func (o *Orchestrator) enrichToken(ctx context.Context, base *domain.TokenRecord) (result *domain.TokenRecord) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error().Str("token", base.TokenID).Interface("panic", r).Msg("enrichment panicked")
			result = o.degradedRecord(base, fmt.Sprintf("enrichment panicked: %v", r))
		}
	}()

	record := *base
	record.EnrichmentError = ""

	meta, err := o.source.GetTokenMetadata(ctx, base.TokenID)
	if err != nil {
		// Metadata is enriching, not essential: fall back to the stored
		// record's supply figures and keep going.
		o.logger.Debug().Err(err).Str("token", base.TokenID).Msg("metadata lookup failed")
	} else {
		if meta.Ticker != "" {
			record.Ticker = meta.Ticker
		}
		if meta.Name != "" {
			record.DisplayName = meta.Name
		}
		if meta.TotalSupply > 0 {
			record.TotalSupply = meta.TotalSupply
		}
		if meta.CirculatingSupply > 0 {
			record.CirculatingSupply = meta.CirculatingSupply
		}
		record.TokenAgeDays = meta.AgeDays
	}

	assessment := o.resolver.ResolvePrice(ctx, base.TokenID)

	record.Price = assessment.WeightedPrice
	record.Liquidity = assessment.TotalLiquidity
	record.TVL = 2 * assessment.TotalLiquidity
	record.PoolCount = assessment.PoolCount
	record.MarketCap = assessment.WeightedPrice * record.Supply()

	trustAssessment := o.scorer.Score(trust.Input{
		TokenID:                 record.TokenID,
		Ticker:                  record.Ticker,
		PoolCount:               assessment.PoolCount,
		SuspiciousConcentration: assessment.SuspiciousConcentration,
		TotalLiquidity:          assessment.TotalLiquidity,
		MarketCap:               record.MarketCap,
		CirculatingSupply:       record.CirculatingSupply,
		TokenAgeDays:            record.TokenAgeDays,
		PriceFromFallback:       assessment.PriceFromFallbackEndpoint,
	})
	record.TrustAssessment = &trustAssessment

	record.Validation = o.validator.Validate(
		record.MarketCap, assessment.TotalLiquidity, record.CirculatingSupply,
		assessment, trustAssessment)

	record.UpdatedAt = o.clock()

	if o.metrics != nil {
		o.metrics.TokensEnriched.Inc()
	}
	return &record
}

// degradedRecord returns the original input with an error marker and a
// refreshed timestamp.
func (o *Orchestrator) degradedRecord(base *domain.TokenRecord, reason string) *domain.TokenRecord {
	record := *base
	record.EnrichmentError = reason
	record.UpdatedAt = o.clock()
	if o.metrics != nil {
		o.metrics.TokensDegraded.Inc()
	}
	return &record
}

// buildReport partitions tokens into the valid ranking and counts
// aggregates. Sorting is deterministic regardless of batch completion
// order: market cap descending, token ID ascending on ties.
func (o *Orchestrator) buildReport(enriched []*domain.TokenRecord) *domain.MarketCapReport {
	report := &domain.MarketCapReport{
		GeneratedAt:          o.clock(),
		TotalTokens:          len(enriched),
		ValidationParameters: o.params,
	}

	for _, record := range enriched {
		if record.EnrichmentError != "" {
			report.DegradedTokens++
			continue
		}
		if record.MarketCap > 0 {
			report.TokensWithMarketCap++
		}
		if record.Liquidity > 0 {
			report.TokensWithLiquidity++
		}
		if record.TrustAssessment != nil && record.TrustAssessment.IsHoneypot {
			report.HoneypotsFlagged++
		}

		if record.MarketCap > 0 &&
			record.Validation.Valid &&
			record.TrustAssessment != nil &&
			record.TrustAssessment.Score >= validRankingMinScore {
			report.TopTokensByMarketCapValid = append(report.TopTokensByMarketCapValid, record)
		}
	}

	sort.Slice(report.TopTokensByMarketCapValid, func(i, j int) bool {
		a, b := report.TopTokensByMarketCapValid[i], report.TopTokensByMarketCapValid[j]
		if a.MarketCap != b.MarketCap {
			return a.MarketCap > b.MarketCap
		}
		return a.TokenID < b.TokenID
	})
	return report
}

// recordHistory appends per-token snapshots for the pass. History is best
// effort: a failure is logged, never fails the pass.
func (o *Orchestrator) recordHistory(ctx context.Context, passAt time.Time, enriched []*domain.TokenRecord) {
	if o.history == nil {
		return
	}

	snapshots := make([]*domain.MetricSnapshot, 0, len(enriched))
	for _, record := range enriched {
		if record.EnrichmentError != "" {
			continue
		}
		score := 0
		if record.TrustAssessment != nil {
			score = record.TrustAssessment.Score
		}
		snapshots = append(snapshots, &domain.MetricSnapshot{
			TokenID:    record.TokenID,
			Price:      record.Price,
			MarketCap:  record.MarketCap,
			Liquidity:  record.Liquidity,
			TrustScore: score,
			PassAt:     passAt,
		})
	}

	if err := o.history.InsertSnapshots(ctx, snapshots); err != nil {
		o.logger.Warn().Err(err).Msg("metric history insert failed")
		if o.metrics != nil {
			o.metrics.StoreOperationErrors.WithLabelValues("insert_history").Inc()
		}
	}
}

func (o *Orchestrator) observePass(status string, start time.Time) {
	if o.metrics == nil {
		return
	}
	o.metrics.PassesTotal.WithLabelValues(status).Inc()
	o.metrics.PassDuration.Observe(o.clock().Sub(start).Seconds())
}
