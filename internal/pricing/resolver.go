// Package pricing converts raw liquidity-pool quotes into a single
// defensible price per token, with outlier rejection and a median fallback.
package pricing

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"cardano-token-metrics/internal/config"
	"cardano-token-metrics/internal/domain"
	"cardano-token-metrics/internal/marketdata"
)

// concentrationLimit is the share of total liquidity one pool may hold
// before the assessment is flagged as suspiciously concentrated.
const concentrationLimit = 0.95

// Resolver computes a liquidity-weighted price per token.
type Resolver struct {
	source marketdata.PriceSource
	cfg    config.PricingConfig
	logger zerolog.Logger
}

// NewResolver creates a new price resolver.
func NewResolver(source marketdata.PriceSource, cfg config.PricingConfig, logger zerolog.Logger) *Resolver {
	return &Resolver{
		source: source,
		cfg:    cfg,
		logger: logger.With().Str("component", "pricing").Logger(),
	}
}

// ResolvePrice produces a PriceAssessment for the token/ADA pair.
// All network and parsing errors for a single token are converted into a
// zero-price assessment; ResolvePrice never fails the batch.
func (r *Resolver) ResolvePrice(ctx context.Context, tokenID string) domain.PriceAssessment {
	pools, err := r.source.GetPools(ctx, tokenID)
	if err != nil {
		r.logger.Warn().Err(err).Str("token", tokenID).Msg("pool fetch failed, trying fallback price")
		return r.fallbackAssessment(ctx, tokenID, domain.PriceAssessment{NoPoolsFound: true})
	}

	if len(pools) == 0 {
		return r.fallbackAssessment(ctx, tokenID, domain.PriceAssessment{NoPoolsFound: true})
	}

	// Drop pools with zero or negative supply on either side.
	usable := make([]domain.PoolQuote, 0, len(pools))
	for _, p := range pools {
		if p.Usable() {
			usable = append(usable, p)
		}
	}

	// Non-empty raw data where every pool was unusable is its own signal:
	// pools exist on paper but hold nothing.
	if len(usable) == 0 {
		return r.fallbackAssessment(ctx, tokenID, domain.PriceAssessment{
			OriginalPoolCount:       len(pools),
			EmptySuspiciousPools:    true,
			SuspiciousConcentration: true,
		})
	}

	return r.assessPools(usable, len(pools))
}

// assessPools computes the weighted price over usable pools.
func (r *Resolver) assessPools(pools []domain.PoolQuote, originalCount int) domain.PriceAssessment {
	assessment := domain.PriceAssessment{
		OriginalPoolCount: originalCount,
	}

	// Outlier rule: any price outside the reasonable band disqualifies it.
	reasonable := make([]domain.PoolQuote, 0, len(pools))
	for _, p := range pools {
		price := p.Price()
		if price >= r.cfg.MinReasonablePrice && price <= r.cfg.MaxReasonablePrice {
			reasonable = append(reasonable, p)
		}
	}
	assessment.OutliersFiltered = len(reasonable) < len(pools)

	if len(reasonable) == 0 {
		// Range filtering removed every candidate. Use the median across
		// all pools as a manipulation-resistant substitute, capped at the
		// upper bound.
		prices := make([]float64, len(pools))
		for i, p := range pools {
			prices[i] = p.Price()
		}
		sort.Float64s(prices)
		median := prices[len(prices)/2]
		if median > r.cfg.MaxReasonablePrice {
			median = r.cfg.MaxReasonablePrice
		}

		var liquidity float64
		for _, p := range pools {
			liquidity += p.BaseAmount
		}

		assessment.WeightedPrice = median
		assessment.TotalLiquidity = liquidity
		assessment.PoolCount = len(pools)
		assessment.MedianFallbackUsed = true
		assessment.OutliersFiltered = true
		assessment.SuspiciousConcentration = concentrated(pools)
		return assessment
	}

	var totalLiquidity float64
	for _, p := range reasonable {
		totalLiquidity += p.BaseAmount
	}

	assessment.PoolCount = len(reasonable)
	assessment.TotalLiquidity = totalLiquidity
	assessment.SuspiciousConcentration = concentrated(reasonable)

	if totalLiquidity <= 0 {
		return assessment
	}

	// Liquidity-weighted average: each pool contributes its price scaled
	// by its share of total liquidity.
	var weighted float64
	for _, p := range reasonable {
		weighted += p.Price() * (p.BaseAmount / totalLiquidity)
	}
	assessment.WeightedPrice = weighted
	return assessment
}

// concentrated reports whether pricing rests on a single pool or one pool
// holds more than the concentration limit of total liquidity.
func concentrated(pools []domain.PoolQuote) bool {
	if len(pools) <= 1 {
		return true
	}

	var total, largest float64
	for _, p := range pools {
		total += p.BaseAmount
		if p.BaseAmount > largest {
			largest = p.BaseAmount
		}
	}
	return total > 0 && largest/total > concentrationLimit
}

// fallbackAssessment consults the average-price endpoint in both quote
// directions. A fallback price is low-confidence by construction: when one
// is found, the assessment is flagged with suspicious concentration. When
// no price exists in either direction the assessment stays unflagged so a
// merely unlisted token is not penalized as concentrated.
func (r *Resolver) fallbackAssessment(ctx context.Context, tokenID string, base domain.PriceAssessment) domain.PriceAssessment {
	base.PoolCount = 0
	base.NoPoolsFound = true

	price, err := r.source.GetFallbackPrice(ctx, tokenID, domain.AdaUnit)
	if err != nil {
		// Try the inverse direction.
		inverse, invErr := r.source.GetFallbackPrice(ctx, domain.AdaUnit, tokenID)
		if invErr != nil || inverse <= 0 {
			r.logger.Debug().Str("token", tokenID).Msg("no fallback price in either direction")
			return base
		}
		price = 1 / inverse
	}

	base.WeightedPrice = price
	base.PriceFromFallbackEndpoint = true
	base.SuspiciousConcentration = true
	return base
}
