// Package validation cross-checks trust scores and computed market caps
// against liquidity and supply signals to gate the public valid ranking.
// The validator is permissive by default and only exclusionary on
// compounding red flags, so legitimate low-liquidity long-tail tokens are
// not pushed out while obvious manipulation still is.
package validation

import (
	"fmt"

	"cardano-token-metrics/internal/config"
	"cardano-token-metrics/internal/domain"
)

// Thresholds for individual rules, in ADA.
const (
	mcapNotable      = 1_000_000
	mcapHardInvalid  = 5_000_000
	cautionScoreCeil = 40
)

// Validator decides inclusion in the public valid ranking.
type Validator struct {
	maxRatio float64
}

// NewValidator creates a validator with the configured ratio cap.
func NewValidator(cfg config.ScoringConfig) *Validator {
	return &Validator{maxRatio: cfg.MaxMcapLiquidityRatio}
}

// Validate produces the verdict for one token. Reasons accumulate in rule
// order; validity flips only when a hard rule fires.
func (v *Validator) Validate(marketCap, totalLiquidity, circulatingSupply float64, price domain.PriceAssessment, trust domain.TrustAssessment) domain.ValidationResult {
	result := domain.ValidationResult{Valid: true}

	// Pools exist upstream but every one of them is empty: nothing backs
	// the quoted numbers.
	if price.EmptySuspiciousPools {
		result.Valid = false
		result.Reasons = append(result.Reasons, "all reported pools are empty, market data not backed by liquidity")
	}

	if price.NoPoolsFound && marketCap > mcapNotable {
		result.Reasons = append(result.Reasons, fmt.Sprintf("market cap %.0f ADA claimed without enumerable pools", marketCap))
	}

	if totalLiquidity > 0 && marketCap > 0 {
		ratio := marketCap / totalLiquidity
		if ratio > v.maxRatio {
			result.Reasons = append(result.Reasons, fmt.Sprintf("market cap is %.0fx liquidity, above cap %.0f", ratio, v.maxRatio))
			if ratio > 10*v.maxRatio {
				result.Valid = false
			}
		}
	}

	if trust.IsHoneypot {
		result.Valid = false
		result.Reasons = append(result.Reasons, "trust assessment flags token as honeypot")
	} else if trust.Score < cautionScoreCeil {
		result.Reasons = append(result.Reasons, fmt.Sprintf("low trust score %d, exercise caution", trust.Score))
	}

	if marketCap > mcapNotable && circulatingSupply <= 0 {
		result.Reasons = append(result.Reasons, "market cap computed without known circulating supply")
		if marketCap > mcapHardInvalid {
			result.Valid = false
		}
	}

	return result
}
