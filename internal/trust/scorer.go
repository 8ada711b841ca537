// Package trust scores tokens with an additive rule set over pool,
// liquidity, supply, naming and age signals, producing a bounded score,
// a trust level and a honeypot flag with a full audit trail.
package trust

import (
	"fmt"
	"regexp"

	"cardano-token-metrics/internal/config"
	"cardano-token-metrics/internal/domain"
)

// Score thresholds for classification. Buckets apply below 100 only; the
// intermediate score has no ceiling.
const (
	startingScore = 100

	veryLowCeiling  = 20
	lowCeiling      = 40
	moderateCeiling = 60
	goodCeiling     = 80

	// Liquidity below this floor makes a low-trust token a honeypot.
	honeypotLiquidityFloor = 5000
)

// Market cap and ratio thresholds used by individual rules, in ADA.
const (
	mcapSignificant      = 1_000_000
	mcapLarge            = 5_000_000
	mcapVeryLarge        = 10_000_000
	liquiditySubstantial = 100_000
	liquidityHealthy     = 20_000
	liquidityThin        = 500
	liquidityDust        = 100

	ratioSuspicious = 50
	ratioExtreme    = 100
)

// Input carries every signal the scorer consumes for one token.
type Input struct {
	TokenID                 string
	Ticker                  string
	PoolCount               int
	SuspiciousConcentration bool
	TotalLiquidity          float64
	MarketCap               float64
	CirculatingSupply       float64
	TokenAgeDays            int
	PriceFromFallback       bool
}

// Scorer applies the trust rule set. Whitelist, blacklist and naming
// patterns are supplied via configuration at construction.
type Scorer struct {
	cfg       config.ScoringConfig
	whitelist map[string]struct{}
	blacklist map[string]struct{}
	copycat   []*regexp.Regexp
	wrapped   []*regexp.Regexp
}

// NewScorer creates a scorer from configuration. Fails if any naming
// pattern does not compile.
func NewScorer(cfg config.ScoringConfig) (*Scorer, error) {
	s := &Scorer{
		cfg:       cfg,
		whitelist: make(map[string]struct{}, len(cfg.Whitelist)),
		blacklist: make(map[string]struct{}, len(cfg.Blacklist)),
	}
	for _, id := range cfg.Whitelist {
		s.whitelist[id] = struct{}{}
	}
	for _, id := range cfg.Blacklist {
		s.blacklist[id] = struct{}{}
	}

	for _, pattern := range cfg.CopycatPatterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compile copycat pattern %q: %w", pattern, err)
		}
		s.copycat = append(s.copycat, re)
	}
	for _, pattern := range cfg.WrappedAssetPatterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compile wrapped asset pattern %q: %w", pattern, err)
		}
		s.wrapped = append(s.wrapped, re)
	}
	return s, nil
}

// ledger accumulates the running score with its audit trail.
type ledger struct {
	score     int
	penalties []domain.PointAdjustment
	bonuses   []domain.PointAdjustment
}

func (l *ledger) penalize(points int, reason string) {
	l.score -= points
	l.penalties = append(l.penalties, domain.PointAdjustment{Reason: reason, Points: -points})
}

func (l *ledger) reward(points int, reason string) {
	l.score += points
	l.bonuses = append(l.bonuses, domain.PointAdjustment{Reason: reason, Points: points})
}

// Score evaluates the full rule set for one token. Rules are additive and
// independent: no rule short-circuits another, and every adjustment is
// recorded in application order.
func (s *Scorer) Score(in Input) domain.TrustAssessment {
	l := &ledger{score: startingScore}

	s.applyListMembership(l, in)
	s.applyNamingRules(l, in)
	s.applySupplyRules(l, in)
	s.applyPoolCountRules(l, in)
	s.applyLiquidityTier(l, in)
	s.applyConcentrationPenalty(l, in)
	s.applyGlobalRatioCap(l, in)
	s.applyAgeBonus(l, in)

	// Floor at zero. No explicit ceiling.
	if l.score < 0 {
		l.score = 0
	}

	level, honeypot := classify(l.score, in.TotalLiquidity)

	return domain.TrustAssessment{
		Score:      l.score,
		TrustLevel: level,
		IsHoneypot: honeypot,
		Penalties:  l.penalties,
		Bonuses:    l.bonuses,
	}
}

func (s *Scorer) applyListMembership(l *ledger, in Input) {
	if _, ok := s.whitelist[in.TokenID]; ok {
		l.reward(50, "token in trusted whitelist")
	}
	if _, ok := s.blacklist[in.TokenID]; ok {
		l.penalize(100, "token in known honeypot blacklist")
	}
}

func (s *Scorer) applyNamingRules(l *ledger, in Input) {
	if in.MarketCap <= mcapSignificant {
		return
	}
	for _, re := range s.copycat {
		if re.MatchString(in.Ticker) {
			l.penalize(25, fmt.Sprintf("ticker %q matches copycat naming pattern with large market cap", in.Ticker))
			return
		}
	}
}

func (s *Scorer) applySupplyRules(l *ledger, in Input) {
	// Large market cap claimed with no circulating supply reported but
	// substantial liquidity parked: the supply figure is not credible.
	if in.MarketCap > mcapSignificant && in.CirculatingSupply == 0 && in.TotalLiquidity > liquiditySubstantial {
		l.penalize(50, "large market cap with zero circulating supply and substantial liquidity")
	}

	if in.TotalLiquidity > 0 && in.MarketCap > 0 {
		ratio := in.MarketCap / in.TotalLiquidity
		if ratio > ratioSuspicious && in.MarketCap > mcapLarge {
			l.penalize(40, fmt.Sprintf("market cap %.0fx liquidity suggests manipulation", ratio))
		}
		if in.CirculatingSupply < 0.1*in.TotalLiquidity && in.MarketCap > mcapSignificant {
			l.penalize(30, "circulating supply tiny relative to liquidity with large market cap")
		}
	}
}

func (s *Scorer) applyPoolCountRules(l *ledger, in Input) {
	if in.PriceFromFallback {
		// A usable price exists even without enumerable pools, so the
		// zero-pool penalty is reduced relative to the direct case.
		if in.PoolCount == 0 {
			l.penalize(40, "no enumerable pools, price from fallback endpoint")
			if in.MarketCap > mcapSignificant {
				l.penalize(20, "large market cap without enumerable pools")
			}
		}
		for _, re := range s.wrapped {
			if re.MatchString(in.Ticker) {
				l.reward(30, fmt.Sprintf("ticker %q matches recognized wrapped asset", in.Ticker))
				break
			}
		}
		return
	}

	switch {
	case in.PoolCount == 0:
		l.penalize(80, "no liquidity pools found")
	case in.PoolCount == 1:
		l.penalize(30, "single liquidity pool")
		if in.MarketCap > mcapVeryLarge && in.CirculatingSupply == 0 {
			l.penalize(50, "very large market cap on a single pool with zero circulating supply")
		}
		if in.TotalLiquidity > 0 {
			ratio := in.MarketCap / in.TotalLiquidity
			if ratio > ratioExtreme {
				l.penalize(40, fmt.Sprintf("single pool with market cap %.0fx liquidity", ratio))
			} else if ratio > ratioSuspicious {
				l.penalize(20, fmt.Sprintf("single pool with market cap %.0fx liquidity", ratio))
			}
		}
	case in.PoolCount < s.cfg.MinPoolsRequired:
		l.penalize(10, fmt.Sprintf("only %d pools, below required %d", in.PoolCount, s.cfg.MinPoolsRequired))
	default:
		l.reward(10, fmt.Sprintf("%d pools meet the minimum of %d", in.PoolCount, s.cfg.MinPoolsRequired))
	}
}

// applyLiquidityTier applies exactly one tier, evaluated top-down.
func (s *Scorer) applyLiquidityTier(l *ledger, in Input) {
	liq := in.TotalLiquidity
	switch {
	case liq < liquidityDust:
		l.penalize(70, fmt.Sprintf("liquidity %.0f ADA is negligible", liq))
	case liq < liquidityThin:
		l.penalize(50, fmt.Sprintf("liquidity %.0f ADA is very thin", liq))
	case liq < s.cfg.MinLiquidityThreshold:
		l.penalize(30, fmt.Sprintf("liquidity %.0f ADA below minimum threshold %.0f", liq, s.cfg.MinLiquidityThreshold))
	case liq > liquiditySubstantial:
		l.reward(20, fmt.Sprintf("substantial liquidity of %.0f ADA", liq))
	case liq > liquidityHealthy:
		l.reward(10, fmt.Sprintf("healthy liquidity of %.0f ADA", liq))
	}
}

func (s *Scorer) applyConcentrationPenalty(l *ledger, in Input) {
	if !in.SuspiciousConcentration {
		return
	}
	switch {
	case in.TotalLiquidity < liquidityHealthy:
		l.penalize(30, "liquidity concentrated in one pool with thin backing")
	case in.TotalLiquidity < 50_000:
		l.penalize(15, "liquidity concentrated in one pool")
	default:
		l.penalize(5, "liquidity concentrated but well backed")
	}
}

func (s *Scorer) applyGlobalRatioCap(l *ledger, in Input) {
	if in.TotalLiquidity <= 0 || in.MarketCap <= 0 {
		return
	}
	ratio := in.MarketCap / in.TotalLiquidity
	if ratio > s.cfg.MaxMcapLiquidityRatio {
		l.penalize(40, fmt.Sprintf("market cap to liquidity ratio %.0f exceeds cap %.0f", ratio, s.cfg.MaxMcapLiquidityRatio))
	}
}

// applyAgeBonus applies exactly one bonus, evaluated top-down.
func (s *Scorer) applyAgeBonus(l *ledger, in Input) {
	switch {
	case in.TokenAgeDays > 365:
		l.reward(15, "token older than one year")
	case in.TokenAgeDays > 180:
		l.reward(10, "token older than six months")
	case in.TokenAgeDays > 30:
		l.reward(5, "token older than one month")
	}
}

// classify maps the final score to a trust level and the honeypot flag.
func classify(score int, totalLiquidity float64) (domain.TrustLevel, bool) {
	switch {
	case score < veryLowCeiling:
		return domain.TrustVeryLow, true
	case score < lowCeiling:
		return domain.TrustLow, totalLiquidity < honeypotLiquidityFloor
	case score < moderateCeiling:
		return domain.TrustModerate, false
	case score < goodCeiling:
		return domain.TrustGood, false
	default:
		return domain.TrustHigh, false
	}
}
