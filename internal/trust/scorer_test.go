package trust

import (
	"reflect"
	"strings"
	"testing"

	"cardano-token-metrics/internal/config"
	"cardano-token-metrics/internal/domain"
)

func newTestScorer(t *testing.T, mutate func(*config.ScoringConfig)) *Scorer {
	t.Helper()
	cfg := config.Default().Scoring
	if mutate != nil {
		mutate(&cfg)
	}
	s, err := NewScorer(cfg)
	if err != nil {
		t.Fatalf("NewScorer failed: %v", err)
	}
	return s
}

func TestScore_HealthyToken(t *testing.T) {
	s := newTestScorer(t, nil)

	a := s.Score(Input{
		TokenID:           "tokenA",
		Ticker:            "SNEK",
		PoolCount:         3,
		TotalLiquidity:    3500,
		MarketCap:         564_285,
		CirculatingSupply: 1_000_000,
		TokenAgeDays:      400,
	})

	// 100 + 10 (pool count) + 15 (age) = 125. Liquidity 3500 falls between
	// the thin and healthy tiers, so no tier adjustment applies.
	if a.Score != 125 {
		t.Errorf("Score = %d, want 125", a.Score)
	}
	if a.TrustLevel != domain.TrustHigh {
		t.Errorf("TrustLevel = %s, want %s", a.TrustLevel, domain.TrustHigh)
	}
	if a.IsHoneypot {
		t.Error("healthy token flagged as honeypot")
	}
	if len(a.Penalties) != 0 {
		t.Errorf("unexpected penalties: %+v", a.Penalties)
	}
	if len(a.Bonuses) != 2 {
		t.Errorf("expected 2 bonuses, got %+v", a.Bonuses)
	}
}

func TestScore_FloorAtZero(t *testing.T) {
	s := newTestScorer(t, func(cfg *config.ScoringConfig) {
		cfg.Blacklist = []string{"badtoken"}
	})

	a := s.Score(Input{
		TokenID:        "badtoken",
		Ticker:         "SCAM",
		PoolCount:      0,
		TotalLiquidity: 0,
	})

	// Blacklist (-100), zero pools (-80), negligible liquidity (-70) sum
	// well below zero; reported score is exactly 0.
	if a.Score != 0 {
		t.Errorf("Score = %d, want 0", a.Score)
	}
	if a.TrustLevel != domain.TrustVeryLow {
		t.Errorf("TrustLevel = %s, want %s", a.TrustLevel, domain.TrustVeryLow)
	}
	if !a.IsHoneypot {
		t.Error("expected IsHoneypot=true for VeryLow")
	}
}

func TestScore_WhitelistDoesNotShortCircuit(t *testing.T) {
	s := newTestScorer(t, func(cfg *config.ScoringConfig) {
		cfg.Whitelist = []string{"wrappedish"}
	})

	a := s.Score(Input{
		TokenID:           "wrappedish",
		Ticker:            "WBTC2", // trailing digit keeps it off both naming pattern lists
		PoolCount:         3,
		TotalLiquidity:    30_000,
		MarketCap:         2_000_000,
		CirculatingSupply: 10_000_000,
		TokenAgeDays:      10,
	})

	hasWhitelistBonus := false
	for _, b := range a.Bonuses {
		if b.Points == 50 {
			hasWhitelistBonus = true
		}
	}
	if !hasWhitelistBonus {
		t.Errorf("whitelist bonus missing: %+v", a.Bonuses)
	}
}

func TestScore_WhitelistAndCopycatBothApply(t *testing.T) {
	s := newTestScorer(t, func(cfg *config.ScoringConfig) {
		cfg.Whitelist = []string{"copycat"}
	})

	a := s.Score(Input{
		TokenID:           "copycat",
		Ticker:            "WBTC", // matches copycat pattern
		PoolCount:         3,
		TotalLiquidity:    30_000,
		MarketCap:         2_000_000, // > 1M, copycat rule armed
		CirculatingSupply: 10_000_000,
	})

	var gotBonus, gotPenalty bool
	for _, b := range a.Bonuses {
		if b.Points == 50 {
			gotBonus = true
		}
	}
	for _, p := range a.Penalties {
		if p.Points == -25 {
			gotPenalty = true
		}
	}
	if !gotBonus {
		t.Errorf("whitelist bonus missing despite copycat ticker: %+v", a.Bonuses)
	}
	if !gotPenalty {
		t.Errorf("copycat penalty missing despite whitelist: %+v", a.Penalties)
	}
}

func TestScore_Idempotent(t *testing.T) {
	s := newTestScorer(t, func(cfg *config.ScoringConfig) {
		cfg.Blacklist = []string{"tokenA"}
	})

	in := Input{
		TokenID:                 "tokenA",
		Ticker:                  "WRAPPEDGOLD",
		PoolCount:               1,
		SuspiciousConcentration: true,
		TotalLiquidity:          900,
		MarketCap:               8_000_000,
		CirculatingSupply:       0,
		TokenAgeDays:            45,
	}

	first := s.Score(in)
	second := s.Score(in)

	if first.Score != second.Score {
		t.Errorf("scores differ: %d vs %d", first.Score, second.Score)
	}
	if !reflect.DeepEqual(first.Penalties, second.Penalties) {
		t.Errorf("penalty trails differ:\n%+v\n%+v", first.Penalties, second.Penalties)
	}
	if !reflect.DeepEqual(first.Bonuses, second.Bonuses) {
		t.Errorf("bonus trails differ:\n%+v\n%+v", first.Bonuses, second.Bonuses)
	}
}

func TestScore_FallbackPoolBranch(t *testing.T) {
	s := newTestScorer(t, nil)

	// Zero pools via fallback endpoint: reduced penalty vs direct -80.
	a := s.Score(Input{
		TokenID:           "tokenA",
		Ticker:            "MEME",
		PoolCount:         0,
		TotalLiquidity:    0,
		MarketCap:         500_000,
		PriceFromFallback: true,
	})

	var fallbackPenalty bool
	for _, p := range a.Penalties {
		if p.Points == -40 {
			fallbackPenalty = true
		}
		if p.Points == -80 {
			t.Errorf("direct zero-pool penalty applied on fallback branch: %+v", a.Penalties)
		}
	}
	if !fallbackPenalty {
		t.Errorf("expected -40 fallback zero-pool penalty: %+v", a.Penalties)
	}

	// Wrapped asset ticker earns the recognition bonus on the fallback branch.
	b := s.Score(Input{
		TokenID:           "tokenB",
		Ticker:            "USDC",
		PoolCount:         0,
		TotalLiquidity:    0,
		MarketCap:         500_000,
		PriceFromFallback: true,
	})
	var wrappedBonus bool
	for _, bon := range b.Bonuses {
		if bon.Points == 30 {
			wrappedBonus = true
		}
	}
	if !wrappedBonus {
		t.Errorf("expected +30 wrapped asset bonus: %+v", b.Bonuses)
	}
}

func TestScore_SinglePoolRatioSubPenalties(t *testing.T) {
	s := newTestScorer(t, nil)

	tests := []struct {
		name       string
		marketCap  float64
		liquidity  float64
		wantPoints int // expected ratio sub-penalty, 0 means none
	}{
		{"ratio above 100", 2_000_000, 10_000, -40},
		{"ratio between 50 and 100", 700_000, 10_000, -20},
		{"ratio below 50", 100_000, 10_000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := s.Score(Input{
				TokenID:           "tokenA",
				Ticker:            "ABC",
				PoolCount:         1,
				TotalLiquidity:    tt.liquidity,
				MarketCap:         tt.marketCap,
				CirculatingSupply: 1_000_000,
			})

			found := false
			for _, p := range a.Penalties {
				if p.Points == tt.wantPoints {
					found = true
				}
			}
			if tt.wantPoints != 0 && !found {
				t.Errorf("expected %d ratio sub-penalty, got %+v", tt.wantPoints, a.Penalties)
			}
			if tt.wantPoints == 0 {
				for _, p := range a.Penalties {
					if p.Points == -40 || p.Points == -20 {
						t.Errorf("unexpected ratio sub-penalty: %+v", a.Penalties)
					}
				}
			}
		})
	}
}

func TestScore_LiquidityTiersMutuallyExclusive(t *testing.T) {
	s := newTestScorer(t, nil)

	tests := []struct {
		liquidity float64
		want      int // tier adjustment
	}{
		{50, -70},
		{300, -50},
		{150_000, 20},
		{50_000, 10},
		{10_000, 0},
	}

	for _, tt := range tests {
		a := s.Score(Input{
			TokenID:        "tokenA",
			Ticker:         "ABC",
			PoolCount:      3,
			TotalLiquidity: tt.liquidity,
		})

		var tierPoints []int
		for _, p := range a.Penalties {
			if p.Points == -70 || p.Points == -50 || p.Points == -30 {
				tierPoints = append(tierPoints, p.Points)
			}
		}
		for _, b := range a.Bonuses {
			// The pool count bonus is also +10; distinguish tiers by reason.
			if (b.Points == 20 || b.Points == 10) && strings.Contains(b.Reason, "liquidity") {
				tierPoints = append(tierPoints, b.Points)
			}
		}

		if tt.want == 0 {
			if len(tierPoints) != 0 {
				t.Errorf("liquidity %.0f: unexpected tier adjustments %v", tt.liquidity, tierPoints)
			}
			continue
		}
		if len(tierPoints) != 1 || tierPoints[0] != tt.want {
			t.Errorf("liquidity %.0f: tier adjustments %v, want exactly [%d]", tt.liquidity, tierPoints, tt.want)
		}
	}
}

func TestScore_HoneypotBoundaries(t *testing.T) {
	// TrustLow with liquidity below the floor is a honeypot, above is not.
	level, honeypot := classify(30, 1000)
	if level != domain.TrustLow || !honeypot {
		t.Errorf("classify(30, 1000) = (%s, %v), want (LOW, true)", level, honeypot)
	}

	level, honeypot = classify(30, 10_000)
	if level != domain.TrustLow || honeypot {
		t.Errorf("classify(30, 10000) = (%s, %v), want (LOW, false)", level, honeypot)
	}

	for _, tc := range []struct {
		score int
		want  domain.TrustLevel
	}{
		{0, domain.TrustVeryLow},
		{19, domain.TrustVeryLow},
		{20, domain.TrustLow},
		{40, domain.TrustModerate},
		{60, domain.TrustGood},
		{80, domain.TrustHigh},
		{125, domain.TrustHigh},
	} {
		level, _ := classify(tc.score, 100_000)
		if level != tc.want {
			t.Errorf("classify(%d) = %s, want %s", tc.score, level, tc.want)
		}
	}
}

func TestScore_GlobalRatioCap(t *testing.T) {
	s := newTestScorer(t, nil)

	a := s.Score(Input{
		TokenID:           "tokenA",
		Ticker:            "ABC",
		PoolCount:         3,
		TotalLiquidity:    1000,
		MarketCap:         20_000_000, // ratio 20000 > 10000 cap
		CirculatingSupply: 1_000_000_000,
	})

	found := false
	for _, p := range a.Penalties {
		if p.Points == -40 {
			found = true
		}
	}
	if !found {
		t.Errorf("expected -40 global ratio cap penalty, got %+v", a.Penalties)
	}
}
