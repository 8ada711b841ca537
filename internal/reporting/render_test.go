package reporting

import (
	"strings"
	"testing"
	"time"

	"cardano-token-metrics/internal/domain"
)

func sampleReport() *domain.MarketCapReport {
	return &domain.MarketCapReport{
		GeneratedAt:         time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		TotalTokens:         3,
		TokensWithMarketCap: 2,
		TokensWithLiquidity: 2,
		HoneypotsFlagged:    1,
		DegradedTokens:      0,
		ValidationParameters: domain.ValidationParameters{
			MinTrustScore:         40,
			MinPoolsRequired:      3,
			MinLiquidityThreshold: 500,
			MaxMcapLiquidityRatio: 10000,
			MinReasonablePrice:    0.000001,
			MaxReasonablePrice:    1000,
		},
		TopTokensByMarketCapValid: []*domain.TokenRecord{
			{
				TokenID:   "asset1snek",
				Ticker:    "SNEK",
				Price:     0.0021,
				MarketCap: 160000,
				Liquidity: 42000,
				TVL:       84000,
				PoolCount: 4,
				TrustAssessment: &domain.TrustAssessment{
					Score:      125,
					TrustLevel: domain.TrustHigh,
				},
			},
			{
				TokenID:   "asset1hosky",
				Ticker:    "HOSKY",
				Price:     0.000002,
				MarketCap: 90000,
				Liquidity: 12000,
				TVL:       24000,
				PoolCount: 3,
				TrustAssessment: &domain.TrustAssessment{
					Score:      75,
					TrustLevel: domain.TrustGood,
				},
			},
		},
	}
}

func TestRenderMarkdown(t *testing.T) {
	md := RenderMarkdown(sampleReport())

	for _, want := range []string{
		"# Token Market Cap Report",
		"Generated: 2026-03-01T12:00:00Z",
		"| Total Tokens | 3 |",
		"| Honeypots Flagged | 1 |",
		"| Min Trust Score | 40 |",
		"| 1 | SNEK | asset1snek |",
		"| 2 | HOSKY | asset1hosky |",
		"HIGH",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestRenderMarkdown_EmptyRanking(t *testing.T) {
	report := sampleReport()
	report.TopTokensByMarketCapValid = nil

	md := RenderMarkdown(report)
	if !strings.Contains(md, "No tokens passed validation.") {
		t.Error("markdown missing empty-ranking message")
	}
}

func TestRenderCSV(t *testing.T) {
	csv := RenderCSV(sampleReport().TopTokensByMarketCapValid)

	lines := strings.Split(strings.TrimSpace(csv), "\n")
	if len(lines) != 3 {
		t.Fatalf("line count = %d, want 3 (header + 2 rows)", len(lines))
	}
	if lines[0] != "rank,token_id,ticker,price,market_cap,liquidity,tvl,pool_count,trust_score,trust_level" {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if !strings.HasPrefix(lines[1], "1,asset1snek,SNEK,") {
		t.Errorf("unexpected first row: %s", lines[1])
	}
	if !strings.Contains(lines[2], "GOOD") {
		t.Errorf("second row missing trust level: %s", lines[2])
	}
}

func TestRenderCSV_EscapesDirtyTicker(t *testing.T) {
	tokens := []*domain.TokenRecord{
		{TokenID: "asset1odd", Ticker: `A,B"C`},
	}

	csv := RenderCSV(tokens)
	if !strings.Contains(csv, `"A,B""C"`) {
		t.Errorf("ticker not escaped: %s", csv)
	}
}
