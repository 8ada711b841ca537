// Package reporting renders the market cap report for humans: Markdown for
// review, CSV for spreadsheets.
package reporting

import (
	"fmt"
	"strings"
	"time"

	"cardano-token-metrics/internal/domain"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *domain.MarketCapReport) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Token Market Cap Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	// Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Total Tokens | %d |\n", r.TotalTokens))
	sb.WriteString(fmt.Sprintf("| Tokens With Market Cap | %d |\n", r.TokensWithMarketCap))
	sb.WriteString(fmt.Sprintf("| Tokens With Liquidity | %d |\n", r.TokensWithLiquidity))
	sb.WriteString(fmt.Sprintf("| Honeypots Flagged | %d |\n", r.HoneypotsFlagged))
	sb.WriteString(fmt.Sprintf("| Degraded Tokens | %d |\n", r.DegradedTokens))
	sb.WriteString("\n")

	// Validation Parameters
	p := r.ValidationParameters
	sb.WriteString("## Validation Parameters\n\n")
	sb.WriteString("| Parameter | Value |\n")
	sb.WriteString("|-----------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Min Trust Score | %d |\n", p.MinTrustScore))
	sb.WriteString(fmt.Sprintf("| Min Pools Required | %d |\n", p.MinPoolsRequired))
	sb.WriteString(fmt.Sprintf("| Min Liquidity Threshold | %.0f |\n", p.MinLiquidityThreshold))
	sb.WriteString(fmt.Sprintf("| Max Mcap/Liquidity Ratio | %.0f |\n", p.MaxMcapLiquidityRatio))
	sb.WriteString(fmt.Sprintf("| Reasonable Price Range | %g - %g |\n", p.MinReasonablePrice, p.MaxReasonablePrice))
	sb.WriteString("\n")

	// Ranking
	sb.WriteString("## Top Tokens By Market Cap\n\n")
	if len(r.TopTokensByMarketCapValid) > 0 {
		sb.WriteString("| Rank | Ticker | Token ID | Price (ADA) | Market Cap | Liquidity | TVL | Pools | Trust | Level |\n")
		sb.WriteString("|------|--------|----------|-------------|------------|-----------|-----|-------|-------|-------|\n")
		for i, t := range r.TopTokensByMarketCapValid {
			score := 0
			level := ""
			if t.TrustAssessment != nil {
				score = t.TrustAssessment.Score
				level = string(t.TrustAssessment.TrustLevel)
			}
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %.6g | %.2f | %.2f | %.2f | %d | %d | %s |\n",
				i+1, t.Ticker, t.TokenID, t.Price, t.MarketCap, t.Liquidity, t.TVL,
				t.PoolCount, score, level))
		}
	} else {
		sb.WriteString("No tokens passed validation.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}
