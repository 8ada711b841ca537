package reporting

import (
	"fmt"
	"strings"

	"cardano-token-metrics/internal/domain"
)

// RenderCSV renders the valid ranking as CSV string.
func RenderCSV(tokens []*domain.TokenRecord) string {
	var sb strings.Builder

	// Header
	sb.WriteString("rank,token_id,ticker,price,market_cap,liquidity,tvl,pool_count,trust_score,trust_level\n")

	// Rows
	for i, t := range tokens {
		score := 0
		level := ""
		if t.TrustAssessment != nil {
			score = t.TrustAssessment.Score
			level = string(t.TrustAssessment.TrustLevel)
		}
		sb.WriteString(fmt.Sprintf("%d,%s,%s,%.10g,%.6f,%.6f,%.6f,%d,%d,%s\n",
			i+1,
			t.TokenID,
			csvEscape(t.Ticker),
			t.Price,
			t.MarketCap,
			t.Liquidity,
			t.TVL,
			t.PoolCount,
			score,
			level,
		))
	}

	return sb.String()
}

// csvEscape quotes a field containing commas or quotes. Tickers are
// user-supplied on-chain strings and cannot be trusted to be clean.
func csvEscape(field string) string {
	if !strings.ContainsAny(field, ",\"\n") {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}
