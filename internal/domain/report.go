package domain

import "time"

// ValidationParameters are the active thresholds a report was produced with.
type ValidationParameters struct {
	MinTrustScore         int     `json:"minTrustScore"`
	MinPoolsRequired      int     `json:"minPoolsRequired"`
	MinLiquidityThreshold float64 `json:"minLiquidityThreshold"`
	MaxMcapLiquidityRatio float64 `json:"maxMcapLiquidityRatio"`
	MinReasonablePrice    float64 `json:"minReasonablePrice"`
	MaxReasonablePrice    float64 `json:"maxReasonablePrice"`
}

// MarketCapReport is the ranked snapshot produced by one enrichment pass.
// Fully replaced on each run; read-only to the serving layer.
type MarketCapReport struct {
	GeneratedAt time.Time `json:"generatedAt"`

	// Aggregate counters over the full token set.
	TotalTokens         int `json:"totalTokens"`
	TokensWithMarketCap int `json:"tokensWithMarketCap"`
	TokensWithLiquidity int `json:"tokensWithLiquidity"`
	HoneypotsFlagged    int `json:"honeypotsFlagged"`
	DegradedTokens      int `json:"degradedTokens"`

	ValidationParameters ValidationParameters `json:"validationParameters"`

	// TopTokensByMarketCapValid is sorted by market cap descending and
	// filtered to trust score >= the moderate threshold with a positive
	// market cap. The serving layer derives rank from list position.
	TopTokensByMarketCapValid []*TokenRecord `json:"topTokensByMarketCapValid"`
}
