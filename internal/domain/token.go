package domain

import "time"

// TokenRecord is the unit persisted and served. Created or overwritten on
// each batch pass. Rank is derived transiently from the sorted report at
// read time and deliberately has no field here.
type TokenRecord struct {
	TokenID           string           `json:"tokenId"` // opaque, immutable, unique
	Ticker            string           `json:"ticker"`
	DisplayName       string           `json:"displayName,omitempty"`
	Price             float64          `json:"price"`     // ADA per token
	MarketCap         float64          `json:"marketCap"` // price x circulating-or-total supply
	Liquidity         float64          `json:"liquidity"` // ADA-side liquidity across pools used
	TVL               float64          `json:"tvl"`       // 2 x liquidity, same-pool two-sided approximation
	TotalSupply       float64          `json:"totalSupply,omitempty"`
	CirculatingSupply float64          `json:"circulatingSupply"`
	PoolCount         int              `json:"poolCount"`
	TokenAgeDays      int              `json:"tokenAgeDays"`
	TrustAssessment   *TrustAssessment `json:"trustAssessment,omitempty"`
	Validation        ValidationResult `json:"validation"`
	UpdatedAt         time.Time        `json:"updatedAt"`

	// EnrichmentError marks a degraded record: enrichment failed and the
	// remaining fields carry the pre-pass input unchanged.
	EnrichmentError string `json:"enrichmentError,omitempty"`
}

// Supply returns the supply figure used for market cap: circulating when
// known, total otherwise.
func (t *TokenRecord) Supply() float64 {
	if t.CirculatingSupply > 0 {
		return t.CirculatingSupply
	}
	return t.TotalSupply
}

// MetricSnapshot is one append-only history row recorded per token per
// enrichment pass.
type MetricSnapshot struct {
	TokenID    string
	Price      float64
	MarketCap  float64
	Liquidity  float64
	TrustScore int
	PassAt     time.Time
}
