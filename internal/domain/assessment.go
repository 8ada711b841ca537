package domain

// PriceAssessment is the output of the weighted price resolver for one token.
// Computed fresh per scoring pass and never mutated after creation.
type PriceAssessment struct {
	WeightedPrice             float64 `json:"weightedPrice"`  // ADA per token, >= 0
	TotalLiquidity            float64 `json:"totalLiquidity"` // sum of ADA-side amounts across pools used
	PoolCount                 int     `json:"poolCount"`      // pools actually used for pricing
	OriginalPoolCount         int     `json:"originalPoolCount"`
	OutliersFiltered          bool    `json:"outliersFiltered"`
	MedianFallbackUsed        bool    `json:"medianFallbackUsed"`
	SuspiciousConcentration   bool    `json:"suspiciousConcentration"`
	PriceFromFallbackEndpoint bool    `json:"priceFromFallbackEndpoint"`
	NoPoolsFound              bool    `json:"noPoolsFound"`
	EmptySuspiciousPools      bool    `json:"emptySuspiciousPools"`
}

// TrustLevel classifies a token's trust score into coarse buckets.
type TrustLevel string

const (
	TrustVeryLow  TrustLevel = "VERY_LOW"
	TrustLow      TrustLevel = "LOW"
	TrustModerate TrustLevel = "MODERATE"
	TrustGood     TrustLevel = "GOOD"
	TrustHigh     TrustLevel = "HIGH"
)

// PointAdjustment is one entry in the scoring audit trail.
// Points are negative for penalties, positive for bonuses.
type PointAdjustment struct {
	Reason string `json:"reason"`
	Points int    `json:"points"`
}

// TrustAssessment is the output of the trust scorer for one token.
// It belongs to exactly one TokenRecord for one scoring pass and is
// embedded in the enriched record rather than persisted standalone.
type TrustAssessment struct {
	Score      int               `json:"score"` // floored at 0, no explicit ceiling
	TrustLevel TrustLevel        `json:"trustLevel"`
	IsHoneypot bool              `json:"isHoneypot"`
	Penalties  []PointAdjustment `json:"penalties,omitempty"` // in application order
	Bonuses    []PointAdjustment `json:"bonuses,omitempty"`   // in application order
}

// ValidationResult is the market cap validator's verdict for one token.
// Reasons accumulate without necessarily flipping validity.
type ValidationResult struct {
	Valid   bool     `json:"valid"`
	Reasons []string `json:"reasons,omitempty"` // in application order
}
