package domain

// AdaUnit is the on-chain unit for the ADA side of every pool pair.
const AdaUnit = "lovelace"

// PoolQuote represents one liquidity pool's state for a token/ADA pair.
type PoolQuote struct {
	Dex         string  `json:"dex"`          // DEX identifier (e.g. "minswap", "sundaeswap")
	BaseAmount  float64 `json:"baseAmount"`   // ADA-side amount locked in the pool
	QuoteAmount float64 `json:"quoteAmount"`  // token-side amount locked in the pool
}

// Usable reports whether the pool can contribute a price.
// A pool with zero (or negative) supply on either side is excluded from pricing.
func (p PoolQuote) Usable() bool {
	return p.BaseAmount > 0 && p.QuoteAmount > 0
}

// Price returns the pool's unit price in ADA per token.
// Undefined (0) when either side is empty.
func (p PoolQuote) Price() float64 {
	if !p.Usable() {
		return 0
	}
	return p.BaseAmount / p.QuoteAmount
}
