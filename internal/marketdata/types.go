package marketdata

// Wire types for the aggregator's JSON responses.

// poolResponse is one pool in the /token/pools response.
type poolResponse struct {
	Exchange     string  `json:"exchange"`
	PoolID       string  `json:"poolId"`
	TokenALocked float64 `json:"tokenALocked"` // ADA side
	TokenA       string  `json:"tokenA"`
	TokenBLocked float64 `json:"tokenBLocked"` // token side
	TokenB       string  `json:"tokenB"`
}

// avgPriceResponse is the /token/average-price response.
type avgPriceResponse struct {
	Price float64 `json:"price"`
}

// metadataResponse is the /token/metadata response.
type metadataResponse struct {
	Unit              string  `json:"unit"`
	Ticker            string  `json:"ticker"`
	Name              string  `json:"name"`
	TotalSupply       float64 `json:"totalSupply"`
	CirculatingSupply float64 `json:"circulatingSupply"`
	LaunchedAt        int64   `json:"launchedAt"` // unix seconds, 0 when unknown
}
