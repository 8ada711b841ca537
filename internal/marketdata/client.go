package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"cardano-token-metrics/internal/config"
	"cardano-token-metrics/internal/domain"
	"cardano-token-metrics/internal/observability"
)

// Default client configuration values.
const (
	DefaultTimeout = 30 * time.Second
	DefaultRPS     = 5.0
	DefaultBurst   = 10
)

// Client implements PriceSource against the aggregator's REST API.
// Requests are paced by a token bucket and guarded by a circuit breaker;
// the breaker opens after consecutive failures and recovers through a
// half-open probe window.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	metrics *observability.Metrics
	logger  zerolog.Logger
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.client = hc
	}
}

// WithMetrics enables aggregator call instrumentation.
func WithMetrics(m *observability.Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient creates a new aggregator client.
func NewClient(cfg config.SourceConfig, logger zerolog.Logger, opts ...ClientOption) *Client {
	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	rps := cfg.RPS
	if rps <= 0 {
		rps = DefaultRPS
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = DefaultBurst
	}

	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}

	settings := gobreaker.Settings{
		Name:        "aggregator",
		MaxRequests: cfg.BreakerHalfOpen,
		Timeout:     cfg.BreakerCooldown(),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	}

	c := &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger.With().Str("component", "marketdata").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile-time interface check.
var _ PriceSource = (*Client)(nil)

// GetPools returns the liquidity pools for the token/ADA pair.
func (c *Client) GetPools(ctx context.Context, tokenID string) ([]domain.PoolQuote, error) {
	params := url.Values{}
	params.Set("unit", tokenID)
	params.Set("quote", domain.AdaUnit)

	var pools []poolResponse
	if err := c.get(ctx, "/token/pools", params, &pools); err != nil {
		return nil, fmt.Errorf("get pools for %s: %w", tokenID, err)
	}

	quotes := make([]domain.PoolQuote, 0, len(pools))
	for _, p := range pools {
		quotes = append(quotes, domain.PoolQuote{
			Dex:         p.Exchange,
			BaseAmount:  p.TokenALocked,
			QuoteAmount: p.TokenBLocked,
		})
	}
	return quotes, nil
}

// GetFallbackPrice returns the aggregator's average price for base in quote.
func (c *Client) GetFallbackPrice(ctx context.Context, baseID, quoteID string) (float64, error) {
	params := url.Values{}
	params.Set("base", baseID)
	params.Set("quote", quoteID)

	var resp avgPriceResponse
	if err := c.get(ctx, "/token/average-price", params, &resp); err != nil {
		return 0, fmt.Errorf("get average price %s/%s: %w", baseID, quoteID, err)
	}
	if resp.Price <= 0 {
		return 0, ErrNoPrice
	}
	return resp.Price, nil
}

// GetTokenMetadata returns supply and age metadata for the token.
func (c *Client) GetTokenMetadata(ctx context.Context, tokenID string) (*TokenMetadata, error) {
	params := url.Values{}
	params.Set("unit", tokenID)

	var resp metadataResponse
	if err := c.get(ctx, "/token/metadata", params, &resp); err != nil {
		return nil, fmt.Errorf("get metadata for %s: %w", tokenID, err)
	}

	meta := &TokenMetadata{
		TokenID:           tokenID,
		Ticker:            resp.Ticker,
		Name:              resp.Name,
		TotalSupply:       resp.TotalSupply,
		CirculatingSupply: resp.CirculatingSupply,
	}
	if resp.LaunchedAt > 0 {
		age := time.Since(time.Unix(resp.LaunchedAt, 0))
		meta.AgeDays = int(age.Hours() / 24)
	}
	return meta, nil
}

// get performs a rate-limited, breaker-guarded GET and decodes the JSON body.
func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	start := time.Now()
	body, err := c.breaker.Execute(func() (interface{}, error) {
		return c.doGet(ctx, path, params)
	})
	if c.metrics != nil {
		c.metrics.ObserveSourceCall(path, time.Since(start), err)
	}
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body.([]byte), out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) doGet(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)
	}
	return body, nil
}
