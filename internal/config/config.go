// Package config loads service configuration from YAML with environment
// overrides. Scoring thresholds and the trusted/honeypot token lists live
// here so the scoring engine itself stays free of deployment-specific data.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete service configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Cache      CacheConfig      `yaml:"cache"`
	Source     SourceConfig     `yaml:"source"`
	Pricing    PricingConfig    `yaml:"pricing"`
	Scoring    ScoringConfig    `yaml:"scoring"`
	Enrichment EnrichmentConfig `yaml:"enrichment"`
}

// ServerConfig holds HTTP server settings. Timeouts are in seconds.
type ServerConfig struct {
	Host             string `yaml:"host"`
	Port             int    `yaml:"port"`
	ReadTimeoutSecs  int    `yaml:"read_timeout_secs"`
	WriteTimeoutSecs int    `yaml:"write_timeout_secs"`
	IdleTimeoutSecs  int    `yaml:"idle_timeout_secs"`
}

// ReadTimeout returns the read timeout as a duration.
func (s ServerConfig) ReadTimeout() time.Duration { return time.Duration(s.ReadTimeoutSecs) * time.Second }

// WriteTimeout returns the write timeout as a duration.
func (s ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutSecs) * time.Second
}

// IdleTimeout returns the idle timeout as a duration.
func (s ServerConfig) IdleTimeout() time.Duration { return time.Duration(s.IdleTimeoutSecs) * time.Second }

// StorageConfig selects the token store backend at construction time.
type StorageConfig struct {
	Backend       string `yaml:"backend"` // memory | file | postgres
	FileDir       string `yaml:"file_dir"`
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickhouseDSN string `yaml:"clickhouse_dsn"` // metric history, optional
}

// CacheConfig selects the report cache backend.
type CacheConfig struct {
	Backend   string `yaml:"backend"` // memory | redis
	RedisAddr string `yaml:"redis_addr"`
	RedisDB   int    `yaml:"redis_db"`
	TTLSecs   int    `yaml:"ttl_secs"`
}

// TTL returns the cache TTL as a duration.
func (c CacheConfig) TTL() time.Duration { return time.Duration(c.TTLSecs) * time.Second }

// SourceConfig holds DEX aggregator client settings.
type SourceConfig struct {
	BaseURL             string  `yaml:"base_url"`
	APIKey              string  `yaml:"api_key"`
	TimeoutSecs         int     `yaml:"timeout_secs"`
	RPS                 float64 `yaml:"rps"`   // request pacing toward the aggregator
	Burst               int     `yaml:"burst"` // token bucket burst capacity
	BreakerFailures     uint32  `yaml:"breaker_failures"`
	BreakerCooldownSecs int     `yaml:"breaker_cooldown_secs"`
	BreakerHalfOpen     uint32  `yaml:"breaker_half_open"`
}

// Timeout returns the per-request timeout as a duration.
func (s SourceConfig) Timeout() time.Duration { return time.Duration(s.TimeoutSecs) * time.Second }

// BreakerCooldown returns the circuit breaker open-state cooldown.
func (s SourceConfig) BreakerCooldown() time.Duration {
	return time.Duration(s.BreakerCooldownSecs) * time.Second
}

// PricingConfig bounds the weighted price resolver.
type PricingConfig struct {
	MinReasonablePrice float64 `yaml:"min_reasonable_price"` // ADA per token
	MaxReasonablePrice float64 `yaml:"max_reasonable_price"` // ADA per token
}

// ScoringConfig holds trust scorer thresholds and list data.
type ScoringConfig struct {
	MinPoolsRequired      int     `yaml:"min_pools_required"`
	MinLiquidityThreshold float64 `yaml:"min_liquidity_threshold"`
	MaxMcapLiquidityRatio float64 `yaml:"max_mcap_liquidity_ratio"`

	// Whitelist holds trusted token IDs, Blacklist known honeypots.
	// Supplied per deployment, never compiled in.
	Whitelist []string `yaml:"whitelist"`
	Blacklist []string `yaml:"blacklist"`

	// CopycatPatterns match wrapped/derivative naming used by copycat
	// tokens. WrappedAssetPatterns match the legitimate bridged majors
	// (BTC/ETH/USDC/USDT variants). Both are regular expressions applied
	// to the ticker.
	CopycatPatterns      []string `yaml:"copycat_patterns"`
	WrappedAssetPatterns []string `yaml:"wrapped_asset_patterns"`
}

// EnrichmentConfig tunes the batch orchestrator.
type EnrichmentConfig struct {
	BatchSize        int `yaml:"batch_size"`
	BatchDelayMS     int `yaml:"batch_delay_ms"`    // minimum spacing between batches
	PassIntervalSecs int `yaml:"pass_interval_secs"` // scheduler interval in cmd/server
}

// BatchDelay returns the minimum inter-batch spacing.
func (e EnrichmentConfig) BatchDelay() time.Duration {
	return time.Duration(e.BatchDelayMS) * time.Millisecond
}

// PassInterval returns the scheduler interval between enrichment passes.
func (e EnrichmentConfig) PassInterval() time.Duration {
	return time.Duration(e.PassIntervalSecs) * time.Second
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8080,
			ReadTimeoutSecs:  10,
			WriteTimeoutSecs: 15,
			IdleTimeoutSecs:  60,
		},
		Storage: StorageConfig{
			Backend: "memory",
			FileDir: "data",
		},
		Cache: CacheConfig{
			Backend: "memory",
			TTLSecs: 300,
		},
		Source: SourceConfig{
			BaseURL:             "https://openapi.taptools.io/api/v1",
			TimeoutSecs:         30,
			RPS:                 5,
			Burst:               10,
			BreakerFailures:     5,
			BreakerCooldownSecs: 30,
			BreakerHalfOpen:     2,
		},
		Pricing: PricingConfig{
			MinReasonablePrice: 1e-6,
			MaxReasonablePrice: 1000,
		},
		Scoring: ScoringConfig{
			MinPoolsRequired:      3,
			MinLiquidityThreshold: 500,
			MaxMcapLiquidityRatio: 10000,
			CopycatPatterns: []string{
				`(?i)^w(btc|eth|ada|sol)$`,
				`(?i)^(btc|eth|usdc|usdt|dai)2?$`,
				`(?i)wrapped`,
				`(?i)(baby|mini|moon)(btc|eth|ada)`,
			},
			WrappedAssetPatterns: []string{
				`(?i)^w?btc$`,
				`(?i)^w?eth$`,
				`(?i)^usdc$`,
				`(?i)^usdt$`,
			},
		},
		Enrichment: EnrichmentConfig{
			BatchSize:        10,
			BatchDelayMS:     2000,
			PassIntervalSecs: 1800,
		},
	}
}

// Load reads configuration from the YAML file at path, layered over the
// defaults, then applies environment overrides. An empty path skips the
// file and returns defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides secrets and connection endpoints from the environment.
func applyEnv(cfg *Config) {
	if v := os.Getenv("SOURCE_API_KEY"); v != "" {
		cfg.Source.APIKey = v
	}
	if v := os.Getenv("SOURCE_BASE_URL"); v != "" {
		cfg.Source.BaseURL = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Storage.PostgresDSN = v
	}
	if v := os.Getenv("CLICKHOUSE_DSN"); v != "" {
		cfg.Storage.ClickhouseDSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("HTTP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
}

func (c *Config) validate() error {
	switch c.Storage.Backend {
	case "memory", "file", "postgres":
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	switch c.Cache.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	if c.Pricing.MinReasonablePrice <= 0 || c.Pricing.MaxReasonablePrice <= c.Pricing.MinReasonablePrice {
		return fmt.Errorf("invalid reasonable price bounds [%g, %g]",
			c.Pricing.MinReasonablePrice, c.Pricing.MaxReasonablePrice)
	}
	if c.Enrichment.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", c.Enrichment.BatchSize)
	}
	return nil
}
