// Package config loads agent configuration from the environment, with an
// optional .env overlay for local runs.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Default values applied when the corresponding variable is unset.
const (
	DefaultPositionSizeUSDC  = 10.0
	DefaultMaxSlippagePct    = 1.0
	DefaultMinLiquidityUSD   = 100_000.0
	DefaultStopLossPct       = 10.0
	DefaultMinVolume24hUSD   = 50_000.0
	DefaultMinPriceChangePct = 5.0
	DefaultMinMarketCapUSD   = 100_000.0
	DefaultScanIntervalMs    = 60_000
	DefaultMaxPositions      = 3
	DefaultChainID           = "solana"
	DefaultDataDir           = "data"
	DefaultBlacklist         = "meme,test,scam,rug"
)

// Config is the full agent configuration.
type Config struct {
	// Trading parameters
	PositionSizeUSDC  float64
	MaxSlippagePct    float64
	MinLiquidityUSD   float64
	StopLossPct       float64
	MinVolume24hUSD   float64
	MinPriceChangePct float64
	MinMarketCapUSD   float64
	ScanInterval      time.Duration
	MaxPositions      int
	DryRun            bool
	Blacklist         []string

	// Operational
	ChainID           string
	FeedBaseURL       string
	SwapBaseURL       string
	SolanaRPCEndpoint string
	SolanaWSEndpoint  string
	WalletPath        string
	DataDir           string
	PostgresDSN       string
	ClickhouseDSN     string
	MetricsAddr       string
}

// Load reads an optional .env file, then the environment. A missing .env is
// not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv parses configuration from environment variables, applies defaults,
// and validates. Any parse or validation failure is fatal at startup.
func FromEnv() (*Config, error) {
	cfg := &Config{
		ChainID:           envStr("CHAIN_ID", DefaultChainID),
		FeedBaseURL:       envStr("FEED_BASE_URL", ""),
		SwapBaseURL:       envStr("SWAP_BASE_URL", ""),
		SolanaRPCEndpoint: envStr("SOLANA_RPC_ENDPOINT", ""),
		SolanaWSEndpoint:  envStr("SOLANA_WS_ENDPOINT", ""),
		WalletPath:        envStr("WALLET_PATH", ""),
		DataDir:           envStr("DATA_DIR", DefaultDataDir),
		PostgresDSN:       envStr("POSTGRES_DSN", ""),
		ClickhouseDSN:     envStr("CLICKHOUSE_DSN", ""),
		MetricsAddr:       envStr("METRICS_ADDR", ""),
		Blacklist:         envList("BLACKLIST", DefaultBlacklist),
	}

	var err error
	if cfg.PositionSizeUSDC, err = envFloat("POSITION_SIZE_USDC", DefaultPositionSizeUSDC); err != nil {
		return nil, err
	}
	if cfg.MaxSlippagePct, err = envFloat("MAX_SLIPPAGE_PCT", DefaultMaxSlippagePct); err != nil {
		return nil, err
	}
	if cfg.MinLiquidityUSD, err = envFloat("MIN_LIQUIDITY_USD", DefaultMinLiquidityUSD); err != nil {
		return nil, err
	}
	if cfg.StopLossPct, err = envFloat("STOP_LOSS_PCT", DefaultStopLossPct); err != nil {
		return nil, err
	}
	if cfg.MinVolume24hUSD, err = envFloat("MIN_VOLUME_24H_USD", DefaultMinVolume24hUSD); err != nil {
		return nil, err
	}
	if cfg.MinPriceChangePct, err = envFloat("MIN_PRICE_CHANGE_PCT", DefaultMinPriceChangePct); err != nil {
		return nil, err
	}
	if cfg.MinMarketCapUSD, err = envFloat("MIN_MARKET_CAP_USD", DefaultMinMarketCapUSD); err != nil {
		return nil, err
	}

	intervalMs, err := envInt("SCAN_INTERVAL_MS", DefaultScanIntervalMs)
	if err != nil {
		return nil, err
	}
	cfg.ScanInterval = time.Duration(intervalMs) * time.Millisecond

	if cfg.MaxPositions, err = envInt("MAX_POSITIONS", DefaultMaxPositions); err != nil {
		return nil, err
	}
	if cfg.DryRun, err = envBool("DRY_RUN", false); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks internal consistency. Live mode additionally requires the
// chain endpoints and a wallet file path.
func (c *Config) Validate() error {
	if c.PositionSizeUSDC <= 0 {
		return fmt.Errorf("POSITION_SIZE_USDC must be positive, got %f", c.PositionSizeUSDC)
	}
	if c.MaxSlippagePct <= 0 {
		return fmt.Errorf("MAX_SLIPPAGE_PCT must be positive, got %f", c.MaxSlippagePct)
	}
	if c.StopLossPct <= 0 || c.StopLossPct >= 100 {
		return fmt.Errorf("STOP_LOSS_PCT must be in (0, 100), got %f", c.StopLossPct)
	}
	if c.ScanInterval <= 0 {
		return fmt.Errorf("SCAN_INTERVAL_MS must be positive, got %s", c.ScanInterval)
	}
	if c.MaxPositions < 1 {
		return fmt.Errorf("MAX_POSITIONS must be at least 1, got %d", c.MaxPositions)
	}
	if c.MinLiquidityUSD < 0 || c.MinVolume24hUSD < 0 || c.MinMarketCapUSD < 0 {
		return fmt.Errorf("thresholds must not be negative")
	}
	if !c.DryRun {
		if c.SolanaRPCEndpoint == "" {
			return fmt.Errorf("SOLANA_RPC_ENDPOINT is required unless DRY_RUN is set")
		}
		if c.SolanaWSEndpoint == "" {
			return fmt.Errorf("SOLANA_WS_ENDPOINT is required unless DRY_RUN is set")
		}
		if c.WalletPath == "" {
			return fmt.Errorf("WALLET_PATH is required unless DRY_RUN is set")
		}
	}
	return nil
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid float %q: %w", key, v, err)
	}
	return f, nil
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, v, err)
	}
	return n, nil
}

func envBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q: %w", key, v, err)
	}
	return b, nil
}

// envList parses a comma-separated list, trimming whitespace and lowercasing
// entries. Empty entries are dropped.
func envList(key, def string) []string {
	v := os.Getenv(key)
	if v == "" {
		v = def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
