package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port     int
	DevMode  bool
	LogLevel string

	DatabasePath string

	// Price lookup
	PriceCacheTTL     time.Duration
	PriceRefreshEvery time.Duration // zero disables the warm job
	CoinGeckoBaseURL  string        // optional override, chosen from keys when empty
	CoinGeckoDemoKey  string
	CoinGeckoProKey   string
	ProxyHost         string
	ProxyPort         int

	// Upstream call budget (providers, price fetches)
	FetchTimeout time.Duration

	// Protocol data sources
	AaveSubgraphURL    string
	UniswapSubgraphURL string
	EthRPCURL          string
	InfuraAPIKey       string

	// Alerting
	SendGridAPIKey  string
	AlertFromEmail  string
	AprRetention    time.Duration
	AprSnapshotPath string // empty disables snapshot persistence
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	ttlMinutes := getEnvAsInt("PRICE_CACHE_TTL_MINUTES", 10)
	if ttlMinutes <= 0 {
		ttlMinutes = 10
	}

	cfg := &Config{
		Port:     getEnvAsInt("PORT", 8080),
		DevMode:  getEnvAsBool("DEV_MODE", false),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabasePath: getEnv("DATABASE_PATH", "./data/dya.db"),

		PriceCacheTTL:     time.Duration(ttlMinutes) * time.Minute,
		PriceRefreshEvery: time.Duration(getEnvAsInt("PRICE_REFRESH_MINUTES", 0)) * time.Minute,
		CoinGeckoBaseURL:  getEnv("COINGECKO_BASE_URL", ""),
		CoinGeckoDemoKey:  getEnv("COINGECKO_DEMO_API_KEY", ""),
		CoinGeckoProKey:   getEnv("COINGECKO_PRO_API_KEY", ""),
		ProxyHost:         getEnv("HTTP_PROXY_HOST", ""),
		ProxyPort:         getEnvAsInt("HTTP_PROXY_PORT", 0),

		FetchTimeout: time.Duration(getEnvAsInt("FETCH_TIMEOUT_SECONDS", 10)) * time.Second,

		AaveSubgraphURL:    getEnv("AAVE_V3_SUBGRAPH_URL", "https://api.thegraph.com/subgraphs/name/aave/protocol-v3"),
		UniswapSubgraphURL: getEnv("UNISWAP_V3_SUBGRAPH_URL", "https://api.thegraph.com/subgraphs/name/uniswap/uniswap-v3"),
		EthRPCURL:          getEnv("ETH_RPC_URL", ""),
		InfuraAPIKey:       getEnv("INFURA_API_KEY", ""),

		SendGridAPIKey:  getEnv("SENDGRID_API_KEY", ""),
		AlertFromEmail:  getEnv("ALERT_FROM_EMAIL", "alerts@example.com"),
		AprRetention:    time.Duration(getEnvAsInt("APR_RETENTION_HOURS", 168)) * time.Hour,
		AprSnapshotPath: getEnv("APR_SNAPSHOT_PATH", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("FETCH_TIMEOUT_SECONDS must be positive")
	}
	return nil
}

// RPCURL returns the Ethereum JSON-RPC endpoint, falling back to Infura when
// no explicit URL is configured.
func (c *Config) RPCURL() string {
	if c.EthRPCURL != "" {
		return c.EthRPCURL
	}
	if c.InfuraAPIKey != "" {
		return fmt.Sprintf("https://mainnet.infura.io/v3/%s", c.InfuraAPIKey)
	}
	return ""
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
