// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port      string
	Env       string // "development", "staging", "production"
	LogLevel  string
	LogFormat string // "json" or "text"

	// Record sources
	UseMockData        bool
	FacilitatorURL     string
	UpstreamTimeout    time.Duration
	UpstreamRetries    int
	MockSeed           int64
	MockTransactions   int
	MockAgentsMin      int
	MockAgentsMax      int
	ChainNetwork       string // "testnet" or "mainnet"
	ReplayInterval     time.Duration
	OTLPEndpoint       string
	CORSAllowedOrigins []string

	// Limits
	RateLimitRPM    int
	MaxRequestBytes int64
}

const (
	DefaultPort             = "3000"
	DefaultEnv              = "development"
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "json"
	DefaultFacilitatorURL   = "https://x402-api.monad.xyz"
	DefaultUpstreamTimeout  = 5 * time.Second
	DefaultMockSeed         = 402
	DefaultMockTransactions = 800
	DefaultMockAgentsMin    = 20
	DefaultMockAgentsMax    = 30
	DefaultChainNetwork     = "testnet"
	DefaultRateLimitRPM     = 600
	DefaultMaxRequestBytes  = 1 << 20
)

// Load reads configuration from environment variables
// It loads .env file if present (for local development)
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getEnv("PORT", DefaultPort),
		Env:                getEnv("ENV", DefaultEnv),
		LogLevel:           getEnv("LOG_LEVEL", DefaultLogLevel),
		LogFormat:          getEnv("LOG_FORMAT", DefaultLogFormat),
		UseMockData:        getEnvBool("USE_MOCK_DATA", true),
		FacilitatorURL:     strings.TrimRight(getEnv("X402_FACILITATOR_URL", DefaultFacilitatorURL), "/"),
		UpstreamTimeout:    getEnvDuration("UPSTREAM_TIMEOUT", DefaultUpstreamTimeout),
		UpstreamRetries:    int(getEnvInt64("UPSTREAM_RETRIES", 0)),
		MockSeed:           getEnvInt64("MOCK_SEED", DefaultMockSeed),
		MockTransactions:   int(getEnvInt64("MOCK_TRANSACTIONS", DefaultMockTransactions)),
		MockAgentsMin:      int(getEnvInt64("MOCK_AGENTS_MIN", DefaultMockAgentsMin)),
		MockAgentsMax:      int(getEnvInt64("MOCK_AGENTS_MAX", DefaultMockAgentsMax)),
		ChainNetwork:       getEnv("CHAIN_NETWORK", DefaultChainNetwork),
		ReplayInterval:     getEnvDuration("REPLAY_INTERVAL", 0),
		OTLPEndpoint:       os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		RateLimitRPM:       int(getEnvInt64("RATE_LIMIT_RPM", DefaultRateLimitRPM)),
		MaxRequestBytes:    getEnvInt64("MAX_REQUEST_BYTES", DefaultMaxRequestBytes),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is internally consistent
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if !c.UseMockData && c.FacilitatorURL == "" {
		return fmt.Errorf("X402_FACILITATOR_URL is required when USE_MOCK_DATA is false")
	}
	if c.UpstreamRetries < 0 || c.UpstreamRetries > 5 {
		return fmt.Errorf("UPSTREAM_RETRIES must be between 0 and 5")
	}
	if c.MockTransactions < 0 {
		return fmt.Errorf("MOCK_TRANSACTIONS must not be negative")
	}
	if c.MockAgentsMin < 1 || c.MockAgentsMax < c.MockAgentsMin {
		return fmt.Errorf("MOCK_AGENTS_MIN must be >= 1 and <= MOCK_AGENTS_MAX")
	}
	if c.ChainNetwork != "testnet" && c.ChainNetwork != "mainnet" {
		return fmt.Errorf("CHAIN_NETWORK must be testnet or mainnet, got %q", c.ChainNetwork)
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat)
	}
	if c.RateLimitRPM <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPM must be positive")
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// ClientConfig is what the CLI and MCP server need to reach the API
type ClientConfig struct {
	APIURL  string
	Timeout time.Duration
}

const (
	DefaultAPIURL        = "http://localhost:3000"
	DefaultClientTimeout = 30 * time.Second
)

// LoadClient reads CROGENTX_API_URL and CROGENTX_TIMEOUT, loading .env when present
func LoadClient() ClientConfig {
	_ = godotenv.Load()
	return ClientConfig{
		APIURL:  strings.TrimRight(getEnv("CROGENTX_API_URL", DefaultAPIURL), "/"),
		Timeout: getEnvDuration("CROGENTX_TIMEOUT", DefaultClientTimeout),
	}
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
