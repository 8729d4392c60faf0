package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"crossrate-api/internal/models"

	"github.com/joho/godotenv"
)

// FetchPolicy holds the retry/timeout budget for exchange price queries.
type FetchPolicy struct {
	MaxRetries        int
	PerAttemptTimeout time.Duration
	RetryBackoff      time.Duration
}

// Config holds all configuration for the application
type Config struct {
	Port     string
	LogLevel string

	// Outbound exchange fetch budget
	Fetch FetchPolicy

	// Calculator defaults, applied when a quote request omits a knob
	DefaultPairLabel   string
	DefaultExchangeA   string
	DefaultExchangeB   string
	DefaultBridge      models.BridgeCrypto
	DefaultStableToken models.StableToken
	EnabledRouteIDs    []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitBurst    int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:     getEnv("PORT", "8081"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		Fetch: FetchPolicy{
			MaxRetries:        mustAtoi(getEnv("FETCH_MAX_RETRIES", "2")),
			PerAttemptTimeout: time.Duration(mustAtoi(getEnv("FETCH_TIMEOUT_MS", "5000"))) * time.Millisecond,
			RetryBackoff:      time.Duration(mustAtoi(getEnv("FETCH_RETRY_BACKOFF_MS", "500"))) * time.Millisecond,
		},

		DefaultPairLabel:   getEnv("DEFAULT_PAIR", "KRW-USD"),
		DefaultExchangeA:   getEnv("DEFAULT_EXCHANGE_A", "upbit"),
		DefaultExchangeB:   getEnv("DEFAULT_EXCHANGE_B", "binance"),
		DefaultBridge:      models.BridgeCrypto(getEnv("DEFAULT_BRIDGE_CRYPTO", "BTC")),
		DefaultStableToken: models.StableToken(getEnv("DEFAULT_STABLE_TOKEN", "USDT")),
		EnabledRouteIDs:    splitCSV(getEnv("ENABLED_ROUTE_IDS", "")),

		RateLimitEnabled:  getEnv("RATE_LIMIT_ENABLED", "true") == "true",
		RateLimitRequests: mustAtoi(getEnv("RATE_LIMIT_REQUESTS", "100")),
		RateLimitWindow:   time.Duration(mustAtoi(getEnv("RATE_LIMIT_WINDOW_SECONDS", "60"))) * time.Second,
		RateLimitBurst:    mustAtoi(getEnv("RATE_LIMIT_BURST", "10")),
	}, nil
}

// DefaultCalcConfig builds the calculator configuration used when a request
// does not override individual knobs.
func (configuration *Config) DefaultCalcConfig() models.CalcConfig {
	pair, ok := models.PairByLabel(configuration.DefaultPairLabel)
	if !ok {
		pair = models.CurrencyPairs[0]
	}
	return models.CalcConfig{
		Pair:            pair,
		ExchangeAID:     configuration.DefaultExchangeA,
		ExchangeBID:     configuration.DefaultExchangeB,
		BridgeCrypto:    configuration.DefaultBridge,
		StableToken:     configuration.DefaultStableToken,
		EnabledRouteIDs: configuration.EnabledRouteIDs,
	}
}

// splitCSV splits a comma-separated list, dropping empty entries
func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func mustAtoi(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 60
	}
	return i
}
