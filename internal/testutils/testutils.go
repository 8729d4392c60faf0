package testutils

import (
	"context"
	"sync/atomic"
	"time"

	"crossrate-api/internal/config"
	"crossrate-api/internal/exchange"
	"crossrate-api/internal/logger"
	"crossrate-api/internal/models"
)

// MockLogger creates a silent logger for testing
func MockLogger() *logger.Logger {
	return logger.Discard()
}

// MockConfig creates a mock configuration for testing
func MockConfig() *config.Config {
	return &config.Config{
		Port:     "8081",
		LogLevel: "debug",

		Fetch: config.FetchPolicy{
			MaxRetries:        2,
			PerAttemptTimeout: 5 * time.Second,
			RetryBackoff:      10 * time.Millisecond,
		},

		DefaultPairLabel:   "KRW-USD",
		DefaultExchangeA:   "upbit",
		DefaultExchangeB:   "binance",
		DefaultBridge:      models.BTC,
		DefaultStableToken: models.USDT,

		RateLimitEnabled:  true,
		RateLimitRequests: 100,
		RateLimitWindow:   60 * time.Second,
		RateLimitBurst:    10,
	}
}

// MockAdapter is a scriptable exchange.PriceAdapter for testing. Prices maps
// market symbols to prices; Err, when set, fails every fetch. FetchDelay,
// when set, waits before answering so cancellation paths can be exercised.
type MockAdapter struct {
	AdapterID  string
	Display    string
	Fiats      []models.FiatCurrency
	Stables    []models.StableToken
	Prices     map[string]float64
	Err        error
	FetchDelay time.Duration

	fetchCount int32
}

// Fetches reports how many price queries the adapter has served.
func (mock *MockAdapter) Fetches() int {
	return int(atomic.LoadInt32(&mock.fetchCount))
}

func (mock *MockAdapter) ID() string   { return mock.AdapterID }
func (mock *MockAdapter) Name() string { return mock.Display }

func (mock *MockAdapter) SupportedFiatCurrencies() []models.FiatCurrency { return mock.Fiats }
func (mock *MockAdapter) SupportedStableTokens() []models.StableToken    { return mock.Stables }
func (mock *MockAdapter) Endpoints() []string                            { return []string{"https://mock.test"} }

// BuildMarketSymbol joins base and quote with a slash, a shape no real
// adapter uses so tests can tell mock symbols apart.
func (mock *MockAdapter) BuildMarketSymbol(base, quote string) string {
	return base + "/" + quote
}

func (mock *MockAdapter) FetchPrice(ctx context.Context, market string) (models.PriceResult, error) {
	atomic.AddInt32(&mock.fetchCount, 1)

	if mock.FetchDelay > 0 {
		timer := time.NewTimer(mock.FetchDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return models.PriceResult{}, ctx.Err()
		case <-timer.C:
		}
	}
	if ctx.Err() != nil {
		return models.PriceResult{}, ctx.Err()
	}
	if mock.Err != nil {
		return models.PriceResult{}, mock.Err
	}

	price, ok := mock.Prices[market]
	if !ok {
		return models.PriceResult{}, &models.AdapterError{AdapterID: mock.AdapterID, Market: market, Message: "no data for market"}
	}
	return models.PriceResult{Price: price, Source: mock.AdapterID}, nil
}

// KRWStableRegistry builds a registry shaped like the real one for KRW-USD
// calculations: two KRW fiat adapters (both with a direct USDT market on the
// allowlist) and two stable-token adapters.
func KRWStableRegistry(prices map[string]map[string]float64) *exchange.Registry {
	lookup := func(id string) map[string]float64 {
		if prices == nil {
			return nil
		}
		return prices[id]
	}
	return exchange.NewRegistryWith(
		&MockAdapter{AdapterID: "upbit", Display: "Upbit", Fiats: []models.FiatCurrency{models.KRW}, Prices: lookup("upbit")},
		&MockAdapter{AdapterID: "bithumb", Display: "Bithumb", Fiats: []models.FiatCurrency{models.KRW}, Prices: lookup("bithumb")},
		&MockAdapter{AdapterID: "binance", Display: "Binance", Stables: []models.StableToken{models.USDT, models.USDC}, Prices: lookup("binance")},
		&MockAdapter{AdapterID: "okx", Display: "OKX", Stables: []models.StableToken{models.USDT}, Prices: lookup("okx")},
	)
}

// KRWStableConfig builds the matching default calculation configuration.
func KRWStableConfig() models.CalcConfig {
	pair, _ := models.PairByLabel("KRW-USD")
	return models.CalcConfig{
		Pair:         pair,
		ExchangeAID:  "upbit",
		ExchangeBID:  "binance",
		BridgeCrypto: models.BTC,
		StableToken:  models.USDT,
	}
}
