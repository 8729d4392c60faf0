package exchange

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"crossrate-api/internal/config"
	"crossrate-api/internal/fetch"
	"crossrate-api/internal/logger"
	"crossrate-api/internal/models"
)

func testFetcher() *fetch.Client {
	return fetch.NewClient(config.FetchPolicy{
		MaxRetries:        0,
		PerAttemptTimeout: 2 * time.Second,
		RetryBackoff:      10 * time.Millisecond,
	}, logger.Discard())
}

func jsonServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		responseWriter.Header().Set("Content-Type", "application/json")
		responseWriter.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestBuildMarketSymbol(t *testing.T) {
	fetcher := testFetcher()
	tests := []struct {
		name     string
		adapter  PriceAdapter
		base     string
		quote    string
		expected string
	}{
		{"upbit quote-first", NewUpbitAdapter(fetcher), "BTC", "KRW", "KRW-BTC"},
		{"upbit stable direct", NewUpbitAdapter(fetcher), "USDT", "KRW", "KRW-USDT"},
		{"bithumb quote-first", NewBithumbAdapter(fetcher), "BTC", "KRW", "KRW-BTC"},
		{"binance concatenated", NewBinanceAdapter(fetcher), "BTC", "USDT", "BTCUSDT"},
		{"okx hyphenated", NewOKXAdapter(fetcher), "BTC", "USDT", "BTC-USDT"},
		{"bitbank lowercase underscore", NewBitbankAdapter(fetcher), "BTC", "JPY", "btc_jpy"},
		{"kraken XBT remap", NewKrakenAdapter(fetcher), "BTC", "EUR", "XBTEUR"},
		{"kraken non-BTC passthrough", NewKrakenAdapter(fetcher), "ETH", "USD", "ETHUSD"},
		{"coinbase hyphenated", NewCoinbaseAdapter(fetcher), "BTC", "USD", "BTC-USD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.adapter.BuildMarketSymbol(tt.base, tt.quote); got != tt.expected {
				t.Errorf("BuildMarketSymbol(%s, %s) = %v, want %v", tt.base, tt.quote, got, tt.expected)
			}
		})
	}
}

func TestUpbitAdapter_FetchPrice(t *testing.T) {
	server := jsonServer(t, `[{"trade_price": 9800000}]`)
	adapter := NewUpbitAdapter(testFetcher())
	adapter.endpoints = []string{server.URL}

	result, err := adapter.FetchPrice(context.Background(), "KRW-BTC")
	if err != nil {
		t.Fatalf("FetchPrice() error = %v", err)
	}
	if result.Price != 9800000 {
		t.Errorf("Price = %v, want 9800000", result.Price)
	}
	if result.Source != "upbit" {
		t.Errorf("Source = %v, want upbit", result.Source)
	}
}

func TestUpbitAdapter_FetchPrice_NoData(t *testing.T) {
	server := jsonServer(t, `[]`)
	adapter := NewUpbitAdapter(testFetcher())
	adapter.endpoints = []string{server.URL}

	_, err := adapter.FetchPrice(context.Background(), "KRW-XYZ")

	var adapterError *models.AdapterError
	if !errors.As(err, &adapterError) {
		t.Fatalf("FetchPrice() error = %T, want *models.AdapterError", err)
	}
	if adapterError.AdapterID != "upbit" {
		t.Errorf("AdapterID = %v, want upbit", adapterError.AdapterID)
	}
}

func TestBinanceAdapter_FetchPrice_EndpointFailover(t *testing.T) {
	badServer := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		responseWriter.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer badServer.Close()
	goodServer := jsonServer(t, `{"price": "7200.10"}`)

	adapter := NewBinanceAdapter(testFetcher())
	adapter.endpoints = []string{badServer.URL, goodServer.URL}

	result, err := adapter.FetchPrice(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("FetchPrice() error = %v", err)
	}
	if result.Price != 7200.10 {
		t.Errorf("Price = %v, want 7200.10", result.Price)
	}
}

func TestBinanceAdapter_FetchPrice_AllEndpointsFail(t *testing.T) {
	badServer := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		responseWriter.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer badServer.Close()

	adapter := NewBinanceAdapter(testFetcher())
	adapter.endpoints = []string{badServer.URL, badServer.URL}

	_, err := adapter.FetchPrice(context.Background(), "BTCUSDT")

	var adapterError *models.AdapterError
	if !errors.As(err, &adapterError) {
		t.Fatalf("FetchPrice() error = %T, want *models.AdapterError", err)
	}
}

func TestBinanceAdapter_FetchPrice_Cancelled(t *testing.T) {
	server := jsonServer(t, `{"price": "7200"}`)
	adapter := NewBinanceAdapter(testFetcher())
	adapter.endpoints = []string{server.URL}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := adapter.FetchPrice(ctx, "BTCUSDT")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("FetchPrice() error = %v, want context.Canceled", err)
	}
	var adapterError *models.AdapterError
	if errors.As(err, &adapterError) {
		t.Error("cancellation must not be classified as an adapter error")
	}
}

func TestOKXAdapter_FetchPrice(t *testing.T) {
	server := jsonServer(t, `{"code":"0","data":[{"last":"7200.5"}]}`)
	adapter := NewOKXAdapter(testFetcher())
	adapter.endpoints = []string{server.URL}

	result, err := adapter.FetchPrice(context.Background(), "BTC-USDT")
	if err != nil {
		t.Fatalf("FetchPrice() error = %v", err)
	}
	if result.Price != 7200.5 {
		t.Errorf("Price = %v, want 7200.5", result.Price)
	}
}

func TestOKXAdapter_FetchPrice_EmptyData(t *testing.T) {
	server := jsonServer(t, `{"code":"51001","data":[]}`)
	adapter := NewOKXAdapter(testFetcher())
	adapter.endpoints = []string{server.URL}

	_, err := adapter.FetchPrice(context.Background(), "BTC-XYZ")
	var adapterError *models.AdapterError
	if !errors.As(err, &adapterError) {
		t.Fatalf("FetchPrice() error = %T, want *models.AdapterError", err)
	}
}

func TestBitbankAdapter_FetchPrice(t *testing.T) {
	server := jsonServer(t, `{"success":1,"data":{"last":"15300000"}}`)
	adapter := NewBitbankAdapter(testFetcher())
	adapter.endpoints = []string{server.URL}

	result, err := adapter.FetchPrice(context.Background(), "btc_jpy")
	if err != nil {
		t.Fatalf("FetchPrice() error = %v", err)
	}
	if result.Price != 15300000 {
		t.Errorf("Price = %v, want 15300000", result.Price)
	}
}

func TestKrakenAdapter_FetchPrice(t *testing.T) {
	server := jsonServer(t, `{"error":[],"result":{"XXBTZEUR":{"c":["91000.4","0.1"]}}}`)
	adapter := NewKrakenAdapter(testFetcher())
	adapter.endpoints = []string{server.URL}

	result, err := adapter.FetchPrice(context.Background(), "XBTEUR")
	if err != nil {
		t.Fatalf("FetchPrice() error = %v", err)
	}
	if result.Price != 91000.4 {
		t.Errorf("Price = %v, want 91000.4", result.Price)
	}
}

func TestKrakenAdapter_FetchPrice_APIError(t *testing.T) {
	server := jsonServer(t, `{"error":["EQuery:Unknown asset pair"],"result":{}}`)
	adapter := NewKrakenAdapter(testFetcher())
	adapter.endpoints = []string{server.URL}

	_, err := adapter.FetchPrice(context.Background(), "XBTXYZ")
	var adapterError *models.AdapterError
	if !errors.As(err, &adapterError) {
		t.Fatalf("FetchPrice() error = %T, want *models.AdapterError", err)
	}
}

func TestCoinbaseAdapter_FetchPrice(t *testing.T) {
	server := jsonServer(t, `{"data":{"amount":"97000.25","currency":"USD"}}`)
	adapter := NewCoinbaseAdapter(testFetcher())
	adapter.endpoints = []string{server.URL}

	result, err := adapter.FetchPrice(context.Background(), "BTC-USD")
	if err != nil {
		t.Fatalf("FetchPrice() error = %v", err)
	}
	if result.Price != 97000.25 {
		t.Errorf("Price = %v, want 97000.25", result.Price)
	}
}

func TestAdapter_FetchPrice_InvalidPrice(t *testing.T) {
	server := jsonServer(t, `{"data":{"amount":"-5"}}`)
	adapter := NewCoinbaseAdapter(testFetcher())
	adapter.endpoints = []string{server.URL}

	_, err := adapter.FetchPrice(context.Background(), "BTC-USD")
	var adapterError *models.AdapterError
	if !errors.As(err, &adapterError) {
		t.Fatalf("FetchPrice() error = %T, want *models.AdapterError", err)
	}
}
