package exchange

import (
	"context"
	"fmt"
	"time"

	"crossrate-api/internal/fetch"
	"crossrate-api/internal/models"
)

// BinanceAdapter quotes stable-token markets from Binance. Binance exposes
// several equivalent API hosts; the adapter walks them in order so a regional
// outage of one host does not fail the leg.
type BinanceAdapter struct {
	adapterInfo
	fetcher *fetch.Client
}

type binanceTicker struct {
	Price string `json:"price"`
}

// Tighter per-endpoint budget than the default: with six hosts to try, a
// single slow host must not eat the whole cycle.
const (
	binanceEndpointRetries = 1
	binanceEndpointTimeout = 3 * time.Second
)

// NewBinanceAdapter creates the Binance adapter.
func NewBinanceAdapter(fetcher *fetch.Client) *BinanceAdapter {
	return &BinanceAdapter{
		adapterInfo: adapterInfo{
			id:      "binance",
			name:    "Binance",
			fiats:   nil,
			stables: []models.StableToken{models.USDT, models.USDC, models.BUSD, models.FDUSD},
			endpoints: []string{
				"https://api.binance.com",
				"https://api1.binance.com",
				"https://api2.binance.com",
				"https://api3.binance.com",
				"https://api4.binance.com",
				"https://data-api.binance.vision",
			},
		},
		fetcher: fetcher,
	}
}

// BuildMarketSymbol formats Binance's concatenated symbol, e.g. BTCUSDT.
func (adapter *BinanceAdapter) BuildMarketSymbol(base, quote string) string {
	return base + quote
}

// FetchPrice fetches the ticker price, trying each API host in order until
// one responds.
func (adapter *BinanceAdapter) FetchPrice(ctx context.Context, market string) (models.PriceResult, error) {
	var lastError error

	for _, endpoint := range adapter.endpoints {
		if ctx.Err() != nil {
			return models.PriceResult{}, ctx.Err()
		}

		url := fmt.Sprintf("%s/api/v3/ticker/price?symbol=%s", endpoint, market)

		var ticker binanceTicker
		if err := adapter.fetcher.GetJSONWithBudget(ctx, url, &ticker, binanceEndpointRetries, binanceEndpointTimeout); err != nil {
			lastError = err
			continue
		}

		price, err := adapter.parsePrice(market, ticker.Price)
		if err != nil {
			lastError = err
			continue
		}
		return models.PriceResult{Price: price, Source: adapter.id}, nil
	}

	return models.PriceResult{}, adapter.requestError(ctx, market, lastError)
}
