package exchange

import (
	"context"
	"fmt"

	"crossrate-api/internal/fetch"
	"crossrate-api/internal/models"
)

// UpbitAdapter quotes KRW markets from Upbit.
type UpbitAdapter struct {
	adapterInfo
	fetcher *fetch.Client
}

type upbitTicker struct {
	TradePrice float64 `json:"trade_price"`
}

// NewUpbitAdapter creates the Upbit adapter.
func NewUpbitAdapter(fetcher *fetch.Client) *UpbitAdapter {
	return &UpbitAdapter{
		adapterInfo: adapterInfo{
			id:        "upbit",
			name:      "Upbit",
			fiats:     []models.FiatCurrency{models.KRW},
			stables:   nil,
			endpoints: []string{"https://api.upbit.com"},
		},
		fetcher: fetcher,
	}
}

// BuildMarketSymbol formats Upbit's quote-first market code, e.g. KRW-BTC.
func (adapter *UpbitAdapter) BuildMarketSymbol(base, quote string) string {
	return fmt.Sprintf("%s-%s", quote, base)
}

// FetchPrice fetches the last trade price for the given market.
func (adapter *UpbitAdapter) FetchPrice(ctx context.Context, market string) (models.PriceResult, error) {
	url := fmt.Sprintf("%s/v1/ticker?markets=%s", adapter.endpoints[0], market)

	var tickers []upbitTicker
	if err := adapter.fetcher.GetJSON(ctx, url, &tickers); err != nil {
		return models.PriceResult{}, adapter.requestError(ctx, market, err)
	}
	if len(tickers) == 0 || tickers[0].TradePrice <= 0 {
		return models.PriceResult{}, adapter.dataError(market, "no data for market")
	}

	return models.PriceResult{Price: tickers[0].TradePrice, Source: adapter.id}, nil
}
