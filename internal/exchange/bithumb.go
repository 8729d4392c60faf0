package exchange

import (
	"context"
	"fmt"

	"crossrate-api/internal/fetch"
	"crossrate-api/internal/models"
)

// BithumbAdapter quotes KRW markets from Bithumb.
type BithumbAdapter struct {
	adapterInfo
	fetcher *fetch.Client
}

type bithumbTicker struct {
	TradePrice float64 `json:"trade_price"`
}

// NewBithumbAdapter creates the Bithumb adapter.
func NewBithumbAdapter(fetcher *fetch.Client) *BithumbAdapter {
	return &BithumbAdapter{
		adapterInfo: adapterInfo{
			id:        "bithumb",
			name:      "Bithumb",
			fiats:     []models.FiatCurrency{models.KRW},
			stables:   nil,
			endpoints: []string{"https://api.bithumb.com"},
		},
		fetcher: fetcher,
	}
}

// BuildMarketSymbol formats Bithumb's quote-first market code, e.g. KRW-BTC.
func (adapter *BithumbAdapter) BuildMarketSymbol(base, quote string) string {
	return fmt.Sprintf("%s-%s", quote, base)
}

// FetchPrice fetches the last trade price for the given market.
func (adapter *BithumbAdapter) FetchPrice(ctx context.Context, market string) (models.PriceResult, error) {
	url := fmt.Sprintf("%s/v1/ticker?markets=%s", adapter.endpoints[0], market)

	var tickers []bithumbTicker
	if err := adapter.fetcher.GetJSON(ctx, url, &tickers); err != nil {
		return models.PriceResult{}, adapter.requestError(ctx, market, err)
	}
	if len(tickers) == 0 || tickers[0].TradePrice <= 0 {
		return models.PriceResult{}, adapter.dataError(market, "no data for market")
	}

	return models.PriceResult{Price: tickers[0].TradePrice, Source: adapter.id}, nil
}
