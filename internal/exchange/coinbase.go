package exchange

import (
	"context"
	"fmt"

	"crossrate-api/internal/fetch"
	"crossrate-api/internal/models"
)

// CoinbaseAdapter quotes USD markets from Coinbase.
type CoinbaseAdapter struct {
	adapterInfo
	fetcher *fetch.Client
}

type coinbaseSpotResponse struct {
	Data struct {
		Amount string `json:"amount"`
	} `json:"data"`
}

// NewCoinbaseAdapter creates the Coinbase adapter.
func NewCoinbaseAdapter(fetcher *fetch.Client) *CoinbaseAdapter {
	return &CoinbaseAdapter{
		adapterInfo: adapterInfo{
			id:        "coinbase",
			name:      "Coinbase",
			fiats:     []models.FiatCurrency{models.USD},
			stables:   nil,
			endpoints: []string{"https://api.coinbase.com"},
		},
		fetcher: fetcher,
	}
}

// BuildMarketSymbol formats Coinbase's hyphenated pair, e.g. BTC-USD.
func (adapter *CoinbaseAdapter) BuildMarketSymbol(base, quote string) string {
	return fmt.Sprintf("%s-%s", base, quote)
}

// FetchPrice fetches the spot price for the given pair.
func (adapter *CoinbaseAdapter) FetchPrice(ctx context.Context, market string) (models.PriceResult, error) {
	url := fmt.Sprintf("%s/v2/prices/%s/spot", adapter.endpoints[0], market)

	var response coinbaseSpotResponse
	if err := adapter.fetcher.GetJSON(ctx, url, &response); err != nil {
		return models.PriceResult{}, adapter.requestError(ctx, market, err)
	}
	if response.Data.Amount == "" {
		return models.PriceResult{}, adapter.dataError(market, "no data for market")
	}

	price, err := adapter.parsePrice(market, response.Data.Amount)
	if err != nil {
		return models.PriceResult{}, err
	}
	return models.PriceResult{Price: price, Source: adapter.id}, nil
}
