package exchange

import (
	"context"
	"fmt"
	"strings"

	"crossrate-api/internal/fetch"
	"crossrate-api/internal/models"
)

// BitbankAdapter quotes JPY markets from bitbank.
type BitbankAdapter struct {
	adapterInfo
	fetcher *fetch.Client
}

type bitbankTickerResponse struct {
	Success int `json:"success"`
	Data    struct {
		Last string `json:"last"`
	} `json:"data"`
}

// NewBitbankAdapter creates the bitbank adapter.
func NewBitbankAdapter(fetcher *fetch.Client) *BitbankAdapter {
	return &BitbankAdapter{
		adapterInfo: adapterInfo{
			id:        "bitbank",
			name:      "bitbank",
			fiats:     []models.FiatCurrency{models.JPY},
			stables:   nil,
			endpoints: []string{"https://public.bitbank.cc"},
		},
		fetcher: fetcher,
	}
}

// BuildMarketSymbol formats bitbank's lowercase underscore pair, e.g. btc_jpy.
func (adapter *BitbankAdapter) BuildMarketSymbol(base, quote string) string {
	return strings.ToLower(base) + "_" + strings.ToLower(quote)
}

// FetchPrice fetches the last trade price for the given pair.
func (adapter *BitbankAdapter) FetchPrice(ctx context.Context, market string) (models.PriceResult, error) {
	url := fmt.Sprintf("%s/%s/ticker", adapter.endpoints[0], market)

	var response bitbankTickerResponse
	if err := adapter.fetcher.GetJSON(ctx, url, &response); err != nil {
		return models.PriceResult{}, adapter.requestError(ctx, market, err)
	}
	if response.Data.Last == "" {
		return models.PriceResult{}, adapter.dataError(market, "no data for market")
	}

	price, err := adapter.parsePrice(market, response.Data.Last)
	if err != nil {
		return models.PriceResult{}, err
	}
	return models.PriceResult{Price: price, Source: adapter.id}, nil
}
