package exchange

import (
	"context"
	"fmt"

	"crossrate-api/internal/fetch"
	"crossrate-api/internal/models"
)

// KrakenAdapter quotes EUR and USD markets from Kraken.
type KrakenAdapter struct {
	adapterInfo
	fetcher *fetch.Client
}

type krakenTickerResponse struct {
	Error  []string `json:"error"`
	Result map[string]struct {
		Close []string `json:"c"`
	} `json:"result"`
}

// NewKrakenAdapter creates the Kraken adapter.
func NewKrakenAdapter(fetcher *fetch.Client) *KrakenAdapter {
	return &KrakenAdapter{
		adapterInfo: adapterInfo{
			id:        "kraken",
			name:      "Kraken",
			fiats:     []models.FiatCurrency{models.EUR, models.USD},
			stables:   nil,
			endpoints: []string{"https://api.kraken.com"},
		},
		fetcher: fetcher,
	}
}

// BuildMarketSymbol formats Kraken's concatenated pair. Kraken lists bitcoin
// under its legacy XBT ticker, e.g. XBTEUR.
func (adapter *KrakenAdapter) BuildMarketSymbol(base, quote string) string {
	if base == string(models.BTC) {
		base = "XBT"
	}
	return base + quote
}

// FetchPrice fetches the last trade close price for the given pair. Kraken
// keys the result by its own normalized pair name, so the first entry is
// taken rather than an exact key match.
func (adapter *KrakenAdapter) FetchPrice(ctx context.Context, market string) (models.PriceResult, error) {
	url := fmt.Sprintf("%s/0/public/Ticker?pair=%s", adapter.endpoints[0], market)

	var response krakenTickerResponse
	if err := adapter.fetcher.GetJSON(ctx, url, &response); err != nil {
		return models.PriceResult{}, adapter.requestError(ctx, market, err)
	}
	if len(response.Error) > 0 {
		return models.PriceResult{}, adapter.dataError(market, response.Error[0])
	}

	for _, ticker := range response.Result {
		if len(ticker.Close) == 0 {
			break
		}
		price, err := adapter.parsePrice(market, ticker.Close[0])
		if err != nil {
			return models.PriceResult{}, err
		}
		return models.PriceResult{Price: price, Source: adapter.id}, nil
	}

	return models.PriceResult{}, adapter.dataError(market, "no data for market")
}
