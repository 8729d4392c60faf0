package exchange

import (
	"context"
	"fmt"

	"crossrate-api/internal/fetch"
	"crossrate-api/internal/models"
)

// OKXAdapter quotes stable-token markets from OKX.
type OKXAdapter struct {
	adapterInfo
	fetcher *fetch.Client
}

type okxTickerResponse struct {
	Data []struct {
		Last string `json:"last"`
	} `json:"data"`
}

// NewOKXAdapter creates the OKX adapter.
func NewOKXAdapter(fetcher *fetch.Client) *OKXAdapter {
	return &OKXAdapter{
		adapterInfo: adapterInfo{
			id:        "okx",
			name:      "OKX",
			fiats:     nil,
			stables:   []models.StableToken{models.USDT, models.USDC},
			endpoints: []string{"https://www.okx.com"},
		},
		fetcher: fetcher,
	}
}

// BuildMarketSymbol formats OKX's hyphenated instrument id, e.g. BTC-USDT.
func (adapter *OKXAdapter) BuildMarketSymbol(base, quote string) string {
	return fmt.Sprintf("%s-%s", base, quote)
}

// FetchPrice fetches the last traded price for the given instrument.
func (adapter *OKXAdapter) FetchPrice(ctx context.Context, market string) (models.PriceResult, error) {
	url := fmt.Sprintf("%s/api/v5/market/ticker?instId=%s", adapter.endpoints[0], market)

	var response okxTickerResponse
	if err := adapter.fetcher.GetJSON(ctx, url, &response); err != nil {
		return models.PriceResult{}, adapter.requestError(ctx, market, err)
	}
	if len(response.Data) == 0 || response.Data[0].Last == "" {
		return models.PriceResult{}, adapter.dataError(market, "no data for market")
	}

	price, err := adapter.parsePrice(market, response.Data[0].Last)
	if err != nil {
		return models.PriceResult{}, err
	}
	return models.PriceResult{Price: price, Source: adapter.id}, nil
}
