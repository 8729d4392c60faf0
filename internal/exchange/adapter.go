package exchange

import (
	"context"
	"strconv"

	"crossrate-api/internal/models"
)

// PriceAdapter is the capability contract one exchange integration fulfils.
// Adapters are read-only singletons: stateless aside from static metadata and
// safe to share across concurrent calculation cycles.
type PriceAdapter interface {
	ID() string
	Name() string
	SupportedFiatCurrencies() []models.FiatCurrency
	SupportedStableTokens() []models.StableToken
	Endpoints() []string

	// BuildMarketSymbol formats a generic (base, quote) asset pair into this
	// exchange's market identifier. Pure and deterministic; never fails.
	BuildMarketSymbol(base, quote string) string

	// FetchPrice issues one logical price query for the given market. Returns
	// *models.AdapterError on HTTP failure, malformed response or missing
	// market data, and the context's error when the cycle was cancelled.
	FetchPrice(ctx context.Context, market string) (models.PriceResult, error)
}

// adapterInfo carries the static metadata every adapter shares.
type adapterInfo struct {
	id        string
	name      string
	fiats     []models.FiatCurrency
	stables   []models.StableToken
	endpoints []string
}

func (info adapterInfo) ID() string   { return info.id }
func (info adapterInfo) Name() string { return info.name }

func (info adapterInfo) SupportedFiatCurrencies() []models.FiatCurrency {
	return info.fiats
}

func (info adapterInfo) SupportedStableTokens() []models.StableToken {
	return info.stables
}

func (info adapterInfo) Endpoints() []string {
	return info.endpoints
}

// dataError builds the AdapterError for a malformed or empty ticker payload.
func (info adapterInfo) dataError(market, message string) error {
	return &models.AdapterError{AdapterID: info.id, Market: market, Message: message}
}

// requestError classifies a fetch failure: cycle cancellation propagates as
// the context's own error so the executor can tell it apart from exchange
// trouble; everything else becomes an AdapterError.
func (info adapterInfo) requestError(ctx context.Context, market string, cause error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return &models.AdapterError{AdapterID: info.id, Market: market, Message: "ticker request failed", Cause: cause}
}

// parsePrice converts an exchange's string price field, rejecting
// non-positive values.
func (info adapterInfo) parsePrice(market, raw string) (float64, error) {
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil || price <= 0 {
		return 0, info.dataError(market, "invalid price "+strconv.Quote(raw))
	}
	return price, nil
}
