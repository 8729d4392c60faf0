package exchange

import (
	"crossrate-api/internal/fetch"
	"crossrate-api/internal/models"
)

// Registry is the static collection of all market adapters, built once at
// process start. The set is closed: adding an exchange means adding an
// adapter type here, not runtime plugin loading.
type Registry struct {
	adapters []PriceAdapter
	byID     map[string]PriceAdapter
}

// NewRegistry creates the registry with every shipped adapter wired to the
// shared fetch client.
func NewRegistry(fetcher *fetch.Client) *Registry {
	adapters := []PriceAdapter{
		NewUpbitAdapter(fetcher),
		NewBithumbAdapter(fetcher),
		NewBinanceAdapter(fetcher),
		NewOKXAdapter(fetcher),
		NewBitbankAdapter(fetcher),
		NewKrakenAdapter(fetcher),
		NewCoinbaseAdapter(fetcher),
	}

	return NewRegistryWith(adapters...)
}

// NewRegistryWith creates a registry over an explicit adapter set, used by
// tests to substitute scripted adapters.
func NewRegistryWith(adapters ...PriceAdapter) *Registry {
	byID := make(map[string]PriceAdapter, len(adapters))
	for _, adapter := range adapters {
		byID[adapter.ID()] = adapter
	}

	return &Registry{adapters: adapters, byID: byID}
}

// ByID looks up an adapter by its id.
func (registry *Registry) ByID(id string) (PriceAdapter, bool) {
	adapter, ok := registry.byID[id]
	return adapter, ok
}

// ForFiat returns the adapters able to quote the bridge asset against the
// given fiat currency, in registration order.
func (registry *Registry) ForFiat(currency models.FiatCurrency) []PriceAdapter {
	var matches []PriceAdapter
	for _, adapter := range registry.adapters {
		for _, supported := range adapter.SupportedFiatCurrencies() {
			if supported == currency {
				matches = append(matches, adapter)
				break
			}
		}
	}
	return matches
}

// ForStable returns the adapters able to quote the bridge asset against the
// given stable token, in registration order.
func (registry *Registry) ForStable(token models.StableToken) []PriceAdapter {
	var matches []PriceAdapter
	for _, adapter := range registry.adapters {
		for _, supported := range adapter.SupportedStableTokens() {
			if supported == token {
				matches = append(matches, adapter)
				break
			}
		}
	}
	return matches
}

// All returns every registered adapter in registration order.
func (registry *Registry) All() []PriceAdapter {
	return registry.adapters
}
