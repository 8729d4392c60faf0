package routes

import (
	"fmt"
	"sort"

	"crossrate-api/internal/exchange"
	"crossrate-api/internal/models"
)

// directStableMarkets lists the exchange/fiat/stable combinations with a
// native market. Not every exchange that supports a fiat currency also lists
// it against a stable token (Upbit has KRW-USDT; bitbank has no JPY-USDT), so
// direct routes only exist for entries on this allowlist.
var directStableMarkets = map[string]map[models.FiatCurrency][]models.StableToken{
	"upbit":   {models.KRW: {models.USDT}},
	"bithumb": {models.KRW: {models.USDT}},
}

// hasDirectMarket reports whether an exchange natively lists the fiat/stable
// pair.
func hasDirectMarket(adapterID string, fiat models.FiatCurrency, stable models.StableToken) bool {
	for _, token := range directStableMarkets[adapterID][fiat] {
		if token == stable {
			return true
		}
	}
	return false
}

// Build produces the ranked catalog of candidate routes for one calculation
// cycle. It performs no I/O; the registry only supplies adapter metadata and
// symbol-building rules. Routes referencing an adapter absent from the
// registry are dropped after ranking.
func Build(configuration models.CalcConfig, registry *exchange.Registry) []models.Route {
	var catalog []models.Route
	if configuration.Pair.IsFiatToFiat() {
		catalog = buildFiatToFiatRoutes(configuration, registry)
	} else {
		catalog = buildFiatToStableRoutes(configuration, registry)
	}

	rankRoutes(catalog, configuration.ExchangeAID, configuration.ExchangeBID)

	return FilterAvailable(catalog, registry)
}

// buildFiatToStableRoutes emits direct routes for allowlisted native markets
// first, then the full Cartesian product of cross routes (fiat adapters ×
// stable adapters, an exchange may pair with itself).
func buildFiatToStableRoutes(configuration models.CalcConfig, registry *exchange.Registry) []models.Route {
	fiatCurrency := configuration.Pair.Fiat
	bridge := string(configuration.BridgeCrypto)
	stable := configuration.StableToken

	fiatAdapters := registry.ForFiat(fiatCurrency)
	stableAdapters := registry.ForStable(stable)

	var catalog []models.Route

	for _, fiatAdapter := range fiatAdapters {
		if !hasDirectMarket(fiatAdapter.ID(), fiatCurrency, stable) {
			continue
		}
		market := fiatAdapter.BuildMarketSymbol(string(stable), string(fiatCurrency))
		catalog = append(catalog, models.Route{
			ID:    fmt.Sprintf("%s-direct", fiatAdapter.ID()),
			Label: fmt.Sprintf("%s Direct (%s/%s)", fiatAdapter.Name(), stable, fiatCurrency),
			Kind:  models.RouteKindDirect,
			Steps: []models.RouteStep{{AdapterID: fiatAdapter.ID(), Market: market}},
		})
	}

	for _, fiatAdapter := range fiatAdapters {
		fiatMarket := fiatAdapter.BuildMarketSymbol(bridge, string(fiatCurrency))

		for _, stableAdapter := range stableAdapters {
			stableMarket := stableAdapter.BuildMarketSymbol(bridge, string(stable))
			catalog = append(catalog, models.Route{
				ID:    fmt.Sprintf("%s-%s-cross", fiatAdapter.ID(), stableAdapter.ID()),
				Label: fmt.Sprintf("%s + %s (%s/%s x %s/%s)", fiatAdapter.Name(), stableAdapter.Name(), bridge, fiatCurrency, bridge, stable),
				Kind:  models.RouteKindCross,
				Steps: []models.RouteStep{
					{AdapterID: fiatAdapter.ID(), Market: fiatMarket},
					{AdapterID: stableAdapter.ID(), Market: stableMarket},
				},
			})
		}
	}

	return catalog
}

// buildFiatToFiatRoutes emits only cross routes; no exchange lists one fiat
// currency directly against another.
func buildFiatToFiatRoutes(configuration models.CalcConfig, registry *exchange.Registry) []models.Route {
	fiatA := configuration.Pair.Fiat
	fiatB := configuration.Pair.Quote
	bridge := string(configuration.BridgeCrypto)

	adaptersA := registry.ForFiat(fiatA)
	adaptersB := registry.ForFiat(fiatB)

	var catalog []models.Route

	for _, adapterA := range adaptersA {
		marketA := adapterA.BuildMarketSymbol(bridge, string(fiatA))

		for _, adapterB := range adaptersB {
			marketB := adapterB.BuildMarketSymbol(bridge, string(fiatB))
			catalog = append(catalog, models.Route{
				ID:    fmt.Sprintf("%s-%s-cross", adapterA.ID(), adapterB.ID()),
				Label: fmt.Sprintf("%s + %s (%s/%s x %s/%s)", adapterA.Name(), adapterB.Name(), bridge, fiatA, bridge, fiatB),
				Kind:  models.RouteKindCross,
				Steps: []models.RouteStep{
					{AdapterID: adapterA.ID(), Market: marketA},
					{AdapterID: adapterB.ID(), Market: marketB},
				},
			})
		}
	}

	return catalog
}

// rankRoutes orders the catalog by preference score, lowest first. The sort
// is stable so tied routes keep construction order (direct before cross,
// then Cartesian iteration order).
func rankRoutes(catalog []models.Route, exchangeAID, exchangeBID string) {
	sort.SliceStable(catalog, func(i, j int) bool {
		return routePriority(catalog[i], exchangeAID, exchangeBID) < routePriority(catalog[j], exchangeAID, exchangeBID)
	})
}

// routePriority scores a route against the user's preferred exchanges:
// preferred direct 0, other direct 1, cross with both preferred 2, cross
// with either 3, cross with neither 4.
func routePriority(route models.Route, exchangeAID, exchangeBID string) int {
	if route.Kind == models.RouteKindDirect {
		if route.Steps[0].AdapterID == exchangeAID {
			return 0
		}
		return 1
	}

	hasPrimary := false
	hasSecondary := false
	for _, step := range route.Steps {
		if step.AdapterID == exchangeAID {
			hasPrimary = true
		}
		if step.AdapterID == exchangeBID {
			hasSecondary = true
		}
	}
	switch {
	case hasPrimary && hasSecondary:
		return 2
	case hasPrimary || hasSecondary:
		return 3
	default:
		return 4
	}
}

// FilterAvailable drops routes whose steps reference an adapter missing from
// the registry, e.g. a stale persisted preference after an adapter was
// removed. Order is preserved.
func FilterAvailable(catalog []models.Route, registry *exchange.Registry) []models.Route {
	available := make([]models.Route, 0, len(catalog))
	for _, route := range catalog {
		allKnown := true
		for _, step := range route.Steps {
			if _, ok := registry.ByID(step.AdapterID); !ok {
				allKnown = false
				break
			}
		}
		if allKnown {
			available = append(available, route)
		}
	}
	return available
}
