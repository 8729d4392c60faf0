package routes

import (
	"reflect"
	"testing"

	"crossrate-api/internal/exchange"
	"crossrate-api/internal/models"
	"crossrate-api/internal/testutils"
)

func routeIDs(catalog []models.Route) []string {
	ids := make([]string, len(catalog))
	for i, route := range catalog {
		ids[i] = route.ID
	}
	return ids
}

func TestBuild_FiatToStable_RankingAndTieBreak(t *testing.T) {
	registry := testutils.KRWStableRegistry(nil)
	configuration := testutils.KRWStableConfig()

	catalog := Build(configuration, registry)

	// Preferred direct first, other direct second, then cross routes by
	// preference with construction order breaking ties.
	expected := []string{
		"upbit-direct",
		"bithumb-direct",
		"upbit-binance-cross",
		"upbit-okx-cross",
		"bithumb-binance-cross",
		"bithumb-okx-cross",
	}
	if !reflect.DeepEqual(routeIDs(catalog), expected) {
		t.Errorf("Build() route ids = %v, want %v", routeIDs(catalog), expected)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	registry := testutils.KRWStableRegistry(nil)
	configuration := testutils.KRWStableConfig()

	first := routeIDs(Build(configuration, registry))
	second := routeIDs(Build(configuration, registry))

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Build() not deterministic: %v vs %v", first, second)
	}
}

func TestBuild_DirectRouteShape(t *testing.T) {
	registry := testutils.KRWStableRegistry(nil)
	configuration := testutils.KRWStableConfig()

	catalog := Build(configuration, registry)

	direct := catalog[0]
	if direct.Kind != models.RouteKindDirect {
		t.Fatalf("first route kind = %v, want direct", direct.Kind)
	}
	if len(direct.Steps) != 1 {
		t.Fatalf("direct route steps = %d, want 1", len(direct.Steps))
	}
	if direct.Steps[0].AdapterID != "upbit" {
		t.Errorf("direct route adapter = %v, want upbit", direct.Steps[0].AdapterID)
	}
	// Mock adapters join base/quote with a slash; direct markets quote the
	// stable token against the fiat currency.
	if direct.Steps[0].Market != "USDT/KRW" {
		t.Errorf("direct route market = %v, want USDT/KRW", direct.Steps[0].Market)
	}
}

func TestBuild_CrossRouteShape(t *testing.T) {
	registry := testutils.KRWStableRegistry(nil)
	configuration := testutils.KRWStableConfig()

	catalog := Build(configuration, registry)

	cross := catalog[2] // upbit-binance-cross
	if cross.Kind != models.RouteKindCross {
		t.Fatalf("route kind = %v, want cross", cross.Kind)
	}
	if len(cross.Steps) != 2 {
		t.Fatalf("cross route steps = %d, want 2", len(cross.Steps))
	}
	if cross.Steps[0].Market != "BTC/KRW" || cross.Steps[1].Market != "BTC/USDT" {
		t.Errorf("cross route markets = %v/%v, want BTC/KRW and BTC/USDT", cross.Steps[0].Market, cross.Steps[1].Market)
	}
}

func TestBuild_NoDirectRouteWithoutNativeMarket(t *testing.T) {
	// JPY has no allowlisted direct stable market, so a JPY-USD catalog must
	// be cross-only.
	registry := exchange.NewRegistryWith(
		&testutils.MockAdapter{AdapterID: "bitbank", Display: "bitbank", Fiats: []models.FiatCurrency{models.JPY}},
		&testutils.MockAdapter{AdapterID: "binance", Display: "Binance", Stables: []models.StableToken{models.USDT}},
	)
	pair, _ := models.PairByLabel("JPY-USD")
	configuration := models.CalcConfig{
		Pair:         pair,
		ExchangeAID:  "bitbank",
		ExchangeBID:  "binance",
		BridgeCrypto: models.BTC,
		StableToken:  models.USDT,
	}

	catalog := Build(configuration, registry)

	if len(catalog) != 1 {
		t.Fatalf("Build() route count = %d, want 1", len(catalog))
	}
	if catalog[0].Kind != models.RouteKindCross {
		t.Errorf("route kind = %v, want cross", catalog[0].Kind)
	}
}

func TestBuild_FiatToFiat_CrossOnly(t *testing.T) {
	registry := exchange.NewRegistryWith(
		&testutils.MockAdapter{AdapterID: "upbit", Display: "Upbit", Fiats: []models.FiatCurrency{models.KRW}},
		&testutils.MockAdapter{AdapterID: "bithumb", Display: "Bithumb", Fiats: []models.FiatCurrency{models.KRW}},
		&testutils.MockAdapter{AdapterID: "bitbank", Display: "bitbank", Fiats: []models.FiatCurrency{models.JPY}},
	)
	pair, _ := models.PairByLabel("KRW-JPY")
	configuration := models.CalcConfig{
		Pair:         pair,
		ExchangeAID:  "upbit",
		ExchangeBID:  "bitbank",
		BridgeCrypto: models.BTC,
		StableToken:  models.USDT,
	}

	catalog := Build(configuration, registry)

	expected := []string{"upbit-bitbank-cross", "bithumb-bitbank-cross"}
	if !reflect.DeepEqual(routeIDs(catalog), expected) {
		t.Errorf("Build() route ids = %v, want %v", routeIDs(catalog), expected)
	}
	for _, route := range catalog {
		if route.Kind != models.RouteKindCross {
			t.Errorf("route %s kind = %v, want cross", route.ID, route.Kind)
		}
	}
}

func TestRoutePriority(t *testing.T) {
	tests := []struct {
		name     string
		route    models.Route
		expected int
	}{
		{
			name: "preferred direct",
			route: models.Route{Kind: models.RouteKindDirect, Steps: []models.RouteStep{
				{AdapterID: "upbit"},
			}},
			expected: 0,
		},
		{
			name: "other direct",
			route: models.Route{Kind: models.RouteKindDirect, Steps: []models.RouteStep{
				{AdapterID: "bithumb"},
			}},
			expected: 1,
		},
		{
			name: "cross with both preferred",
			route: models.Route{Kind: models.RouteKindCross, Steps: []models.RouteStep{
				{AdapterID: "upbit"}, {AdapterID: "binance"},
			}},
			expected: 2,
		},
		{
			name: "cross with one preferred",
			route: models.Route{Kind: models.RouteKindCross, Steps: []models.RouteStep{
				{AdapterID: "upbit"}, {AdapterID: "okx"},
			}},
			expected: 3,
		},
		{
			name: "cross with neither preferred",
			route: models.Route{Kind: models.RouteKindCross, Steps: []models.RouteStep{
				{AdapterID: "bithumb"}, {AdapterID: "okx"},
			}},
			expected: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := routePriority(tt.route, "upbit", "binance"); got != tt.expected {
				t.Errorf("routePriority() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestFilterAvailable_DropsUnknownAdapters(t *testing.T) {
	registry := testutils.KRWStableRegistry(nil)

	catalog := []models.Route{
		{ID: "upbit-direct", Steps: []models.RouteStep{{AdapterID: "upbit"}}},
		{ID: "ghost-direct", Steps: []models.RouteStep{{AdapterID: "ghost"}}},
		{ID: "upbit-ghost-cross", Steps: []models.RouteStep{{AdapterID: "upbit"}, {AdapterID: "ghost"}}},
	}

	available := FilterAvailable(catalog, registry)

	expected := []string{"upbit-direct"}
	if !reflect.DeepEqual(routeIDs(available), expected) {
		t.Errorf("FilterAvailable() route ids = %v, want %v", routeIDs(available), expected)
	}
}
