package models

import "fmt"

// FiatCurrency is an ISO 4217 code the calculator understands.
type FiatCurrency string

const (
	KRW FiatCurrency = "KRW"
	JPY FiatCurrency = "JPY"
	EUR FiatCurrency = "EUR"
	USD FiatCurrency = "USD"
)

// StableToken is a USD-pegged token used as the right-hand side of a pair.
type StableToken string

const (
	USDT  StableToken = "USDT"
	USDC  StableToken = "USDC"
	BUSD  StableToken = "BUSD"
	DAI   StableToken = "DAI"
	FDUSD StableToken = "FDUSD"
)

// BridgeCrypto is the cryptocurrency used as the pricing intermediate when no
// direct fiat/stable market exists.
type BridgeCrypto string

const (
	BTC BridgeCrypto = "BTC"
	ETH BridgeCrypto = "ETH"
)

// CurrencyPair describes one convertible pair from the fixed catalog. Quote
// is either "USD" (fiat-to-stable calculation, the concrete token comes from
// CalcConfig.StableToken) or a second fiat currency (fiat-to-fiat).
type CurrencyPair struct {
	Fiat  FiatCurrency `json:"fiat"`
	Quote FiatCurrency `json:"quote"`
	Label string       `json:"label"`
}

// IsFiatToFiat reports whether both sides of the pair are fiat currencies
// (e.g. KRW-JPY) rather than fiat against a stable token (KRW-USD).
func (pair CurrencyPair) IsFiatToFiat() bool {
	return pair.Quote != USD
}

// CurrencyPairs is the fixed pair catalog, in display order.
var CurrencyPairs = []CurrencyPair{
	{Fiat: KRW, Quote: USD, Label: "KRW-USD"},
	{Fiat: JPY, Quote: USD, Label: "JPY-USD"},
	{Fiat: EUR, Quote: USD, Label: "EUR-USD"},
	{Fiat: KRW, Quote: JPY, Label: "KRW-JPY"},
}

// PairByLabel resolves a catalog pair from its label.
func PairByLabel(label string) (CurrencyPair, bool) {
	for _, pair := range CurrencyPairs {
		if pair.Label == label {
			return pair, true
		}
	}
	return CurrencyPair{}, false
}

// CalcConfig fully determines the route catalog for one calculation cycle.
//
// EnabledRouteIDs is a set of route ids; an EMPTY set means "all routes
// enabled". The sentinel matches the persisted configuration shape external
// callers already produce, so "zero enabled routes" is intentionally not
// expressible.
type CalcConfig struct {
	Pair            CurrencyPair `json:"pair"`
	ExchangeAID     string       `json:"exchange_a_id"`
	ExchangeBID     string       `json:"exchange_b_id"`
	BridgeCrypto    BridgeCrypto `json:"bridge_crypto"`
	StableToken     StableToken  `json:"stable_token"`
	EnabledRouteIDs []string     `json:"enabled_route_ids"`
}

// PriceResult is a single quote fetched from one exchange.
type PriceResult struct {
	Price  float64 `json:"price"`
	Source string  `json:"source"`
}

// RouteKind distinguishes single-step native markets from two-leg bridge
// computations.
type RouteKind string

const (
	RouteKindDirect RouteKind = "direct"
	RouteKindCross  RouteKind = "cross"
)

// RouteStep is one exchange query within a route. Market is the
// exchange-specific symbol produced by the owning adapter and is opaque to
// everything else.
type RouteStep struct {
	AdapterID string `json:"adapter_id"`
	Market    string `json:"market"`
}

// Route is one computation path capable of producing the requested rate.
// Routes are value objects rebuilt fresh for every calculation cycle,
// compared and filtered by ID.
type Route struct {
	ID    string      `json:"id"`
	Label string      `json:"label"`
	Kind  RouteKind   `json:"kind"`
	Steps []RouteStep `json:"steps"`
}

// RouteStatus is the terminal status of one attempted route.
type RouteStatus string

const (
	RouteStatusSuccess RouteStatus = "success"
	RouteStatusError   RouteStatus = "error"
)

// RouteState records the outcome of one attempted route; the ordered slice of
// states forms the audit trail for a calculation cycle.
type RouteState struct {
	RouteID string      `json:"route_id"`
	Status  RouteStatus `json:"status"`
	Error   string      `json:"error,omitempty"`
}

// RouteExecutionResult is the terminal output of one route chain. Rate is
// expressed as "1 unit of the right-hand currency/token = Rate units of the
// left-hand currency". ActiveRouteID always appears in RouteStates with
// status success.
type RouteExecutionResult struct {
	Rate          float64      `json:"rate"`
	FiatPrice     float64      `json:"fiat_price"`
	StablePrice   float64      `json:"stable_price"`
	ActiveRouteID string       `json:"active_route_id"`
	RouteStates   []RouteState `json:"route_states"`
}

// ActiveField identifies which of the three linked input fields the user
// edited, which decides the direction of the amount derivation.
type ActiveField string

const (
	FieldStable ActiveField = "stable"
	FieldFiat   ActiveField = "fiat"
	FieldCrypto ActiveField = "crypto"
)

// CalcValues holds the three linked display amounts derived from one edit.
type CalcValues struct {
	StableAmount float64 `json:"stable_amount"`
	FiatAmount   float64 `json:"fiat_amount"`
	CryptoAmount float64 `json:"crypto_amount"`
}

// CalcResult is the calculator's output for one calculation cycle.
type CalcResult struct {
	Values           CalcValues   `json:"values"`
	Rate             float64      `json:"rate"`
	FiatPrice        float64      `json:"fiat_price"`
	StablePrice      float64      `json:"stable_price"`
	ActiveRouteID    string       `json:"active_route_id"`
	ActiveRouteLabel string       `json:"active_route_label"`
	RouteStates      []RouteState `json:"route_states"`
}

// AdapterError reports a failed price query against one exchange. The route
// executor recovers these locally via fallback; they never surface raw to the
// end user.
type AdapterError struct {
	AdapterID string
	Market    string
	Message   string
	Cause     error
}

func (adapterError *AdapterError) Error() string {
	if adapterError.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", adapterError.AdapterID, adapterError.Message, adapterError.Cause)
	}
	return fmt.Sprintf("%s: %s", adapterError.AdapterID, adapterError.Message)
}

func (adapterError *AdapterError) Unwrap() error {
	return adapterError.Cause
}

// RouteExhaustionError reports that every route in the working list failed.
// It carries the full audit trail so callers can still diagnose on total
// failure.
type RouteExhaustionError struct {
	RouteStates []RouteState
	LastErr     error
}

func (exhaustionError *RouteExhaustionError) Error() string {
	if exhaustionError.LastErr != nil {
		return fmt.Sprintf("all %d routes failed, last error: %v", len(exhaustionError.RouteStates), exhaustionError.LastErr)
	}
	return "all routes failed"
}

func (exhaustionError *RouteExhaustionError) Unwrap() error {
	return exhaustionError.LastErr
}

// ConfigurationError reports a reference to an adapter id that does not exist
// in the registry, e.g. a stale persisted preference.
type ConfigurationError struct {
	Message string
}

func (configurationError *ConfigurationError) Error() string {
	return configurationError.Message
}
