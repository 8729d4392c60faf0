package calc

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"crossrate-api/internal/exchange"
	"crossrate-api/internal/logger"
	"crossrate-api/internal/models"
	"crossrate-api/internal/routes"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Calculator runs one calculation cycle end to end: builds the route catalog
// for the configuration, races the route chain against nothing (it must
// succeed) while concurrently fetching the two-sided bridge prices used for
// the individual leg displays, then derives the three linked amounts from
// the edited field.
type Calculator struct {
	registry *exchange.Registry
	executor *routes.Executor
	logger   *logger.Logger

	flightGroup singleflight.Group

	supersedeMutex  sync.Mutex
	cancelInFlight  context.CancelFunc
	cycleGeneration uint64
}

// NewCalculator creates a new calculator.
func NewCalculator(registry *exchange.Registry, executor *routes.Executor, log *logger.Logger) *Calculator {
	return &Calculator{
		registry: registry,
		executor: executor,
		logger:   log,
	}
}

// bridgePrices holds the two-sided bridge quotes from the preferred
// exchanges.
type bridgePrices struct {
	priceA float64
	priceB float64
}

// Calculate runs one calculation cycle. The amount arrives as the raw
// (already debounced) decimal string the user typed and must be a positive
// number; field says which of the three linked inputs it came from.
// Identical concurrent requests share a single execution.
func (calculator *Calculator) Calculate(ctx context.Context, configuration models.CalcConfig, amount string, field models.ActiveField) (models.CalcResult, error) {
	parsedAmount, err := strconv.ParseFloat(amount, 64)
	if err != nil || parsedAmount <= 0 {
		return models.CalcResult{}, fmt.Errorf("invalid amount %q", amount)
	}

	flightKey := calculationKey(configuration, amount, field)
	for {
		result, err, _ := calculator.flightGroup.Do(flightKey, func() (interface{}, error) {
			return calculator.runCycle(ctx, configuration, parsedAmount, field)
		})
		if err != nil {
			// A flight runs under its first caller's context. When that
			// caller was cancelled the shared result is a context error even
			// though this caller is still live; drop the poisoned flight and
			// rerun under our own context.
			if ctx.Err() == nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
				calculator.flightGroup.Forget(flightKey)
				continue
			}
			return models.CalcResult{}, err
		}
		return result.(models.CalcResult), nil
	}
}

// CalculateLatest is the latest-wins entry point: starting a new cycle
// cancels the previous in-flight cycle owned by this calculator, so at most
// one cycle per calculator publishes externally visible results. Superseded
// cycles surface as context.Canceled, which callers drop silently.
func (calculator *Calculator) CalculateLatest(ctx context.Context, configuration models.CalcConfig, amount string, field models.ActiveField) (models.CalcResult, error) {
	cycleContext, cancel := context.WithCancel(ctx)

	calculator.supersedeMutex.Lock()
	if calculator.cancelInFlight != nil {
		calculator.cancelInFlight()
	}
	calculator.cancelInFlight = cancel
	calculator.cycleGeneration++
	generation := calculator.cycleGeneration
	calculator.supersedeMutex.Unlock()

	defer func() {
		calculator.supersedeMutex.Lock()
		// Only clear our own registration; a newer cycle may have
		// replaced it already.
		if calculator.cycleGeneration == generation {
			calculator.cancelInFlight = nil
		}
		calculator.supersedeMutex.Unlock()
		cancel()
	}()

	return calculator.Calculate(cycleContext, configuration, amount, field)
}

// runCycle joins the route chain and the two-sided bridge fetch; either one
// failing fails the whole cycle.
func (calculator *Calculator) runCycle(ctx context.Context, configuration models.CalcConfig, amount float64, field models.ActiveField) (models.CalcResult, error) {
	catalog := routes.Build(configuration, calculator.registry)

	var routeResult models.RouteExecutionResult
	var prices bridgePrices

	group, groupContext := errgroup.WithContext(ctx)
	group.Go(func() error {
		result, executionError := calculator.executor.Execute(groupContext, catalog, configuration.EnabledRouteIDs)
		routeResult = result
		return executionError
	})
	group.Go(func() error {
		result, fetchError := calculator.fetchBridgePrices(groupContext, configuration)
		prices = result
		return fetchError
	})
	if err := group.Wait(); err != nil {
		return models.CalcResult{}, err
	}

	return models.CalcResult{
		Values:           deriveValues(amount, field, routeResult.Rate, prices),
		Rate:             routeResult.Rate,
		FiatPrice:        prices.priceA,
		StablePrice:      prices.priceB,
		ActiveRouteID:    routeResult.ActiveRouteID,
		ActiveRouteLabel: routeLabel(catalog, routeResult.ActiveRouteID),
		RouteStates:      routeResult.RouteStates,
	}, nil
}

// fetchBridgePrices concurrently quotes the bridge asset against each side's
// currency on the two preferred exchanges. These prices feed the per-leg
// display fields, independent of which route produced the rate.
func (calculator *Calculator) fetchBridgePrices(ctx context.Context, configuration models.CalcConfig) (bridgePrices, error) {
	adapterA, okA := calculator.registry.ByID(configuration.ExchangeAID)
	if !okA {
		return bridgePrices{}, &models.ConfigurationError{Message: fmt.Sprintf("exchange not found: %s", configuration.ExchangeAID)}
	}
	adapterB, okB := calculator.registry.ByID(configuration.ExchangeBID)
	if !okB {
		return bridgePrices{}, &models.ConfigurationError{Message: fmt.Sprintf("exchange not found: %s", configuration.ExchangeBID)}
	}

	currencyA := string(configuration.Pair.Fiat)
	currencyB := string(configuration.StableToken)
	if configuration.Pair.IsFiatToFiat() {
		currencyB = string(configuration.Pair.Quote)
	}

	bridge := string(configuration.BridgeCrypto)
	marketA := adapterA.BuildMarketSymbol(bridge, currencyA)
	marketB := adapterB.BuildMarketSymbol(bridge, currencyB)

	var resultA, resultB models.PriceResult
	group, groupContext := errgroup.WithContext(ctx)
	group.Go(func() error {
		result, legError := adapterA.FetchPrice(groupContext, marketA)
		resultA = result
		return legError
	})
	group.Go(func() error {
		result, legError := adapterB.FetchPrice(groupContext, marketB)
		resultB = result
		return legError
	})
	if err := group.Wait(); err != nil {
		return bridgePrices{}, err
	}

	return bridgePrices{priceA: resultA.Price, priceB: resultB.Price}, nil
}

// deriveValues fills the two non-edited fields from the edited one using the
// cycle's rate and leg prices.
func deriveValues(amount float64, field models.ActiveField, rate float64, prices bridgePrices) models.CalcValues {
	switch field {
	case models.FieldStable:
		return models.CalcValues{
			StableAmount: amount,
			FiatAmount:   amount * rate,
			CryptoAmount: amount / prices.priceB,
		}
	case models.FieldCrypto:
		return models.CalcValues{
			StableAmount: amount * prices.priceB,
			FiatAmount:   amount * prices.priceA,
			CryptoAmount: amount,
		}
	default: // models.FieldFiat
		return models.CalcValues{
			StableAmount: amount / rate,
			FiatAmount:   amount,
			CryptoAmount: amount / prices.priceA,
		}
	}
}

// routeLabel resolves a route's human label from the catalog, falling back
// to the id for filtered-out routes.
func routeLabel(catalog []models.Route, routeID string) string {
	for _, route := range catalog {
		if route.ID == routeID {
			return route.Label
		}
	}
	return routeID
}

// calculationKey builds the singleflight key covering every input that can
// change the outcome of a cycle.
func calculationKey(configuration models.CalcConfig, amount string, field models.ActiveField) string {
	return strings.Join([]string{
		configuration.Pair.Label,
		configuration.ExchangeAID,
		configuration.ExchangeBID,
		string(configuration.BridgeCrypto),
		string(configuration.StableToken),
		strings.Join(configuration.EnabledRouteIDs, ","),
		amount,
		string(field),
	}, "|")
}
