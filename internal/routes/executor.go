package routes

import (
	"context"
	"errors"
	"fmt"

	"crossrate-api/internal/exchange"
	"crossrate-api/internal/logger"
	"crossrate-api/internal/models"

	"golang.org/x/sync/errgroup"
)

// Executor walks a ranked route list, attempting each route until one
// succeeds. Attempts are strictly sequential across routes so fallback does
// not burn API quota on exchanges that are likely never needed; the legs
// WITHIN a route fan out concurrently.
type Executor struct {
	registry *exchange.Registry
	logger   *logger.Logger
}

// NewExecutor creates a new route executor.
func NewExecutor(registry *exchange.Registry, log *logger.Logger) *Executor {
	return &Executor{registry: registry, logger: log}
}

// Execute attempts the working route list in rank order and returns the
// first successful result together with the audit trail of every attempted
// route.
//
// enabledRouteIDs filters the catalog when non-empty; an empty set means all
// routes are enabled. Adapter-level failures become error entries in the
// trail and drive fallback to the next route. Cancellation of ctx aborts the
// whole run with the context's error and records no state for the aborted
// route. When every route fails the returned error is a
// *models.RouteExhaustionError carrying the full trail.
func (executor *Executor) Execute(ctx context.Context, routeList []models.Route, enabledRouteIDs []string) (models.RouteExecutionResult, error) {
	workingRoutes := filterEnabled(routeList, enabledRouteIDs)

	routeStates := make([]models.RouteState, 0, len(workingRoutes))
	var lastError error

	for _, route := range workingRoutes {
		if ctx.Err() != nil {
			return models.RouteExecutionResult{}, ctx.Err()
		}

		rate, fiatPrice, stablePrice, attemptError := executor.attemptRoute(ctx, route)
		if attemptError == nil {
			routeStates = append(routeStates, models.RouteState{
				RouteID: route.ID,
				Status:  models.RouteStatusSuccess,
			})
			executor.logger.Infof("Route %s succeeded with rate %.8f", route.ID, rate)
			return models.RouteExecutionResult{
				Rate:          rate,
				FiatPrice:     fiatPrice,
				StablePrice:   stablePrice,
				ActiveRouteID: route.ID,
				RouteStates:   routeStates,
			}, nil
		}

		// A cancelled cycle is not a route failure; drop the run without
		// recording a state for the aborted route.
		if ctx.Err() != nil {
			return models.RouteExecutionResult{}, ctx.Err()
		}

		executor.logRouteFailure(route, attemptError)
		routeStates = append(routeStates, models.RouteState{
			RouteID: route.ID,
			Status:  models.RouteStatusError,
			Error:   attemptError.Error(),
		})
		lastError = attemptError
	}

	executor.logger.Errorf("All %d routes failed", len(routeStates))
	return models.RouteExecutionResult{}, &models.RouteExhaustionError{
		RouteStates: routeStates,
		LastErr:     lastError,
	}
}

// attemptRoute fetches all of one route's legs and computes its rate. For a
// direct route the fetched price IS the rate and the stable leg is 1. For a
// cross route rate = firstLegPrice / secondLegPrice; the division order is
// what cancels the bridge asset out, reversing it inverts every rate.
func (executor *Executor) attemptRoute(ctx context.Context, route models.Route) (rate, fiatPrice, stablePrice float64, err error) {
	switch route.Kind {
	case models.RouteKindDirect:
		adapter, ok := executor.registry.ByID(route.Steps[0].AdapterID)
		if !ok {
			return 0, 0, 0, &models.ConfigurationError{Message: fmt.Sprintf("adapter %s not found", route.Steps[0].AdapterID)}
		}
		result, fetchError := adapter.FetchPrice(ctx, route.Steps[0].Market)
		if fetchError != nil {
			return 0, 0, 0, fetchError
		}
		return result.Price, result.Price, 1, nil

	case models.RouteKindCross:
		fiatStep, stableStep := route.Steps[0], route.Steps[1]
		fiatAdapter, fiatOK := executor.registry.ByID(fiatStep.AdapterID)
		stableAdapter, stableOK := executor.registry.ByID(stableStep.AdapterID)
		if !fiatOK || !stableOK {
			missing := fiatStep.AdapterID
			if fiatOK {
				missing = stableStep.AdapterID
			}
			return 0, 0, 0, &models.ConfigurationError{Message: fmt.Sprintf("adapter %s not found", missing)}
		}

		// Both legs race concurrently; the first leg to fail cancels its
		// sibling's request.
		var fiatResult, stableResult models.PriceResult
		group, groupContext := errgroup.WithContext(ctx)
		group.Go(func() error {
			result, legError := fiatAdapter.FetchPrice(groupContext, fiatStep.Market)
			fiatResult = result
			return legError
		})
		group.Go(func() error {
			result, legError := stableAdapter.FetchPrice(groupContext, stableStep.Market)
			stableResult = result
			return legError
		})
		if legError := group.Wait(); legError != nil {
			return 0, 0, 0, legError
		}

		return fiatResult.Price / stableResult.Price, fiatResult.Price, stableResult.Price, nil

	default:
		return 0, 0, 0, &models.ConfigurationError{Message: fmt.Sprintf("unknown route kind: %s", route.Kind)}
	}
}

// logRouteFailure logs one failed attempt at a level matching its class.
func (executor *Executor) logRouteFailure(route models.Route, attemptError error) {
	var adapterError *models.AdapterError
	var configurationError *models.ConfigurationError
	switch {
	case errors.As(attemptError, &adapterError):
		executor.logger.Warnf("Route %s failed on adapter %s: %v", route.ID, adapterError.AdapterID, attemptError)
	case errors.As(attemptError, &configurationError):
		executor.logger.Warnf("Route %s misconfigured: %v", route.ID, attemptError)
	default:
		executor.logger.Warnf("Route %s failed: %v", route.ID, attemptError)
	}
}

// filterEnabled applies the enabled-route allowlist, preserving rank order.
// An empty allowlist is the documented sentinel for "all routes enabled".
func filterEnabled(routeList []models.Route, enabledRouteIDs []string) []models.Route {
	if len(enabledRouteIDs) == 0 {
		return routeList
	}

	enabled := make(map[string]struct{}, len(enabledRouteIDs))
	for _, routeID := range enabledRouteIDs {
		enabled[routeID] = struct{}{}
	}

	working := make([]models.Route, 0, len(routeList))
	for _, route := range routeList {
		if _, ok := enabled[route.ID]; ok {
			working = append(working, route)
		}
	}
	return working
}
