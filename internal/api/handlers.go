package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"crossrate-api/internal/calc"
	"crossrate-api/internal/config"
	"crossrate-api/internal/exchange"
	"crossrate-api/internal/logger"
	"crossrate-api/internal/middleware"
	"crossrate-api/internal/models"
	"crossrate-api/internal/ratelimit"
	"crossrate-api/internal/routes"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	configuration *config.Config
	logger        *logger.Logger
	registry      *exchange.Registry
	calculator    *calc.Calculator
	rateLimiter   *ratelimit.Limiter
	startTime     time.Time
}

// NewHandlers creates a new handlers instance
func NewHandlers(configuration *config.Config, log *logger.Logger, registry *exchange.Registry, calculator *calc.Calculator) *Handlers {
	return &Handlers{
		configuration: configuration,
		logger:        log,
		registry:      registry,
		calculator:    calculator,
		startTime:     time.Now(),
	}
}

// WithRateLimit attaches the rate limiter after initialization
func (handlers *Handlers) WithRateLimit(rateLimiter *ratelimit.Limiter) *Handlers {
	handlers.rateLimiter = rateLimiter
	return handlers
}

// SetupRoutes configures all the routes using Gin
func (handlers *Handlers) SetupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(middleware.RequestLogger(handlers.logger))
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RequestID())
	router.Use(handlers.corsMiddleware())

	if handlers.rateLimiter != nil {
		router.Use(handlers.rateLimitMiddleware())
	}

	// Health check endpoint
	router.GET("/health", handlers.HealthCheck)

	// API v1 routes
	apiV1 := router.Group("/api/v1")
	{
		apiV1.GET("/quote", handlers.GetQuote)
		apiV1.GET("/routes", handlers.GetRouteCatalog)
		apiV1.GET("/exchanges", handlers.GetExchanges)
		apiV1.GET("/pairs", handlers.GetPairs)
	}

	return router
}

// HealthCheck handles health check requests
func (handlers *Handlers) HealthCheck(context *gin.Context) {
	context.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now(),
		"uptime":    time.Since(handlers.startTime).String(),
		"adapters":  len(handlers.registry.All()),
	})
}

// GetQuote runs one calculation cycle and returns the rate, the derived
// amounts and the route audit trail
func (handlers *Handlers) GetQuote(context *gin.Context) {
	calcConfiguration, configError := handlers.calcConfigFromQuery(context)
	if configError != nil {
		handlers.writeErrorResponse(context, http.StatusBadRequest, "invalid configuration", configError.Error())
		return
	}

	amount := context.Query("amount")
	if amount == "" {
		handlers.writeErrorResponse(context, http.StatusBadRequest, "invalid amount", "amount is required")
		return
	}

	field := models.ActiveField(context.DefaultQuery("field", string(models.FieldFiat)))
	switch field {
	case models.FieldStable, models.FieldFiat, models.FieldCrypto:
	default:
		handlers.writeErrorResponse(context, http.StatusBadRequest, "invalid field", "field must be one of stable, fiat, crypto")
		return
	}

	requestContext := context.Request.Context()
	result, calcError := handlers.calculator.Calculate(requestContext, calcConfiguration, amount, field)
	if calcError != nil {
		// Superseded or disconnected clients are dropped silently, not
		// reported as calculation failures.
		if requestContext.Err() != nil {
			handlers.logger.Debugf("Quote request cancelled: %v", calcError)
			context.Abort()
			return
		}

		var exhaustionError *models.RouteExhaustionError
		if errors.As(calcError, &exhaustionError) {
			context.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":        "all routes failed",
				"message":      exhaustionError.Error(),
				"route_states": exhaustionError.RouteStates,
			})
			return
		}

		var configurationError *models.ConfigurationError
		if errors.As(calcError, &configurationError) {
			handlers.writeErrorResponse(context, http.StatusBadRequest, "invalid configuration", calcError.Error())
			return
		}

		handlers.writeErrorResponse(context, http.StatusBadRequest, "calculation failed", calcError.Error())
		return
	}

	context.JSON(http.StatusOK, result)
}

// GetRouteCatalog returns the ranked route catalog for a configuration,
// before the enabled-route filter is applied
func (handlers *Handlers) GetRouteCatalog(context *gin.Context) {
	calcConfiguration, configError := handlers.calcConfigFromQuery(context)
	if configError != nil {
		handlers.writeErrorResponse(context, http.StatusBadRequest, "invalid configuration", configError.Error())
		return
	}

	catalog := routes.Build(calcConfiguration, handlers.registry)
	context.JSON(http.StatusOK, gin.H{
		"pair":   calcConfiguration.Pair.Label,
		"routes": catalog,
	})
}

// exchangeStatus describes one adapter's capabilities for listings
type exchangeStatus struct {
	ID           string                `json:"id"`
	Name         string                `json:"name"`
	Fiats        []models.FiatCurrency `json:"supported_fiat_currencies"`
	StableTokens []models.StableToken  `json:"supported_stable_tokens"`
	Endpoints    []string              `json:"endpoints"`
}

// GetExchanges returns the adapter registry listing
func (handlers *Handlers) GetExchanges(context *gin.Context) {
	adapters := handlers.registry.All()
	statuses := make([]exchangeStatus, len(adapters))
	for i, adapter := range adapters {
		statuses[i] = exchangeStatus{
			ID:           adapter.ID(),
			Name:         adapter.Name(),
			Fiats:        adapter.SupportedFiatCurrencies(),
			StableTokens: adapter.SupportedStableTokens(),
			Endpoints:    adapter.Endpoints(),
		}
	}
	context.JSON(http.StatusOK, gin.H{"exchanges": statuses})
}

// GetPairs returns the fixed currency pair catalog
func (handlers *Handlers) GetPairs(context *gin.Context) {
	context.JSON(http.StatusOK, gin.H{"pairs": models.CurrencyPairs})
}

// calcConfigFromQuery builds the cycle configuration from the request,
// starting from the service defaults and applying per-request overrides
func (handlers *Handlers) calcConfigFromQuery(context *gin.Context) (models.CalcConfig, error) {
	calcConfiguration := handlers.configuration.DefaultCalcConfig()

	if pairLabel := context.Query("pair"); pairLabel != "" {
		pair, ok := models.PairByLabel(pairLabel)
		if !ok {
			return models.CalcConfig{}, &models.ConfigurationError{Message: "unknown pair: " + pairLabel}
		}
		calcConfiguration.Pair = pair
	}
	if exchangeAID := context.Query("exchange_a"); exchangeAID != "" {
		calcConfiguration.ExchangeAID = exchangeAID
	}
	if exchangeBID := context.Query("exchange_b"); exchangeBID != "" {
		calcConfiguration.ExchangeBID = exchangeBID
	}
	if bridge := context.Query("bridge"); bridge != "" {
		calcConfiguration.BridgeCrypto = models.BridgeCrypto(bridge)
	}
	if stableToken := context.Query("stable_token"); stableToken != "" {
		calcConfiguration.StableToken = models.StableToken(stableToken)
	}
	if routeIDs := context.Query("routes"); routeIDs != "" {
		enabled := []string{}
		for _, routeID := range strings.Split(routeIDs, ",") {
			if trimmed := strings.TrimSpace(routeID); trimmed != "" {
				enabled = append(enabled, trimmed)
			}
		}
		calcConfiguration.EnabledRouteIDs = enabled
	}

	return calcConfiguration, nil
}

// corsMiddleware handles CORS headers
func (handlers *Handlers) corsMiddleware() gin.HandlerFunc {
	return func(context *gin.Context) {
		context.Header("Access-Control-Allow-Origin", "*")
		context.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		context.Header("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")

		if context.Request.Method == http.MethodOptions {
			context.AbortWithStatus(http.StatusNoContent)
			return
		}

		context.Next()
	}
}

// rateLimitMiddleware applies per-IP rate limiting
func (handlers *Handlers) rateLimitMiddleware() gin.HandlerFunc {
	return func(context *gin.Context) {
		clientIP := handlers.rateLimiter.GetClientIP(context.Request)
		if !handlers.rateLimiter.Allow(clientIP) {
			handlers.logger.Warnf("Rate limit exceeded for IP: %s", clientIP)
			context.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		context.Next()
	}
}

// writeErrorResponse writes a JSON error response
func (handlers *Handlers) writeErrorResponse(context *gin.Context, statusCode int, errorMessage, details string) {
	context.JSON(statusCode, gin.H{
		"error":   errorMessage,
		"message": details,
	})
}
