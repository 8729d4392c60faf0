package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"crossrate-api/internal/config"
	"crossrate-api/internal/logger"
)

// Client is a bounded-retry, timeout-bounded, cancellable HTTP-JSON fetcher.
// It knows nothing about exchange semantics; every adapter funnels its ticker
// queries through one shared instance.
type Client struct {
	httpClient *http.Client
	logger     *logger.Logger
	policy     config.FetchPolicy
}

// NewClient creates a new fetch client with the given retry policy.
func NewClient(policy config.FetchPolicy, log *logger.Logger) *Client {
	httpTransport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     90 * time.Second,
		DisableCompression:  false,
	}
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	if policy.PerAttemptTimeout <= 0 {
		policy.PerAttemptTimeout = 5 * time.Second
	}
	if policy.RetryBackoff <= 0 {
		policy.RetryBackoff = 500 * time.Millisecond
	}
	return &Client{
		// Per-attempt deadlines come from the request context, not a
		// client-wide timeout.
		httpClient: &http.Client{Transport: httpTransport},
		logger:     log,
		policy:     policy,
	}
}

// GetJSON fetches url and decodes the response into target using the
// client's default retry budget.
func (client *Client) GetJSON(ctx context.Context, url string, target interface{}) error {
	return client.GetJSONWithBudget(ctx, url, target, client.policy.MaxRetries, client.policy.PerAttemptTimeout)
}

// GetJSONWithBudget fetches url with an explicit retry/timeout budget. Each
// attempt races the HTTP call against perAttemptTimeout; a non-2xx status or
// a timeout counts as a failed attempt. Failed attempts are separated by a
// fixed backoff. External cancellation aborts immediately and is returned
// as the context's error rather than a retryable fetch error.
func (client *Client) GetJSONWithBudget(ctx context.Context, url string, target interface{}, maxRetries int, perAttemptTimeout time.Duration) error {
	var lastError error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		lastError = client.doAttempt(ctx, url, target, perAttemptTimeout)
		if lastError == nil {
			return nil
		}

		// Cancellation is not retried into; a per-attempt timeout is.
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if attempt < maxRetries {
			client.logger.Debugf("Fetch attempt %d/%d failed for %s: %v", attempt+1, maxRetries+1, url, lastError)
			backoffTimer := time.NewTimer(client.policy.RetryBackoff)
			select {
			case <-ctx.Done():
				backoffTimer.Stop()
				return ctx.Err()
			case <-backoffTimer.C:
			}
		}
	}

	return lastError
}

// doAttempt performs a single GET with a per-attempt deadline.
func (client *Client) doAttempt(ctx context.Context, url string, target interface{}, perAttemptTimeout time.Duration) error {
	attemptContext, cancel := context.WithTimeout(ctx, perAttemptTimeout)
	defer cancel()

	request, err := http.NewRequestWithContext(attemptContext, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	response, err := client.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		io.Copy(io.Discard, response.Body)
		return fmt.Errorf("HTTP %d", response.StatusCode)
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("invalid response: %w", err)
	}

	return nil
}
