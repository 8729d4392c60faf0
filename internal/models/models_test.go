package models

import (
	"errors"
	"testing"
)

func TestPairByLabel(t *testing.T) {
	pair, ok := PairByLabel("KRW-USD")
	if !ok {
		t.Fatal("PairByLabel(KRW-USD) not found")
	}
	if pair.Fiat != KRW || pair.Quote != USD {
		t.Errorf("pair = %+v, want KRW/USD", pair)
	}

	if _, ok := PairByLabel("XYZ-ABC"); ok {
		t.Error("PairByLabel(XYZ-ABC) = found, want not found")
	}
}

func TestCurrencyPair_IsFiatToFiat(t *testing.T) {
	tests := []struct {
		label    string
		expected bool
	}{
		{"KRW-USD", false},
		{"JPY-USD", false},
		{"EUR-USD", false},
		{"KRW-JPY", true},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			pair, ok := PairByLabel(tt.label)
			if !ok {
				t.Fatalf("PairByLabel(%s) not found", tt.label)
			}
			if got := pair.IsFiatToFiat(); got != tt.expected {
				t.Errorf("IsFiatToFiat() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestAdapterError(t *testing.T) {
	cause := errors.New("connection refused")
	adapterError := &AdapterError{AdapterID: "upbit", Market: "KRW-BTC", Message: "request failed", Cause: cause}

	if got := adapterError.Error(); got != "upbit: request failed: connection refused" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(adapterError, cause) {
		t.Error("errors.Is must see through to the cause")
	}

	bare := &AdapterError{AdapterID: "okx", Message: "no data for market"}
	if got := bare.Error(); got != "okx: no data for market" {
		t.Errorf("Error() = %q", got)
	}
}

func TestRouteExhaustionError(t *testing.T) {
	lastError := &AdapterError{AdapterID: "binance", Message: "no data for market"}
	exhaustionError := &RouteExhaustionError{
		RouteStates: []RouteState{
			{RouteID: "upbit-direct", Status: RouteStatusError, Error: "no data"},
			{RouteID: "upbit-binance-cross", Status: RouteStatusError, Error: "no data"},
		},
		LastErr: lastError,
	}

	if got := exhaustionError.Error(); got != "all 2 routes failed, last error: binance: no data for market" {
		t.Errorf("Error() = %q", got)
	}

	var adapterError *AdapterError
	if !errors.As(exhaustionError, &adapterError) {
		t.Error("errors.As must unwrap to the last adapter error")
	}
}

func TestConfigurationError(t *testing.T) {
	configurationError := &ConfigurationError{Message: "exchange not found: ghost"}
	if got := configurationError.Error(); got != "exchange not found: ghost" {
		t.Errorf("Error() = %q", got)
	}
}
