package dataflows

import (
	"errors"
	"testing"
	"time"
)

func TestSecID(t *testing.T) {
	cases := map[string]string{
		"000001": "0.000001",
		"300750": "0.300750",
		"600519": "1.600519",
		"688981": "1.688981",
	}
	for symbol, want := range cases {
		if got := SecID(symbol); got != want {
			t.Errorf("SecID(%s) = %s, want %s", symbol, got, want)
		}
	}
}

func TestExchangeSuffix(t *testing.T) {
	if got := ExchangeSuffix("000001"); got != "000001.SZ" {
		t.Fatalf("ExchangeSuffix = %s", got)
	}
	if got := ExchangeSuffix("600519"); got != "600519.SH" {
		t.Fatalf("ExchangeSuffix = %s", got)
	}
}

func TestValidateSymbol(t *testing.T) {
	if err := ValidateSymbol("000001"); err != nil {
		t.Fatalf("ValidateSymbol: %v", err)
	}
	for _, bad := range []string{"", "AAPL", "00001", "0000012", "00000x"} {
		if err := ValidateSymbol(bad); err == nil {
			t.Errorf("ValidateSymbol(%q) should fail", bad)
		}
	}
}

func TestWithRetryStopsAfterSuccess(t *testing.T) {
	cfg := &RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}
	calls := 0
	err := WithRetry(cfg, func() error {
		calls++
		if calls < 2 {
			return errors.New("boom")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithRetry: %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d", calls)
	}
}

func TestWithRetryExhausts(t *testing.T) {
	cfg := &RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}
	calls := 0
	err := WithRetry(cfg, func() error {
		calls++
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}
