package dataflows

import (
	"fmt"
	"strings"
	"time"
)

// RetryConfig configures retry behavior for provider HTTP calls.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
}

// DefaultRetryConfig returns sensible retry defaults
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries: 2,
		BaseDelay:  1 * time.Second,
		MaxDelay:   10 * time.Second,
		Multiplier: 2.0,
	}
}

// WithRetry executes a function with exponential backoff retry
func WithRetry(config *RetryConfig, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := config.BaseDelay
			for i := 1; i < attempt; i++ {
				delay = time.Duration(float64(delay) * config.Multiplier)
			}
			if delay > config.MaxDelay {
				delay = config.MaxDelay
			}
			time.Sleep(delay)
		}

		if err := fn(); err != nil {
			lastErr = err
			continue
		}

		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// ValidateSymbol checks that a symbol looks like a 6-digit A-share code.
func ValidateSymbol(symbol string) error {
	symbol = strings.TrimSpace(symbol)
	if len(symbol) != 6 {
		return fmt.Errorf("invalid A-share symbol: %q", symbol)
	}
	for _, r := range symbol {
		if r < '0' || r > '9' {
			return fmt.Errorf("invalid A-share symbol: %q", symbol)
		}
	}
	return nil
}

// SecID converts a 6-digit A-share code into the eastmoney secid form:
// Shanghai codes (6xxxxx) get market prefix 1, Shenzhen and Beijing
// codes get prefix 0.
func SecID(symbol string) string {
	if strings.HasPrefix(symbol, "6") {
		return "1." + symbol
	}
	return "0." + symbol
}

// ExchangeSuffix returns the Longport-style symbol, e.g. "000001.SZ".
func ExchangeSuffix(symbol string) string {
	if strings.HasPrefix(symbol, "6") {
		return symbol + ".SH"
	}
	return symbol + ".SZ"
}
