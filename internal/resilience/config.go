package resilience

import (
	"time"
)

// FromRetryConfig converts config values to a RetryConfig. Negative or zero
// values keep the defaults, except retries where zero disables retrying.
func FromRetryConfig(retries, initialBackoffMs, maxBackoffMs int, multiplier float64) RetryConfig {
	cfg := DefaultRetryConfig()
	if retries >= 0 {
		cfg.Retries = retries
	}
	if initialBackoffMs > 0 {
		cfg.InitialBackoff = time.Duration(initialBackoffMs) * time.Millisecond
	}
	if maxBackoffMs > 0 {
		cfg.MaxBackoff = time.Duration(maxBackoffMs) * time.Millisecond
	}
	if multiplier > 0 {
		cfg.Multiplier = multiplier
	}
	return cfg
}
