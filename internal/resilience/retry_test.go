package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordSleep returns a Sleep hook that records requested delays without waiting.
func recordSleep(delays *[]time.Duration) func(context.Context, time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return ctx.Err()
	}
}

func rateLimitErr() error {
	return NewTransientError(errors.New("rate limited"), 429)
}

func TestDo_SuccessOnFirstAttempt(t *testing.T) {
	var calls int
	var delays []time.Duration
	cfg := DefaultRetryConfig()
	cfg.Sleep = recordSleep(&delays)

	err := Do(context.Background(), cfg, func(_ context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, delays)
}

func TestDoVal_SuccessAfterRateLimits(t *testing.T) {
	tests := []struct {
		name     string
		failures int
		want     []time.Duration
	}{
		{name: "one failure", failures: 1, want: []time.Duration{2 * time.Second}},
		{name: "two failures", failures: 2, want: []time.Duration{2 * time.Second, 4 * time.Second}},
		{name: "three failures", failures: 3, want: []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int
			var delays []time.Duration
			cfg := DefaultRetryConfig()
			cfg.Sleep = recordSleep(&delays)

			val, err := DoVal(context.Background(), cfg, func(_ context.Context) (string, error) {
				calls++
				if calls <= tt.failures {
					return "", rateLimitErr()
				}
				return "ok", nil
			})
			require.NoError(t, err)
			assert.Equal(t, "ok", val)
			assert.Equal(t, tt.failures+1, calls)
			assert.Equal(t, tt.want, delays)
		})
	}
}

func TestDoVal_ExhaustsBudget(t *testing.T) {
	var calls int
	var delays []time.Duration
	cfg := DefaultRetryConfig()
	cfg.Sleep = recordSleep(&delays)

	var last error
	_, err := DoVal(context.Background(), cfg, func(_ context.Context) (int, error) {
		calls++
		last = NewTransientError(errors.New("quota exceeded"), 429)
		return 0, last
	})
	require.Error(t, err)
	assert.Same(t, last, err, "last failure propagated unchanged")
	assert.Equal(t, 4, calls, "first try plus three retries")
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}, delays)
}

func TestDo_NonRateLimitError_NoRetry(t *testing.T) {
	var calls int
	var delays []time.Duration
	cfg := DefaultRetryConfig()
	cfg.Sleep = recordSleep(&delays)

	permanent := errors.New("permanent error: bad request")
	err := Do(context.Background(), cfg, func(_ context.Context) error {
		calls++
		return permanent
	})
	assert.Same(t, permanent, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, delays)
}

func TestDo_ServerErrorIsNotRateLimit(t *testing.T) {
	var calls int
	cfg := DefaultRetryConfig()
	cfg.Sleep = func(context.Context, time.Duration) error { return nil }

	err := Do(context.Background(), cfg, func(_ context.Context) error {
		calls++
		return NewTransientError(errors.New("internal error"), 500)
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ZeroRetries(t *testing.T) {
	var calls int
	cfg := RetryConfig{Retries: 0, Sleep: func(context.Context, time.Duration) error { return nil }}

	err := Do(context.Background(), cfg, func(_ context.Context) error {
		calls++
		return rateLimitErr()
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCancelled_StopsRetry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	cfg := RetryConfig{
		Retries:        5,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     100 * time.Millisecond,
		Multiplier:     2.0,
	}

	err := Do(ctx, cfg, func(_ context.Context) error {
		calls++
		if calls == 2 {
			cancel()
		}
		return rateLimitErr()
	})
	require.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestDo_CustomShouldRetry(t *testing.T) {
	var calls int
	cfg := RetryConfig{
		Retries:        3,
		InitialBackoff: time.Millisecond,
		ShouldRetry: func(err error) bool {
			return err.Error() == "retry me"
		},
	}

	err := Do(context.Background(), cfg, func(_ context.Context) error {
		calls++
		if calls == 1 {
			return errors.New("retry me")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestDo_OnRetryCallback(t *testing.T) {
	var attempts []int
	var seen []time.Duration
	cfg := RetryConfig{
		Retries:        2,
		InitialBackoff: 10 * time.Millisecond,
		OnRetry: func(attempt int, delay time.Duration, _ error) {
			attempts = append(attempts, attempt)
			seen = append(seen, delay)
		},
		Sleep: func(context.Context, time.Duration) error { return nil },
	}

	_ = Do(context.Background(), cfg, func(_ context.Context) error {
		return rateLimitErr()
	})
	assert.Equal(t, []int{1, 2}, attempts)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, seen)
}

func TestComputeBackoff_Capped(t *testing.T) {
	cfg := applyDefaults(RetryConfig{InitialBackoff: time.Second, MaxBackoff: 5 * time.Second, Multiplier: 2})
	assert.Equal(t, time.Second, computeBackoff(0, cfg))
	assert.Equal(t, 4*time.Second, computeBackoff(2, cfg))
	assert.Equal(t, 5*time.Second, computeBackoff(5, cfg))
}

func TestComputeBackoff_Jitter(t *testing.T) {
	cfg := applyDefaults(RetryConfig{InitialBackoff: time.Second, Multiplier: 2, JitterFraction: 0.5})
	for i := 0; i < 50; i++ {
		d := computeBackoff(0, cfg)
		assert.GreaterOrEqual(t, d, 500*time.Millisecond)
		assert.LessOrEqual(t, d, 1500*time.Millisecond)
	}
}

func TestFromRetryConfig(t *testing.T) {
	cfg := FromRetryConfig(5, 100, 1000, 3)
	assert.Equal(t, 5, cfg.Retries)
	assert.Equal(t, 100*time.Millisecond, cfg.InitialBackoff)
	assert.Equal(t, time.Second, cfg.MaxBackoff)
	assert.Equal(t, 3.0, cfg.Multiplier)

	def := FromRetryConfig(-1, 0, 0, 0)
	assert.Equal(t, DefaultRetryConfig().Retries, def.Retries)
	assert.Equal(t, 2*time.Second, def.InitialBackoff)
}
