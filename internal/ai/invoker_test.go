package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospect-cli/internal/resilience"
)

func instantRetry(delays *[]time.Duration) resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.Sleep = func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return ctx.Err()
	}
	return cfg
}

func TestInvoker_RetriesRateLimitThenSucceeds(t *testing.T) {
	gen := &scriptedGenerator{results: []scripted{
		{err: resilience.NewTransientError(errors.New("429 Too Many Requests"), 429)},
		{err: errors.New("RESOURCE_EXHAUSTED")},
		{text: "done"},
	}}
	var delays []time.Duration
	inv := NewInvoker(gen, WithRetry(instantRetry(&delays)))

	resp, err := inv.Generate(context.Background(), Request{Turns: []Turn{UserTurn("x")}, Stage: "test"})
	require.NoError(t, err)
	assert.Equal(t, "done", resp.Text)
	assert.Len(t, gen.calls, 3)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, delays)
}

func TestInvoker_BudgetExhausted(t *testing.T) {
	last := resilience.NewTransientError(errors.New("quota exceeded"), 429)
	gen := &scriptedGenerator{results: []scripted{
		{err: last}, {err: last}, {err: last}, {err: last}, {text: "never"},
	}}
	var delays []time.Duration
	inv := NewInvoker(gen, WithRetry(instantRetry(&delays)))

	_, err := inv.Generate(context.Background(), Request{Turns: []Turn{UserTurn("x")}})
	require.Error(t, err)
	assert.Same(t, last, err)
	assert.Len(t, gen.calls, 4)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}, delays)
}

func TestInvoker_NonRateLimitPropagatesImmediately(t *testing.T) {
	permanent := errors.New("invalid api key")
	gen := &scriptedGenerator{results: []scripted{{err: permanent}, {text: "never"}}}
	var delays []time.Duration
	inv := NewInvoker(gen, WithRetry(instantRetry(&delays)))

	_, err := inv.Generate(context.Background(), Request{Turns: []Turn{UserTurn("x")}})
	assert.Same(t, permanent, err)
	assert.Len(t, gen.calls, 1)
	assert.Empty(t, delays)
}

func TestInvoker_RequestsPerMinute(t *testing.T) {
	gen := &scriptedGenerator{}
	inv := NewInvoker(gen, WithRequestsPerMinute(6000))
	require.NotNil(t, inv.limiter)

	for i := 0; i < 3; i++ {
		_, err := inv.Generate(context.Background(), Request{Turns: []Turn{UserTurn("x")}})
		require.NoError(t, err)
	}
	assert.Len(t, gen.calls, 3)

	assert.Nil(t, NewInvoker(gen, WithRequestsPerMinute(0)).limiter)
}

func TestInvoker_PacingHonoursCancellation(t *testing.T) {
	gen := &scriptedGenerator{}
	inv := NewInvoker(gen, WithRequestsPerMinute(1))

	_, err := inv.Generate(context.Background(), Request{Turns: []Turn{UserTurn("first")}})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = inv.Generate(ctx, Request{Turns: []Turn{UserTurn("second")}})
	require.Error(t, err)
	assert.Len(t, gen.calls, 1)
}
