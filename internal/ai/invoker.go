package ai

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/prospect-cli/internal/resilience"
)

// Invoker routes every backend call through the rate-limit retry envelope.
// It implements Generator so stages never call the backend directly.
type Invoker struct {
	gen     Generator
	retry   resilience.RetryConfig
	limiter *rate.Limiter
}

// InvokerOption configures an Invoker.
type InvokerOption func(*Invoker)

// WithRetry overrides the retry envelope.
func WithRetry(cfg resilience.RetryConfig) InvokerOption {
	return func(i *Invoker) { i.retry = cfg }
}

// WithRequestsPerMinute paces attempts client-side. Zero disables pacing.
func WithRequestsPerMinute(n int) InvokerOption {
	return func(i *Invoker) {
		if n <= 0 {
			i.limiter = nil
			return
		}
		i.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 1)
	}
}

// NewInvoker wraps gen with the default envelope: three retries starting at
// two seconds, doubling, on rate-limit failures only.
func NewInvoker(gen Generator, opts ...InvokerOption) *Invoker {
	i := &Invoker{gen: gen, retry: resilience.DefaultRetryConfig()}
	for _, o := range opts {
		o(i)
	}
	return i
}

// Generate calls the wrapped generator, retrying rate-limited attempts with
// exponential backoff. Other failures and the last rate-limit failure after
// the budget is spent are returned unchanged.
func (i *Invoker) Generate(ctx context.Context, req Request) (*Response, error) {
	cfg := i.retry
	if cfg.OnRetry == nil {
		cfg.OnRetry = resilience.RetryLogger("anthropic", req.Stage)
	}

	return resilience.DoVal(ctx, cfg, func(ctx context.Context) (*Response, error) {
		if i.limiter != nil {
			if err := i.limiter.Wait(ctx); err != nil {
				return nil, eris.Wrap(err, "ai: pacing wait")
			}
		}
		return i.gen.Generate(ctx, req)
	})
}
