package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/pulseboard/contribeval/internal/agent/cache"
	"github.com/pulseboard/contribeval/internal/agent/ratelimit"
	"github.com/pulseboard/contribeval/internal/agent/retry"
	"github.com/pulseboard/contribeval/internal/agent/transport"
)

// ErrNilRunner indicates caller construction without an agent runner.
var ErrNilRunner = errors.New("agent runner must not be nil")

// Caller executes agent requests through the configured middleware chain.
// It is safe for concurrent use; concurrent pipeline runs share the chain
// but no per-request state.
type Caller struct {
	handler transport.Handler
}

// NewCaller builds the middleware chain around the runner. Chain order,
// outermost first: logging, metrics, cache, retry, attempt metrics, rate
// limit. The cache sits outside retry so a hit skips the entire
// resilience stack and a retried success is stored once; the rate limiter
// sits inside retry so every attempt, retries included, pays a token.
func NewCaller(runner transport.Runner, cfg *Config) (*Caller, error) {
	if runner == nil {
		return nil, ErrNilRunner
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}

	retryMW, err := retry.NewMiddleware(cfg.Retry)
	if err != nil {
		return nil, fmt.Errorf("retry middleware: %w", err)
	}

	middlewares := []transport.Middleware{NewLoggingMiddleware(cfg.Logger)}
	if cfg.Metrics != nil {
		middlewares = append(middlewares, NewMetricsMiddleware(cfg.Metrics))
	}
	if cfg.Cache.Enabled && cfg.Cache.Store != nil {
		var stats cache.Stats
		if cfg.Metrics != nil {
			stats = cfg.Metrics
		}
		middlewares = append(middlewares, cache.NewMiddleware(cfg.Cache.Store, cfg.Cache.TTL, stats))
	}
	middlewares = append(middlewares, retryMW)
	if cfg.Metrics != nil {
		middlewares = append(middlewares, NewAttemptMetricsMiddleware(cfg.Metrics))
	}
	if cfg.RateLimit.Enabled {
		rlMW, rlErr := ratelimit.NewMiddleware(cfg.RateLimit)
		if rlErr != nil {
			return nil, fmt.Errorf("rate limit middleware: %w", rlErr)
		}
		middlewares = append(middlewares, rlMW)
	}

	return &Caller{handler: transport.Chain(transport.NewRunnerHandler(runner), middlewares...)}, nil
}

// Call executes one agent request through the chain.
func (c *Caller) Call(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	return c.handler.Handle(ctx, req)
}
