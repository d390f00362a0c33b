// Package ratelimit provides a local token-bucket rate limit middleware
// for agent calls, protecting the agent provider from bursts across
// concurrent pipeline runs in the same process.
package ratelimit

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/pulseboard/contribeval/internal/agent/transport"
)

var (
	errTokensPerSecondInvalid = errors.New("TokensPerSecond must be greater than 0")
	errBurstInvalid           = errors.New("Burst must be greater than 0")
)

// Config controls the local token bucket shared by all stages.
type Config struct {
	// Enabled activates the middleware; the caller skips it otherwise.
	Enabled bool `json:"enabled"`

	// TokensPerSecond is the sustained agent call rate.
	TokensPerSecond float64 `json:"tokens_per_second"`

	// Burst is the bucket size.
	Burst int `json:"burst"`
}

// NewMiddleware creates the rate limit middleware. Waiting is
// context-aware: a cancelled run stops waiting immediately.
func NewMiddleware(cfg Config) (transport.Middleware, error) {
	if cfg.TokensPerSecond <= 0 {
		return nil, fmt.Errorf("%w, got %f", errTokensPerSecondInvalid, cfg.TokensPerSecond)
	}
	if cfg.Burst <= 0 {
		return nil, fmt.Errorf("%w, got %d", errBurstInvalid, cfg.Burst)
	}

	limiter := rate.NewLimiter(rate.Limit(cfg.TokensPerSecond), cfg.Burst)
	return func(next transport.Handler) transport.Handler {
		return transport.HandlerFunc(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
			if err := limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limit wait: %w", err)
			}
			return next.Handle(ctx, req)
		})
	}, nil
}
