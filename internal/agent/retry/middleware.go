// Package retry provides the bounded retry middleware for agent calls.
// Agent failures are treated uniformly as transient: every attempt gets a
// fresh deadline, attempts are separated by a fixed delay, and the final
// failure surfaces as a single AgentFailure naming the stage and attempt
// count. Only parent-context cancellation aborts the loop early.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pulseboard/contribeval/internal/agent/transport"
	"github.com/pulseboard/contribeval/internal/domain"
)

const (
	// DefaultMaxAttempts bounds agent call attempts per stage invocation.
	DefaultMaxAttempts = 3

	// DefaultDelay separates a failed attempt from the next one.
	DefaultDelay = time.Second

	// DefaultAttemptTimeout bounds a single agent call so a hanging agent
	// cannot stall a run indefinitely.
	DefaultAttemptTimeout = 30 * time.Second
)

var (
	errMaxAttemptsInvalid    = errors.New("MaxAttempts must be greater than 0")
	errDelayInvalid          = errors.New("Delay must be >= 0")
	errAttemptTimeoutInvalid = errors.New("AttemptTimeout must be >= 0")

	errCancelledBeforeAttempt = errors.New("context cancelled before agent attempt")
	errCancelledDuringDelay   = errors.New("context cancelled during retry delay")
)

// Config is the retry policy injected into the agent caller.
type Config struct {
	// MaxAttempts is the total number of attempts, not the number of
	// retries after the first failure.
	MaxAttempts int `json:"max_attempts"`

	// Delay is the fixed wait between a failed attempt and the next.
	Delay time.Duration `json:"delay"`

	// AttemptTimeout is the deadline applied to each individual attempt.
	// Zero disables the per-attempt deadline.
	AttemptTimeout time.Duration `json:"attempt_timeout"`
}

// DefaultConfig returns the policy used when the caller does not override
// it: three attempts, one second apart, thirty seconds per attempt.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    DefaultMaxAttempts,
		Delay:          DefaultDelay,
		AttemptTimeout: DefaultAttemptTimeout,
	}
}

type retryMiddleware struct {
	config Config
	logger *slog.Logger
}

// NewMiddleware creates the retry middleware after validating the policy.
func NewMiddleware(cfg Config) (transport.Middleware, error) {
	if cfg.MaxAttempts <= 0 {
		return nil, fmt.Errorf("%w, got %d", errMaxAttemptsInvalid, cfg.MaxAttempts)
	}
	if cfg.Delay < 0 {
		return nil, fmt.Errorf("%w, got %v", errDelayInvalid, cfg.Delay)
	}
	if cfg.AttemptTimeout < 0 {
		return nil, fmt.Errorf("%w, got %v", errAttemptTimeoutInvalid, cfg.AttemptTimeout)
	}

	rm := &retryMiddleware{
		config: cfg,
		logger: slog.Default().With("component", "agent-retry"),
	}
	return rm.middleware(), nil
}

func (r *retryMiddleware) middleware() transport.Middleware {
	return func(next transport.Handler) transport.Handler {
		return transport.HandlerFunc(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
			// Fail fast if the run is already cancelled.
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %w", errCancelledBeforeAttempt, ctx.Err())
			default:
			}

			var lastErr error
			for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
				r.logger.Info("agent attempt",
					"stage", req.Stage,
					"attempt", attempt,
					"max_attempts", r.config.MaxAttempts)

				resp, err := r.attempt(ctx, next, req)
				if err == nil {
					if attempt > 1 {
						r.logger.Info("agent call succeeded after retry",
							"stage", req.Stage,
							"attempt", attempt)
					}
					return resp, nil
				}

				// A cancelled run is not an agent failure; propagate as-is.
				if ctx.Err() != nil {
					return nil, fmt.Errorf("%w: %w", errCancelledBeforeAttempt, ctx.Err())
				}

				lastErr = err
				r.logger.Warn("agent attempt failed",
					"stage", req.Stage,
					"attempt", attempt,
					"error", err)

				if attempt == r.config.MaxAttempts {
					break
				}

				select {
				case <-time.After(r.config.Delay):
				case <-ctx.Done():
					return nil, fmt.Errorf("%w: %w", errCancelledDuringDelay, ctx.Err())
				}
			}

			return nil, &domain.AgentFailureError{
				Stage:    string(req.Stage),
				Attempts: r.config.MaxAttempts,
				Cause:    lastErr,
			}
		})
	}
}

// attempt runs one agent call under the per-attempt deadline.
func (r *retryMiddleware) attempt(
	ctx context.Context,
	next transport.Handler,
	req *transport.Request,
) (*transport.Response, error) {
	attemptCtx := ctx
	if r.config.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, r.config.AttemptTimeout)
		defer cancel()
	}
	return next.Handle(attemptCtx, req)
}
