package agent

import (
	"context"
	"log/slog"
	"time"

	"github.com/pulseboard/contribeval/internal/agent/transport"
)

// NewLoggingMiddleware creates structured logging for agent calls: stage,
// outcome, latency, and cache provenance. Observability only; it never
// alters the request or response.
func NewLoggingMiddleware(logger *slog.Logger) transport.Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "agent-caller")

	return func(next transport.Handler) transport.Handler {
		return transport.HandlerFunc(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
			start := time.Now()
			resp, err := next.Handle(ctx, req)
			elapsed := time.Since(start)

			if err != nil {
				logger.Error("agent call failed",
					"stage", req.Stage,
					"elapsed", elapsed,
					"error", err)
				return resp, err
			}

			logger.Info("agent call completed",
				"stage", req.Stage,
				"elapsed", elapsed,
				"from_cache", resp.FromCache,
				"response_bytes", len(resp.Raw))
			return resp, nil
		})
	}
}
