package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/pulseboard/contribeval/internal/agent/transport"
)

// Stats receives cache lookup outcomes. Implementations must be safe for
// concurrent use.
type Stats interface {
	CacheHit(stage string)
	CacheMiss(stage string)
}

type cacheMiddleware struct {
	store  Store
	ttl    time.Duration
	stats  Stats
	logger *slog.Logger
}

// NewMiddleware creates the caching middleware. Requests without a cache
// key pass through untouched; only successful responses are stored. A nil
// stats disables hit/miss accounting.
func NewMiddleware(store Store, ttl time.Duration, stats Stats) transport.Middleware {
	cm := &cacheMiddleware{
		store:  store,
		ttl:    ttl,
		stats:  stats,
		logger: slog.Default().With("component", "agent-cache"),
	}
	return cm.middleware()
}

func (c *cacheMiddleware) middleware() transport.Middleware {
	return func(next transport.Handler) transport.Handler {
		return transport.HandlerFunc(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
			if req.CacheKey == "" {
				return next.Handle(ctx, req)
			}

			if raw, ok, err := c.store.Get(ctx, req.CacheKey); err != nil {
				// Degrade to a live call; the cache is an optimization.
				c.logger.Warn("cache lookup failed", "stage", req.Stage, "error", err)
			} else if ok {
				if c.stats != nil {
					c.stats.CacheHit(string(req.Stage))
				}
				c.logger.Debug("cache hit", "stage", req.Stage, "key", req.CacheKey)
				return &transport.Response{Raw: raw, FromCache: true}, nil
			} else if c.stats != nil {
				c.stats.CacheMiss(string(req.Stage))
			}

			resp, err := next.Handle(ctx, req)
			if err != nil {
				return resp, err
			}

			if setErr := c.store.Set(ctx, req.CacheKey, resp.Raw, c.ttl); setErr != nil {
				c.logger.Warn("cache store failed", "stage", req.Stage, "error", setErr)
			}
			return resp, nil
		})
	}
}
