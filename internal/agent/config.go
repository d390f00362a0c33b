// Package agent composes the resilient caller the pipeline stages use to
// reach the external reasoning agent. The caller wraps an injected Runner
// in a middleware chain: logging, metrics, caching, rate limiting, and
// bounded retry with per-attempt timeouts.
package agent

import (
	"log/slog"
	"time"

	"github.com/pulseboard/contribeval/internal/agent/cache"
	"github.com/pulseboard/contribeval/internal/agent/ratelimit"
	"github.com/pulseboard/contribeval/internal/agent/retry"
)

// CacheConfig controls response caching for cacheable agent calls.
type CacheConfig struct {
	// Enabled activates the cache middleware. Requires a Store.
	Enabled bool `json:"enabled"`

	// TTL bounds entry lifetime; zero falls back to the cache default.
	TTL time.Duration `json:"ttl"`

	// Store is the cache backend (Redis or in-memory). Not serialized.
	Store cache.Store `json:"-"`
}

// Config holds the caller configuration. Zero-value sub-configs disable
// their middleware; retry is always present.
type Config struct {
	// Retry is the bounded retry policy applied to every agent call.
	Retry retry.Config `json:"retry"`

	// RateLimit is the local token bucket shared by all stages.
	RateLimit ratelimit.Config `json:"rate_limit"`

	// Cache controls response caching for evaluate calls.
	Cache CacheConfig `json:"cache"`

	// Logger receives call logs; nil falls back to slog.Default.
	Logger *slog.Logger `json:"-"`

	// Metrics receives call counters and latencies; nil disables them.
	Metrics *Metrics `json:"-"`
}

// DefaultConfig returns the caller defaults: three attempts one second
// apart with a thirty second per-attempt deadline, no rate limit, no
// cache.
func DefaultConfig() *Config {
	return &Config{Retry: retry.DefaultConfig()}
}
