package agent

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pulseboard/contribeval/internal/agent/transport"
)

// Metrics holds the Prometheus instruments for agent calls, labeled by
// pipeline stage.
type Metrics struct {
	attempts    *prometheus.CounterVec
	failures    *prometheus.CounterVec
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec
	latency     *prometheus.HistogramVec
}

// NewMetrics registers the agent call instruments on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		attempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "contribeval_agent_attempts_total",
			Help: "Agent call attempts issued, retries included, by pipeline stage.",
		}, []string{"stage"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "contribeval_agent_failures_total",
			Help: "Agent calls that failed after exhausting retries, by stage.",
		}, []string{"stage"}),
		cacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "contribeval_agent_cache_hits_total",
			Help: "Agent calls served from the response cache, by stage.",
		}, []string{"stage"}),
		cacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "contribeval_agent_cache_misses_total",
			Help: "Cache lookups that fell through to a live agent call, by stage.",
		}, []string{"stage"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "contribeval_agent_call_seconds",
			Help:    "Agent call latency including retries, by stage.",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
	}
}

// CacheHit implements cache.Stats.
func (m *Metrics) CacheHit(stage string) {
	m.cacheHits.WithLabelValues(stage).Inc()
}

// CacheMiss implements cache.Stats.
func (m *Metrics) CacheMiss(stage string) {
	m.cacheMisses.WithLabelValues(stage).Inc()
}

// NewMetricsMiddleware creates the call-level instrumentation: latency
// including retries, and calls that failed after exhausting the retry
// budget.
func NewMetricsMiddleware(m *Metrics) transport.Middleware {
	return func(next transport.Handler) transport.Handler {
		return transport.HandlerFunc(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
			stage := string(req.Stage)

			start := time.Now()
			resp, err := next.Handle(ctx, req)
			m.latency.WithLabelValues(stage).Observe(time.Since(start).Seconds())

			if err != nil {
				m.failures.WithLabelValues(stage).Inc()
			}
			return resp, err
		})
	}
}

// NewAttemptMetricsMiddleware counts individual attempts. It sits inside
// the retry middleware so every retry is visible.
func NewAttemptMetricsMiddleware(m *Metrics) transport.Middleware {
	return func(next transport.Handler) transport.Handler {
		return transport.HandlerFunc(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
			m.attempts.WithLabelValues(string(req.Stage)).Inc()
			return next.Handle(ctx, req)
		})
	}
}
