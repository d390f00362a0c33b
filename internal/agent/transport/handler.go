// Package transport defines the request pipeline between the evaluation
// stages and the external reasoning agent. It provides the composable
// Handler/Middleware abstractions and the core handler that dispatches to
// the injected agent Runner.
package transport

import "context"

// Stage labels an agent call with the pipeline stage it serves. The label
// appears in retry logs and in AgentFailure errors.
type Stage string

const (
	// StageIdentify labels identify-stage agent calls.
	StageIdentify Stage = "Identify"

	// StageMerge labels merge-stage agent calls.
	StageMerge Stage = "Merge"

	// StageEvaluate labels evaluate-stage agent calls.
	StageEvaluate Stage = "Evaluate"
)

// Request is the unit passed through the middleware pipeline. Payload is
// one of the stage payload types; middleware treats it as opaque.
type Request struct {
	// Stage labels the call for logging, metrics, and failure reporting.
	Stage Stage

	// Payload is the stage-specific input for the agent runner.
	Payload any

	// CacheKey enables response caching when non-empty. Stages that are
	// safe to cache (evaluate) set a content-derived key; identify and
	// merge leave it empty.
	CacheKey string
}

// Response carries the agent's raw output back through the pipeline.
// Stages parse Raw into typed results.
type Response struct {
	// Raw is the agent's output, conventionally JSON text.
	Raw string

	// FromCache reports whether the response was served by the cache
	// middleware without an agent call.
	FromCache bool

	// LatencyMs measures the agent call duration in milliseconds.
	// Zero for cached responses.
	LatencyMs int64
}

// Handler processes agent requests through the composable middleware
// pipeline.
type Handler interface {
	Handle(ctx context.Context, req *Request) (*Response, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(context.Context, *Request) (*Response, error)

// Handle implements the Handler interface.
func (f HandlerFunc) Handle(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Middleware transforms a Handler into an enhanced Handler.
type Middleware func(Handler) Handler

// Chain builds a middleware pipeline around a core handler. Middleware
// executes in the order provided, first middleware outermost.
func Chain(h Handler, middlewares ...Middleware) Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
