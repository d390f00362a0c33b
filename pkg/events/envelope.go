// Package events provides the generic event infrastructure for pipeline
// event emission. It defines the Envelope type wrapping domain events with
// consistent metadata and the EventSink interface events are appended to.
package events

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Envelope wraps pipeline events with consistent metadata for reliable
// downstream processing: routing, idempotency, and workflow correlation.
type Envelope struct {
	// ID uniquely identifies this event instance.
	ID string `json:"id"`

	// Type identifies the event for routing and processing.
	// Examples: "identify.contributions_identified", "evaluate.contribution_evaluated".
	Type string `json:"type"`

	// Source identifies the component that emitted this event.
	// Examples: "identify-activity", "evaluate-activity".
	Source string `json:"source"`

	// Version enables schema evolution. Starts at "1.0.0".
	Version string `json:"version"`

	// Timestamp records when the event was emitted.
	Timestamp time.Time `json:"timestamp"`

	// IdempotencyKey deduplicates re-emissions during activity retries.
	// Derived deterministically from workflow context and event content.
	IdempotencyKey string `json:"idempotency_key"`

	// Scope identifies the entity the pipeline run covers.
	Scope string `json:"scope"`

	// WorkflowID identifies the workflow that triggered this event.
	WorkflowID string `json:"workflow_id"`

	// RunID identifies the specific workflow execution run.
	RunID string `json:"run_id"`

	// Payload carries the event data as JSON; schema varies by Type.
	Payload json.RawMessage `json:"payload"`
}

// IdempotencyKey derives a stable deduplication key from the workflow
// identity and the event's distinguishing parts.
func IdempotencyKey(workflowID, eventType string, parts ...string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s", workflowID, eventType)
	for _, p := range parts {
		fmt.Fprintf(h, "\x00%s", p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// EventSink is the interface events are appended to. Implementations may
// be database outboxes, message queues, or log outputs. Sink failures must
// never fail the emitting activity; events serve observability, not
// correctness.
type EventSink interface {
	// Append adds an event to the sink. Implementations handle
	// idempotency (duplicate keys are no-ops) and return quickly.
	Append(ctx context.Context, envelope Envelope) error
}

// NoOpEventSink discards all events. Used in tests and when event
// emission is disabled.
type NoOpEventSink struct{}

// Append implements EventSink with no side effects.
func (n *NoOpEventSink) Append(_ context.Context, _ Envelope) error { return nil }

// NewNoOpEventSink creates a sink that discards all events.
func NewNoOpEventSink() EventSink { return &NoOpEventSink{} }
