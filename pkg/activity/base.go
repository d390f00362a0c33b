// Package activity provides shared infrastructure for Temporal activity
// implementations: workflow context extraction, context-safe logging, and
// best-effort event emission used by every stage activity package.
package activity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/activity"

	"github.com/pulseboard/contribeval/pkg/events"
)

// DefaultHeartbeatInterval is the cadence StartHeartbeat records on. The
// workflow sets a 30s heartbeat timeout on stage activities, so three
// ticks fit inside one timeout window.
const DefaultHeartbeatInterval = 10 * time.Second

// WorkflowContext carries metadata extracted from the Temporal activity
// context, with fallback values for non-activity (test) contexts.
type WorkflowContext struct {
	WorkflowID string
	RunID      string
	ActivityID string
}

// BaseActivities provides the common pieces every stage activity embeds:
// event emission, heartbeating, and safe access to the workflow context.
type BaseActivities struct {
	eventSink events.EventSink

	heartbeatEvery  time.Duration
	recordHeartbeat func(ctx context.Context, details ...any)
}

// NewBaseActivities creates the shared activity base. A nil sink disables
// event emission.
func NewBaseActivities(sink events.EventSink) BaseActivities {
	return BaseActivities{
		eventSink:       sink,
		heartbeatEvery:  DefaultHeartbeatInterval,
		recordHeartbeat: RecordHeartbeat,
	}
}

// WithHeartbeat returns a copy using the given heartbeat cadence and
// recorder. Tests use it to observe heartbeats without an activity
// context.
func (b BaseActivities) WithHeartbeat(every time.Duration, record func(ctx context.Context, details ...any)) BaseActivities {
	b.heartbeatEvery = every
	b.recordHeartbeat = record
	return b
}

// StartHeartbeat records activity heartbeats on a fixed cadence until the
// returned stop function is called or the context ends. The stage
// activities spend their time in one long blocking agent call, so
// heartbeats come from this ticker rather than from progress points in
// the work itself.
func (b *BaseActivities) StartHeartbeat(ctx context.Context, details ...any) (stop func()) {
	every := b.heartbeatEvery
	if every <= 0 {
		every = DefaultHeartbeatInterval
	}
	record := b.recordHeartbeat
	if record == nil {
		record = RecordHeartbeat
	}

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				record(ctx, details...)
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}

// GetWorkflowContext extracts workflow execution details from the activity
// context. Outside an activity context (where activity.GetInfo panics) it
// returns stable test identifiers so idempotency keys stay deterministic.
func (b *BaseActivities) GetWorkflowContext(ctx context.Context) WorkflowContext {
	var wfCtx WorkflowContext

	func() {
		defer func() {
			if r := recover(); r != nil {
				wfCtx.WorkflowID = "00000000-0000-0000-0000-000000000000"
				wfCtx.RunID = "test-run-" + uuid.New().String()[:8]
				wfCtx.ActivityID = "test-activity"
			}
		}()

		info := activity.GetInfo(ctx)
		wfCtx.WorkflowID = info.WorkflowExecution.ID
		wfCtx.RunID = info.WorkflowExecution.RunID
		wfCtx.ActivityID = info.ActivityID
	}()

	return wfCtx
}

// EmitEventSafe appends the envelope to the sink with a short retry.
// Emission failures are logged and swallowed: events serve observability
// and must never fail the activity that produced them.
func (b *BaseActivities) EmitEventSafe(ctx context.Context, envelope events.Envelope, description string) {
	if b.eventSink == nil {
		return
	}

	const maxAttempts = 2
	const retryDelay = 200 * time.Millisecond

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				SafeLogError(ctx, fmt.Sprintf("Event emission cancelled: %s", description),
					"event_type", envelope.Type)
				return
			}
		}

		if err := b.eventSink.Append(ctx, envelope); err != nil {
			lastErr = err
			continue
		}

		SafeLog(ctx, fmt.Sprintf("Event emitted: %s", description),
			"event_type", envelope.Type,
			"idempotency_key", envelope.IdempotencyKey)
		return
	}

	SafeLogError(ctx, fmt.Sprintf("Failed to emit %s after %d attempts", description, maxAttempts),
		"event_type", envelope.Type,
		"error", lastErr)
}

// RecordHeartbeat records an activity heartbeat, ignoring non-activity
// contexts.
func (b *BaseActivities) RecordHeartbeat(ctx context.Context, details ...any) {
	RecordHeartbeat(ctx, details...)
}

// SafeLog logs at INFO through the activity logger, silently ignoring
// non-activity contexts.
func SafeLog(ctx context.Context, msg string, keyvals ...any) {
	defer func() {
		if recover() != nil {
			// Not an activity context, ignore
		}
	}()
	activity.GetLogger(ctx).Info(msg, keyvals...)
}

// SafeLogError logs at ERROR through the activity logger, silently
// ignoring non-activity contexts.
func SafeLogError(ctx context.Context, msg string, keyvals ...any) {
	defer func() {
		if recover() != nil {
			// Not an activity context, ignore
		}
	}()
	activity.GetLogger(ctx).Error(msg, keyvals...)
}

// RecordHeartbeat records an activity heartbeat, ignoring non-activity
// contexts.
func RecordHeartbeat(ctx context.Context, details ...any) {
	defer func() {
		if recover() != nil {
			// Not an activity context, ignore
		}
	}()
	activity.RecordHeartbeat(ctx, details...)
}
