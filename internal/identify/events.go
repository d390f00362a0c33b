package identify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/pulseboard/contribeval/internal/domain"
	pkgactivity "github.com/pulseboard/contribeval/pkg/activity"
	"github.com/pulseboard/contribeval/pkg/events"
)

// EventTypeContributionsIdentified is emitted once per identify activity
// with the full candidate list.
const EventTypeContributionsIdentified = "identify.contributions_identified"

const eventSource = "identify-activity"
const eventVersion = "1.0.0"

// EventEmitter emits identify-stage events through the shared activity
// base. Emission is best-effort; failures are logged and never fail the
// activity.
type EventEmitter struct{ base pkgactivity.BaseActivities }

// NewEventEmitter creates the identify event emitter.
func NewEventEmitter(base pkgactivity.BaseActivities) *EventEmitter {
	return &EventEmitter{base: base}
}

type contributionsIdentifiedPayload struct {
	Scope         string                `json:"scope"`
	WindowStart   time.Time             `json:"window_start"`
	WindowEnd     time.Time             `json:"window_end"`
	Contributions []domain.Contribution `json:"contributions"`
}

// EmitContributionsIdentified emits the stage outcome event.
func (e *EventEmitter) EmitContributionsIdentified(
	ctx context.Context,
	ec domain.EvalContext,
	contributions []domain.Contribution,
	wfCtx pkgactivity.WorkflowContext,
) {
	payload, err := json.Marshal(contributionsIdentifiedPayload{
		Scope:         ec.Scope,
		WindowStart:   ec.Window.Start,
		WindowEnd:     ec.Window.End,
		Contributions: contributions,
	})
	if err != nil {
		pkgactivity.SafeLogError(ctx, "Failed to marshal ContributionsIdentified payload",
			"scope", ec.Scope,
			"error", err)
		return
	}

	e.base.EmitEventSafe(ctx, events.Envelope{
		ID:             uuid.New().String(),
		Type:           EventTypeContributionsIdentified,
		Source:         eventSource,
		Version:        eventVersion,
		Timestamp:      time.Now().UTC(),
		IdempotencyKey: events.IdempotencyKey(wfCtx.WorkflowID, EventTypeContributionsIdentified, ec.Scope),
		Scope:          ec.Scope,
		WorkflowID:     wfCtx.WorkflowID,
		RunID:          wfCtx.RunID,
		Payload:        payload,
	}, "ContributionsIdentified")
}
