package evaluate

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/pulseboard/contribeval/internal/domain"
	pkgactivity "github.com/pulseboard/contribeval/pkg/activity"
	"github.com/pulseboard/contribeval/pkg/events"
)

// EventTypeContributionEvaluated is emitted once per evaluated
// contribution.
const EventTypeContributionEvaluated = "evaluate.contribution_evaluated"

const eventSource = "evaluate-activity"
const eventVersion = "1.0.0"

// EventEmitter emits evaluate-stage events through the shared activity
// base.
type EventEmitter struct{ base pkgactivity.BaseActivities }

// NewEventEmitter creates the evaluate event emitter.
func NewEventEmitter(base pkgactivity.BaseActivities) *EventEmitter {
	return &EventEmitter{base: base}
}

type contributionEvaluatedPayload struct {
	ContributionID string            `json:"contribution_id"`
	GridType       string            `json:"grid_type"`
	Decision       string            `json:"decision"`
	GlobalScore    float64           `json:"global_score"`
	Normalized     float64           `json:"normalized"`
	Evaluation     domain.Evaluation `json:"evaluation"`
}

// EmitContributionEvaluated emits the per-contribution scoring event.
func (e *EventEmitter) EmitContributionEvaluated(
	ctx context.Context,
	result domain.ContributionEvaluation,
	wfCtx pkgactivity.WorkflowContext,
) {
	payload, err := json.Marshal(contributionEvaluatedPayload{
		ContributionID: result.Contribution.ID,
		GridType:       result.Evaluation.GridType,
		Decision:       string(result.Contribution.Decision),
		GlobalScore:    result.Evaluation.GlobalScore,
		Normalized:     result.Evaluation.Normalized(),
		Evaluation:     result.Evaluation,
	})
	if err != nil {
		pkgactivity.SafeLogError(ctx, "Failed to marshal ContributionEvaluated payload",
			"contribution_id", result.Contribution.ID,
			"error", err)
		return
	}

	e.base.EmitEventSafe(ctx, events.Envelope{
		ID:        uuid.New().String(),
		Type:      EventTypeContributionEvaluated,
		Source:    eventSource,
		Version:   eventVersion,
		Timestamp: time.Now().UTC(),
		IdempotencyKey: events.IdempotencyKey(
			wfCtx.WorkflowID, EventTypeContributionEvaluated, result.Contribution.ID),
		WorkflowID: wfCtx.WorkflowID,
		RunID:      wfCtx.RunID,
		Payload:    payload,
	}, "ContributionEvaluated")
}
