package merge

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/pulseboard/contribeval/internal/domain"
	pkgactivity "github.com/pulseboard/contribeval/pkg/activity"
	"github.com/pulseboard/contribeval/pkg/events"
)

// EventTypeContributionsMerged is emitted once per merge activity with the
// decision breakdown.
const EventTypeContributionsMerged = "merge.contributions_merged"

const eventSource = "merge-activity"
const eventVersion = "1.0.0"

// EventEmitter emits merge-stage events through the shared activity base.
type EventEmitter struct{ base pkgactivity.BaseActivities }

// NewEventEmitter creates the merge event emitter.
func NewEventEmitter(base pkgactivity.BaseActivities) *EventEmitter {
	return &EventEmitter{base: base}
}

type contributionsMergedPayload struct {
	Scope         string                       `json:"scope"`
	New           int                          `json:"new"`
	Updates       int                          `json:"updates"`
	Duplicates    int                          `json:"duplicates"`
	Contributions []domain.ToMergeContribution `json:"contributions"`
}

// EmitContributionsMerged emits the stage outcome event with per-decision
// counts for quick dashboarding.
func (e *EventEmitter) EmitContributionsMerged(
	ctx context.Context,
	scope string,
	merged []domain.ToMergeContribution,
	wfCtx pkgactivity.WorkflowContext,
) {
	var newCount, updates, duplicates int
	for _, c := range merged {
		switch c.Decision {
		case domain.DecisionNew:
			newCount++
		case domain.DecisionUpdate:
			updates++
		case domain.DecisionDuplicate:
			duplicates++
		}
	}

	payload, err := json.Marshal(contributionsMergedPayload{
		Scope:         scope,
		New:           newCount,
		Updates:       updates,
		Duplicates:    duplicates,
		Contributions: merged,
	})
	if err != nil {
		pkgactivity.SafeLogError(ctx, "Failed to marshal ContributionsMerged payload",
			"scope", scope,
			"error", err)
		return
	}

	e.base.EmitEventSafe(ctx, events.Envelope{
		ID:             uuid.New().String(),
		Type:           EventTypeContributionsMerged,
		Source:         eventSource,
		Version:        eventVersion,
		Timestamp:      time.Now().UTC(),
		IdempotencyKey: events.IdempotencyKey(wfCtx.WorkflowID, EventTypeContributionsMerged, scope),
		Scope:          scope,
		WorkflowID:     wfCtx.WorkflowID,
		RunID:          wfCtx.RunID,
		Payload:        payload,
	}, "ContributionsMerged")
}
