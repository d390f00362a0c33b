package identify

import (
	"context"

	"go.temporal.io/sdk/temporal"

	"github.com/pulseboard/contribeval/internal/domain"
	pkgactivity "github.com/pulseboard/contribeval/pkg/activity"
)

// IdentifyInput carries the pipeline context into the identify activity.
type IdentifyInput struct {
	Context domain.EvalContext `json:"context"`
}

// IdentifyOutput carries the identified candidate contributions back to the
// workflow. An empty list is a valid outcome.
type IdentifyOutput struct {
	Contributions []domain.Contribution `json:"contributions"`
}

// Activities exposes the identify stage as a Temporal activity with event
// emission. Agent-level retries are owned by the stage's caller middleware;
// the workflow runs this activity with a single attempt.
type Activities struct {
	pkgactivity.BaseActivities
	stage  *Stage
	events *EventEmitter
}

// NewActivities creates the identify activities with shared base
// infrastructure.
func NewActivities(base pkgactivity.BaseActivities, stage *Stage) *Activities {
	return &Activities{
		BaseActivities: base,
		stage:          stage,
		events:         NewEventEmitter(base),
	}
}

// IdentifyContributions runs the identify stage within a workflow.
// Validation failures are non-retryable; exhausted agent retries surface as
// application errors the workflow's retry policy decides on.
func (a *Activities) IdentifyContributions(ctx context.Context, input IdentifyInput) (*IdentifyOutput, error) {
	if err := input.Context.Validate(); err != nil {
		return nil, nonRetryable("IdentifyContributions", err, "invalid context")
	}

	wfCtx := a.GetWorkflowContext(ctx)
	pkgactivity.SafeLog(ctx, "Starting IdentifyContributions activity",
		"workflow_id", wfCtx.WorkflowID,
		"activity_id", wfCtx.ActivityID,
		"scope", input.Context.Scope)

	stopHeartbeat := a.StartHeartbeat(ctx, "identifying contributions")
	defer stopHeartbeat()

	contributions, err := a.stage.Identify(ctx, input.Context)
	if err != nil {
		if domain.IsAgentFailure(err) {
			return nil, retryable("IdentifyContributions", err, "identify agent exhausted retries")
		}
		return nil, nonRetryable("IdentifyContributions", err, "identification failed")
	}

	a.events.EmitContributionsIdentified(ctx, input.Context, contributions, wfCtx)

	pkgactivity.SafeLog(ctx, "IdentifyContributions completed",
		"workflow_id", wfCtx.WorkflowID,
		"identified", len(contributions))
	return &IdentifyOutput{Contributions: contributions}, nil
}

// retryable wraps transient failures as retryable application errors.
func retryable(tag string, cause error, msg string) error {
	return temporal.NewApplicationError(msg, tag, cause)
}

// nonRetryable wraps permanent failures so the workflow fails fast.
func nonRetryable(tag string, cause error, msg string) error {
	return temporal.NewNonRetryableApplicationError(msg, tag, cause)
}
