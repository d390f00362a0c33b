package merge

import (
	"context"

	"go.temporal.io/sdk/temporal"

	"github.com/pulseboard/contribeval/internal/domain"
	pkgactivity "github.com/pulseboard/contribeval/pkg/activity"
)

// MergeInput carries the identified contributions and the scope's history
// into the merge activity.
type MergeInput struct {
	Scope string                   `json:"scope"`
	Fresh []domain.Contribution    `json:"fresh"`
	Old   []domain.OldContribution `json:"old,omitempty"`
}

// MergeOutput carries the reconciled contributions back to the workflow,
// one entry per input contribution, duplicates included.
type MergeOutput struct {
	Contributions []domain.ToMergeContribution `json:"contributions"`
}

// Activities exposes the merge stage as a Temporal activity with event
// emission.
type Activities struct {
	pkgactivity.BaseActivities
	stage  *Stage
	events *EventEmitter
}

// NewActivities creates the merge activities with shared base
// infrastructure.
func NewActivities(base pkgactivity.BaseActivities, stage *Stage) *Activities {
	return &Activities{
		BaseActivities: base,
		stage:          stage,
		events:         NewEventEmitter(base),
	}
}

// MergeContributions runs the merge stage within a workflow. Reconciliation
// errors (invalid decisions, dangling references) are non-retryable: the
// same agent response would fail again.
func (a *Activities) MergeContributions(ctx context.Context, input MergeInput) (*MergeOutput, error) {
	wfCtx := a.GetWorkflowContext(ctx)
	pkgactivity.SafeLog(ctx, "Starting MergeContributions activity",
		"workflow_id", wfCtx.WorkflowID,
		"activity_id", wfCtx.ActivityID,
		"fresh", len(input.Fresh),
		"old", len(input.Old))

	stopHeartbeat := a.StartHeartbeat(ctx, "reconciling contributions")
	defer stopHeartbeat()

	merged, err := a.stage.Merge(ctx, input.Fresh, input.Old)
	if err != nil {
		if domain.IsAgentFailure(err) {
			return nil, retryable("MergeContributions", err, "merge agent exhausted retries")
		}
		return nil, nonRetryable("MergeContributions", err, "reconciliation failed")
	}

	a.events.EmitContributionsMerged(ctx, input.Scope, merged, wfCtx)

	pkgactivity.SafeLog(ctx, "MergeContributions completed",
		"workflow_id", wfCtx.WorkflowID,
		"reconciled", len(merged))
	return &MergeOutput{Contributions: merged}, nil
}

// retryable wraps transient failures as retryable application errors.
func retryable(tag string, cause error, msg string) error {
	return temporal.NewApplicationError(msg, tag, cause)
}

// nonRetryable wraps permanent failures so the workflow fails fast.
func nonRetryable(tag string, cause error, msg string) error {
	return temporal.NewNonRetryableApplicationError(msg, tag, cause)
}
