package evaluate

import (
	"context"

	"go.temporal.io/sdk/temporal"

	"github.com/pulseboard/contribeval/internal/domain"
	pkgactivity "github.com/pulseboard/contribeval/pkg/activity"
)

// EvaluateInput carries one reconciled contribution into the evaluate
// activity. The workflow fans out one activity per reward-eligible
// contribution.
type EvaluateInput struct {
	Contribution domain.ToMergeContribution `json:"contribution"`
	Context      domain.EvalContext         `json:"context"`
}

// EvaluateOutput pairs the contribution with its evaluation.
type EvaluateOutput struct {
	Result domain.ContributionEvaluation `json:"result"`
}

// Activities exposes the evaluate stage as a Temporal activity with event
// emission.
type Activities struct {
	pkgactivity.BaseActivities
	stage  *Stage
	events *EventEmitter
}

// NewActivities creates the evaluate activities with shared base
// infrastructure.
func NewActivities(base pkgactivity.BaseActivities, stage *Stage) *Activities {
	return &Activities{
		BaseActivities: base,
		stage:          stage,
		events:         NewEventEmitter(base),
	}
}

// EvaluateContribution runs the evaluate stage for one contribution.
// A missing grid is a configuration error and fails fast; so do score
// bound and criterion coverage violations.
func (a *Activities) EvaluateContribution(ctx context.Context, input EvaluateInput) (*EvaluateOutput, error) {
	if err := input.Contribution.Validate(); err != nil {
		return nil, nonRetryable("EvaluateContribution", err, "invalid contribution")
	}

	wfCtx := a.GetWorkflowContext(ctx)
	pkgactivity.SafeLog(ctx, "Starting EvaluateContribution activity",
		"workflow_id", wfCtx.WorkflowID,
		"activity_id", wfCtx.ActivityID,
		"contribution_id", input.Contribution.ID,
		"type", input.Contribution.Type,
		"decision", string(input.Contribution.Decision))

	stopHeartbeat := a.StartHeartbeat(ctx, "evaluating "+input.Contribution.ID)
	defer stopHeartbeat()

	eval, err := a.stage.Evaluate(ctx, input.Contribution.IsUpdate(), input.Contribution.Contribution, input.Context)
	if err != nil {
		switch {
		case domain.IsGridNotFound(err):
			return nil, nonRetryable("EvaluateContribution", err, "no grid for contribution type")
		case domain.IsAgentFailure(err):
			return nil, retryable("EvaluateContribution", err, "evaluate agent exhausted retries")
		default:
			return nil, nonRetryable("EvaluateContribution", err, "evaluation failed")
		}
	}

	result := domain.ContributionEvaluation{Contribution: input.Contribution, Evaluation: eval}
	a.events.EmitContributionEvaluated(ctx, result, wfCtx)

	pkgactivity.SafeLog(ctx, "EvaluateContribution completed",
		"workflow_id", wfCtx.WorkflowID,
		"contribution_id", input.Contribution.ID,
		"global_score", eval.GlobalScore)
	return &EvaluateOutput{Result: result}, nil
}

// retryable wraps transient failures as retryable application errors.
func retryable(tag string, cause error, msg string) error {
	return temporal.NewApplicationError(msg, tag, cause)
}

// nonRetryable wraps permanent failures so the workflow fails fast.
func nonRetryable(tag string, cause error, msg string) error {
	return temporal.NewNonRetryableApplicationError(msg, tag, cause)
}
