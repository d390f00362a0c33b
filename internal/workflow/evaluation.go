package workflow

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/pulseboard/contribeval/internal/domain"
	"github.com/pulseboard/contribeval/internal/evaluate"
	"github.com/pulseboard/contribeval/internal/identify"
	"github.com/pulseboard/contribeval/internal/merge"
	"github.com/pulseboard/contribeval/internal/reward"
)

// Registered activity names. RegisterActivity derives these from the
// method names on each stage's Activities struct.
const (
	IdentifyActivityName = "IdentifyContributions"
	MergeActivityName    = "MergeContributions"
	EvaluateActivityName = "EvaluateContribution"
)

// DefaultActivityTimeout bounds a single activity attempt, covering the
// stage's full agent retry budget.
const DefaultActivityTimeout = 5 * time.Minute

// EvaluationInput parameterizes one pipeline run.
type EvaluationInput struct {
	// Context is the evaluation context handed to the stages.
	Context domain.EvalContext `json:"context"`

	// RewardPolicy parameterizes the deterministic reward computation.
	// The zero value selects reward.DefaultPolicy.
	RewardPolicy reward.Policy `json:"reward_policy"`
}

// EvaluationResult bundles the outputs of one workflow run. Contributions
// holds every identified contribution with its merge decision, duplicates
// included; Evaluations and Rewards cover only the reward-eligible subset.
type EvaluationResult struct {
	Contributions []domain.ToMergeContribution    `json:"contributions"`
	Evaluations   []domain.ContributionEvaluation `json:"evaluations"`
	Rewards       []domain.ContributionReward     `json:"rewards"`
	TotalPoints   int64                           `json:"total_points"`
}

// ContributionEvaluationWorkflow orchestrates identify, merge, evaluate,
// and reward for one evaluation context. Evaluate activities fan out
// concurrently, one per reward-eligible contribution; a single evaluation
// failure fails the run, so the result is complete or absent, never
// partial.
func ContributionEvaluationWorkflow(ctx workflow.Context, input EvaluationInput) (*EvaluationResult, error) {
	const currentVersion = 1
	_ = workflow.GetVersion(ctx, "contribution-evaluation.v", workflow.DefaultVersion, currentVersion)

	if err := input.Context.Validate(); err != nil {
		return nil, temporal.NewNonRetryableApplicationError("invalid evaluation context", "Validation", err)
	}

	policy := input.RewardPolicy
	if policy == (reward.Policy{}) {
		policy = reward.DefaultPolicy()
	}
	if err := policy.Validate(); err != nil {
		return nil, temporal.NewNonRetryableApplicationError("invalid reward policy", "Validation", err)
	}

	// Agent retries live inside the activities; a second Temporal attempt
	// would multiply the retry budget, so activities run once. The
	// heartbeat timeout relies on the stage activities heartbeating on a
	// ticker (BaseActivities.StartHeartbeat) while the agent call runs.
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: DefaultActivityTimeout,
		HeartbeatTimeout:    30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)
	logger := workflow.GetLogger(ctx)

	var identified identify.IdentifyOutput
	err := workflow.ExecuteActivity(ctx, IdentifyActivityName, identify.IdentifyInput{
		Context: input.Context,
	}).Get(ctx, &identified)
	if err != nil {
		return nil, err
	}
	if len(identified.Contributions) == 0 {
		logger.Info("no contributions identified", "scope", input.Context.Scope)
		return emptyResult(), nil
	}

	var merged merge.MergeOutput
	err = workflow.ExecuteActivity(ctx, MergeActivityName, merge.MergeInput{
		Scope: input.Context.Scope,
		Fresh: identified.Contributions,
		Old:   input.Context.Previous,
	}).Get(ctx, &merged)
	if err != nil {
		return nil, err
	}

	evaluations, err := evaluateAll(ctx, merged.Contributions, input.Context)
	if err != nil {
		return nil, err
	}

	rewards, err := reward.ComputeRewards(policy, evaluations)
	if err != nil {
		return nil, temporal.NewNonRetryableApplicationError("reward computation failed", "Reward", err)
	}

	logger.Info("evaluation run completed",
		"scope", input.Context.Scope,
		"contributions", len(merged.Contributions),
		"evaluated", len(evaluations),
		"rewarded", len(rewards))
	return &EvaluationResult{
		Contributions: merged.Contributions,
		Evaluations:   evaluations,
		Rewards:       rewards,
		TotalPoints:   reward.TotalPoints(rewards),
	}, nil
}

// evaluateAll fans out one evaluate activity per reward-eligible
// contribution and collects the results in input order. Duplicates carry
// no evaluation.
func evaluateAll(
	ctx workflow.Context,
	merged []domain.ToMergeContribution,
	ec domain.EvalContext,
) ([]domain.ContributionEvaluation, error) {
	futures := make([]workflow.Future, 0, len(merged))
	for _, c := range merged {
		if !c.CountsForReward() {
			continue
		}
		futures = append(futures, workflow.ExecuteActivity(ctx, EvaluateActivityName, evaluate.EvaluateInput{
			Contribution: c,
			Context:      ec,
		}))
	}

	evaluations := make([]domain.ContributionEvaluation, 0, len(futures))
	for _, f := range futures {
		var out evaluate.EvaluateOutput
		if err := f.Get(ctx, &out); err != nil {
			return nil, err
		}
		evaluations = append(evaluations, out.Result)
	}
	return evaluations, nil
}

func emptyResult() *EvaluationResult {
	return &EvaluationResult{
		Contributions: []domain.ToMergeContribution{},
		Evaluations:   []domain.ContributionEvaluation{},
		Rewards:       []domain.ContributionReward{},
	}
}
