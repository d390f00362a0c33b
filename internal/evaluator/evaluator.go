// Package evaluator composes the pipeline stages into a single entry
// point: identify, merge, evaluate, reward, in that order.
package evaluator

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/pulseboard/contribeval/internal/agent"
	"github.com/pulseboard/contribeval/internal/domain"
	"github.com/pulseboard/contribeval/internal/evaluate"
	"github.com/pulseboard/contribeval/internal/grid"
	"github.com/pulseboard/contribeval/internal/identify"
	"github.com/pulseboard/contribeval/internal/merge"
	"github.com/pulseboard/contribeval/internal/reward"
)

// DefaultEvaluateConcurrency bounds the evaluate fan-out when the caller
// does not configure one.
const DefaultEvaluateConcurrency = 4

// Options tunes the evaluator beyond the agent caller configuration.
type Options struct {
	// RewardPolicy parameterizes the deterministic reward computation.
	// The zero value selects reward.DefaultPolicy.
	RewardPolicy reward.Policy

	// EvaluateConcurrency bounds concurrent evaluate-agent calls during a
	// run. Zero selects DefaultEvaluateConcurrency.
	EvaluateConcurrency int
}

// AgentEvaluator orchestrates the full contribution evaluation pipeline.
// It owns no agent transport of its own; all external calls flow through
// the shared resilient caller the stages were built with.
type AgentEvaluator struct {
	identify *identify.Stage
	merge    *merge.Stage
	evaluate *evaluate.Stage
	policy   reward.Policy
	maxConc  int
	logger   *slog.Logger
}

// New assembles the evaluator from the shared agent caller and the grid
// registry.
func New(caller *agent.Caller, grids *grid.Registry, opts Options) (*AgentEvaluator, error) {
	policy := opts.RewardPolicy
	if policy == (reward.Policy{}) {
		policy = reward.DefaultPolicy()
	}
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid reward policy: %w", err)
	}

	maxConc := opts.EvaluateConcurrency
	if maxConc <= 0 {
		maxConc = DefaultEvaluateConcurrency
	}

	return &AgentEvaluator{
		identify: identify.NewStage(caller),
		merge:    merge.NewStage(caller),
		evaluate: evaluate.NewStage(caller, grids),
		policy:   policy,
		maxConc:  maxConc,
		logger:   slog.Default().With("component", "evaluator"),
	}, nil
}

// RunResult bundles the outputs of one full pipeline run. Contributions
// holds every identified contribution with its merge decision, duplicates
// included; Evaluations and Rewards cover only the reward-eligible subset.
type RunResult struct {
	Contributions []domain.ToMergeContribution    `json:"contributions"`
	Evaluations   []domain.ContributionEvaluation `json:"evaluations"`
	Rewards       []domain.ContributionReward     `json:"rewards"`
}

// Identify runs the identification stage alone.
func (e *AgentEvaluator) Identify(ctx context.Context, ec domain.EvalContext) ([]domain.Contribution, error) {
	return e.identify.Identify(ctx, ec)
}

// Merge runs the reconciliation stage alone.
func (e *AgentEvaluator) Merge(ctx context.Context, fresh []domain.Contribution, old []domain.OldContribution) ([]domain.ToMergeContribution, error) {
	return e.merge.Merge(ctx, fresh, old)
}

// Evaluate runs the scoring stage alone for a single contribution.
func (e *AgentEvaluator) Evaluate(ctx context.Context, isUpdate bool, c domain.Contribution, ec domain.EvalContext) (domain.Evaluation, error) {
	return e.evaluate.Evaluate(ctx, isUpdate, c, ec)
}

// Run executes the full pipeline for the context. Evaluations fan out
// concurrently up to the configured bound; a single failure cancels the
// remaining evaluations and fails the run, so the result is always
// complete or absent, never partial.
func (e *AgentEvaluator) Run(ctx context.Context, ec domain.EvalContext) (*RunResult, error) {
	contributions, err := e.identify.Identify(ctx, ec)
	if err != nil {
		return nil, err
	}
	if len(contributions) == 0 {
		e.logger.Info("no contributions identified", "scope", ec.Scope)
		return &RunResult{
			Contributions: []domain.ToMergeContribution{},
			Evaluations:   []domain.ContributionEvaluation{},
			Rewards:       []domain.ContributionReward{},
		}, nil
	}

	merged, err := e.merge.Merge(ctx, contributions, ec.Previous)
	if err != nil {
		return nil, err
	}

	evaluations, err := e.evaluateAll(ctx, merged, ec)
	if err != nil {
		return nil, err
	}

	rewards, err := reward.ComputeRewards(e.policy, evaluations)
	if err != nil {
		return nil, err
	}

	e.logger.Info("pipeline run completed",
		"scope", ec.Scope,
		"contributions", len(merged),
		"evaluated", len(evaluations),
		"rewarded", len(rewards),
		"total_points", reward.TotalPoints(rewards))
	return &RunResult{
		Contributions: merged,
		Evaluations:   evaluations,
		Rewards:       rewards,
	}, nil
}

// evaluateAll scores the reward-eligible contributions concurrently,
// preserving input order in the result. Duplicates carry no evaluation.
func (e *AgentEvaluator) evaluateAll(ctx context.Context, merged []domain.ToMergeContribution, ec domain.EvalContext) ([]domain.ContributionEvaluation, error) {
	eligible := make([]domain.ToMergeContribution, 0, len(merged))
	for _, c := range merged {
		if c.CountsForReward() {
			eligible = append(eligible, c)
		}
	}
	if len(eligible) == 0 {
		return []domain.ContributionEvaluation{}, nil
	}

	results := make([]domain.ContributionEvaluation, len(eligible))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxConc)

	for i, c := range eligible {
		g.Go(func() error {
			eval, err := e.evaluate.Evaluate(gctx, c.IsUpdate(), c.Contribution, ec)
			if err != nil {
				return err
			}
			results[i] = domain.ContributionEvaluation{Contribution: c, Evaluation: eval}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
