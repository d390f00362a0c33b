package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/pulseboard/contribeval/internal/agent"
	"github.com/pulseboard/contribeval/internal/agent/retry"
	"github.com/pulseboard/contribeval/internal/domain"
	"github.com/pulseboard/contribeval/internal/evaluate"
	"github.com/pulseboard/contribeval/internal/grid"
	"github.com/pulseboard/contribeval/internal/identify"
	"github.com/pulseboard/contribeval/internal/merge"
	"github.com/pulseboard/contribeval/pkg/activity"
	"github.com/pulseboard/contribeval/pkg/events"
)

// scriptedRunner drives the real stage activities inside the workflow
// test environment.
type scriptedRunner struct {
	identifyRaw string
	identifyErr error
	evaluateRaw string
	evaluateErr error
}

func (r *scriptedRunner) RunIdentifyAgent(context.Context, domain.EvalContext) (string, error) {
	return r.identifyRaw, r.identifyErr
}

func (r *scriptedRunner) RunMergeAgent(_ context.Context, fresh []domain.Contribution, _ []domain.OldContribution) (string, error) {
	type decision struct {
		ContributionID string `json:"contribution_id"`
		Decision       string `json:"decision"`
	}
	decisions := make([]decision, 0, len(fresh))
	for _, c := range fresh {
		decisions = append(decisions, decision{ContributionID: c.ID, Decision: "new"})
	}
	raw, err := json.Marshal(map[string]any{"decisions": decisions})
	return string(raw), err
}

func (r *scriptedRunner) RunEvaluateAgent(
	context.Context, bool, domain.Contribution, domain.EvaluationGridTemplate, domain.EvalContext,
) (string, error) {
	return r.evaluateRaw, r.evaluateErr
}

const identifyOneRaw = `{"contributions":[
	{"title":"Fix bug","type":"code",
	 "period":{"start":"2026-01-10T00:00:00Z","end":"2026-01-12T00:00:00Z"}}
]}`

const codeScoresRaw = `{"scores":[
	{"criterion":"qualité","score":80},
	{"criterion":"impact","score":90},
	{"criterion":"complexité","score":70},
	{"criterion":"architecture","score":60}
],"summary":"Solid fix."}`

func registerPipeline(t *testing.T, env *testsuite.TestWorkflowEnvironment, runner *scriptedRunner) {
	t.Helper()
	caller, err := agent.NewCaller(runner, &agent.Config{
		Retry: retry.Config{MaxAttempts: 2, Delay: time.Millisecond, AttemptTimeout: time.Second},
	})
	require.NoError(t, err)

	registry := grid.NewRegistry()
	require.NoError(t, grid.RegisterBuiltins(registry))

	base := activity.NewBaseActivities(events.NewNoOpEventSink())

	env.RegisterWorkflow(ContributionEvaluationWorkflow)
	env.RegisterActivity(identify.NewActivities(base, identify.NewStage(caller)).IdentifyContributions)
	env.RegisterActivity(merge.NewActivities(base, merge.NewStage(caller)).MergeContributions)
	env.RegisterActivity(evaluate.NewActivities(base, evaluate.NewStage(caller, registry)).EvaluateContribution)
}

func validInput(t *testing.T) EvaluationInput {
	t.Helper()
	window, err := domain.NewPeriod(
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	return EvaluationInput{
		Context: domain.EvalContext{
			Scope:  "member-42",
			Window: window,
			Source: "commit log and PR summaries",
		},
	}
}

func TestContributionEvaluationWorkflow(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}

	t.Run("completes the full pipeline", func(t *testing.T) {
		env := testSuite.NewTestWorkflowEnvironment()
		registerPipeline(t, env, &scriptedRunner{identifyRaw: identifyOneRaw, evaluateRaw: codeScoresRaw})

		env.ExecuteWorkflow(ContributionEvaluationWorkflow, validInput(t))
		require.True(t, env.IsWorkflowCompleted())
		require.NoError(t, env.GetWorkflowError())

		var result EvaluationResult
		require.NoError(t, env.GetWorkflowResult(&result))

		require.Len(t, result.Contributions, 1)
		assert.Equal(t, domain.DecisionNew, result.Contributions[0].Decision)
		require.Len(t, result.Evaluations, 1)
		assert.InDelta(t, 76.0, result.Evaluations[0].Evaluation.GlobalScore, 1e-9)
		require.Len(t, result.Rewards, 1)
		assert.Equal(t, int64(76), result.Rewards[0].Points)
		assert.Equal(t, int64(76), result.TotalPoints)
	})

	t.Run("empty identification short-circuits", func(t *testing.T) {
		env := testSuite.NewTestWorkflowEnvironment()
		registerPipeline(t, env, &scriptedRunner{identifyRaw: `{"contributions":[]}`})

		env.ExecuteWorkflow(ContributionEvaluationWorkflow, validInput(t))
		require.True(t, env.IsWorkflowCompleted())
		require.NoError(t, env.GetWorkflowError())

		var result EvaluationResult
		require.NoError(t, env.GetWorkflowResult(&result))
		assert.Empty(t, result.Contributions)
		assert.Empty(t, result.Rewards)
		assert.Zero(t, result.TotalPoints)
	})

	t.Run("invalid context fails validation before any activity", func(t *testing.T) {
		env := testSuite.NewTestWorkflowEnvironment()
		registerPipeline(t, env, &scriptedRunner{identifyRaw: identifyOneRaw, evaluateRaw: codeScoresRaw})

		env.ExecuteWorkflow(ContributionEvaluationWorkflow, EvaluationInput{})
		require.True(t, env.IsWorkflowCompleted())

		err := env.GetWorkflowError()
		require.Error(t, err)

		var appErr *temporal.ApplicationError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "Validation", appErr.Type())
		assert.True(t, appErr.NonRetryable())
	})

	t.Run("identify agent exhaustion fails the workflow", func(t *testing.T) {
		env := testSuite.NewTestWorkflowEnvironment()
		registerPipeline(t, env, &scriptedRunner{identifyErr: errors.New("agent down")})

		env.ExecuteWorkflow(ContributionEvaluationWorkflow, validInput(t))
		require.True(t, env.IsWorkflowCompleted())

		err := env.GetWorkflowError()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "identify agent exhausted retries")
	})

	t.Run("unknown grid type fails fast", func(t *testing.T) {
		raw := `{"contributions":[
			{"title":"Sculpture","type":"sculpture",
			 "period":{"start":"2026-01-10T00:00:00Z","end":"2026-01-12T00:00:00Z"}}
		]}`
		env := testSuite.NewTestWorkflowEnvironment()
		registerPipeline(t, env, &scriptedRunner{identifyRaw: raw, evaluateRaw: codeScoresRaw})

		env.ExecuteWorkflow(ContributionEvaluationWorkflow, validInput(t))
		require.True(t, env.IsWorkflowCompleted())

		err := env.GetWorkflowError()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no grid for contribution type")
	})
}
