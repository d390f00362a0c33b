package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvaluation(t *testing.T) {
	grid := codeGrid()

	t.Run("computes weighted global score", func(t *testing.T) {
		scores := []CriterionScore{
			{Criterion: "qualité", Score: 80, Weight: 0.2},
			{Criterion: "impact", Score: 90, Weight: 0.3},
			{Criterion: "complexité", Score: 70, Weight: 0.3},
			{Criterion: "architecture", Score: 60, Weight: 0.2},
		}
		eval, err := NewEvaluation(grid, scores, "Solid fix.")
		require.NoError(t, err)

		assert.InDelta(t, 76.0, eval.GlobalScore, 1e-9)
		assert.Equal(t, "code", eval.GridType)
		assert.Equal(t, ScaleHundred, eval.Scale)
		assert.InDelta(t, 0.76, eval.Normalized(), 1e-9)
	})

	t.Run("rejects missing criterion", func(t *testing.T) {
		scores := []CriterionScore{
			{Criterion: "qualité", Score: 80, Weight: 0.2},
			{Criterion: "impact", Score: 90, Weight: 0.3},
			{Criterion: "complexité", Score: 70, Weight: 0.3},
		}
		_, err := NewEvaluation(grid, scores, "")
		assert.ErrorIs(t, err, ErrCriterionMismatch)
	})

	t.Run("rejects unknown criterion", func(t *testing.T) {
		scores := []CriterionScore{
			{Criterion: "qualité", Score: 80, Weight: 0.2},
			{Criterion: "impact", Score: 90, Weight: 0.3},
			{Criterion: "complexité", Score: 70, Weight: 0.3},
			{Criterion: "vitesse", Score: 60, Weight: 0.2},
		}
		_, err := NewEvaluation(grid, scores, "")
		assert.ErrorIs(t, err, ErrCriterionMismatch)
	})

	t.Run("rejects score above scale", func(t *testing.T) {
		scores := []CriterionScore{
			{Criterion: "qualité", Score: 120, Weight: 0.2},
			{Criterion: "impact", Score: 90, Weight: 0.3},
			{Criterion: "complexité", Score: 70, Weight: 0.3},
			{Criterion: "architecture", Score: 60, Weight: 0.2},
		}
		_, err := NewEvaluation(grid, scores, "")
		require.True(t, IsInvalidScore(err))

		var ise *InvalidScoreError
		require.ErrorAs(t, err, &ise)
		assert.Equal(t, "code", ise.GridType)
		assert.Equal(t, 120.0, ise.Value)
	})

	t.Run("boundary scores are valid", func(t *testing.T) {
		scores := []CriterionScore{
			{Criterion: "qualité", Score: 0, Weight: 0.2},
			{Criterion: "impact", Score: 100, Weight: 0.3},
			{Criterion: "complexité", Score: 100, Weight: 0.3},
			{Criterion: "architecture", Score: 0, Weight: 0.2},
		}
		eval, err := NewEvaluation(grid, scores, "")
		require.NoError(t, err)
		assert.InDelta(t, 60.0, eval.GlobalScore, 1e-9)
	})
}

func TestComputeGlobalScore(t *testing.T) {
	assert.Zero(t, ComputeGlobalScore(nil))
	assert.InDelta(t, 7.5, ComputeGlobalScore([]CriterionScore{
		{Score: 9, Weight: 0.5},
		{Score: 6, Weight: 0.5},
	}), 1e-9)
}

func TestErrorMessages(t *testing.T) {
	t.Run("grid not found names the type", func(t *testing.T) {
		err := &GridNotFoundError{Type: "unknown"}
		assert.Equal(t, `[EvaluationGridRegistry] No grid found for type: "unknown"`, err.Error())
	})

	t.Run("agent failure names stage and attempts", func(t *testing.T) {
		err := &AgentFailureError{Stage: "Evaluate", Attempts: 3, Cause: assert.AnError}
		assert.Contains(t, err.Error(), "[Evaluate]")
		assert.Contains(t, err.Error(), "3 attempts")
		assert.ErrorIs(t, err, assert.AnError)
	})
}
