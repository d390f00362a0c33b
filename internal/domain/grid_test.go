package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func codeGrid() EvaluationGridTemplate {
	return EvaluationGridTemplate{
		Type: "code",
		Criteria: []CriterionTemplate{
			{Criterion: "qualité", Weight: 0.2},
			{Criterion: "impact", Weight: 0.3},
			{Criterion: "complexité", Weight: 0.3},
			{Criterion: "architecture", Weight: 0.2},
		},
		Scale:        ScaleHundred,
		Instructions: "Score the contribution against each criterion.",
	}
}

func TestEvaluationGridTemplate_Validate(t *testing.T) {
	t.Run("valid grid", func(t *testing.T) {
		g := codeGrid()
		assert.NoError(t, g.Validate())
	})

	t.Run("weights must sum to one", func(t *testing.T) {
		g := codeGrid()
		g.Criteria[0].Weight = 0.25
		assert.ErrorIs(t, g.Validate(), ErrWeightSum)
	})

	t.Run("tolerates floating error within bound", func(t *testing.T) {
		g := EvaluationGridTemplate{
			Type: "thirds",
			Criteria: []CriterionTemplate{
				{Criterion: "a", Weight: 1.0 / 3.0},
				{Criterion: "b", Weight: 1.0 / 3.0},
				{Criterion: "c", Weight: 1.0 / 3.0},
			},
			Scale:        ScaleUnit,
			Instructions: "Thirds.",
		}
		assert.NoError(t, g.Validate())
	})

	t.Run("rejects unsupported scale", func(t *testing.T) {
		g := codeGrid()
		g.Scale = ScoreScale(10)
		assert.ErrorIs(t, g.Validate(), ErrInvalidScale)
	})

	t.Run("rejects empty criteria", func(t *testing.T) {
		g := codeGrid()
		g.Criteria = nil
		assert.Error(t, g.Validate())
	})

	t.Run("rejects missing instructions", func(t *testing.T) {
		g := codeGrid()
		g.Instructions = ""
		assert.Error(t, g.Validate())
	})
}

func TestEvaluationGridTemplate_WeightFor(t *testing.T) {
	g := codeGrid()

	w, ok := g.WeightFor("impact")
	require.True(t, ok)
	assert.InDelta(t, 0.3, w, 1e-12)

	_, ok = g.WeightFor("vitesse")
	assert.False(t, ok)
}

func TestScoreScale_Contains(t *testing.T) {
	assert.True(t, ScaleHundred.Contains(0))
	assert.True(t, ScaleHundred.Contains(100))
	assert.False(t, ScaleHundred.Contains(100.01))
	assert.False(t, ScaleHundred.Contains(-0.01))
	assert.True(t, ScaleNine.Contains(9))
	assert.False(t, ScaleNine.Contains(9.5))
}
