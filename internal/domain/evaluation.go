package domain

// CriterionScore holds one scored rubric aspect of an evaluation. Score is
// bounded by the grid's scale; Weight is copied from the grid template, not
// taken from the agent.
type CriterionScore struct {
	Criterion string  `json:"criterion" validate:"required,min=1"`
	Score     float64 `json:"score" validate:"min=0"`
	Weight    float64 `json:"weight" validate:"required,gt=0,max=1"`
	Comment   string  `json:"comment,omitempty"`
}

// Evaluation is the scored outcome of applying a grid to a contribution.
// GlobalScore is the weighted sum of criterion scores and lies within the
// grid's declared scale bound.
type Evaluation struct {
	// GridType records which grid produced this evaluation.
	GridType string `json:"grid_type" validate:"required,min=1"`

	// Scale is the grid's declared score bound, carried along so the
	// reward calculator can normalize without a registry lookup.
	Scale ScoreScale `json:"scale"`

	// Scores holds one entry per grid criterion.
	Scores []CriterionScore `json:"scores" validate:"required,min=1,dive"`

	// GlobalScore is Σ(score·weight) across all criterion scores.
	GlobalScore float64 `json:"global_score"`

	// Summary optionally carries the agent's overall assessment.
	Summary string `json:"summary,omitempty"`
}

// ComputeGlobalScore returns the weighted sum of the criterion scores.
func ComputeGlobalScore(scores []CriterionScore) float64 {
	var sum float64
	for _, s := range scores {
		sum += s.Score * s.Weight
	}
	return sum
}

// NewEvaluation assembles an evaluation for the given grid, computing the
// global score and enforcing the scale bound on every criterion score and
// on the weighted total. Scores must cover the grid's criteria exactly.
func NewEvaluation(grid EvaluationGridTemplate, scores []CriterionScore, summary string) (Evaluation, error) {
	if len(scores) != len(grid.Criteria) {
		return Evaluation{}, ErrCriterionMismatch
	}
	for _, s := range scores {
		if _, ok := grid.WeightFor(s.Criterion); !ok {
			return Evaluation{}, ErrCriterionMismatch
		}
		if !grid.Scale.Contains(s.Score) {
			return Evaluation{}, &InvalidScoreError{GridType: grid.Type, Value: s.Score, Max: float64(grid.Scale)}
		}
	}

	global := ComputeGlobalScore(scores)
	if !grid.Scale.Contains(global) {
		return Evaluation{}, &InvalidScoreError{GridType: grid.Type, Value: global, Max: float64(grid.Scale)}
	}

	e := Evaluation{
		GridType:    grid.Type,
		Scale:       grid.Scale,
		Scores:      scores,
		GlobalScore: global,
		Summary:     summary,
	}
	if err := e.Validate(); err != nil {
		return Evaluation{}, err
	}
	return e, nil
}

// Validate checks structural constraints and the global score bound.
func (e *Evaluation) Validate() error {
	if err := validate.Struct(e); err != nil {
		return err
	}
	if !e.Scale.IsValid() {
		return ErrInvalidScale
	}
	if !e.Scale.Contains(e.GlobalScore) {
		return &InvalidScoreError{GridType: e.GridType, Value: e.GlobalScore, Max: float64(e.Scale)}
	}
	return nil
}

// Normalized returns the global score mapped onto [0, 1].
func (e *Evaluation) Normalized() float64 {
	return e.GlobalScore / float64(e.Scale)
}

// ContributionEvaluation pairs a reconciled contribution with its
// evaluation; the unit the reward calculator consumes.
type ContributionEvaluation struct {
	Contribution ToMergeContribution `json:"contribution"`
	Evaluation   Evaluation          `json:"evaluation"`
}
