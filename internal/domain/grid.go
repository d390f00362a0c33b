package domain

import "math"

// WeightSumTolerance is the floating tolerance allowed when checking that a
// grid's criteria weights sum to 1.0.
const WeightSumTolerance = 1e-6

// ScoreScale is the upper bound of a grid's scoring convention. A grid
// declares exactly one scale; criterion scores and the global score must
// fall within [0, scale].
type ScoreScale float64

const (
	// ScaleUnit scores criteria on [0, 1].
	ScaleUnit ScoreScale = 1

	// ScaleNine scores criteria on [0, 9].
	ScaleNine ScoreScale = 9

	// ScaleHundred scores criteria on [0, 100].
	ScaleHundred ScoreScale = 100
)

// IsValid reports whether s is one of the supported scales.
func (s ScoreScale) IsValid() bool {
	switch s {
	case ScaleUnit, ScaleNine, ScaleHundred:
		return true
	}
	return false
}

// Contains reports whether v falls within [0, s].
func (s ScoreScale) Contains(v float64) bool { return v >= 0 && v <= float64(s) }

// CriterionTemplate names one rubric aspect and its weight within a grid.
type CriterionTemplate struct {
	Criterion string  `json:"criterion" validate:"required,min=1"`
	Weight    float64 `json:"weight" validate:"required,gt=0,max=1"`
}

// EvaluationGridTemplate is a named, weighted rubric of criteria used to
// score one contribution type. Grids are immutable and registered once per
// type; weights across all criteria sum to 1.0 within WeightSumTolerance.
type EvaluationGridTemplate struct {
	// Type is the contribution type this grid scores.
	Type string `json:"type" validate:"required,min=1"`

	// Criteria lists the rubric aspects and their weights.
	Criteria []CriterionTemplate `json:"criteria" validate:"required,min=1,dive"`

	// Scale declares the scoring convention for every criterion of this
	// grid. Conventions are never mixed within one grid.
	Scale ScoreScale `json:"scale"`

	// Instructions guide the evaluation agent when applying this grid.
	Instructions string `json:"instructions" validate:"required,min=1"`
}

// Validate checks structural constraints, the scale, and the weight sum
// invariant.
func (g *EvaluationGridTemplate) Validate() error {
	if err := validate.Struct(g); err != nil {
		return err
	}
	if !g.Scale.IsValid() {
		return ErrInvalidScale
	}
	var sum float64
	for _, c := range g.Criteria {
		sum += c.Weight
	}
	if math.Abs(sum-1.0) > WeightSumTolerance {
		return ErrWeightSum
	}
	return nil
}

// WeightFor returns the weight of the named criterion and whether the grid
// defines it.
func (g *EvaluationGridTemplate) WeightFor(criterion string) (float64, bool) {
	for _, c := range g.Criteria {
		if c.Criterion == criterion {
			return c.Weight, true
		}
	}
	return 0, false
}

// CriterionNames returns the grid's criteria in declaration order.
func (g *EvaluationGridTemplate) CriterionNames() []string {
	names := make([]string, len(g.Criteria))
	for i, c := range g.Criteria {
		names[i] = c.Criterion
	}
	return names
}
