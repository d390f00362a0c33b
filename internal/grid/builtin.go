package grid

import "github.com/pulseboard/contribeval/internal/domain"

// Builtins returns the reference grid set: code, docs, dataset, and model.
// Each call returns fresh copies so callers cannot mutate shared state.
func Builtins() []domain.EvaluationGridTemplate {
	return []domain.EvaluationGridTemplate{
		{
			Type:  "code",
			Scale: domain.ScaleHundred,
			Criteria: []domain.CriterionTemplate{
				{Criterion: "qualité", Weight: 0.2},
				{Criterion: "impact", Weight: 0.3},
				{Criterion: "complexité", Weight: 0.3},
				{Criterion: "architecture", Weight: 0.2},
			},
			Instructions: "Score the code contribution on each criterion from 0 to 100. " +
				"Judge quality from readability and test coverage, impact from the scope " +
				"of the change, complexity from the difficulty of the problem solved, and " +
				"architecture from how well the change fits the existing design.",
		},
		{
			Type:  "docs",
			Scale: domain.ScaleNine,
			Criteria: []domain.CriterionTemplate{
				{Criterion: "clarté", Weight: 0.35},
				{Criterion: "exactitude", Weight: 0.35},
				{Criterion: "complétude", Weight: 0.2},
				{Criterion: "structure", Weight: 0.1},
			},
			Instructions: "Score the documentation contribution on each criterion from 0 to 9. " +
				"Weigh clarity and technical accuracy most heavily; completeness and document " +
				"structure refine the score.",
		},
		{
			Type:  "dataset",
			Scale: domain.ScaleUnit,
			Criteria: []domain.CriterionTemplate{
				{Criterion: "qualité", Weight: 0.4},
				{Criterion: "couverture", Weight: 0.3},
				{Criterion: "documentation", Weight: 0.3},
			},
			Instructions: "Score the dataset contribution on each criterion from 0 to 1. " +
				"Quality covers labeling accuracy and consistency, coverage the breadth of " +
				"cases represented, documentation the usability of the accompanying notes.",
		},
		{
			Type:  "model",
			Scale: domain.ScaleHundred,
			Criteria: []domain.CriterionTemplate{
				{Criterion: "performance", Weight: 0.4},
				{Criterion: "reproductibilité", Weight: 0.3},
				{Criterion: "originalité", Weight: 0.2},
				{Criterion: "documentation", Weight: 0.1},
			},
			Instructions: "Score the model contribution on each criterion from 0 to 100. " +
				"Performance against the stated benchmark dominates; reproducibility of the " +
				"training run, novelty of the approach, and documentation complete the rubric.",
		},
	}
}

// RegisterBuiltins registers the reference grid set on the registry.
// This is startup configuration, not a pipeline invariant.
func RegisterBuiltins(r *Registry) error {
	for _, g := range Builtins() {
		if err := r.Register(g); err != nil {
			return err
		}
	}
	return nil
}
