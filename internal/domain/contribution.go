// Package domain provides the core value objects for the contribution
// evaluation pipeline: periods, contributions, evaluation grids, criterion
// scores, and rewards. All types are immutable once produced by a pipeline
// stage; stages hand fresh values to their successors and never mutate
// inputs.
package domain

import (
	"github.com/google/uuid"
)

// Contribution is a unit of identified project activity within a time
// period, pending evaluation. Type is an open string key that selects the
// scoring grid; an unknown type is an error at evaluation time, not at
// identification time.
type Contribution struct {
	// ID uniquely identifies this contribution within the pipeline run.
	ID string `json:"id" validate:"required"`

	// Title is a short human-readable summary of the activity.
	Title string `json:"title" validate:"required,min=1"`

	// Type selects the evaluation grid (e.g. "code", "docs", "dataset", "model").
	Type string `json:"type" validate:"required,min=1"`

	// Description optionally expands on what was done.
	Description string `json:"description,omitempty"`

	// Tags optionally label the contribution for downstream filtering.
	Tags []string `json:"tags,omitempty"`

	// Period is the temporal scope the activity is attributed to.
	Period Period `json:"period" validate:"required"`
}

// NewContribution creates a contribution with a generated UUID.
// Not safe inside Temporal workflow code; use MakeContribution there.
func NewContribution(title, typ, description string, tags []string, period Period) (Contribution, error) {
	return MakeContribution(uuid.New().String(), title, typ, description, tags, period)
}

// MakeContribution creates a contribution with a caller-provided ID,
// suitable for deterministic contexts.
func MakeContribution(id, title, typ, description string, tags []string, period Period) (Contribution, error) {
	c := Contribution{
		ID:          id,
		Title:       title,
		Type:        typ,
		Description: description,
		Tags:        cloneStrings(tags),
		Period:      period,
	}
	if err := c.Validate(); err != nil {
		return Contribution{}, err
	}
	return c, nil
}

// Validate checks structural constraints and the period invariant.
func (c *Contribution) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	return c.Period.Validate()
}

// OldContribution is a previously persisted contribution. The pipeline
// treats it as opaque beyond identity, period, and enough content for the
// merge agent to reason about overlap.
type OldContribution struct {
	ID          string `json:"id" validate:"required"`
	Title       string `json:"title" validate:"required,min=1"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
	Period      Period `json:"period" validate:"required"`
}

// Validate checks structural constraints and the period invariant.
func (o *OldContribution) Validate() error {
	if err := validate.Struct(o); err != nil {
		return err
	}
	return o.Period.Validate()
}

// MergeDecision classifies a freshly identified contribution relative to
// previously recorded ones.
type MergeDecision string

const (
	// DecisionNew marks a contribution with no substantial match among the
	// old contributions; it earns a full reward.
	DecisionNew MergeDecision = "new"

	// DecisionUpdate marks a contribution that extends an existing one; it
	// earns a reward delta, not a full reward.
	DecisionUpdate MergeDecision = "update"

	// DecisionDuplicate marks a contribution indistinguishable from already
	// recorded work; it is kept for the audit trail but excluded from
	// reward computation.
	DecisionDuplicate MergeDecision = "duplicate"
)

// IsValid reports whether d is one of the defined decisions.
func (d MergeDecision) IsValid() bool {
	switch d {
	case DecisionNew, DecisionUpdate, DecisionDuplicate:
		return true
	}
	return false
}

// ToMergeContribution is a contribution annotated with a merge decision.
// Produced only by the merge stage; consumed by the evaluate stage and the
// reward calculator.
type ToMergeContribution struct {
	Contribution

	// Decision is the merge classification for this contribution.
	Decision MergeDecision `json:"decision" validate:"required,oneof=new update duplicate"`

	// UpdatesID references the old contribution this one extends or
	// duplicates. Empty for new contributions.
	UpdatesID string `json:"updates_id,omitempty"`
}

// Validate checks the embedded contribution and the decision annotation.
// Updates and duplicates must reference the old contribution they affect.
func (t *ToMergeContribution) Validate() error {
	if err := t.Contribution.Validate(); err != nil {
		return err
	}
	if !t.Decision.IsValid() {
		return ErrInvalidDecision
	}
	if t.Decision != DecisionNew && t.UpdatesID == "" {
		return ErrMissingOldRef
	}
	return nil
}

// CountsForReward reports whether this contribution participates in reward
// computation. Duplicates are marked, never removed, so callers retain an
// audit trail without double-rewarding.
func (t *ToMergeContribution) CountsForReward() bool {
	return t.Decision != DecisionDuplicate
}

// IsUpdate reports whether the evaluate stage should score the incremental
// delta rather than the whole contribution.
func (t *ToMergeContribution) IsUpdate() bool { return t.Decision == DecisionUpdate }

// cloneStrings returns a copy of s, or nil for nil input.
func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
