package domain

// ContributionReward is the deterministic point value derived from one
// evaluation. Ownership is ephemeral: the pipeline returns rewards to the
// caller and never stores them.
type ContributionReward struct {
	// ContributionID references the rewarded contribution.
	ContributionID string `json:"contribution_id" validate:"required"`

	// Title is carried along for audit readability.
	Title string `json:"title"`

	// Points is the computed contribution-point reward.
	Points int64 `json:"points" validate:"min=0"`
}

// Validate checks structural constraints.
func (r *ContributionReward) Validate() error { return validate.Struct(r) }
