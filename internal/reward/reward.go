// Package reward converts evaluations into reward points. The computation
// is pure and deterministic: no agent calls, no clocks, no randomness, so
// it can run directly inside workflow code.
package reward

import (
	"errors"
	"fmt"
	"math"

	"github.com/pulseboard/contribeval/internal/domain"
)

// Rounding selects how fractional point totals map to integers.
type Rounding string

const (
	RoundNearest Rounding = "nearest"
	RoundDown    Rounding = "down"
	RoundUp      Rounding = "up"
)

// IsValid reports whether r is one of the defined rounding modes.
func (r Rounding) IsValid() bool {
	switch r {
	case RoundNearest, RoundDown, RoundUp:
		return true
	}
	return false
}

// Policy errors.
var (
	ErrBasePoints   = errors.New("base points must be positive")
	ErrUpdateFactor = errors.New("update factor must be in (0, 1]")
	ErrMaxPoints    = errors.New("max points must not be negative")
	ErrRounding     = errors.New("unsupported rounding mode")
)

// Policy holds the reward computation parameters. The zero value is not
// usable; start from DefaultPolicy.
type Policy struct {
	// BasePoints is the reward for a perfect-score new contribution.
	BasePoints float64 `json:"base_points"`

	// UpdateFactor scales the reward of update contributions, reflecting
	// that only the incremental delta was scored.
	UpdateFactor float64 `json:"update_factor"`

	// MaxPoints caps the per-contribution reward. Zero means uncapped.
	MaxPoints int64 `json:"max_points"`

	// Rounding selects the integer conversion mode.
	Rounding Rounding `json:"rounding"`
}

// DefaultPolicy returns the standard reward parameters: 100 points at a
// perfect score, updates at half weight, no cap, nearest rounding.
func DefaultPolicy() Policy {
	return Policy{
		BasePoints:   100,
		UpdateFactor: 0.5,
		MaxPoints:    0,
		Rounding:     RoundNearest,
	}
}

// Validate checks the policy parameters.
func (p Policy) Validate() error {
	if p.BasePoints <= 0 {
		return ErrBasePoints
	}
	if p.UpdateFactor <= 0 || p.UpdateFactor > 1 {
		return ErrUpdateFactor
	}
	if p.MaxPoints < 0 {
		return ErrMaxPoints
	}
	if !p.Rounding.IsValid() {
		return ErrRounding
	}
	return nil
}

// ComputeRewards derives one reward per reward-eligible evaluation.
// Duplicates are skipped entirely; updates are scaled by the update factor.
// The output preserves input order. An empty input yields an empty slice,
// not an error.
func ComputeRewards(policy Policy, evaluations []domain.ContributionEvaluation) ([]domain.ContributionReward, error) {
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid reward policy: %w", err)
	}

	rewards := make([]domain.ContributionReward, 0, len(evaluations))
	for _, ce := range evaluations {
		if !ce.Contribution.CountsForReward() {
			continue
		}
		if err := ce.Evaluation.Validate(); err != nil {
			return nil, fmt.Errorf("contribution %q: %w", ce.Contribution.ID, err)
		}

		points := policy.points(ce.Evaluation.Normalized(), ce.Contribution.IsUpdate())
		r := domain.ContributionReward{
			ContributionID: ce.Contribution.ID,
			Title:          ce.Contribution.Title,
			Points:         points,
		}
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("contribution %q: %w", ce.Contribution.ID, err)
		}
		rewards = append(rewards, r)
	}
	return rewards, nil
}

// TotalPoints sums the computed rewards.
func TotalPoints(rewards []domain.ContributionReward) int64 {
	var total int64
	for _, r := range rewards {
		total += r.Points
	}
	return total
}

func (p Policy) points(normalized float64, isUpdate bool) int64 {
	raw := normalized * p.BasePoints
	if isUpdate {
		raw *= p.UpdateFactor
	}

	var points int64
	switch p.Rounding {
	case RoundDown:
		points = int64(math.Floor(raw))
	case RoundUp:
		points = int64(math.Ceil(raw))
	default:
		points = int64(math.Round(raw))
	}

	if p.MaxPoints > 0 && points > p.MaxPoints {
		points = p.MaxPoints
	}
	return points
}
