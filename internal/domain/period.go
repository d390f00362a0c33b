package domain

import "time"

// Period defines the temporal scope a contribution is attributed to.
// Invariant: Start is never after End.
type Period struct {
	Start time.Time `json:"start" validate:"required"`
	End   time.Time `json:"end" validate:"required"`
}

// NewPeriod creates a validated period.
func NewPeriod(start, end time.Time) (Period, error) {
	p := Period{Start: start, End: end}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

// Validate checks that both bounds are set and ordered.
func (p Period) Validate() error {
	if err := validate.Struct(p); err != nil {
		return err
	}
	if p.Start.After(p.End) {
		return ErrInvalidPeriod
	}
	return nil
}

// Contains reports whether other lies entirely within p, bounds inclusive.
func (p Period) Contains(other Period) bool {
	return !other.Start.Before(p.Start) && !other.End.After(p.End)
}

// Duration returns the length of the period.
func (p Period) Duration() time.Duration { return p.End.Sub(p.Start) }
