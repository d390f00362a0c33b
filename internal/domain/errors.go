package domain

import (
	"errors"
	"fmt"
)

// Common domain errors returned by value object constructors and validators.
var (
	// ErrInvalidPeriod indicates a period whose start is after its end.
	ErrInvalidPeriod = errors.New("period start must not be after end")

	// ErrInvalidDecision indicates an unknown merge decision value.
	ErrInvalidDecision = errors.New("invalid merge decision")

	// ErrMissingOldRef indicates an update or duplicate decision without a
	// reference to the old contribution it affects.
	ErrMissingOldRef = errors.New("update and duplicate decisions require the old contribution id")

	// ErrWeightSum indicates grid criteria weights that do not sum to 1.0
	// within tolerance.
	ErrWeightSum = errors.New("criteria weights must sum to 1.0")

	// ErrInvalidScale indicates a score scale that is not one of the
	// supported bounds.
	ErrInvalidScale = errors.New("unsupported score scale")

	// ErrCriterionMismatch indicates an evaluation whose scores do not
	// cover the grid's criteria exactly.
	ErrCriterionMismatch = errors.New("criterion scores do not match grid criteria")
)

// AgentFailureError reports that an external agent call failed after
// exhausting its retry budget. It carries the stage label and attempt count
// so operators can distinguish a transient outage from a data problem.
type AgentFailureError struct {
	Stage    string
	Attempts int
	Cause    error
}

// Error formats the failure with stage label and attempt count, wrapping
// the last underlying error's message.
func (e *AgentFailureError) Error() string {
	return fmt.Sprintf("[%s] agent failed after %d attempts: %v", e.Stage, e.Attempts, e.Cause)
}

// Unwrap exposes the last underlying error for errors.Is/As chains.
func (e *AgentFailureError) Unwrap() error { return e.Cause }

// GridNotFoundError reports a contribution type with no registered grid.
// This is a configuration error: it is surfaced immediately and never
// retried as an agent failure.
type GridNotFoundError struct {
	Type string
}

// Error returns the registry's canonical message for a missing grid.
func (e *GridNotFoundError) Error() string {
	return fmt.Sprintf("[EvaluationGridRegistry] No grid found for type: %q", e.Type)
}

// InvalidScoreError reports a global score or reward outside its declared
// bound. It is a defensive invariant violation, fatal to the current run.
type InvalidScoreError struct {
	GridType string
	Value    float64
	Max      float64
}

func (e *InvalidScoreError) Error() string {
	return fmt.Sprintf("global score %.4f outside [0, %g] for grid %q", e.Value, e.Max, e.GridType)
}

// IsAgentFailure reports whether err is (or wraps) an AgentFailureError.
func IsAgentFailure(err error) bool {
	var afe *AgentFailureError
	return errors.As(err, &afe)
}

// IsGridNotFound reports whether err is (or wraps) a GridNotFoundError.
func IsGridNotFound(err error) bool {
	var gnf *GridNotFoundError
	return errors.As(err, &gnf)
}

// IsInvalidScore reports whether err is (or wraps) an InvalidScoreError.
func IsInvalidScore(err error) bool {
	var ise *InvalidScoreError
	return errors.As(err, &ise)
}
