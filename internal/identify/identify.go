// Package identify implements the first pipeline stage: turning the
// context's source material into a candidate list of contributions via the
// identify agent.
package identify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pulseboard/contribeval/internal/agent"
	"github.com/pulseboard/contribeval/internal/agent/transport"
	"github.com/pulseboard/contribeval/internal/domain"
	"github.com/pulseboard/contribeval/internal/jsonx"
)

// ErrOutsideWindow indicates an identified contribution whose period falls
// outside the context's requested window.
var ErrOutsideWindow = errors.New("contribution period outside the requested window")

// Stage runs contribution identification. An empty candidate list is a
// valid outcome (no activity found), not a failure. Grid resolution for
// the identified types is deferred to the evaluate stage.
type Stage struct {
	caller *agent.Caller
	logger *slog.Logger
}

// NewStage creates the identify stage around the shared agent caller.
func NewStage(caller *agent.Caller) *Stage {
	return &Stage{
		caller: caller,
		logger: slog.Default().With("component", "identify"),
	}
}

// Identify produces the candidate contributions for the context. The agent
// call goes through the resilient caller under the "Identify" label; the
// raw response is decoded with one-shot repair and every candidate is
// validated against the context window.
func (s *Stage) Identify(ctx context.Context, ec domain.EvalContext) ([]domain.Contribution, error) {
	if err := ec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid context: %w", err)
	}

	resp, err := s.caller.Call(ctx, &transport.Request{
		Stage:   transport.StageIdentify,
		Payload: transport.IdentifyPayload{Context: ec},
	})
	if err != nil {
		return nil, err
	}

	contributions, err := parseContributions(resp.Raw, ec.Window)
	if err != nil {
		return nil, err
	}

	s.logger.Info("contributions identified",
		"scope", ec.Scope,
		"count", len(contributions))
	return contributions, nil
}

// identifyDoc is the agent's response shape. A bare JSON array is also
// accepted.
type identifyDoc struct {
	Contributions []contributionDoc `json:"contributions"`
}

type contributionDoc struct {
	Title       string    `json:"title"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	Period      periodDoc `json:"period"`
}

type periodDoc struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func parseContributions(raw string, window domain.Period) ([]domain.Contribution, error) {
	var doc identifyDoc
	if err := jsonx.Decode(raw, &doc); err != nil {
		var bare []contributionDoc
		if arrErr := jsonx.Decode(raw, &bare); arrErr != nil {
			return nil, err
		}
		doc.Contributions = bare
	}

	contributions := make([]domain.Contribution, 0, len(doc.Contributions))
	for i, d := range doc.Contributions {
		period, err := domain.NewPeriod(d.Period.Start, d.Period.End)
		if err != nil {
			return nil, fmt.Errorf("contribution %d (%q): %w", i, d.Title, err)
		}
		if !window.Contains(period) {
			return nil, fmt.Errorf("contribution %d (%q): %w", i, d.Title, ErrOutsideWindow)
		}
		c, err := domain.NewContribution(d.Title, d.Type, d.Description, d.Tags, period)
		if err != nil {
			return nil, fmt.Errorf("contribution %d (%q): %w", i, d.Title, err)
		}
		contributions = append(contributions, c)
	}
	return contributions, nil
}
