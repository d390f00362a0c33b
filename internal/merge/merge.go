// Package merge implements the second pipeline stage: reconciling freshly
// identified contributions against previously recorded ones so the same
// underlying work is never rewarded twice.
package merge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pulseboard/contribeval/internal/agent"
	"github.com/pulseboard/contribeval/internal/agent/transport"
	"github.com/pulseboard/contribeval/internal/domain"
	"github.com/pulseboard/contribeval/internal/jsonx"
)

// ErrUnknownContribution indicates a merge decision referencing a
// contribution ID that was never handed to the agent.
var ErrUnknownContribution = errors.New("merge decision references an unknown contribution")

// ErrUnknownOldRef indicates an update decision referencing an old
// contribution ID that does not exist.
var ErrUnknownOldRef = errors.New("merge decision references an unknown old contribution")

// Stage runs merge reconciliation. Every input contribution comes back
// classified: contributions are marked, never dropped, so callers retain a
// full audit trail. The agent is skipped only for a single contribution
// with no history, which cannot collide with anything.
type Stage struct {
	caller *agent.Caller
	logger *slog.Logger
}

// NewStage creates the merge stage around the shared agent caller.
func NewStage(caller *agent.Caller) *Stage {
	return &Stage{
		caller: caller,
		logger: slog.Default().With("component", "merge"),
	}
}

// Merge classifies each fresh contribution as new, update, or duplicate
// relative to old. The result preserves the input order and contains
// exactly one entry per input contribution. Merging is idempotent: feeding
// an already-classified set back in does not change decisions, because the
// first annotation wins.
func (s *Stage) Merge(ctx context.Context, fresh []domain.Contribution, old []domain.OldContribution) ([]domain.ToMergeContribution, error) {
	if len(fresh) == 0 {
		return []domain.ToMergeContribution{}, nil
	}
	// Even on a first run with no history, two fresh contributions can
	// describe the same work, so only a lone contribution skips the agent.
	if len(old) == 0 && len(fresh) == 1 {
		return allNew(fresh), nil
	}

	resp, err := s.caller.Call(ctx, &transport.Request{
		Stage:   transport.StageMerge,
		Payload: transport.MergePayload{Fresh: fresh, Old: old},
	})
	if err != nil {
		return nil, err
	}

	decisions, err := parseDecisions(resp.Raw)
	if err != nil {
		return nil, err
	}

	merged, err := s.reconcile(fresh, old, decisions)
	if err != nil {
		return nil, err
	}

	s.logger.Info("contributions reconciled",
		"fresh", len(fresh),
		"old", len(old),
		"decided", len(decisions))
	return merged, nil
}

// mergeDoc is the agent's response shape: one decision per contribution,
// keyed by the contribution ID it was shown.
type mergeDoc struct {
	Decisions []decisionDoc `json:"decisions"`
}

type decisionDoc struct {
	ContributionID string `json:"contribution_id"`
	Decision       string `json:"decision"`
	UpdatesID      string `json:"updates_id,omitempty"`
	Reason         string `json:"reason,omitempty"`
}

func parseDecisions(raw string) ([]decisionDoc, error) {
	var doc mergeDoc
	if err := jsonx.Decode(raw, &doc); err != nil {
		var bare []decisionDoc
		if arrErr := jsonx.Decode(raw, &bare); arrErr != nil {
			return nil, err
		}
		doc.Decisions = bare
	}
	return doc.Decisions, nil
}

// reconcile applies the agent's decisions to the input set. The first
// decision for a contribution wins; later ones are ignored. Contributions
// the agent omitted default to new. Updates must reference an existing old
// contribution; duplicates may reference an old contribution or another
// fresh one.
func (s *Stage) reconcile(fresh []domain.Contribution, old []domain.OldContribution, decisions []decisionDoc) ([]domain.ToMergeContribution, error) {
	freshIDs := make(map[string]struct{}, len(fresh))
	for _, c := range fresh {
		freshIDs[c.ID] = struct{}{}
	}
	oldIDs := make(map[string]struct{}, len(old))
	for _, o := range old {
		oldIDs[o.ID] = struct{}{}
	}

	decided := make(map[string]decisionDoc, len(decisions))
	for _, d := range decisions {
		if _, ok := freshIDs[d.ContributionID]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownContribution, d.ContributionID)
		}
		if _, seen := decided[d.ContributionID]; seen {
			continue
		}

		decision := domain.MergeDecision(d.Decision)
		if !decision.IsValid() {
			return nil, fmt.Errorf("contribution %q: %w: %q", d.ContributionID, domain.ErrInvalidDecision, d.Decision)
		}
		switch decision {
		case domain.DecisionUpdate:
			if _, ok := oldIDs[d.UpdatesID]; !ok {
				return nil, fmt.Errorf("contribution %q: %w: %q", d.ContributionID, ErrUnknownOldRef, d.UpdatesID)
			}
		case domain.DecisionDuplicate:
			_, isOld := oldIDs[d.UpdatesID]
			_, isFresh := freshIDs[d.UpdatesID]
			if !isOld && !isFresh {
				return nil, fmt.Errorf("contribution %q: %w: %q", d.ContributionID, ErrUnknownOldRef, d.UpdatesID)
			}
		}
		decided[d.ContributionID] = d
	}

	merged := make([]domain.ToMergeContribution, 0, len(fresh))
	for _, c := range fresh {
		d, ok := decided[c.ID]
		if !ok {
			s.logger.Warn("agent omitted a merge decision, defaulting to new",
				"contribution_id", c.ID,
				"title", c.Title)
			d = decisionDoc{ContributionID: c.ID, Decision: string(domain.DecisionNew)}
		}

		annotated := domain.ToMergeContribution{
			Contribution: c,
			Decision:     domain.MergeDecision(d.Decision),
			UpdatesID:    d.UpdatesID,
		}
		if err := annotated.Validate(); err != nil {
			return nil, fmt.Errorf("contribution %q: %w", c.ID, err)
		}
		merged = append(merged, annotated)
	}
	return merged, nil
}

func allNew(fresh []domain.Contribution) []domain.ToMergeContribution {
	merged := make([]domain.ToMergeContribution, 0, len(fresh))
	for _, c := range fresh {
		merged = append(merged, domain.ToMergeContribution{
			Contribution: c,
			Decision:     domain.DecisionNew,
		})
	}
	return merged
}
