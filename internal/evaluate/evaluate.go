// Package evaluate implements the third pipeline stage: scoring each
// reconciled contribution against the grid registered for its type.
package evaluate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/pulseboard/contribeval/internal/agent"
	"github.com/pulseboard/contribeval/internal/agent/transport"
	"github.com/pulseboard/contribeval/internal/domain"
	"github.com/pulseboard/contribeval/internal/grid"
	"github.com/pulseboard/contribeval/internal/jsonx"
)

// Stage runs contribution evaluation. The grid is resolved before the
// agent is called so that a missing grid surfaces as a configuration error
// immediately, never as a retried agent failure. Criterion weights always
// come from the grid template; the agent only supplies scores.
type Stage struct {
	caller *agent.Caller
	grids  *grid.Registry
	logger *slog.Logger
}

// NewStage creates the evaluate stage around the shared agent caller and
// the grid registry.
func NewStage(caller *agent.Caller, grids *grid.Registry) *Stage {
	return &Stage{
		caller: caller,
		grids:  grids,
		logger: slog.Default().With("component", "evaluate"),
	}
}

// Evaluate scores the contribution against the grid registered for its
// type. When isUpdate is true the agent is asked for the incremental delta
// over the referenced old contribution rather than the whole contribution.
func (s *Stage) Evaluate(ctx context.Context, isUpdate bool, c domain.Contribution, ec domain.EvalContext) (domain.Evaluation, error) {
	g, err := s.grids.Get(c.Type)
	if err != nil {
		return domain.Evaluation{}, err
	}

	resp, err := s.caller.Call(ctx, &transport.Request{
		Stage: transport.StageEvaluate,
		Payload: transport.EvaluatePayload{
			IsUpdate:     isUpdate,
			Contribution: c,
			Grid:         g,
			Context:      ec,
		},
		CacheKey: cacheKey(isUpdate, c, g),
	})
	if err != nil {
		return domain.Evaluation{}, err
	}

	eval, err := parseEvaluation(resp.Raw, g)
	if err != nil {
		return domain.Evaluation{}, fmt.Errorf("contribution %q: %w", c.ID, err)
	}

	s.logger.Info("contribution evaluated",
		"contribution_id", c.ID,
		"grid", g.Type,
		"global_score", eval.GlobalScore,
		"from_cache", resp.FromCache)
	return eval, nil
}

// cacheKey derives a stable response-cache key from the scored content,
// not from run-scoped IDs, so identical work across runs shares entries.
func cacheKey(isUpdate bool, c domain.Contribution, g domain.EvaluationGridTemplate) string {
	h := sha256.New()
	io.WriteString(h, "evaluate\x00")
	io.WriteString(h, strconv.FormatBool(isUpdate))
	io.WriteString(h, "\x00")
	io.WriteString(h, c.Title)
	io.WriteString(h, "\x00")
	io.WriteString(h, c.Description)
	io.WriteString(h, "\x00")
	io.WriteString(h, c.Period.Start.UTC().Format("2006-01-02T15:04:05Z"))
	io.WriteString(h, "\x00")
	io.WriteString(h, c.Period.End.UTC().Format("2006-01-02T15:04:05Z"))
	io.WriteString(h, "\x00")
	io.WriteString(h, g.Type)
	for _, ct := range g.Criteria {
		io.WriteString(h, "\x00")
		io.WriteString(h, ct.Criterion)
		io.WriteString(h, strconv.FormatFloat(ct.Weight, 'g', -1, 64))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// evaluationDoc is the agent's response shape. Weights are deliberately
// absent: the grid template is the only source of weights.
type evaluationDoc struct {
	Scores  []criterionScoreDoc `json:"scores"`
	Summary string              `json:"summary"`
}

type criterionScoreDoc struct {
	Criterion string  `json:"criterion"`
	Score     float64 `json:"score"`
	Comment   string  `json:"comment,omitempty"`
}

// parseEvaluation decodes the agent response and assembles the evaluation.
// Every grid criterion must be scored exactly once; scores for criteria the
// grid does not define are rejected.
func parseEvaluation(raw string, g domain.EvaluationGridTemplate) (domain.Evaluation, error) {
	var doc evaluationDoc
	if err := jsonx.Decode(raw, &doc); err != nil {
		return domain.Evaluation{}, err
	}

	seen := make(map[string]struct{}, len(doc.Scores))
	scores := make([]domain.CriterionScore, 0, len(g.Criteria))
	for _, d := range doc.Scores {
		weight, ok := g.WeightFor(d.Criterion)
		if !ok {
			return domain.Evaluation{}, fmt.Errorf("%w: unexpected criterion %q", domain.ErrCriterionMismatch, d.Criterion)
		}
		if _, dup := seen[d.Criterion]; dup {
			return domain.Evaluation{}, fmt.Errorf("%w: duplicate criterion %q", domain.ErrCriterionMismatch, d.Criterion)
		}
		seen[d.Criterion] = struct{}{}
		scores = append(scores, domain.CriterionScore{
			Criterion: d.Criterion,
			Score:     d.Score,
			Weight:    weight,
			Comment:   d.Comment,
		})
	}
	if len(seen) != len(g.Criteria) {
		return domain.Evaluation{}, fmt.Errorf("%w: got %d of %d criteria", domain.ErrCriterionMismatch, len(seen), len(g.Criteria))
	}

	return domain.NewEvaluation(g, scores, doc.Summary)
}
