package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pulseboard/contribeval/internal/domain"
)

// ErrUnsupportedPayload indicates a request whose payload type matches no
// known stage.
var ErrUnsupportedPayload = errors.New("unsupported agent request payload")

// Runner is the reasoning-agent contract the pipeline consumes. Concrete
// implementations live outside the core; the pipeline treats them as
// opaque, potentially unreliable capability providers returning raw JSON.
type Runner interface {
	// RunIdentifyAgent produces candidate contributions for the context's
	// window and source material.
	RunIdentifyAgent(ctx context.Context, ec domain.EvalContext) (string, error)

	// RunMergeAgent reconciles freshly identified contributions against
	// previously recorded ones for the same scope.
	RunMergeAgent(ctx context.Context, fresh []domain.Contribution, old []domain.OldContribution) (string, error)

	// RunEvaluateAgent scores one contribution against its grid. When
	// isUpdate is true the agent scores the incremental delta rather than
	// the whole contribution.
	RunEvaluateAgent(
		ctx context.Context,
		isUpdate bool,
		c domain.Contribution,
		g domain.EvaluationGridTemplate,
		ec domain.EvalContext,
	) (string, error)
}

// IdentifyPayload is the identify-stage request payload.
type IdentifyPayload struct {
	Context domain.EvalContext
}

// MergePayload is the merge-stage request payload.
type MergePayload struct {
	Fresh []domain.Contribution
	Old   []domain.OldContribution
}

// EvaluatePayload is the evaluate-stage request payload.
type EvaluatePayload struct {
	IsUpdate     bool
	Contribution domain.Contribution
	Grid         domain.EvaluationGridTemplate
	Context      domain.EvalContext
}

// runnerHandler is the core handler that invokes the agent runner.
type runnerHandler struct {
	runner Runner
}

// NewRunnerHandler creates the core handler dispatching requests to the
// injected agent runner by payload type.
func NewRunnerHandler(runner Runner) Handler {
	return &runnerHandler{runner: runner}
}

// Handle implements Handler by calling the runner method matching the
// request payload and measuring call latency.
func (h *runnerHandler) Handle(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()

	var (
		raw string
		err error
	)
	switch p := req.Payload.(type) {
	case IdentifyPayload:
		raw, err = h.runner.RunIdentifyAgent(ctx, p.Context)
	case MergePayload:
		raw, err = h.runner.RunMergeAgent(ctx, p.Fresh, p.Old)
	case EvaluatePayload:
		raw, err = h.runner.RunEvaluateAgent(ctx, p.IsUpdate, p.Contribution, p.Grid, p.Context)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedPayload, req.Payload)
	}
	if err != nil {
		return nil, err
	}

	return &Response{Raw: raw, LatencyMs: time.Since(start).Milliseconds()}, nil
}
