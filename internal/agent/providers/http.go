// Package providers holds concrete agent runner implementations. The core
// pipeline consumes the transport.Runner interface; this package adapts it
// to a reasoning-agent service reachable over HTTP.
package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pulseboard/contribeval/internal/domain"
)

// DefaultTimeout bounds a single HTTP agent call when the caller's retry
// middleware does not impose a tighter per-attempt deadline.
const DefaultTimeout = 60 * time.Second

// maxErrorBody bounds how much of an error response lands in the error
// message.
const maxErrorBody = 512

// ErrBaseURLRequired indicates runner construction without an endpoint.
var ErrBaseURLRequired = errors.New("agent base URL must not be empty")

// HTTPConfig configures the HTTP agent runner.
type HTTPConfig struct {
	// BaseURL is the agent service root, e.g. "https://agent.internal".
	BaseURL string

	// Token is sent as a bearer token when non-empty.
	Token string

	// Timeout bounds each HTTP call; zero selects DefaultTimeout.
	Timeout time.Duration

	// Client overrides the HTTP client. Nil builds one from Timeout.
	Client *http.Client
}

// HTTPRunner calls a reasoning-agent service over HTTP. Each stage posts a
// JSON request to its own endpoint and returns the response body verbatim;
// parsing and repair stay with the pipeline stages.
type HTTPRunner struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPRunner creates the HTTP agent runner.
func NewHTTPRunner(cfg HTTPConfig) (*HTTPRunner, error) {
	if cfg.BaseURL == "" {
		return nil, ErrBaseURLRequired
	}

	client := cfg.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	return &HTTPRunner{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		token:   cfg.Token,
		client:  client,
	}, nil
}

type identifyRequest struct {
	Context domain.EvalContext `json:"context"`
}

type mergeRequest struct {
	Fresh []domain.Contribution    `json:"fresh"`
	Old   []domain.OldContribution `json:"old"`
}

type evaluateRequest struct {
	IsUpdate     bool                          `json:"is_update"`
	Contribution domain.Contribution           `json:"contribution"`
	Grid         domain.EvaluationGridTemplate `json:"grid"`
	Context      domain.EvalContext            `json:"context"`
}

// RunIdentifyAgent implements transport.Runner.
func (r *HTTPRunner) RunIdentifyAgent(ctx context.Context, ec domain.EvalContext) (string, error) {
	return r.post(ctx, "/v1/agent/identify", identifyRequest{Context: ec})
}

// RunMergeAgent implements transport.Runner.
func (r *HTTPRunner) RunMergeAgent(ctx context.Context, fresh []domain.Contribution, old []domain.OldContribution) (string, error) {
	return r.post(ctx, "/v1/agent/merge", mergeRequest{Fresh: fresh, Old: old})
}

// RunEvaluateAgent implements transport.Runner.
func (r *HTTPRunner) RunEvaluateAgent(
	ctx context.Context,
	isUpdate bool,
	c domain.Contribution,
	g domain.EvaluationGridTemplate,
	ec domain.EvalContext,
) (string, error) {
	return r.post(ctx, "/v1/agent/evaluate", evaluateRequest{
		IsUpdate:     isUpdate,
		Contribution: c,
		Grid:         g,
		Context:      ec,
	})
}

// post sends the JSON request and returns the response body verbatim.
// Any non-2xx status is an error carrying a bounded body excerpt.
func (r *HTTPRunner) post(ctx context.Context, path string, payload any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal agent request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build agent request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("agent call %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read agent response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		excerpt := string(raw)
		if len(excerpt) > maxErrorBody {
			excerpt = excerpt[:maxErrorBody]
		}
		return "", fmt.Errorf("agent call %s: status %d: %s", path, resp.StatusCode, excerpt)
	}
	return string(raw), nil
}
