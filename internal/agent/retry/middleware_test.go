package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulseboard/contribeval/internal/agent/transport"
	"github.com/pulseboard/contribeval/internal/domain"
)

var errAgentDown = errors.New("agent unavailable")

// failNTimes fails the first n calls and succeeds afterwards, counting
// every invocation.
type failNTimes struct {
	n     int
	calls int
}

func (f *failNTimes) Handle(_ context.Context, _ *transport.Request) (*transport.Response, error) {
	f.calls++
	if f.calls <= f.n {
		return nil, errAgentDown
	}
	return &transport.Response{Raw: `{"ok":true}`}, nil
}

func fastConfig(maxAttempts int) Config {
	return Config{MaxAttempts: maxAttempts, Delay: time.Millisecond, AttemptTimeout: time.Second}
}

func TestNewMiddleware_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "zero attempts", cfg: Config{MaxAttempts: 0}},
		{name: "negative attempts", cfg: Config{MaxAttempts: -1}},
		{name: "negative delay", cfg: Config{MaxAttempts: 1, Delay: -time.Second}},
		{name: "negative attempt timeout", cfg: Config{MaxAttempts: 1, AttemptTimeout: -time.Second}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMiddleware(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Delay)
	assert.Equal(t, 30*time.Second, cfg.AttemptTimeout)
}

func TestRetryMiddleware(t *testing.T) {
	t.Run("first attempt succeeds without retry", func(t *testing.T) {
		mw, err := NewMiddleware(fastConfig(3))
		require.NoError(t, err)
		core := &failNTimes{n: 0}

		resp, err := mw(core).Handle(context.Background(), &transport.Request{Stage: transport.StageIdentify})
		require.NoError(t, err)
		assert.Equal(t, `{"ok":true}`, resp.Raw)
		assert.Equal(t, 1, core.calls)
	})

	t.Run("succeeds after transient failures", func(t *testing.T) {
		mw, err := NewMiddleware(fastConfig(3))
		require.NoError(t, err)
		core := &failNTimes{n: 2}

		resp, err := mw(core).Handle(context.Background(), &transport.Request{Stage: transport.StageMerge})
		require.NoError(t, err)
		assert.Equal(t, `{"ok":true}`, resp.Raw)
		assert.Equal(t, 3, core.calls)
	})

	t.Run("exhausted attempts surface an agent failure", func(t *testing.T) {
		mw, err := NewMiddleware(fastConfig(3))
		require.NoError(t, err)
		core := &failNTimes{n: 10}

		_, err = mw(core).Handle(context.Background(), &transport.Request{Stage: transport.StageEvaluate})
		require.Error(t, err)
		assert.Equal(t, 3, core.calls)

		var afe *domain.AgentFailureError
		require.ErrorAs(t, err, &afe)
		assert.Equal(t, "Evaluate", afe.Stage)
		assert.Equal(t, 3, afe.Attempts)
		assert.ErrorIs(t, err, errAgentDown)
		assert.Contains(t, err.Error(), "[Evaluate]")
		assert.Contains(t, err.Error(), "3 attempts")
	})

	t.Run("cancelled context fails fast without attempting", func(t *testing.T) {
		mw, err := NewMiddleware(fastConfig(3))
		require.NoError(t, err)
		core := &failNTimes{n: 10}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err = mw(core).Handle(ctx, &transport.Request{Stage: transport.StageIdentify})
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, domain.IsAgentFailure(err))
		assert.Zero(t, core.calls)
	})

	t.Run("cancellation mid-run is not an agent failure", func(t *testing.T) {
		mw, err := NewMiddleware(Config{MaxAttempts: 3, Delay: 50 * time.Millisecond})
		require.NoError(t, err)
		core := &failNTimes{n: 10}

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()

		_, err = mw(core).Handle(ctx, &transport.Request{Stage: transport.StageMerge})
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, domain.IsAgentFailure(err))
	})

	t.Run("per-attempt timeout bounds a hanging agent", func(t *testing.T) {
		mw, err := NewMiddleware(Config{MaxAttempts: 2, Delay: time.Millisecond, AttemptTimeout: 20 * time.Millisecond})
		require.NoError(t, err)

		hang := transport.HandlerFunc(func(ctx context.Context, _ *transport.Request) (*transport.Response, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})

		start := time.Now()
		_, err = mw(hang).Handle(context.Background(), &transport.Request{Stage: transport.StageEvaluate})
		require.Error(t, err)
		assert.Less(t, time.Since(start), 500*time.Millisecond)

		var afe *domain.AgentFailureError
		require.ErrorAs(t, err, &afe)
		assert.Equal(t, 2, afe.Attempts)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
