package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulseboard/contribeval/internal/agent/transport"
)

// countingHandler records invocations and returns a fixed response.
type countingHandler struct {
	calls int
	raw   string
	err   error
}

func (h *countingHandler) Handle(_ context.Context, _ *transport.Request) (*transport.Response, error) {
	h.calls++
	if h.err != nil {
		return nil, h.err
	}
	return &transport.Response{Raw: h.raw}, nil
}

// statsRecorder collects lookup outcomes per stage.
type statsRecorder struct {
	hits, misses []string
}

func (s *statsRecorder) CacheHit(stage string)  { s.hits = append(s.hits, stage) }
func (s *statsRecorder) CacheMiss(stage string) { s.misses = append(s.misses, stage) }

// brokenStore fails every operation.
type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("store down")
}

func (brokenStore) Set(context.Context, string, string, time.Duration) error {
	return errors.New("store down")
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		s := NewMemoryStore()
		require.NoError(t, s.Set(ctx, "k", "v", time.Minute))

		v, ok, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "v", v)
	})

	t.Run("miss", func(t *testing.T) {
		s := NewMemoryStore()
		_, ok, err := s.Get(ctx, "absent")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("expiry drops entries lazily", func(t *testing.T) {
		s := NewMemoryStore()
		now := time.Now()
		s.now = func() time.Time { return now }
		require.NoError(t, s.Set(ctx, "k", "v", time.Minute))

		now = now.Add(2 * time.Minute)
		_, ok, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Zero(t, s.Len())
	})
}

func TestCacheMiddleware(t *testing.T) {
	ctx := context.Background()
	req := func(key string) *transport.Request {
		return &transport.Request{Stage: transport.StageEvaluate, CacheKey: key}
	}

	t.Run("second call is served from cache", func(t *testing.T) {
		core := &countingHandler{raw: `{"score":76}`}
		h := NewMiddleware(NewMemoryStore(), time.Minute, nil)(core)

		first, err := h.Handle(ctx, req("key-1"))
		require.NoError(t, err)
		assert.False(t, first.FromCache)

		second, err := h.Handle(ctx, req("key-1"))
		require.NoError(t, err)
		assert.True(t, second.FromCache)
		assert.Equal(t, first.Raw, second.Raw)
		assert.Equal(t, 1, core.calls)
	})

	t.Run("empty key bypasses the cache", func(t *testing.T) {
		core := &countingHandler{raw: `{}`}
		store := NewMemoryStore()
		stats := &statsRecorder{}
		h := NewMiddleware(store, time.Minute, stats)(core)

		_, err := h.Handle(ctx, req(""))
		require.NoError(t, err)
		_, err = h.Handle(ctx, req(""))
		require.NoError(t, err)

		assert.Equal(t, 2, core.calls)
		assert.Zero(t, store.Len())
		assert.Empty(t, stats.hits)
		assert.Empty(t, stats.misses)
	})

	t.Run("stats see hits and misses", func(t *testing.T) {
		core := &countingHandler{raw: `{}`}
		stats := &statsRecorder{}
		h := NewMiddleware(NewMemoryStore(), time.Minute, stats)(core)

		_, err := h.Handle(ctx, req("key-s"))
		require.NoError(t, err)
		_, err = h.Handle(ctx, req("key-s"))
		require.NoError(t, err)

		assert.Equal(t, []string{"Evaluate"}, stats.misses)
		assert.Equal(t, []string{"Evaluate"}, stats.hits)
	})

	t.Run("failures are not cached", func(t *testing.T) {
		core := &countingHandler{err: errors.New("agent down")}
		store := NewMemoryStore()
		h := NewMiddleware(store, time.Minute, nil)(core)

		_, err := h.Handle(ctx, req("key-2"))
		require.Error(t, err)
		assert.Zero(t, store.Len())
	})

	t.Run("broken store degrades to live calls", func(t *testing.T) {
		core := &countingHandler{raw: `{}`}
		h := NewMiddleware(brokenStore{}, time.Minute, nil)(core)

		resp, err := h.Handle(ctx, req("key-3"))
		require.NoError(t, err)
		assert.False(t, resp.FromCache)
		assert.Equal(t, 1, core.calls)
	})
}
