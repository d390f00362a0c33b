package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdempotencyKey(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		a := IdempotencyKey("wf-1", "evaluate.contribution_evaluated", "c1")
		b := IdempotencyKey("wf-1", "evaluate.contribution_evaluated", "c1")
		assert.Equal(t, a, b)
	})

	t.Run("distinguishes inputs", func(t *testing.T) {
		base := IdempotencyKey("wf-1", "type", "a")
		assert.NotEqual(t, base, IdempotencyKey("wf-2", "type", "a"))
		assert.NotEqual(t, base, IdempotencyKey("wf-1", "other", "a"))
		assert.NotEqual(t, base, IdempotencyKey("wf-1", "type", "b"))
		assert.NotEqual(t, base, IdempotencyKey("wf-1", "type"))
	})
}

func TestNoOpEventSink(t *testing.T) {
	sink := NewNoOpEventSink()
	assert.NoError(t, sink.Append(context.Background(), Envelope{Type: "test"}))
}
