package activity

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// beatCounter is a concurrency-safe heartbeat recorder for tests.
type beatCounter struct {
	mu    sync.Mutex
	beats int
}

func (c *beatCounter) record(context.Context, ...any) {
	c.mu.Lock()
	c.beats++
	c.mu.Unlock()
}

func (c *beatCounter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.beats
}

func TestStartHeartbeat(t *testing.T) {
	t.Run("records on a ticker until stopped", func(t *testing.T) {
		counter := &beatCounter{}
		base := NewBaseActivities(nil).WithHeartbeat(time.Millisecond, counter.record)

		stop := base.StartHeartbeat(context.Background(), "working")
		require.Eventually(t, func() bool { return counter.count() >= 3 },
			time.Second, time.Millisecond)

		stop()
		stop() // idempotent

		time.Sleep(20 * time.Millisecond)
		settled := counter.count()
		time.Sleep(20 * time.Millisecond)
		assert.Equal(t, settled, counter.count())
	})

	t.Run("context cancellation stops the ticker", func(t *testing.T) {
		counter := &beatCounter{}
		base := NewBaseActivities(nil).WithHeartbeat(time.Millisecond, counter.record)

		ctx, cancel := context.WithCancel(context.Background())
		stop := base.StartHeartbeat(ctx)
		defer stop()

		require.Eventually(t, func() bool { return counter.count() >= 1 },
			time.Second, time.Millisecond)
		cancel()

		time.Sleep(20 * time.Millisecond)
		settled := counter.count()
		time.Sleep(20 * time.Millisecond)
		assert.Equal(t, settled, counter.count())
	})

	t.Run("zero value falls back to the default recorder", func(t *testing.T) {
		var base BaseActivities
		stop := base.StartHeartbeat(context.Background())
		stop()
	})
}

func TestGetWorkflowContext(t *testing.T) {
	// Outside an activity context the extraction falls back to stable
	// test identifiers instead of panicking.
	base := NewBaseActivities(nil)
	wfCtx := base.GetWorkflowContext(context.Background())
	assert.Equal(t, "00000000-0000-0000-0000-000000000000", wfCtx.WorkflowID)
	assert.NotEmpty(t, wfCtx.RunID)
	assert.Equal(t, "test-activity", wfCtx.ActivityID)
}
