package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestPool(maxRetry int) *WorkerPool {
	p := NewWorkerPool(2, 8, maxRetry, nil)
	p.RetryDelay = time.Millisecond
	return p
}

func TestWorkerPoolRunsTasks(t *testing.T) {
	p := newTestPool(0)
	p.Start(context.Background())
	defer p.Stop()

	var done int32
	for i := 0; i < 5; i++ {
		assert.True(t, p.AddTask(Task{Name: "count", Run: func(ctx context.Context) error {
			atomic.AddInt32(&done, 1)
			return nil
		}}))
	}

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&done) == 5 }, time.Second, 5*time.Millisecond)
}

func TestWorkerPoolRetry(t *testing.T) {
	t.Run("succeeds after retry", func(t *testing.T) {
		p := newTestPool(2)
		p.Start(context.Background())
		defer p.Stop()

		var calls int32
		p.AddTask(Task{Name: "flaky", Run: func(ctx context.Context) error {
			if atomic.AddInt32(&calls, 1) < 3 {
				return errors.New("transient")
			}
			return nil
		}})

		assert.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 3 }, time.Second, 5*time.Millisecond)
	})

	t.Run("gives up after max retry", func(t *testing.T) {
		p := newTestPool(1)
		p.Start(context.Background())
		defer p.Stop()

		var calls int32
		p.AddTask(Task{Name: "broken", Run: func(ctx context.Context) error {
			atomic.AddInt32(&calls, 1)
			return errors.New("permanent")
		}})

		assert.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 2 }, time.Second, 5*time.Millisecond)
		time.Sleep(20 * time.Millisecond)
		assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	})
}

func TestWorkerPoolQueueFull(t *testing.T) {
	p := NewWorkerPool(1, 2, 0, nil)
	// 未启动时不消费，队列写满后拒绝
	noop := Task{Name: "noop", Run: func(ctx context.Context) error { return nil }}
	assert.True(t, p.AddTask(noop))
	assert.True(t, p.AddTask(noop))
	assert.False(t, p.AddTask(noop))
}

func TestWorkerPoolRejectsAfterStop(t *testing.T) {
	p := newTestPool(0)
	p.Start(context.Background())
	p.Stop()

	assert.False(t, p.AddTask(Task{Name: "late", Run: func(ctx context.Context) error { return nil }}))
}
