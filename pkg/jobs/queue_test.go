package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.Fail(t, "condition not met within timeout")
}

func TestQueueProcessesJobs(t *testing.T) {
	var processed atomic.Int32
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		processed.Add(1)
		return nil
	}, QueueConfig{Workers: 2, BufferSize: 8})

	q.Start(context.Background())
	defer q.Stop()

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(Job{ID: "j", Type: "noop"}))
	}
	waitFor(t, time.Second, func() bool { return processed.Load() == 5 })
}

func TestQueueRejectsBeforeStart(t *testing.T) {
	q := NewQueue("test", func(ctx context.Context, job Job) error { return nil }, QueueConfig{})
	require.Error(t, q.Enqueue(Job{ID: "j-1"}))
	require.Error(t, q.EnqueueAfter(Job{ID: "j-2"}, time.Minute))
}

func TestQueueRetriesUpToMaxRetries(t *testing.T) {
	var mu sync.Mutex
	attempts := 0
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		mu.Lock()
		attempts++
		mu.Unlock()
		return errors.New("always fails")
	}, QueueConfig{Workers: 1, MaxRetries: 2, RetryDelay: 5 * time.Millisecond})

	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "j-1", Type: "flaky"}))

	// Initial attempt plus two retries, then the job is dropped.
	waitFor(t, time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return attempts == 3
	})
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 3, attempts)
}

func TestQueueRecoversAfterTransientFailure(t *testing.T) {
	var mu sync.Mutex
	attempts := 0
	var succeeded atomic.Bool
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		mu.Lock()
		attempts++
		n := attempts
		mu.Unlock()
		if n < 2 {
			return errors.New("transient")
		}
		succeeded.Store(true)
		return nil
	}, QueueConfig{Workers: 1, MaxRetries: 3, RetryDelay: 5 * time.Millisecond})

	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "j-1"}))
	waitFor(t, time.Second, func() bool { return succeeded.Load() })
}

func TestEnqueueAfterFiresAfterDelay(t *testing.T) {
	var fired atomic.Bool
	var firedAt atomic.Int64
	start := time.Now()
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		firedAt.Store(int64(time.Since(start)))
		fired.Store(true)
		return nil
	}, QueueConfig{Workers: 1})

	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.EnqueueAfter(Job{ID: "j-1"}, 30*time.Millisecond))
	require.False(t, fired.Load())

	waitFor(t, time.Second, func() bool { return fired.Load() })
	require.GreaterOrEqual(t, time.Duration(firedAt.Load()), 25*time.Millisecond)
}

func TestEnqueueAfterZeroDelayRunsImmediately(t *testing.T) {
	var fired atomic.Bool
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		fired.Store(true)
		return nil
	}, QueueConfig{Workers: 1})

	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.EnqueueAfter(Job{ID: "j-1"}, -time.Hour))
	waitFor(t, time.Second, func() bool { return fired.Load() })
}
