package taskqueue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInMemoryQueue_Contract(t *testing.T) {
	runQueueContract(t, NewInMemoryQueue(16))
}

func TestInMemoryQueue_DefaultCapacity(t *testing.T) {
	q := NewInMemoryQueue(0)
	require.Equal(t, 1024, cap(q.ch))
}

func TestInMemoryQueue_LenCountsDelayedTasks(t *testing.T) {
	q := NewInMemoryQueue(4)
	ctx := context.Background()

	task := sampleTask("later")
	task.NotBefore = time.Now().Add(time.Hour)
	require.NoError(t, q.Enqueue(ctx, task))
	require.Equal(t, 1, q.Len())
}

func TestInMemoryQueue_EnqueueFullQueueRespectsContext(t *testing.T) {
	q := NewInMemoryQueue(1)
	require.NoError(t, q.Enqueue(context.Background(), sampleTask("a")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, q.Enqueue(ctx, sampleTask("b")), context.Canceled)
}

func TestInMemoryQueue_CloseReleasesBlockedDelayedTask(t *testing.T) {
	q := NewInMemoryQueue(1)
	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, sampleTask("a")))

	later := sampleTask("b")
	later.NotBefore = time.Now().Add(10 * time.Millisecond)
	require.NoError(t, q.Enqueue(ctx, later))

	// The delayed task is due but the buffer is full.
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 2, q.Len())

	require.NoError(t, q.Close())
	require.Eventually(t, func() bool { return q.Len() == 1 }, time.Second, 5*time.Millisecond)

	got, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.Equal(t, "a", got.ID)

	require.ErrorIs(t, q.Enqueue(ctx, sampleTask("c")), ErrQueueClosed)
	require.NoError(t, q.Close(), "Close is idempotent")
}

func TestInMemoryQueue_ConcurrentConsumers(t *testing.T) {
	q := NewInMemoryQueue(64)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	const n = 50
	for i := 0; i < n; i++ {
		require.NoError(t, q.Enqueue(ctx, NewDeliveryTask(sampleTask("x").Payload)))
	}

	var (
		mu   sync.Mutex
		seen = map[string]bool{}
		wg   sync.WaitGroup
	)
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				mu.Lock()
				done := len(seen) == n
				mu.Unlock()
				if done || ctx.Err() != nil {
					return
				}
				dctx, dcancel := context.WithTimeout(ctx, 100*time.Millisecond)
				task, err := q.Dequeue(dctx)
				dcancel()
				if err != nil {
					continue
				}
				mu.Lock()
				seen[task.ID] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, seen, n, "every task is delivered exactly once")
}
