package taskqueue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/petrijr/formflow/pkg/api"
)

func sampleTask(id string) Task {
	t := NewDeliveryTask(api.Submission{
		ID:          "sub-" + id,
		FormID:      "contact",
		SessionID:   "sess-" + id,
		Answers:     api.Answers{"name": api.String("Ann"), "age": api.Number(42)},
		SubmittedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	})
	t.ID = id
	return t
}

// runQueueContract exercises the behavior every Queue backend shares.
func runQueueContract(t *testing.T, q Queue) {
	t.Helper()

	t.Run("fifo order and payload", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		for _, id := range []string{"t1", "t2", "t3"} {
			require.NoError(t, q.Enqueue(ctx, sampleTask(id)))
			// Distinct enqueue timestamps keep the order deterministic.
			time.Sleep(2 * time.Millisecond)
		}
		require.Equal(t, 3, q.Len())

		for _, id := range []string{"t1", "t2", "t3"} {
			got, err := q.Dequeue(ctx)
			require.NoError(t, err)
			require.Equal(t, id, got.ID)
			require.Equal(t, TaskTypeDeliverSubmission, got.Type)
			require.Equal(t, sampleTask(id).Payload, got.Payload)
		}
		require.Equal(t, 0, q.Len())
	})

	t.Run("not before delays delivery", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		task := sampleTask("delayed")
		task.NotBefore = time.Now().Add(150 * time.Millisecond)
		task.Attempts = 2
		task.LastError = "store unavailable"
		require.NoError(t, q.Enqueue(ctx, task))

		start := time.Now()
		got, err := q.Dequeue(ctx)
		require.NoError(t, err)
		require.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
		require.Equal(t, "delayed", got.ID)
		require.Equal(t, 2, got.Attempts)
		require.Equal(t, "store unavailable", got.LastError)
	})

	t.Run("dequeue honours cancellation", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		got, err := q.Dequeue(ctx)
		require.Nil(t, got)
		require.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
	})
}
