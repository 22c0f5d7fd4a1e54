package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/petrijr/formflow/internal/persistence"
	"github.com/petrijr/formflow/internal/taskqueue"
	"github.com/petrijr/formflow/pkg/api"
)

// ErrAttemptsExhausted is returned by ProcessOne when a delivery failed for
// the last permitted time.
var ErrAttemptsExhausted = errors.New("worker: delivery attempts exhausted")

// Config controls delivery retries.
type Config struct {
	// MaxAttempts includes the first attempt. Zero means 3.
	MaxAttempts int

	// Backoff is the delay before the first retry. Zero retries immediately.
	Backoff    time.Duration
	MaxBackoff time.Duration
	// Multiplier defaults to 2.
	Multiplier float64

	Logger *slog.Logger
}

func (c Config) retryPolicy() api.RetryPolicy {
	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	return api.RetryPolicy{
		MaxAttempts:       attempts,
		InitialBackoff:    c.Backoff,
		MaxBackoff:        c.MaxBackoff,
		BackoffMultiplier: c.Multiplier,
	}
}

// Worker pulls delivery tasks from a Queue and saves them to a SubmissionStore.
type Worker struct {
	store  persistence.SubmissionStore
	queue  taskqueue.Queue
	policy api.RetryPolicy
	logger *slog.Logger
}

// New creates a new Worker with the default configuration.
func New(store persistence.SubmissionStore, queue taskqueue.Queue) *Worker {
	return NewWithConfig(store, queue, Config{})
}

// NewWithConfig creates a Worker with explicit retry settings.
func NewWithConfig(store persistence.SubmissionStore, queue taskqueue.Queue, cfg Config) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		store:  store,
		queue:  queue,
		policy: cfg.retryPolicy(),
		logger: logger,
	}
}

// EnqueueSubmission enqueues a task to deliver sub asynchronously.
// It does NOT save the submission itself; that is done by ProcessOne.
func (w *Worker) EnqueueSubmission(ctx context.Context, sub api.Submission) error {
	return w.queue.Enqueue(ctx, taskqueue.NewDeliveryTask(sub))
}

// EnqueueSubmissionAt enqueues a delivery task that becomes eligible no
// earlier than at.
func (w *Worker) EnqueueSubmissionAt(ctx context.Context, sub api.Submission, at time.Time) error {
	t := taskqueue.NewDeliveryTask(sub)
	t.NotBefore = at
	return w.queue.Enqueue(ctx, t)
}

// ProcessOne pulls a single task from the queue and processes it.
// Returns (processed, error):
//   - processed == false: no task was obtained; err is the dequeue error
//     (typically context cancellation).
//   - processed == true, err == nil: the submission was saved, or a failed
//     save was scheduled for retry.
//   - processed == true, err != nil: the task is unusable or its last
//     attempt failed; it will not be retried.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	task, err := w.queue.Dequeue(ctx)
	if err != nil {
		return false, err
	}
	if task == nil {
		return false, nil
	}

	if task.Type != taskqueue.TaskTypeDeliverSubmission {
		w.logger.ErrorContext(ctx, "unknown task type dropped",
			slog.String("task_id", task.ID),
			slog.String("type", string(task.Type)),
		)
		return true, fmt.Errorf("unknown task type: %s", task.Type)
	}

	// A claimed task is finished even when shutdown cancels ctx meanwhile.
	sub := task.Payload
	saveErr := w.store.SaveSubmission(context.WithoutCancel(ctx), &sub)
	if saveErr == nil {
		w.logger.DebugContext(ctx, "submission delivered",
			slog.String("task_id", task.ID),
			slog.String("submission_id", sub.ID),
			slog.String("form", sub.FormID),
			slog.Int("attempt", task.Attempts+1),
		)
		return true, nil
	}

	return true, w.retry(ctx, task, saveErr)
}

// retry re-enqueues task after a failed save, or gives up once the policy's
// attempts are used.
func (w *Worker) retry(ctx context.Context, task *taskqueue.Task, cause error) error {
	task.Attempts++
	task.LastError = cause.Error()

	// Invalid submissions never succeed on retry.
	if errors.Is(cause, persistence.ErrInvalidSubmission) || task.Attempts >= w.policy.MaxAttempts {
		w.logger.ErrorContext(ctx, "submission delivery failed",
			slog.String("task_id", task.ID),
			slog.String("submission_id", task.Payload.ID),
			slog.Int("attempts", task.Attempts),
			slog.Any("error", cause),
		)
		return fmt.Errorf("%w: submission %s after %d attempts: %w",
			ErrAttemptsExhausted, task.Payload.ID, task.Attempts, cause)
	}

	delay := w.policy.NextBackoff(task.Attempts)
	task.NotBefore = time.Now().Add(delay)

	w.logger.WarnContext(ctx, "submission delivery retry scheduled",
		slog.String("task_id", task.ID),
		slog.String("submission_id", task.Payload.ID),
		slog.Int("attempts", task.Attempts),
		slog.Duration("backoff", delay),
		slog.Any("error", cause),
	)

	if err := w.queue.Enqueue(context.WithoutCancel(ctx), *task); err != nil {
		return fmt.Errorf("re-enqueue task %s: %w", task.ID, err)
	}
	return nil
}
