// Package taskqueue holds submission delivery tasks between the form engine's
// submit callback and the workers that persist them.
package taskqueue

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/petrijr/formflow/pkg/api"
)

// TaskType identifies what the worker should do.
type TaskType string

const (
	// TaskTypeDeliverSubmission saves Payload to the submission store.
	TaskTypeDeliverSubmission TaskType = "deliver-submission"
)

// Task represents a unit of work for the worker.
type Task struct {
	ID   string   `json:"id"`
	Type TaskType `json:"type"`

	Payload api.Submission `json:"payload"`

	EnqueuedAt time.Time `json:"enqueuedAt"`

	// NotBefore is the earliest time this task should be eligible
	// for processing. Zero value means "immediately" (i.e., at enqueue time).
	NotBefore time.Time `json:"notBefore"`

	// Attempts counts failed deliveries so far.
	Attempts  int    `json:"attempts"`
	LastError string `json:"lastError,omitempty"`
}

// Queue is a simple async task queue interface.
type Queue interface {
	// Enqueue adds a task to the queue. It should respect ctx for cancellation.
	Enqueue(ctx context.Context, t Task) error

	// Dequeue removes and returns the next eligible task, blocking until one
	// is available or the context is cancelled.
	Dequeue(ctx context.Context) (*Task, error)

	// Len returns the approximate number of tasks queued.
	Len() int
}

// NewDeliveryTask wraps a submission in a delivery task.
func NewDeliveryTask(sub api.Submission) Task {
	return Task{
		ID:         uuid.NewString(),
		Type:       TaskTypeDeliverSubmission,
		Payload:    sub,
		EnqueuedAt: time.Now(),
	}
}

// normalize fills in the id and timestamps the backends rely on.
func normalize(t Task) Task {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.EnqueuedAt.IsZero() {
		t.EnqueuedAt = time.Now()
	}
	if t.NotBefore.IsZero() {
		t.NotBefore = t.EnqueuedAt
	}
	return t
}

// waitPoll sleeps for d on tmr or returns ctx.Err().
func waitPoll(ctx context.Context, tmr *time.Timer, d time.Duration) error {
	tmr.Reset(d)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-tmr.C:
		return nil
	}
}

// newStoppedTimer returns a timer that is ready for Reset.
func newStoppedTimer() *time.Timer {
	tmr := time.NewTimer(0)
	if !tmr.Stop() {
		select {
		case <-tmr.C:
		default:
		}
	}
	return tmr
}
