package taskqueue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrQueueClosed is returned by Enqueue after Close.
var ErrQueueClosed = errors.New("taskqueue: queue closed")

// InMemoryQueue is a simple Queue implementation backed by a buffered channel.
// Tasks with a future NotBefore are held on a timer and pushed when due; a
// due task waits for free capacity until it is consumed or the queue is
// closed. It is safe for concurrent use.
type InMemoryQueue struct {
	ch      chan Task
	delayed atomic.Int64

	done      chan struct{}
	closeOnce sync.Once
}

// NewInMemoryQueue creates a new queue with the given capacity.
// For tests and small deployments, a modest capacity (e.g. 1024) is fine.
func NewInMemoryQueue(capacity int) *InMemoryQueue {
	if capacity <= 0 {
		capacity = 1024
	}
	return &InMemoryQueue{
		ch:   make(chan Task, capacity),
		done: make(chan struct{}),
	}
}

// Ensure InMemoryQueue implements Queue.
var _ Queue = (*InMemoryQueue)(nil)

func (q *InMemoryQueue) Enqueue(ctx context.Context, t Task) error {
	select {
	case <-q.done:
		return ErrQueueClosed
	default:
	}
	t = normalize(t)

	if d := time.Until(t.NotBefore); d > 0 {
		q.delayed.Add(1)
		time.AfterFunc(d, func() {
			defer q.delayed.Add(-1)
			select {
			case q.ch <- t:
			case <-q.done:
			}
		})
		return nil
	}

	select {
	case q.ch <- t:
		return nil
	case <-q.done:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *InMemoryQueue) Dequeue(ctx context.Context) (*Task, error) {
	select {
	case t := <-q.ch:
		return &t, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *InMemoryQueue) Len() int {
	return len(q.ch) + int(q.delayed.Load())
}

// Close rejects further tasks and drops delayed tasks that have not been
// pushed yet, releasing their timers. Tasks already buffered can still be
// dequeued. Close is idempotent.
func (q *InMemoryQueue) Close() error {
	q.closeOnce.Do(func() { close(q.done) })
	return nil
}
