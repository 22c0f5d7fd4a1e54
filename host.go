package formflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/petrijr/formflow/internal/engine"
	"github.com/petrijr/formflow/internal/persistence"
	"github.com/petrijr/formflow/internal/taskqueue"
	"github.com/petrijr/formflow/pkg/api"
	"github.com/petrijr/formflow/pkg/worker"
)

// ErrSessionNotFound is returned for an unknown session id.
var ErrSessionNotFound = errors.New("session not found")

// HostConfig wires the submission pipeline. Every field is optional.
type HostConfig struct {
	// Store receives delivered submissions. Defaults to an in-memory store.
	Store SubmissionStore

	// Events records session history. Defaults to discarding events.
	Events EventStore

	// Queue buffers delivery tasks. Defaults to an in-memory queue.
	Queue Queue

	Worker WorkerConfig

	// IdleDelay is how long a worker waits after the queue returned no task
	// or an error. Defaults to 200ms.
	IdleDelay time.Duration

	// Observer is attached to every session in addition to the event recorder.
	Observer Observer
	Logger   *slog.Logger
	Mode     ValidationMode
}

// Host serves registered forms to many sessions and delivers their
// submissions to a SubmissionStore through a queue and background workers.
//
// Typical usage:
//
//	host := formflow.NewHost(formflow.HostConfig{})
//	_ = host.Register(schema)
//	_ = host.StartWorkers(ctx, 2)
//	defer host.Stop()
//
//	sess, _ := host.OpenSession(ctx, "signup")
//	sess.SetAnswer(ctx, "name", formflow.String("Ann"))
//	sess.NextStep(ctx)
type Host struct {
	registry  *engine.Registry
	stores    persistence.Persistence
	queue     taskqueue.Queue
	worker    *worker.Worker
	observer  api.Observer
	logger    *slog.Logger
	mode      api.ValidationMode
	idleDelay time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	running  bool
}

// NewHost constructs a Host from cfg.
func NewHost(cfg HostConfig) *Host {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	stores := persistence.Persistence{Submissions: cfg.Store, Events: cfg.Events}.WithDefaults()
	queue := cfg.Queue
	if queue == nil {
		queue = taskqueue.NewInMemoryQueue(1024)
	}
	idleDelay := cfg.IdleDelay
	if idleDelay <= 0 {
		idleDelay = 200 * time.Millisecond
	}
	wcfg := cfg.Worker
	if wcfg.Logger == nil {
		wcfg.Logger = logger
	}

	return &Host{
		registry:  engine.NewRegistry(),
		stores:    stores,
		queue:     queue,
		worker:    worker.NewWithConfig(stores.Submissions, queue, wcfg),
		observer:  api.NewCompositeObserver(cfg.Observer, NewEventRecorder(stores.Events, logger)),
		logger:    logger,
		mode:      cfg.Mode,
		idleDelay: idleDelay,
		sessions:  make(map[string]*Session),
	}
}

// Register adds a schema version to the host.
func (h *Host) Register(schema *FormSchema) error {
	return h.registry.Register(schema)
}

// Versions lists the registered versions of a form.
func (h *Host) Versions(formID string) []string {
	return h.registry.Versions(formID)
}

// OpenSession starts a session on the latest version of formID.
func (h *Host) OpenSession(ctx context.Context, formID string) (*Session, error) {
	schema, err := h.registry.Latest(formID)
	if err != nil {
		return nil, err
	}
	return h.open(ctx, schema)
}

// OpenSessionVersion starts a session on a specific version of formID.
func (h *Host) OpenSessionVersion(ctx context.Context, formID, version string) (*Session, error) {
	schema, err := h.registry.Get(formID, version)
	if err != nil {
		return nil, err
	}
	return h.open(ctx, schema)
}

func (h *Host) open(ctx context.Context, schema *api.FormSchema) (*Session, error) {
	id := uuid.NewString()
	sess, err := NewSession(ctx, schema, h.submitFunc(schema, id), SessionConfig{
		ID:       id,
		Observer: api.NewCompositeObserver(h.observer, releaseHook{h: h, autoReload: schema.AutoReload}),
		Logger:   h.logger,
		Mode:     h.mode,
	})
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	h.sessions[id] = sess
	h.mu.Unlock()
	return sess, nil
}

// submitFunc enqueues the answer snapshot for delivery. The engine does not
// wait for the store.
func (h *Host) submitFunc(schema *api.FormSchema, sessionID string) api.SubmitFunc {
	formID, version := schema.ID, schema.Version
	return func(ctx context.Context, answers api.Answers) error {
		sub := api.Submission{
			ID:          uuid.NewString(),
			FormID:      formID,
			FormVersion: version,
			SessionID:   sessionID,
			Answers:     answers.Clone(),
			SubmittedAt: time.Now().UTC(),
		}
		if err := h.worker.EnqueueSubmission(ctx, sub); err != nil {
			return fmt.Errorf("enqueue submission %s: %w", sub.ID, err)
		}
		return nil
	}
}

// Session returns an open session. A session whose form completed without
// AutoReload is no longer open.
func (h *Host) Session(id string) (*Session, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	sess, ok := h.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %q: %w", id, ErrSessionNotFound)
	}
	return sess, nil
}

// releaseHook drops a completed session from the host unless the form
// reloads itself. The caller's *Session stays usable.
type releaseHook struct {
	api.NoopObserver
	h          *Host
	autoReload bool
}

func (r releaseHook) OnCompleted(ctx context.Context, info api.SessionInfo, answers api.Answers) {
	if r.autoReload {
		return
	}
	r.h.mu.Lock()
	delete(r.h.sessions, info.SessionID)
	r.h.mu.Unlock()
}

// CloseSession cancels the session's pending auto-reload and forgets it.
func (h *Host) CloseSession(id string) error {
	h.mu.Lock()
	sess, ok := h.sessions[id]
	delete(h.sessions, id)
	h.mu.Unlock()

	if !ok {
		return fmt.Errorf("session %q: %w", id, ErrSessionNotFound)
	}
	sess.Close()
	return nil
}

// Submissions lists delivered submissions.
func (h *Host) Submissions(ctx context.Context, filter SubmissionFilter) ([]*Submission, error) {
	return h.stores.Submissions.ListSubmissions(ctx, filter)
}

// Events lists the recorded history of a session.
func (h *Host) Events(ctx context.Context, sessionID string) ([]FormEvent, error) {
	return h.stores.Events.ListEvents(ctx, sessionID)
}

// Pending returns the approximate number of undelivered submissions.
func (h *Host) Pending() int {
	return h.queue.Len()
}

// Worker exposes the delivery worker, e.g. to drive it manually in tests.
func (h *Host) Worker() *worker.Worker {
	return h.worker
}

// StartWorkers starts 'concurrency' worker goroutines that continuously call
// Worker.ProcessOne(ctx) until the context is cancelled via Stop.
//
// If StartWorkers is called more than once without Stop, it returns an error.
func (h *Host) StartWorkers(ctx context.Context, concurrency int) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.running {
		return errors.New("formflow: host workers already started")
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	h.cancel = cancel
	h.running = true

	h.wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func() {
			defer h.wg.Done()
			for {
				processed, err := h.worker.ProcessOne(ctx)
				if err != nil {
					if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
						return
					}
					// A failed task was logged by the worker; a failed
					// dequeue was not.
					if !processed {
						h.logger.ErrorContext(ctx, "dequeue failed", slog.Any("error", err))
					}
				}
				if processed {
					continue
				}
				select {
				case <-ctx.Done():
					return
				case <-time.After(h.idleDelay):
				}
			}
		}()
	}
	return nil
}

// Stop cancels all worker goroutines started by StartWorkers and waits
// for them to exit. Open sessions are closed.
func (h *Host) Stop() {
	h.mu.Lock()
	cancel := h.cancel
	h.running = false
	h.cancel = nil
	sessions := h.sessions
	h.sessions = make(map[string]*Session)
	h.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
	}
	if cancel != nil {
		cancel()
	}
	h.wg.Wait()
}
