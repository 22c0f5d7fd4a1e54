package formflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/petrijr/formflow/internal/engine"
	"github.com/petrijr/formflow/pkg/api"
)

// SessionConfig describes how to construct a Session.
type SessionConfig struct {
	// ID identifies the session; a random UUID is used when empty.
	ID string

	Observer Observer
	Logger   *slog.Logger
	Mode     ValidationMode
}

// Session is one user's pass through a form. It embeds the Engine and adds
// the auto-reload behavior: when the schema sets AutoReload, a completed form
// is reset after its reload delay unless it is reset or closed first.
type Session struct {
	Engine

	id     string
	logger *slog.Logger

	mu     sync.Mutex
	timer  *time.Timer
	gen    uint64
	closed bool
}

// NewSession starts a session for schema. onSubmit may be nil.
func NewSession(ctx context.Context, schema *FormSchema, onSubmit SubmitFunc, cfg SessionConfig) (*Session, error) {
	id := cfg.ID
	if id == "" {
		id = uuid.NewString()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Session{id: id, logger: logger}
	eng, err := engine.NewEngineWithConfig(ctx, schema, onSubmit, engine.Config{
		Observer:  api.NewCompositeObserver(cfg.Observer, reloadHook{s: s}),
		Logger:    logger,
		Mode:      cfg.Mode,
		SessionID: id,
	})
	if err != nil {
		return nil, err
	}
	s.Engine = eng
	return s, nil
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// ReloadPending reports whether an auto-reload timer is armed.
func (s *Session) ReloadPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// Close cancels a pending auto-reload. The engine remains usable but will
// not be reset automatically again.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.cancelLocked()
}

func (s *Session) armReload(ctx context.Context) {
	schema := s.Schema()
	if !schema.AutoReload {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// The submit callback may already have reset the form.
	if s.closed || !s.State().Completed {
		return
	}
	s.cancelLocked()

	delay := time.Duration(schema.ReloadDelayMillis()) * time.Millisecond
	gen := s.gen
	ctx = context.WithoutCancel(ctx)
	s.timer = time.AfterFunc(delay, func() { s.fireReload(ctx, gen) })

	s.logger.DebugContext(ctx, "auto reload armed",
		slog.String("session_id", s.id),
		slog.Duration("delay", delay),
	)
}

func (s *Session) fireReload(ctx context.Context, gen uint64) {
	s.mu.Lock()
	if s.closed || s.gen != gen {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.mu.Unlock()

	s.ResetForm(ctx)
}

// cancelLocked stops a pending timer. Bumping gen invalidates a timer whose
// callback is already running.
func (s *Session) cancelLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
}

// reloadHook connects engine lifecycle callbacks to the session timer.
type reloadHook struct {
	api.NoopObserver
	s *Session
}

func (h reloadHook) OnCompleted(ctx context.Context, info api.SessionInfo, answers api.Answers) {
	h.s.armReload(ctx)
}

func (h reloadHook) OnReset(ctx context.Context, info api.SessionInfo) {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	h.s.cancelLocked()
}
