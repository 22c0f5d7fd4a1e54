package api

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// SessionInfo identifies the session an observer callback belongs to.
type SessionInfo struct {
	SessionID string
	FormID    string
}

// Observer receives callbacks from the form engine for logging and metrics.
//
// Callbacks run on the caller's goroutine after the engine state has been
// updated and its lock released. Implementations should be fast and
// non-blocking.
type Observer interface {
	// OnSessionStart is called once when an engine is constructed.
	OnSessionStart(ctx context.Context, s SessionInfo, state FormState)

	// OnAnswerSet is called after SetAnswer stored a value.
	OnAnswerSet(ctx context.Context, s SessionInfo, questionID string)

	// OnStepChanged is called whenever the current step moves.
	OnStepChanged(ctx context.Context, s SessionInfo, from, to string, reason StepReason)

	// OnValidationFailed is called when NextStep is blocked by validation.
	OnValidationFailed(ctx context.Context, s SessionInfo, questionID, message string)

	// OnSubmitted is called each time the submit callback is invoked,
	// including manual SubmitForm calls. err is the callback's result.
	OnSubmitted(ctx context.Context, s SessionInfo, answers Answers, err error)

	// OnCompleted is called once when the form enters the completed state.
	OnCompleted(ctx context.Context, s SessionInfo, answers Answers)

	// OnReset is called after ResetForm.
	OnReset(ctx context.Context, s SessionInfo)
}

// NoopObserver is an Observer that does nothing.
// It is used as the default when no observer is configured.
type NoopObserver struct{}

func (NoopObserver) OnSessionStart(ctx context.Context, s SessionInfo, state FormState) {}
func (NoopObserver) OnAnswerSet(ctx context.Context, s SessionInfo, questionID string)  {}
func (NoopObserver) OnStepChanged(ctx context.Context, s SessionInfo, from, to string, reason StepReason) {
}
func (NoopObserver) OnValidationFailed(ctx context.Context, s SessionInfo, questionID, message string) {
}
func (NoopObserver) OnSubmitted(ctx context.Context, s SessionInfo, answers Answers, err error) {}
func (NoopObserver) OnCompleted(ctx context.Context, s SessionInfo, answers Answers)            {}
func (NoopObserver) OnReset(ctx context.Context, s SessionInfo)                                 {}

// CompositeObserver fans out events to multiple observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer that forwards events to each
// non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return NoopObserver{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnSessionStart(ctx context.Context, s SessionInfo, state FormState) {
	for _, o := range c.observers {
		o.OnSessionStart(ctx, s, state)
	}
}

func (c *CompositeObserver) OnAnswerSet(ctx context.Context, s SessionInfo, questionID string) {
	for _, o := range c.observers {
		o.OnAnswerSet(ctx, s, questionID)
	}
}

func (c *CompositeObserver) OnStepChanged(ctx context.Context, s SessionInfo, from, to string, reason StepReason) {
	for _, o := range c.observers {
		o.OnStepChanged(ctx, s, from, to, reason)
	}
}

func (c *CompositeObserver) OnValidationFailed(ctx context.Context, s SessionInfo, questionID, message string) {
	for _, o := range c.observers {
		o.OnValidationFailed(ctx, s, questionID, message)
	}
}

func (c *CompositeObserver) OnSubmitted(ctx context.Context, s SessionInfo, answers Answers, err error) {
	for _, o := range c.observers {
		o.OnSubmitted(ctx, s, answers, err)
	}
}

func (c *CompositeObserver) OnCompleted(ctx context.Context, s SessionInfo, answers Answers) {
	for _, o := range c.observers {
		o.OnCompleted(ctx, s, answers)
	}
}

func (c *CompositeObserver) OnReset(ctx context.Context, s SessionInfo) {
	for _, o := range c.observers {
		o.OnReset(ctx, s)
	}
}

// LoggingObserver writes structured logs using log/slog.
type LoggingObserver struct {
	Logger *slog.Logger
}

// NewLoggingObserver creates an Observer that logs session lifecycle events
// using the provided slog.Logger. If logger is nil, slog.Default() is used.
func NewLoggingObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{Logger: logger}
}

func (o *LoggingObserver) OnSessionStart(ctx context.Context, s SessionInfo, state FormState) {
	o.Logger.InfoContext(ctx, "session_start",
		slog.String("form", s.FormID),
		slog.String("session_id", s.SessionID),
		slog.String("step", state.CurrentStepID),
	)
}

func (o *LoggingObserver) OnAnswerSet(ctx context.Context, s SessionInfo, questionID string) {
	o.Logger.DebugContext(ctx, "answer_set",
		slog.String("form", s.FormID),
		slog.String("session_id", s.SessionID),
		slog.String("question", questionID),
	)
}

func (o *LoggingObserver) OnStepChanged(ctx context.Context, s SessionInfo, from, to string, reason StepReason) {
	o.Logger.DebugContext(ctx, "step_changed",
		slog.String("form", s.FormID),
		slog.String("session_id", s.SessionID),
		slog.String("from", from),
		slog.String("to", to),
		slog.String("reason", string(reason)),
	)
}

func (o *LoggingObserver) OnValidationFailed(ctx context.Context, s SessionInfo, questionID, message string) {
	o.Logger.InfoContext(ctx, "validation_failed",
		slog.String("form", s.FormID),
		slog.String("session_id", s.SessionID),
		slog.String("question", questionID),
		slog.String("message", message),
	)
}

func (o *LoggingObserver) OnSubmitted(ctx context.Context, s SessionInfo, answers Answers, err error) {
	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelError
	}
	o.Logger.Log(ctx, level, "form_submitted",
		slog.String("form", s.FormID),
		slog.String("session_id", s.SessionID),
		slog.Int("answers", len(answers)),
		slog.Any("error", err),
	)
}

func (o *LoggingObserver) OnCompleted(ctx context.Context, s SessionInfo, answers Answers) {
	o.Logger.InfoContext(ctx, "form_completed",
		slog.String("form", s.FormID),
		slog.String("session_id", s.SessionID),
		slog.Int("answers", len(answers)),
	)
}

func (o *LoggingObserver) OnReset(ctx context.Context, s SessionInfo) {
	o.Logger.InfoContext(ctx, "form_reset",
		slog.String("form", s.FormID),
		slog.String("session_id", s.SessionID),
	)
}

// BasicMetrics collects simple counters across sessions.
// It implements Observer, and can be combined with LoggingObserver via
// NewCompositeObserver.
type BasicMetrics struct {
	NoopObserver

	sessionsStarted    atomic.Int64
	sessionsCompleted  atomic.Int64
	submissions        atomic.Int64
	submitFailures     atomic.Int64
	validationFailures atomic.Int64
	forwardSteps       atomic.Int64
	backSteps          atomic.Int64
	jumps              atomic.Int64
	resets             atomic.Int64
}

// BasicMetricsSnapshot is an immutable snapshot of BasicMetrics.
type BasicMetricsSnapshot struct {
	SessionsStarted int64
	Completions     int64

	Submissions        int64
	SubmitFailures     int64
	ValidationFailures int64

	ForwardSteps int64
	BackSteps    int64
	Jumps        int64
	Resets       int64
}

func (m *BasicMetrics) OnSessionStart(ctx context.Context, s SessionInfo, state FormState) {
	m.sessionsStarted.Add(1)
}

func (m *BasicMetrics) OnStepChanged(ctx context.Context, s SessionInfo, from, to string, reason StepReason) {
	switch reason {
	case ReasonBack:
		m.backSteps.Add(1)
	case ReasonJump:
		m.jumps.Add(1)
	default:
		m.forwardSteps.Add(1)
	}
}

func (m *BasicMetrics) OnValidationFailed(ctx context.Context, s SessionInfo, questionID, message string) {
	m.validationFailures.Add(1)
}

func (m *BasicMetrics) OnSubmitted(ctx context.Context, s SessionInfo, answers Answers, err error) {
	m.submissions.Add(1)
	if err != nil {
		m.submitFailures.Add(1)
	}
}

func (m *BasicMetrics) OnCompleted(ctx context.Context, s SessionInfo, answers Answers) {
	m.sessionsCompleted.Add(1)
}

func (m *BasicMetrics) OnReset(ctx context.Context, s SessionInfo) {
	m.resets.Add(1)
}

// Snapshot returns a snapshot of the current metrics.
func (m *BasicMetrics) Snapshot() BasicMetricsSnapshot {
	return BasicMetricsSnapshot{
		SessionsStarted:    m.sessionsStarted.Load(),
		Completions:        m.sessionsCompleted.Load(),
		Submissions:        m.submissions.Load(),
		SubmitFailures:     m.submitFailures.Load(),
		ValidationFailures: m.validationFailures.Load(),
		ForwardSteps:       m.forwardSteps.Load(),
		BackSteps:          m.backSteps.Load(),
		Jumps:              m.jumps.Load(),
		Resets:             m.resets.Load(),
	}
}
