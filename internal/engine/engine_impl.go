package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/petrijr/formflow/pkg/api"
	"github.com/petrijr/formflow/pkg/lint"
)

// engineImpl is a synchronous, in-process form engine. Transitions are
// computed by a Reducer under mu; observers and the submit callback run after
// mu is released so they may call back into the engine.
type engineImpl struct {
	schema   *api.FormSchema
	reducer  *Reducer
	onSubmit api.SubmitFunc
	observer api.Observer
	logger   *slog.Logger
	info     api.SessionInfo

	mu    sync.Mutex
	state api.FormState
}

// Config describes how to construct an engine.
// Only used inside this module; external callers use the root package helpers.
type Config struct {
	Observer api.Observer
	Logger   *slog.Logger
	Mode     api.ValidationMode

	// SessionID is reported to observers. It may be empty.
	SessionID string
}

// NewEngine returns an engine for schema with the default configuration.
func NewEngine(schema *api.FormSchema, onSubmit api.SubmitFunc) (api.Engine, error) {
	return NewEngineWithConfig(context.Background(), schema, onSubmit, Config{})
}

// NewEngineWithConfig validates schema, logs lint findings and returns an
// engine positioned on the first question.
func NewEngineWithConfig(ctx context.Context, schema *api.FormSchema, onSubmit api.SubmitFunc, cfg Config) (api.Engine, error) {
	if schema == nil {
		return nil, fmt.Errorf("%w: nil schema", api.ErrInvalidSchema)
	}
	if err := schema.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	obs := cfg.Observer
	if obs == nil {
		obs = api.NoopObserver{}
	}

	// The engine keeps its own copy of the question list so later edits by
	// the caller cannot break its invariants.
	own := *schema
	own.Questions = append([]api.Question(nil), schema.Questions...)

	for _, issue := range lint.Check(&own).Issues {
		logger.WarnContext(ctx, "schema issue",
			slog.String("form", own.ID),
			slog.String("severity", issue.Severity),
			slog.String("field", issue.Field),
			slog.String("message", issue.Message),
		)
	}

	e := &engineImpl{
		schema:   &own,
		reducer:  NewReducer(&own, cfg.Mode, logger),
		onSubmit: onSubmit,
		observer: obs,
		logger:   logger,
		info:     api.SessionInfo{SessionID: cfg.SessionID, FormID: own.ID},
		state:    api.NewFormState(&own),
	}

	e.observer.OnSessionStart(ctx, e.info, e.state.Clone())
	return e, nil
}

func (e *engineImpl) Schema() *api.FormSchema {
	return e.schema
}

func (e *engineImpl) State() api.FormState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

func (e *engineImpl) CurrentQuestion() (*api.Question, bool) {
	e.mu.Lock()
	id := e.state.CurrentStepID
	e.mu.Unlock()
	return e.schema.Question(id)
}

func (e *engineImpl) CanGoBack() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.CanGoBack()
}

func (e *engineImpl) Progress() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Completed {
		return 100
	}
	n := len(e.schema.Questions)
	idx := e.schema.IndexOf(e.state.CurrentStepID)
	if n == 0 || idx < 0 {
		return 0
	}
	return float64(idx) / float64(n) * 100
}

func (e *engineImpl) SetAnswer(ctx context.Context, questionID string, value api.AnswerValue) {
	e.apply(ctx, Event{Kind: EventSetAnswer, QuestionID: questionID, Value: value})
}

func (e *engineImpl) NextStep(ctx context.Context) {
	e.apply(ctx, Event{Kind: EventNext})
}

func (e *engineImpl) PrevStep(ctx context.Context) {
	e.apply(ctx, Event{Kind: EventPrev})
}

func (e *engineImpl) JumpToStep(ctx context.Context, stepID string) {
	e.apply(ctx, Event{Kind: EventJump, QuestionID: stepID})
}

func (e *engineImpl) SubmitForm(ctx context.Context) {
	e.apply(ctx, Event{Kind: EventSubmit})
}

func (e *engineImpl) ResetForm(ctx context.Context) {
	e.apply(ctx, Event{Kind: EventReset})
}

func (e *engineImpl) RegisterError(ctx context.Context, questionID string, msg *string) {
	e.apply(ctx, Event{Kind: EventRegisterError, QuestionID: questionID, Message: msg})
}

// apply runs one transition and its side effects.
func (e *engineImpl) apply(ctx context.Context, ev Event) {
	e.mu.Lock()
	res := e.reducer.Reduce(e.state, ev)
	e.state = res.State
	var snapshot api.Answers
	if res.Submit {
		e.state.Submitting = true
		snapshot = e.state.Answers.Clone()
	}
	e.mu.Unlock()

	if res.Warning != "" {
		e.logger.WarnContext(ctx, res.Warning,
			slog.String("form", e.info.FormID),
			slog.String("session_id", e.info.SessionID),
			slog.String("event", ev.Kind.String()),
			slog.String("question", ev.QuestionID),
		)
	}

	switch {
	case res.Reset:
		e.observer.OnReset(ctx, e.info)
	case res.Invalid != nil:
		e.observer.OnValidationFailed(ctx, e.info, res.InvalidStep, res.Invalid.Message)
	case ev.Kind == EventSetAnswer && res.Changed:
		e.observer.OnAnswerSet(ctx, e.info, ev.QuestionID)
	}
	if res.Step != nil {
		e.observer.OnStepChanged(ctx, e.info, res.Step.From, res.Step.To, res.Step.Reason)
	}

	if res.Submit {
		e.submit(ctx, snapshot)
		if res.Completed {
			e.observer.OnCompleted(ctx, e.info, snapshot)
		}
	}
}

func (e *engineImpl) submit(ctx context.Context, answers api.Answers) {
	var err error
	if e.onSubmit != nil {
		err = e.onSubmit(ctx, answers)
	}

	e.mu.Lock()
	e.state.Submitting = false
	e.mu.Unlock()

	if err != nil {
		e.logger.ErrorContext(ctx, "submit callback failed",
			slog.String("form", e.info.FormID),
			slog.String("session_id", e.info.SessionID),
			slog.Any("error", err),
		)
	}
	e.observer.OnSubmitted(ctx, e.info, answers, err)
}
