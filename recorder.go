package formflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/petrijr/formflow/internal/persistence"
	"github.com/petrijr/formflow/pkg/api"
)

// EventRecorder is an Observer that appends session history to an EventStore.
// Store failures are logged and never affect the session.
type EventRecorder struct {
	store  persistence.EventStore
	logger *slog.Logger
}

var _ api.Observer = (*EventRecorder)(nil)

// NewEventRecorder returns an Observer writing to store.
func NewEventRecorder(store EventStore, logger *slog.Logger) *EventRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventRecorder{store: store, logger: logger}
}

func (r *EventRecorder) record(ctx context.Context, s api.SessionInfo, typ api.EventType, question, detail string) {
	ev := api.FormEvent{
		SessionID: s.SessionID,
		At:        time.Now().UTC(),
		Type:      typ,
		FormID:    s.FormID,
		Question:  question,
		Detail:    detail,
	}
	if err := r.store.AppendEvent(ctx, ev); err != nil {
		r.logger.WarnContext(ctx, "record event failed",
			slog.String("session_id", s.SessionID),
			slog.String("type", string(typ)),
			slog.Any("error", err),
		)
	}
}

func (r *EventRecorder) OnSessionStart(ctx context.Context, s api.SessionInfo, state api.FormState) {
	r.record(ctx, s, api.EventSessionStarted, state.CurrentStepID, "")
}

func (r *EventRecorder) OnAnswerSet(ctx context.Context, s api.SessionInfo, questionID string) {
	r.record(ctx, s, api.EventAnswerSet, questionID, "")
}

func (r *EventRecorder) OnStepChanged(ctx context.Context, s api.SessionInfo, from, to string, reason api.StepReason) {
	r.record(ctx, s, api.EventStepChanged, to, fmt.Sprintf("%s -> %s (%s)", from, to, reason))
}

func (r *EventRecorder) OnValidationFailed(ctx context.Context, s api.SessionInfo, questionID, message string) {
	r.record(ctx, s, api.EventValidationFailed, questionID, message)
}

func (r *EventRecorder) OnSubmitted(ctx context.Context, s api.SessionInfo, answers api.Answers, err error) {
	detail := fmt.Sprintf("%d answers", len(answers))
	if err != nil {
		detail = err.Error()
	}
	r.record(ctx, s, api.EventFormSubmitted, "", detail)
}

func (r *EventRecorder) OnCompleted(ctx context.Context, s api.SessionInfo, answers api.Answers) {
	r.record(ctx, s, api.EventFormCompleted, "", "")
}

func (r *EventRecorder) OnReset(ctx context.Context, s api.SessionInfo) {
	r.record(ctx, s, api.EventFormReset, "", "")
}
