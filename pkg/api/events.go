package api

import "time"

// EventType identifies a form session history event.
type EventType string

const (
	EventSessionStarted   EventType = "session.started"
	EventAnswerSet        EventType = "answer.set"
	EventStepChanged      EventType = "step.changed"
	EventValidationFailed EventType = "validation.failed"
	EventFormSubmitted    EventType = "form.submitted"
	EventFormCompleted    EventType = "form.completed"
	EventFormReset        EventType = "form.reset"
)

// StepReason says why the current step changed.
type StepReason string

const (
	ReasonNext  StepReason = "next"
	ReasonLogic StepReason = "logic"
	ReasonBack  StepReason = "back"
	ReasonJump  StepReason = "jump"
)

// FormEvent is a minimal append-only history record for audit/debugging.
// Answer values are not recorded.
type FormEvent struct {
	SessionID string
	At        time.Time
	Type      EventType

	FormID   string
	Question string

	// Small, human-oriented details (e.g. "q1 -> q3", an error message).
	Detail string
}
