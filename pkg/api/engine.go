package api

import "context"

// SubmitFunc is the host callback invoked with a snapshot of the answers when
// a form is submitted. The engine does not retry it and does not change its
// own state based on the returned error; the error is only logged.
type SubmitFunc func(ctx context.Context, answers Answers) error

// ValidationMode selects how much of a question's ValidationRules NextStep
// enforces.
type ValidationMode int

const (
	// ValidationRequiredOnly enforces only the required gate. Field-shape
	// checks are left to the input widget, which reports them via
	// RegisterError before advancing.
	ValidationRequiredOnly ValidationMode = iota

	// ValidationStrict enforces every rule of the current question.
	ValidationStrict
)

// Engine drives one form session. All operations are synchronous; a failed
// validation leaves the state unchanged apart from the error map.
type Engine interface {
	// Schema returns the schema the engine was built from.
	Schema() *FormSchema

	// State returns a copy of the current session state.
	State() FormState

	// CurrentQuestion returns the current question, if any.
	CurrentQuestion() (*Question, bool)

	// CanGoBack reports whether history is non-empty.
	CanGoBack() bool

	// Progress returns the position of the current question as a percentage.
	Progress() float64

	// SetAnswer stores value for questionID and clears its error.
	SetAnswer(ctx context.Context, questionID string, value AnswerValue)

	// NextStep validates the current answer and advances, jumps or submits.
	NextStep(ctx context.Context)

	// PrevStep pops the history stack. It is a no-op when history is empty.
	PrevStep(ctx context.Context)

	// JumpToStep moves to stepID, pushing the current step onto history.
	// Unknown ids are logged and ignored.
	JumpToStep(ctx context.Context, stepID string)

	// SubmitForm invokes the submit callback with the current answers without
	// validating and without marking the form completed.
	SubmitForm(ctx context.Context)

	// ResetForm restores the construction-time state.
	ResetForm(ctx context.Context)

	// RegisterError sets the error for questionID, or clears it when msg is nil.
	RegisterError(ctx context.Context, questionID string, msg *string)
}
