package engine

import (
	"log/slog"

	"github.com/petrijr/formflow/internal/logic"
	"github.com/petrijr/formflow/internal/validation"
	"github.com/petrijr/formflow/pkg/api"
)

// EventKind names a state transition.
type EventKind int

const (
	EventSetAnswer EventKind = iota
	EventNext
	EventPrev
	EventJump
	EventSubmit
	EventReset
	EventRegisterError
)

func (k EventKind) String() string {
	switch k {
	case EventSetAnswer:
		return "set_answer"
	case EventNext:
		return "next"
	case EventPrev:
		return "prev"
	case EventJump:
		return "jump"
	case EventSubmit:
		return "submit"
	case EventReset:
		return "reset"
	case EventRegisterError:
		return "register_error"
	default:
		return "unknown"
	}
}

// Event is the input to Reduce. QuestionID is the target of SetAnswer, Jump
// and RegisterError; Value is used by SetAnswer and Message by RegisterError.
type Event struct {
	Kind       EventKind
	QuestionID string
	Value      api.AnswerValue
	Message    *string
}

// StepChange describes a move of the current step.
type StepChange struct {
	From, To string
	Reason   api.StepReason
}

// Result is the outcome of one transition. State is always a fresh copy; the
// remaining fields tell the holder which side effects to run.
type Result struct {
	State api.FormState

	// Changed is false when the event was a no-op.
	Changed bool

	Step *StepChange

	// Invalid carries the failed rule when NextStep was blocked.
	Invalid     *validation.Result
	InvalidStep string

	// Submit asks the holder to invoke the submit callback once.
	Submit bool

	// Completed is set when this transition entered the completed state.
	Completed bool

	Reset bool

	// Warning is a diagnostic for the log; it never reaches the caller.
	Warning string
}

// Reducer computes state transitions for one schema.
type Reducer struct {
	schema  *api.FormSchema
	mode    api.ValidationMode
	logic   *logic.Evaluator
	checker *validation.Checker
}

// NewReducer returns a Reducer for schema. Malformed rules found while
// evaluating are reported to logger (slog.Default() when nil).
func NewReducer(schema *api.FormSchema, mode api.ValidationMode, logger *slog.Logger) *Reducer {
	return &Reducer{
		schema:  schema,
		mode:    mode,
		logic:   logic.NewEvaluator(logger),
		checker: validation.NewChecker(logger),
	}
}

// Reduce applies ev to state with the default validation mode.
func Reduce(schema *api.FormSchema, state api.FormState, ev Event) Result {
	return NewReducer(schema, api.ValidationRequiredOnly, nil).Reduce(state, ev)
}

// Reduce applies ev to state. The input state is never modified.
func (r *Reducer) Reduce(state api.FormState, ev Event) Result {
	st := state.Clone()
	switch ev.Kind {
	case EventSetAnswer:
		return r.setAnswer(st, ev)
	case EventNext:
		return r.next(st)
	case EventPrev:
		return r.prev(st)
	case EventJump:
		return r.jump(st, ev.QuestionID)
	case EventSubmit:
		return Result{State: st, Submit: true}
	case EventReset:
		return Result{State: api.NewFormState(r.schema), Changed: true, Reset: true}
	case EventRegisterError:
		return r.registerError(st, ev)
	}
	return Result{State: st, Warning: "unknown event ignored"}
}

func (r *Reducer) setAnswer(st api.FormState, ev Event) Result {
	if st.Completed {
		return Result{State: st, Warning: "form is completed; answer ignored"}
	}
	if r.schema.IndexOf(ev.QuestionID) < 0 {
		return Result{State: st, Warning: "answer for unknown question ignored"}
	}
	st.Answers[ev.QuestionID] = ev.Value.Clone()
	delete(st.Errors, ev.QuestionID)
	return Result{State: st, Changed: true}
}

func (r *Reducer) next(st api.FormState) Result {
	if st.Completed {
		return Result{State: st}
	}
	if len(r.schema.Questions) == 0 {
		st.Completed = true
		return Result{State: st, Changed: true, Submit: true, Completed: true}
	}

	q, ok := r.schema.Question(st.CurrentStepID)
	if !ok {
		return Result{State: st, Warning: "current step is not a question"}
	}

	answer := st.Answers[q.ID]
	var res validation.Result
	if r.mode == api.ValidationStrict {
		res = r.checker.Check(q, answer, r.schema.RequiredMessage())
	} else {
		res = validation.Required(q, answer, r.schema.RequiredMessage())
	}
	if !res.OK() {
		st.Errors[q.ID] = res.Message
		return Result{State: st, Changed: true, Invalid: &res, InvalidStep: q.ID}
	}

	out := r.logic.Next(r.schema, q, st.Answers)
	if out.Submit {
		st.Completed = true
		return Result{State: st, Changed: true, Submit: true, Completed: true}
	}

	reason := api.ReasonNext
	if out.Matched >= 0 {
		reason = api.ReasonLogic
	}
	return r.move(st, out.TargetID, reason)
}

func (r *Reducer) prev(st api.FormState) Result {
	if st.Completed || len(st.History) == 0 {
		return Result{State: st}
	}
	from := st.CurrentStepID
	last := len(st.History) - 1
	st.CurrentStepID = st.History[last]
	st.History = st.History[:last]
	return Result{
		State:   st,
		Changed: true,
		Step:    &StepChange{From: from, To: st.CurrentStepID, Reason: api.ReasonBack},
	}
}

func (r *Reducer) jump(st api.FormState, target string) Result {
	if st.Completed {
		return Result{State: st}
	}
	if r.schema.IndexOf(target) < 0 {
		return Result{State: st, Warning: "jump to unknown step ignored"}
	}
	if target == st.CurrentStepID {
		return Result{State: st}
	}
	return r.move(st, target, api.ReasonJump)
}

func (r *Reducer) move(st api.FormState, target string, reason api.StepReason) Result {
	from := st.CurrentStepID
	st.History = append(st.History, from)
	st.CurrentStepID = target
	return Result{
		State:   st,
		Changed: true,
		Step:    &StepChange{From: from, To: target, Reason: reason},
	}
}

func (r *Reducer) registerError(st api.FormState, ev Event) Result {
	if ev.Message == nil {
		if _, ok := st.Errors[ev.QuestionID]; !ok {
			return Result{State: st}
		}
		delete(st.Errors, ev.QuestionID)
		return Result{State: st, Changed: true}
	}
	if r.schema.IndexOf(ev.QuestionID) < 0 {
		return Result{State: st, Warning: "error for unknown question ignored"}
	}
	st.Errors[ev.QuestionID] = *ev.Message
	return Result{State: st, Changed: true}
}
