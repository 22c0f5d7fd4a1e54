// Package logic evaluates a question's conditional branching rules.
package logic

import (
	"log/slog"
	"strings"

	"github.com/petrijr/formflow/pkg/api"
)

// Outcome is where the form goes after a question: either a question id or
// submission.
type Outcome struct {
	Submit   bool
	TargetID string

	// Matched is the index of the logic entry that fired, or -1 when the
	// default linear traversal was used.
	Matched int
}

// Evaluator resolves the next step for a question.
type Evaluator struct {
	logger *slog.Logger
}

// NewEvaluator returns an Evaluator that reports malformed rules to logger.
// A nil logger means slog.Default().
func NewEvaluator(logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{logger: logger}
}

// Next evaluates q.Logic in declaration order against answers. The first
// entry whose conditions all hold fires; a jump to an unknown question is
// logged and the entry is skipped. Without a match the next question in
// schema order is returned, or submission after the last question.
func (e *Evaluator) Next(schema *api.FormSchema, q *api.Question, answers api.Answers) Outcome {
	for i, entry := range q.Logic {
		if !Matches(entry.Conditions, answers) {
			continue
		}
		switch entry.Action.Type {
		case api.ActionSubmit:
			return Outcome{Submit: true, Matched: i}
		case api.ActionJumpTo:
			if schema.IndexOf(entry.Action.TargetID) < 0 {
				e.logger.Warn("logic jump target does not exist",
					slog.String("form", schema.ID),
					slog.String("question", q.ID),
					slog.String("target", entry.Action.TargetID),
				)
				continue
			}
			return Outcome{TargetID: entry.Action.TargetID, Matched: i}
		default:
			e.logger.Warn("unknown logic action ignored",
				slog.String("form", schema.ID),
				slog.String("question", q.ID),
				slog.String("action", string(entry.Action.Type)),
			)
		}
	}
	return Linear(schema, q.ID)
}

// Linear returns the default traversal after questionID.
func Linear(schema *api.FormSchema, questionID string) Outcome {
	idx := schema.IndexOf(questionID)
	if idx >= 0 && idx < len(schema.Questions)-1 {
		return Outcome{TargetID: schema.Questions[idx+1].ID, Matched: -1}
	}
	return Outcome{Submit: true, Matched: -1}
}

// Matches reports whether every condition holds. An empty condition list
// always matches.
func Matches(conds []api.LogicCondition, answers api.Answers) bool {
	for _, c := range conds {
		if !Holds(c, answers) {
			return false
		}
	}
	return true
}

// Holds evaluates a single condition against the answer map.
func Holds(c api.LogicCondition, answers api.Answers) bool {
	answer, ok := answers[c.FieldID]
	if !ok {
		answer = api.AnswerValue{}
	}

	switch c.Operator {
	case api.OpEquals:
		return Equal(answer, c.Value)
	case api.OpNotEquals:
		return !Equal(answer, c.Value)
	case api.OpContains:
		return contains(answer, c.Value)
	case api.OpGreaterThan:
		return compareNumeric(answer, c.Value, func(x, y float64) bool { return x > y })
	case api.OpLessThan:
		return compareNumeric(answer, c.Value, func(x, y float64) bool { return x < y })
	default:
		return false
	}
}

// Equal compares two answers, coercing to numbers when both sides parse as
// numbers. Arrays compare element-wise. A missing value only equals another
// missing value.
func Equal(a, b api.AnswerValue) bool {
	if a.IsZero() || b.IsZero() {
		return a.IsZero() && b.IsZero()
	}

	if a.IsArray() || b.IsArray() {
		if !a.IsArray() || !b.IsArray() {
			return false
		}
		ae, be := a.Elements(), b.Elements()
		if len(ae) != len(be) {
			return false
		}
		for i := range ae {
			if !Equal(ae[i], be[i]) {
				return false
			}
		}
		return true
	}

	if av, ok := a.Boolean(); ok {
		if bv, ok := b.Boolean(); ok {
			return av == bv
		}
	}

	af, aok := a.Float()
	bf, bok := b.Float()
	if aok && bok {
		return af == bf
	}

	return a.String() == b.String()
}

func contains(answer, needle api.AnswerValue) bool {
	if answer.IsZero() || needle.IsZero() {
		return false
	}
	if answer.IsArray() {
		for _, el := range answer.Elements() {
			if Equal(el, needle) {
				return true
			}
		}
		return false
	}
	if s, ok := answer.Str(); ok {
		return strings.Contains(s, needle.String())
	}
	return false
}

func compareNumeric(a, b api.AnswerValue, cmp func(float64, float64) bool) bool {
	af, aok := a.Float()
	bf, bok := b.Float()
	if !aok || !bok {
		return false
	}
	return cmp(af, bf)
}
