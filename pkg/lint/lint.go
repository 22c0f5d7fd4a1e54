// Package lint provides static analysis for form schemas.
// It detects authoring defects the engine tolerates at runtime (and would
// otherwise only log) without running a session.
package lint

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/petrijr/formflow/pkg/api"
	"github.com/petrijr/formflow/pkg/template"
)

// Issue represents a problem found during static analysis.
type Issue struct {
	Severity string `json:"severity"` // "error", "warning"
	Field    string `json:"field,omitempty"`
	Message  string `json:"message"`
}

// Result contains all issues found by the linter.
type Result struct {
	Valid  bool    `json:"valid"`
	Issues []Issue `json:"issues"`
}

const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Check analyzes schema. Valid is false when any error-level issue exists.
func Check(schema *api.FormSchema) Result {
	l := &linter{schema: schema, ids: map[string]int{}}
	l.run()

	sort.SliceStable(l.issues, func(i, j int) bool {
		if l.issues[i].Severity != l.issues[j].Severity {
			return l.issues[i].Severity == SeverityError
		}
		return l.issues[i].Field < l.issues[j].Field
	})

	res := Result{Valid: true, Issues: l.issues}
	for _, is := range l.issues {
		if is.Severity == SeverityError {
			res.Valid = false
			break
		}
	}
	if res.Issues == nil {
		res.Issues = []Issue{}
	}
	return res
}

type linter struct {
	schema *api.FormSchema
	ids    map[string]int
	issues []Issue
}

func (l *linter) add(sev, field, format string, args ...any) {
	l.issues = append(l.issues, Issue{Severity: sev, Field: field, Message: fmt.Sprintf(format, args...)})
}

func (l *linter) run() {
	if l.schema.ID == "" {
		l.add(SeverityWarning, "", "schema has no id")
	}
	if len(l.schema.Questions) == 0 {
		l.add(SeverityWarning, "", "schema has no questions; the form submits immediately")
	}

	for i, q := range l.schema.Questions {
		if q.ID == "" {
			l.add(SeverityError, fmt.Sprintf("questions[%d]", i), "question has no id")
			continue
		}
		if _, dup := l.ids[q.ID]; dup {
			l.add(SeverityError, q.ID, "duplicate question id")
			continue
		}
		l.ids[q.ID] = i
	}

	for i := range l.schema.Questions {
		q := &l.schema.Questions[i]
		if q.ID == "" {
			continue
		}
		l.question(i, q)
	}
}

func (l *linter) question(idx int, q *api.Question) {
	if !q.Type.Valid() {
		l.add(SeverityError, q.ID, "unknown question type %q", q.Type)
	}
	switch q.Type {
	case api.QuestionSelect, api.QuestionMultiSelect:
		if len(q.Options) == 0 {
			l.add(SeverityWarning, q.ID, "%s question has no options", q.Type)
		}
	}

	if v := q.Validation; v != nil {
		if v.Pattern != "" {
			if _, err := regexp.Compile(v.Pattern); err != nil {
				l.add(SeverityWarning, q.ID, "pattern does not compile and will not constrain answers: %v", err)
			}
		}
		if v.Min != nil && v.Max != nil && *v.Min > *v.Max {
			l.add(SeverityError, q.ID, "min %v is greater than max %v", *v.Min, *v.Max)
		}
		if v.MinLength != nil && v.MaxLength != nil && *v.MinLength > *v.MaxLength {
			l.add(SeverityError, q.ID, "minLength %d is greater than maxLength %d", *v.MinLength, *v.MaxLength)
		}
		if q.Type == api.QuestionStatement && v.Required {
			l.add(SeverityWarning, q.ID, "statement questions cannot be answered but are marked required")
		}
	}

	for _, name := range append(template.Variables(q.Title), template.Variables(q.Description)...) {
		pos, ok := l.ids[name]
		if !ok {
			l.add(SeverityWarning, q.ID, "placeholder {{%s}} does not name a question", name)
		} else if pos >= idx {
			l.add(SeverityWarning, q.ID, "placeholder {{%s}} refers to a later question", name)
		}
	}

	for n, entry := range q.Logic {
		for _, c := range entry.Conditions {
			if !c.Operator.Valid() {
				l.add(SeverityError, q.ID, "logic[%d]: unknown operator %q", n, c.Operator)
			}
			if _, ok := l.ids[c.FieldID]; !ok {
				l.add(SeverityWarning, q.ID, "logic[%d]: condition field %q does not exist", n, c.FieldID)
			}
		}
		switch entry.Action.Type {
		case api.ActionSubmit:
		case api.ActionJumpTo:
			target, ok := l.ids[entry.Action.TargetID]
			switch {
			case entry.Action.TargetID == "":
				l.add(SeverityError, q.ID, "logic[%d]: jump_to has no targetId", n)
			case !ok:
				l.add(SeverityError, q.ID, "logic[%d]: jump target %q does not exist", n, entry.Action.TargetID)
			case target == idx:
				l.add(SeverityWarning, q.ID, "logic[%d]: jump targets the question itself", n)
			}
		default:
			l.add(SeverityError, q.ID, "logic[%d]: unknown action %q", n, entry.Action.Type)
		}
	}
}
