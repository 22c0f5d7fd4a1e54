package formflow

import (
	"fmt"

	"github.com/petrijr/formflow/pkg/api"
)

// SchemaBuilder provides a fluent API for defining forms:
//
//	schema := formflow.NewForm("signup", "Sign up").
//	    Text("name", "What's your name?", formflow.Required()).
//	    Number("age", "How old are you, {{name}}?", formflow.Required(), formflow.Range(0, 120)).
//	    JumpIf("age", formflow.When("age", formflow.OpLessThan, formflow.Number(18)), "goodbye").
//	    Statement("goodbye", "Thanks!").
//	    MustBuild()
type SchemaBuilder struct {
	schema api.FormSchema
}

// Re-export logic operators for use with When.
const (
	OpEquals      = api.OpEquals
	OpNotEquals   = api.OpNotEquals
	OpContains    = api.OpContains
	OpGreaterThan = api.OpGreaterThan
	OpLessThan    = api.OpLessThan
)

// NewForm creates a new schema builder.
func NewForm(id, title string) *SchemaBuilder {
	return &SchemaBuilder{
		schema: api.FormSchema{ID: id, Title: title},
	}
}

// QuestionOption adjusts a question as it is added.
type QuestionOption func(q *api.Question)

// Required marks the question as required.
func Required() QuestionOption {
	return func(q *api.Question) { rules(q).Required = true }
}

// Range bounds numeric answers.
func Range(min, max float64) QuestionOption {
	return func(q *api.Question) {
		r := rules(q)
		r.Min, r.Max = &min, &max
	}
}

// Length bounds the length of text answers and the item count of arrays.
func Length(min, max int) QuestionOption {
	return func(q *api.Question) {
		r := rules(q)
		r.MinLength, r.MaxLength = &min, &max
	}
}

// Pattern constrains text answers to a regular expression.
func Pattern(expr string) QuestionOption {
	return func(q *api.Question) { rules(q).Pattern = expr }
}

// Custom attaches a host-supplied validator.
func Custom(v Validator) QuestionOption {
	return func(q *api.Question) { rules(q).Custom = v }
}

// Description sets the question's secondary text.
func Description(text string) QuestionOption {
	return func(q *api.Question) { q.Description = text }
}

// Placeholder sets the input placeholder.
func Placeholder(text string) QuestionOption {
	return func(q *api.Question) { q.Placeholder = text }
}

// Default pre-fills the question.
func Default(v AnswerValue) QuestionOption {
	return func(q *api.Question) { q.DefaultValue = &v }
}

// Choices sets the selectable options of a select-like question.
func Choices(opts ...Option) QuestionOption {
	return func(q *api.Question) { q.Options = append(q.Options, opts...) }
}

// Choice is a shorthand for a string-valued Option.
func Choice(label, value string) Option {
	return Option{Label: label, Value: api.String(value)}
}

func rules(q *api.Question) *api.ValidationRules {
	if q.Validation == nil {
		q.Validation = &api.ValidationRules{}
	}
	return q.Validation
}

// Question appends a question of any type.
func (b *SchemaBuilder) Question(id string, typ QuestionType, title string, opts ...QuestionOption) *SchemaBuilder {
	q := api.Question{ID: id, Type: typ, Title: title}
	for _, opt := range opts {
		opt(&q)
	}
	b.schema.Questions = append(b.schema.Questions, q)
	return b
}

// Text appends a free-text question.
func (b *SchemaBuilder) Text(id, title string, opts ...QuestionOption) *SchemaBuilder {
	return b.Question(id, api.QuestionText, title, opts...)
}

// Email appends an email question.
func (b *SchemaBuilder) Email(id, title string, opts ...QuestionOption) *SchemaBuilder {
	return b.Question(id, api.QuestionEmail, title, opts...)
}

// Number appends a numeric question.
func (b *SchemaBuilder) Number(id, title string, opts ...QuestionOption) *SchemaBuilder {
	return b.Question(id, api.QuestionNumber, title, opts...)
}

// Select appends a single-choice question.
func (b *SchemaBuilder) Select(id, title string, opts ...QuestionOption) *SchemaBuilder {
	return b.Question(id, api.QuestionSelect, title, opts...)
}

// MultiSelect appends a multiple-choice question.
func (b *SchemaBuilder) MultiSelect(id, title string, opts ...QuestionOption) *SchemaBuilder {
	return b.Question(id, api.QuestionMultiSelect, title, opts...)
}

// Boolean appends a yes/no question.
func (b *SchemaBuilder) Boolean(id, title string, opts ...QuestionOption) *SchemaBuilder {
	return b.Question(id, api.QuestionBoolean, title, opts...)
}

// Rating appends a rating question.
func (b *SchemaBuilder) Rating(id, title string, opts ...QuestionOption) *SchemaBuilder {
	return b.Question(id, api.QuestionRating, title, opts...)
}

// Statement appends an informational step that takes no answer.
func (b *SchemaBuilder) Statement(id, title string, opts ...QuestionOption) *SchemaBuilder {
	return b.Question(id, api.QuestionStatement, title, opts...)
}

// When builds a single logic condition.
func When(fieldID string, op Operator, value AnswerValue) LogicCondition {
	return LogicCondition{FieldID: fieldID, Operator: op, Value: value}
}

// JumpIf adds a logic entry to questionID that jumps to targetID when all
// conditions hold. Entries are evaluated in the order they are added.
func (b *SchemaBuilder) JumpIf(questionID string, cond LogicCondition, targetID string, more ...LogicCondition) *SchemaBuilder {
	return b.addLogic(questionID, api.QuestionLogic{
		Conditions: append([]api.LogicCondition{cond}, more...),
		Action:     api.LogicAction{Type: api.ActionJumpTo, TargetID: targetID},
	})
}

// SubmitIf adds a logic entry to questionID that submits the form when all
// conditions hold.
func (b *SchemaBuilder) SubmitIf(questionID string, cond LogicCondition, more ...LogicCondition) *SchemaBuilder {
	return b.addLogic(questionID, api.QuestionLogic{
		Conditions: append([]api.LogicCondition{cond}, more...),
		Action:     api.LogicAction{Type: api.ActionSubmit},
	})
}

func (b *SchemaBuilder) addLogic(questionID string, entry api.QuestionLogic) *SchemaBuilder {
	idx := b.schema.IndexOf(questionID)
	if idx < 0 {
		panic(fmt.Sprintf("formflow: logic added to unknown question %q", questionID))
	}
	b.schema.Questions[idx].Logic = append(b.schema.Questions[idx].Logic, entry)
	return b
}

// Version sets the schema version used by the host registry.
func (b *SchemaBuilder) Version(v string) *SchemaBuilder {
	b.schema.Version = v
	return b
}

// AutoReload resets the form delayMillis after completion. Zero uses the
// default delay.
func (b *SchemaBuilder) AutoReload(delayMillis int) *SchemaBuilder {
	b.schema.AutoReload = true
	b.schema.ReloadDelay = delayMillis
	return b
}

// Theme sets the renderer theme.
func (b *SchemaBuilder) Theme(t Theme) *SchemaBuilder {
	b.schema.Theme = &t
	return b
}

// I18n sets the renderer strings.
func (b *SchemaBuilder) I18n(s I18n) *SchemaBuilder {
	b.schema.I18n = &s
	return b
}

// Build validates and returns the schema.
func (b *SchemaBuilder) Build() (*FormSchema, error) {
	s := b.schema
	s.Questions = append([]api.Question(nil), b.schema.Questions...)
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// MustBuild is like Build but panics on error.
// Useful for initialization in main().
func (b *SchemaBuilder) MustBuild() *FormSchema {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}
