package api

import (
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidSchema is wrapped by every structural schema error.
	ErrInvalidSchema = errors.New("invalid form schema")

	// ErrDuplicateQuestionID is returned when two questions share an id.
	ErrDuplicateQuestionID = errors.New("duplicate question id")

	// ErrEmptyQuestionID is returned when a question has no id.
	ErrEmptyQuestionID = errors.New("empty question id")
)

// QuestionType selects the input kind of a question.
type QuestionType string

const (
	QuestionText         QuestionType = "text"
	QuestionEmail        QuestionType = "email"
	QuestionNumber       QuestionType = "number"
	QuestionURL          QuestionType = "url"
	QuestionSelect       QuestionType = "select"
	QuestionMultiSelect  QuestionType = "multi-select"
	QuestionDate         QuestionType = "date"
	QuestionBoolean      QuestionType = "boolean"
	QuestionRating       QuestionType = "rating"
	QuestionOpinionScale QuestionType = "opinion-scale"
	QuestionStatement    QuestionType = "statement"
)

// Valid reports whether t is one of the known question types.
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionText, QuestionEmail, QuestionNumber, QuestionURL, QuestionSelect,
		QuestionMultiSelect, QuestionDate, QuestionBoolean, QuestionRating,
		QuestionOpinionScale, QuestionStatement:
		return true
	}
	return false
}

// Operator is a comparison used by a LogicCondition.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not_equals"
	OpContains    Operator = "contains"
	OpGreaterThan Operator = "greater_than"
	OpLessThan    Operator = "less_than"
)

// Valid reports whether op is a known operator.
func (op Operator) Valid() bool {
	switch op {
	case OpEquals, OpNotEquals, OpContains, OpGreaterThan, OpLessThan:
		return true
	}
	return false
}

// ActionType is what a matched QuestionLogic entry does.
type ActionType string

const (
	ActionJumpTo ActionType = "jump_to"
	ActionSubmit ActionType = "submit"
)

// Option is a selectable choice for select, multi-select and opinion-scale
// questions.
type Option struct {
	Label string      `json:"label" yaml:"label"`
	Value AnswerValue `json:"value" yaml:"value"`
}

// ValidationRules are attached to a question and checked on forward
// navigation.
type ValidationRules struct {
	Required  bool     `json:"required,omitempty" yaml:"required,omitempty"`
	Min       *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max       *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	MinLength *int     `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength *int     `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`

	// Pattern is compiled lazily. A pattern that fails to compile does not
	// constrain the answer.
	Pattern string `json:"pattern,omitempty" yaml:"pattern,omitempty"`

	// Custom is supplied by the host application and never serialized.
	// Schemas relying on it are not portable across processes.
	Custom Validator `json:"-" yaml:"-"`
}

// LogicCondition compares the answer of FieldID against Value.
type LogicCondition struct {
	FieldID  string      `json:"fieldId" yaml:"fieldId"`
	Operator Operator    `json:"operator" yaml:"operator"`
	Value    AnswerValue `json:"value" yaml:"value"`
}

// LogicAction is fired by the first QuestionLogic entry whose conditions all
// hold.
type LogicAction struct {
	Type     ActionType `json:"type" yaml:"type"`
	TargetID string     `json:"targetId,omitempty" yaml:"targetId,omitempty"`
}

// QuestionLogic is one conditional branching rule. Conditions are ANDed.
type QuestionLogic struct {
	Conditions []LogicCondition `json:"conditions" yaml:"conditions"`
	Action     LogicAction      `json:"action" yaml:"action"`
}

// Question is one step of a form.
type Question struct {
	ID          string       `json:"id" yaml:"id"`
	Type        QuestionType `json:"type" yaml:"type"`
	Title       string       `json:"title" yaml:"title"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Placeholder string       `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`

	Options      []Option         `json:"options,omitempty" yaml:"options,omitempty"`
	Validation   *ValidationRules `json:"validation,omitempty" yaml:"validation,omitempty"`
	Logic        []QuestionLogic  `json:"logic,omitempty" yaml:"logic,omitempty"`
	DefaultValue *AnswerValue     `json:"defaultValue,omitempty" yaml:"defaultValue,omitempty"`

	// Presentational hints; the engine does not interpret them.
	Layout   string `json:"layout,omitempty" yaml:"layout,omitempty"`
	ImageURL string `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty"`
	MinLabel string `json:"minLabel,omitempty" yaml:"minLabel,omitempty"`
	MaxLabel string `json:"maxLabel,omitempty" yaml:"maxLabel,omitempty"`
}

// IsRequired reports whether the question carries a required rule.
func (q *Question) IsRequired() bool {
	return q.Validation != nil && q.Validation.Required
}

// Theme is passed through to the renderer untouched.
type Theme struct {
	PrimaryColor    string `json:"primaryColor" yaml:"primaryColor"`
	BackgroundColor string `json:"backgroundColor" yaml:"backgroundColor"`
	TextColor       string `json:"textColor" yaml:"textColor"`
	FontFamily      string `json:"fontFamily,omitempty" yaml:"fontFamily,omitempty"`
	BorderRadius    string `json:"borderRadius" yaml:"borderRadius"`
	PoweredBy       string `json:"poweredBy,omitempty" yaml:"poweredBy,omitempty"`
	ShowPoweredBy   bool   `json:"showPoweredBy,omitempty" yaml:"showPoweredBy,omitempty"`
	BrandColor      string `json:"brandColor,omitempty" yaml:"brandColor,omitempty"`
	SubmitText      string `json:"submitText,omitempty" yaml:"submitText,omitempty"`
	ButtonVariant   string `json:"buttonVariant,omitempty" yaml:"buttonVariant,omitempty"`
}

// I18n holds renderer strings. Only Required is read by the engine.
type I18n struct {
	Next     string `json:"next" yaml:"next"`
	Back     string `json:"back" yaml:"back"`
	Submit   string `json:"submit" yaml:"submit"`
	Required string `json:"required" yaml:"required"`
	Optional string `json:"optional" yaml:"optional"`
	StepInfo string `json:"stepInfo" yaml:"stepInfo"`
}

// DefaultRequiredMessage is used when the schema has no i18n required string.
const DefaultRequiredMessage = "This field is required"

// DefaultReloadDelayMillis is the auto-reload delay when none is configured.
const DefaultReloadDelayMillis = 5000

// FormSchema is the root of a form definition. Question order is the default
// traversal order.
type FormSchema struct {
	ID        string     `json:"id" yaml:"id"`
	Title     string     `json:"title" yaml:"title"`
	Version   string     `json:"version,omitempty" yaml:"version,omitempty"`
	Questions []Question `json:"questions" yaml:"questions"`
	Theme     *Theme     `json:"theme,omitempty" yaml:"theme,omitempty"`
	I18n      *I18n      `json:"i18n,omitempty" yaml:"i18n,omitempty"`

	AutoReload       bool `json:"autoReload,omitempty" yaml:"autoReload,omitempty"`
	ReloadDelay      int  `json:"reloadDelay,omitempty" yaml:"reloadDelay,omitempty"`
	DisableAutoFocus bool `json:"disableAutoFocus,omitempty" yaml:"disableAutoFocus,omitempty"`
}

// RequiredMessage returns the message registered when the required gate fails.
func (s *FormSchema) RequiredMessage() string {
	if s.I18n != nil && s.I18n.Required != "" {
		return s.I18n.Required
	}
	return DefaultRequiredMessage
}

// ReloadDelayMillis returns the configured auto-reload delay or the default.
func (s *FormSchema) ReloadDelayMillis() int {
	if s.ReloadDelay > 0 {
		return s.ReloadDelay
	}
	return DefaultReloadDelayMillis
}

// IndexOf returns the position of the question with the given id, or -1.
func (s *FormSchema) IndexOf(id string) int {
	for i := range s.Questions {
		if s.Questions[i].ID == id {
			return i
		}
	}
	return -1
}

// Question returns the question with the given id.
func (s *FormSchema) Question(id string) (*Question, bool) {
	idx := s.IndexOf(id)
	if idx < 0 {
		return nil, false
	}
	return &s.Questions[idx], true
}

// FirstQuestionID returns the id of the first question, or "" for an empty form.
func (s *FormSchema) FirstQuestionID() string {
	if len(s.Questions) == 0 {
		return ""
	}
	return s.Questions[0].ID
}

// Validate performs the structural checks that would break engine invariants.
// Authoring defects that the engine tolerates (unknown jump targets, bad
// patterns) are reported by the lint package instead.
func (s *FormSchema) Validate() error {
	var errs []error
	seen := make(map[string]struct{}, len(s.Questions))
	for i, q := range s.Questions {
		if q.ID == "" {
			errs = append(errs, fmt.Errorf("question %d: %w", i, ErrEmptyQuestionID))
			continue
		}
		if _, dup := seen[q.ID]; dup {
			errs = append(errs, fmt.Errorf("question %q: %w", q.ID, ErrDuplicateQuestionID))
			continue
		}
		seen[q.ID] = struct{}{}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidSchema, errors.Join(errs...))
}

// ParseSchemaJSON decodes a FormSchema from JSON.
func ParseSchemaJSON(data []byte) (*FormSchema, error) {
	var s FormSchema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode schema json: %w", err)
	}
	return &s, nil
}

// ParseSchemaYAML decodes a FormSchema from YAML. Field names match the JSON
// interchange format.
func ParseSchemaYAML(data []byte) (*FormSchema, error) {
	var s FormSchema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode schema yaml: %w", err)
	}
	return &s, nil
}
