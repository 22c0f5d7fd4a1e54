package api

// FormState is the mutable session state of one engine. Values returned by
// Engine.State are copies; mutating them has no effect on the engine.
type FormState struct {
	Answers       Answers           `json:"answers"`
	CurrentStepID string            `json:"currentStepId"`
	History       []string          `json:"history"`
	Submitting    bool              `json:"isSubmitting"`
	Errors        map[string]string `json:"errors"`
	Completed     bool              `json:"isCompleted"`
}

// NewFormState returns the construction-time state for schema.
func NewFormState(schema *FormSchema) FormState {
	return FormState{
		Answers:       Answers{},
		CurrentStepID: schema.FirstQuestionID(),
		History:       []string{},
		Errors:        map[string]string{},
	}
}

// Clone returns a deep copy of s.
func (s FormState) Clone() FormState {
	out := s
	out.Answers = s.Answers.Clone()
	out.History = append([]string{}, s.History...)
	out.Errors = make(map[string]string, len(s.Errors))
	for k, v := range s.Errors {
		out.Errors[k] = v
	}
	return out
}

// CanGoBack reports whether PrevStep would change the current step.
func (s FormState) CanGoBack() bool {
	return len(s.History) > 0
}
