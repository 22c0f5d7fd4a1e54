package api

import "errors"

// ErrInvalidAnswer is the fallback error when a custom validator rejects an
// answer without a message.
var ErrInvalidAnswer = errors.New("Invalid value")

// Validator is a host-supplied validation strategy attached to a question.
// A non-nil error rejects the answer; its message is shown to the user.
type Validator interface {
	Validate(value AnswerValue) error
}

// ValidatorFunc adapts an ordinary function to the Validator interface.
type ValidatorFunc func(value AnswerValue) error

func (f ValidatorFunc) Validate(value AnswerValue) error {
	return f(value)
}

// PredicateValidator adapts a boolean predicate. A false result rejects the
// answer with ErrInvalidAnswer.
func PredicateValidator(pred func(AnswerValue) bool) Validator {
	return ValidatorFunc(func(v AnswerValue) error {
		if pred(v) {
			return nil
		}
		return ErrInvalidAnswer
	})
}
