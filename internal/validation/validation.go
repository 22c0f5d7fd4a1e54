// Package validation checks answers against a question's ValidationRules.
//
// Two tiers are provided. Required is the coarse gate the engine always
// enforces on forward navigation. Check runs every rule in order and stops at
// the first failure; input widgets call it before asking the engine to
// advance, and strict engines call it themselves.
package validation

import (
	"fmt"
	"log/slog"
	"regexp"
	"sync"

	"github.com/petrijr/formflow/pkg/api"
)

// emailPattern is the simple local@domain.tld shape; no RFC 5322 parsing.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Result is the outcome of validating one answer. An empty Message means the
// answer passed.
type Result struct {
	Rule    string
	Message string
}

// OK reports whether the answer passed.
func (r Result) OK() bool { return r.Message == "" }

// Rule names reported in Result.Rule.
const (
	RuleRequired  = "required"
	RuleMinLength = "minLength"
	RuleMaxLength = "maxLength"
	RuleEmail     = "email"
	RulePattern   = "pattern"
	RuleMin       = "min"
	RuleMax       = "max"
	RuleCustom    = "custom"
)

// Checker validates answers. It caches compiled patterns and logs patterns
// that fail to compile. A Checker is safe for concurrent use.
type Checker struct {
	logger *slog.Logger

	mu       sync.Mutex
	patterns map[string]*regexp.Regexp
	broken   map[string]struct{}
}

// NewChecker returns a Checker that reports broken patterns to logger.
// A nil logger means slog.Default().
func NewChecker(logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{
		logger:   logger,
		patterns: make(map[string]*regexp.Regexp),
		broken:   make(map[string]struct{}),
	}
}

var defaultChecker = NewChecker(nil)

// Required applies only the required gate.
func Required(q *api.Question, answer api.AnswerValue, requiredMsg string) Result {
	if q.IsRequired() && answer.IsEmpty() {
		return Result{Rule: RuleRequired, Message: requiredMsg}
	}
	return Result{}
}

// Check runs every rule of q against answer with the package default Checker.
func Check(q *api.Question, answer api.AnswerValue, requiredMsg string) Result {
	return defaultChecker.Check(q, answer, requiredMsg)
}

// Check runs, in order: required, minLength, maxLength, email shape, pattern,
// numeric range and the custom validator. An empty answer to a non-required
// question passes without further checks.
func (c *Checker) Check(q *api.Question, answer api.AnswerValue, requiredMsg string) Result {
	if r := Required(q, answer, requiredMsg); !r.OK() {
		return r
	}
	if answer.IsEmpty() {
		return Result{}
	}

	rules := q.Validation
	s, isString := answer.Str()

	if rules != nil && isString {
		n := answer.Len()
		if rules.MinLength != nil && n < *rules.MinLength {
			return Result{Rule: RuleMinLength, Message: fmt.Sprintf("Must be at least %d characters", *rules.MinLength)}
		}
		if rules.MaxLength != nil && n > *rules.MaxLength {
			return Result{Rule: RuleMaxLength, Message: fmt.Sprintf("Must be at most %d characters", *rules.MaxLength)}
		}
	}

	if q.Type == api.QuestionEmail && isString && !emailPattern.MatchString(s) {
		return Result{Rule: RuleEmail, Message: "Please enter a valid email address"}
	}

	if rules == nil {
		return Result{}
	}

	if rules.Pattern != "" {
		if re := c.compile(q.ID, rules.Pattern); re != nil && !re.MatchString(answer.String()) {
			return Result{Rule: RulePattern, Message: "Invalid format"}
		}
	}

	if q.Type == api.QuestionNumber {
		if f, ok := answer.Float(); ok {
			if rules.Min != nil && f < *rules.Min {
				return Result{Rule: RuleMin, Message: fmt.Sprintf("Must be at least %s", api.Number(*rules.Min))}
			}
			if rules.Max != nil && f > *rules.Max {
				return Result{Rule: RuleMax, Message: fmt.Sprintf("Must be at most %s", api.Number(*rules.Max))}
			}
		}
	}

	if rules.Custom != nil {
		if err := rules.Custom.Validate(answer); err != nil {
			msg := err.Error()
			if msg == "" {
				msg = api.ErrInvalidAnswer.Error()
			}
			return Result{Rule: RuleCustom, Message: msg}
		}
	}

	return Result{}
}

// compile returns the cached regexp for pattern, or nil when the pattern does
// not compile. The failure is logged once per pattern.
func (c *Checker) compile(questionID, pattern string) *regexp.Regexp {
	c.mu.Lock()
	defer c.mu.Unlock()

	if re, ok := c.patterns[pattern]; ok {
		return re
	}
	if _, bad := c.broken[pattern]; bad {
		return nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		c.broken[pattern] = struct{}{}
		c.logger.Warn("invalid validation pattern ignored",
			slog.String("question", questionID),
			slog.String("pattern", pattern),
			slog.Any("error", err),
		)
		return nil
	}
	c.patterns[pattern] = re
	return re
}
