// Package template substitutes {{variable}} placeholders in question titles
// and descriptions with answers given so far.
package template

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/petrijr/formflow/pkg/api"
)

var placeholder = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Interpolate replaces every {{id}} in text with the display form of
// answers[id]. Unknown or unanswered ids are replaced with "".
func Interpolate(text string, answers api.Answers) string {
	if text == "" || !strings.Contains(text, "{{") {
		return text
	}
	return placeholder.ReplaceAllStringFunc(text, func(m string) string {
		key := placeholder.FindStringSubmatch(m)[1]
		v, ok := answers[key]
		if !ok {
			return ""
		}
		return v.String()
	})
}

// Variables returns the placeholder names used in text, in order of first
// appearance.
func Variables(text string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, m := range placeholder.FindAllStringSubmatch(text, -1) {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		out = append(out, m[1])
	}
	return out
}

// DefaultStepInfo is the step counter format used when the schema has none.
const DefaultStepInfo = "Question {{current}} of {{total}}"

// StepInfo renders an i18n step counter such as "Question {{current}} of
// {{total}}".
func StepInfo(format string, current, total int) string {
	if format == "" {
		format = DefaultStepInfo
	}
	return Interpolate(format, api.Answers{
		"current": api.String(strconv.Itoa(current)),
		"total":   api.String(strconv.Itoa(total)),
	})
}

// Question returns a copy of q with title and description interpolated.
func Question(q api.Question, answers api.Answers) api.Question {
	q.Title = Interpolate(q.Title, answers)
	q.Description = Interpolate(q.Description, answers)
	return q
}
