package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// AnswerKind tags the variant held by an AnswerValue.
type AnswerKind int

const (
	KindNone AnswerKind = iota
	KindString
	KindNumber
	KindBool
	KindStrings
	KindNumbers
)

func (k AnswerKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	case KindStrings:
		return "string[]"
	case KindNumbers:
		return "number[]"
	default:
		return "none"
	}
}

// AnswerValue is the value of one answer: a string, a number, a boolean or
// an array of strings or numbers. The zero value holds nothing.
type AnswerValue struct {
	kind AnswerKind
	s    string
	n    float64
	b    bool
	ss   []string
	ns   []float64
}

// String returns a string answer.
func String(s string) AnswerValue { return AnswerValue{kind: KindString, s: s} }

// Number returns a numeric answer.
func Number(n float64) AnswerValue { return AnswerValue{kind: KindNumber, n: n} }

// Bool returns a boolean answer.
func Bool(b bool) AnswerValue { return AnswerValue{kind: KindBool, b: b} }

// Strings returns a multi-select answer of strings.
func Strings(ss ...string) AnswerValue {
	return AnswerValue{kind: KindStrings, ss: append([]string{}, ss...)}
}

// Numbers returns a multi-select answer of numbers.
func Numbers(ns ...float64) AnswerValue {
	return AnswerValue{kind: KindNumbers, ns: append([]float64{}, ns...)}
}

// Kind reports which variant v holds.
func (v AnswerValue) Kind() AnswerKind { return v.kind }

// IsZero reports whether v holds no value at all.
func (v AnswerValue) IsZero() bool { return v.kind == KindNone }

// IsArray reports whether v is a multi-select answer.
func (v AnswerValue) IsArray() bool { return v.kind == KindStrings || v.kind == KindNumbers }

// IsEmpty reports whether v counts as "no answer": nothing, "" or an empty array.
func (v AnswerValue) IsEmpty() bool {
	switch v.kind {
	case KindNone:
		return true
	case KindString:
		return v.s == ""
	case KindStrings:
		return len(v.ss) == 0
	case KindNumbers:
		return len(v.ns) == 0
	}
	return false
}

// Len returns the string length for string answers and the element count for
// arrays. Other kinds report 0.
func (v AnswerValue) Len() int {
	switch v.kind {
	case KindString:
		return len([]rune(v.s))
	case KindStrings:
		return len(v.ss)
	case KindNumbers:
		return len(v.ns)
	}
	return 0
}

// Str returns the string payload and whether v is a string answer.
func (v AnswerValue) Str() (string, bool) { return v.s, v.kind == KindString }

// Num returns the number payload and whether v is a numeric answer.
func (v AnswerValue) Num() (float64, bool) { return v.n, v.kind == KindNumber }

// Boolean returns the bool payload and whether v is a boolean answer.
func (v AnswerValue) Boolean() (bool, bool) { return v.b, v.kind == KindBool }

// Elements returns the elements of an array answer as scalar values.
// Scalars return nil.
func (v AnswerValue) Elements() []AnswerValue {
	switch v.kind {
	case KindStrings:
		out := make([]AnswerValue, len(v.ss))
		for i, s := range v.ss {
			out[i] = String(s)
		}
		return out
	case KindNumbers:
		out := make([]AnswerValue, len(v.ns))
		for i, n := range v.ns {
			out[i] = Number(n)
		}
		return out
	}
	return nil
}

// Float coerces v to a number. Strings are parsed; other kinds fail.
func (v AnswerValue) Float() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.n, true
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// String renders v for display. Arrays are joined with ",", nothing renders
// as "".
func (v AnswerValue) String() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindNumber:
		return formatNumber(v.n)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindStrings:
		return strings.Join(v.ss, ",")
	case KindNumbers:
		parts := make([]string, len(v.ns))
		for i, n := range v.ns {
			parts[i] = formatNumber(n)
		}
		return strings.Join(parts, ",")
	}
	return ""
}

// Clone returns a copy of v that shares no slices with it.
func (v AnswerValue) Clone() AnswerValue {
	c := v
	if v.ss != nil {
		c.ss = append([]string{}, v.ss...)
	}
	if v.ns != nil {
		c.ns = append([]float64{}, v.ns...)
	}
	return c
}

// Interface returns v as a plain Go value (string, float64, bool, []string,
// []float64 or nil).
func (v AnswerValue) Interface() any {
	switch v.kind {
	case KindString:
		return v.s
	case KindNumber:
		return v.n
	case KindBool:
		return v.b
	case KindStrings:
		return append([]string{}, v.ss...)
	case KindNumbers:
		return append([]float64{}, v.ns...)
	}
	return nil
}

// AnswerFrom converts a plain Go value into an AnswerValue.
func AnswerFrom(x any) (AnswerValue, error) {
	switch t := x.(type) {
	case nil:
		return AnswerValue{}, nil
	case AnswerValue:
		return t, nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case float64:
		return Number(t), nil
	case float32:
		return Number(float64(t)), nil
	case int:
		return Number(float64(t)), nil
	case int64:
		return Number(float64(t)), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return AnswerValue{}, err
		}
		return Number(f), nil
	case []string:
		return Strings(t...), nil
	case []float64:
		return Numbers(t...), nil
	case []int:
		ns := make([]float64, len(t))
		for i, n := range t {
			ns[i] = float64(n)
		}
		return Numbers(ns...), nil
	case []any:
		return answerFromSlice(t)
	}
	return AnswerValue{}, fmt.Errorf("unsupported answer type %T", x)
}

// answerFromSlice decodes an array answer. All-number arrays become
// Numbers; any string element turns the array into Strings, numbers
// included. An empty array decodes as Strings, so an empty Numbers value
// does not keep its kind across a round trip. Booleans, nulls and nested
// arrays are rejected.
func answerFromSlice(items []any) (AnswerValue, error) {
	allNumbers := len(items) > 0
	vals := make([]AnswerValue, len(items))
	for i, it := range items {
		av, err := AnswerFrom(it)
		if err != nil {
			return AnswerValue{}, err
		}
		switch av.kind {
		case KindNumber:
		case KindString:
			allNumbers = false
		case KindStrings, KindNumbers:
			return AnswerValue{}, fmt.Errorf("nested arrays are not valid answers")
		default:
			return AnswerValue{}, fmt.Errorf("array answers hold strings or numbers, got %s at index %d", av.kind, i)
		}
		vals[i] = av
	}
	if allNumbers {
		ns := make([]float64, len(vals))
		for i, av := range vals {
			ns[i] = av.n
		}
		return Numbers(ns...), nil
	}
	ss := make([]string, len(vals))
	for i, av := range vals {
		ss[i] = av.String()
	}
	return Strings(ss...), nil
}

func (v AnswerValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

func (v *AnswerValue) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*v = AnswerValue{}
		return nil
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	av, err := AnswerFrom(raw)
	if err != nil {
		return err
	}
	*v = av
	return nil
}

func (v AnswerValue) MarshalYAML() (any, error) {
	return v.Interface(), nil
}

func (v *AnswerValue) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	av, err := AnswerFrom(raw)
	if err != nil {
		return err
	}
	*v = av
	return nil
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// Answers maps question ids to answer values.
type Answers map[string]AnswerValue

// Clone returns a deep copy of a.
func (a Answers) Clone() Answers {
	out := make(Answers, len(a))
	for k, v := range a {
		out[k] = v.Clone()
	}
	return out
}
