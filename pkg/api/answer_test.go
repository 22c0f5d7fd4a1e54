package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func fullSchema() *FormSchema {
	return &FormSchema{
		ID:      "survey",
		Title:   "Survey",
		Version: "3",
		Questions: []Question{
			{
				ID:    "ok",
				Type:  QuestionSelect,
				Title: "All good?",
				Options: []Option{
					{Label: "Yes", Value: Bool(true)},
					{Label: "No", Value: Bool(false)},
				},
				Validation: &ValidationRules{Required: true},
				Logic: []QuestionLogic{{
					Conditions: []LogicCondition{{FieldID: "ok", Operator: OpEquals, Value: Bool(false)}},
					Action:     LogicAction{Type: ActionJumpTo, TargetID: "score"},
				}},
			},
			{
				ID:           "tags",
				Type:         QuestionMultiSelect,
				Title:        "Tags",
				Options:      []Option{{Label: "X", Value: String("x")}, {Label: "Y", Value: String("y")}},
				DefaultValue: ptr(Strings("x", "y")),
			},
			{
				ID:           "score",
				Type:         QuestionOpinionScale,
				Title:        "Score",
				Options:      []Option{{Label: "low", Value: Number(0.5)}, {Label: "high", Value: Number(10)}},
				DefaultValue: ptr(Numbers(1, 2)),
				Validation: &ValidationRules{
					Min:       ptr(0.5),
					Max:       ptr(10.0),
					MinLength: ptr(1),
					Pattern:   "^[0-9]+$",
				},
				Logic: []QuestionLogic{{
					Conditions: []LogicCondition{
						{FieldID: "score", Operator: OpGreaterThan, Value: Number(7)},
						{FieldID: "tags", Operator: OpContains, Value: String("x")},
					},
					Action: LogicAction{Type: ActionSubmit},
				}},
				MinLabel: "meh",
				MaxLabel: "great",
			},
		},
		Theme: &Theme{
			PrimaryColor:    "#000",
			BackgroundColor: "#fff",
			TextColor:       "#111",
			BorderRadius:    "4px",
			ShowPoweredBy:   true,
		},
		I18n:        &I18n{Next: "Next", Back: "Back", Submit: "Send", Required: "Needed", StepInfo: "{{current}}/{{total}}"},
		AutoReload:  true,
		ReloadDelay: 1500,
	}
}

func TestSchemaJSONRoundTrip(t *testing.T) {
	s := fullSchema()

	data, err := json.Marshal(s)
	require.NoError(t, err)

	back, err := ParseSchemaJSON(data)
	require.NoError(t, err)
	require.Equal(t, s, back)

	again, err := json.Marshal(back)
	require.NoError(t, err)
	require.JSONEq(t, string(data), string(again))
}

func TestAnswerValueJSONRoundTrip(t *testing.T) {
	for _, v := range []AnswerValue{
		{},
		String("hi"),
		String(""),
		Number(-3.25),
		Bool(true),
		Bool(false),
		Strings("a", "b"),
		Numbers(1, 2.5),
	} {
		data, err := json.Marshal(v)
		require.NoError(t, err)

		var back AnswerValue
		require.NoError(t, json.Unmarshal(data, &back), string(data))
		require.Equal(t, v, back, string(data))
	}
}

func TestAnswerValueUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want AnswerValue
	}{
		{"null is the zero value", `null`, AnswerValue{}},
		{"empty array decodes as strings", `[]`, Strings()},
		{"numbers stay numbers", `[1, 2.5]`, Numbers(1, 2.5)},
		{"mixed array becomes strings", `["a", 1, 2.5]`, Strings("a", "1", "2.5")},
		{"number", `42`, Number(42)},
		{"boolean", `true`, Bool(true)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got AnswerValue
			require.NoError(t, json.Unmarshal([]byte(tc.in), &got))
			require.Equal(t, tc.want, got)
		})
	}
}

func TestAnswerValueUnmarshalJSON_RejectsInvalidArrays(t *testing.T) {
	for _, in := range []string{
		`[["a"], "b"]`,
		`[1, [2]]`,
		`[true, false]`,
		`["a", null]`,
		`{"a": 1}`,
	} {
		var got AnswerValue
		require.Error(t, json.Unmarshal([]byte(in), &got), in)
	}
}

func TestEmptyNumbersDecodesAsStrings(t *testing.T) {
	data, err := json.Marshal(Numbers())
	require.NoError(t, err)
	require.JSONEq(t, `[]`, string(data))

	var back AnswerValue
	require.NoError(t, json.Unmarshal(data, &back))
	require.Equal(t, KindStrings, back.Kind())
	require.True(t, back.IsEmpty())
}

func TestParseSchemaYAML_AnswerValues(t *testing.T) {
	s, err := ParseSchemaYAML([]byte(`
id: yaml
title: YAML
questions:
  - id: ints
    type: multi-select
    title: Ints
    defaultValue: [1, 2, 3]
  - id: floats
    type: multi-select
    title: Floats
    defaultValue: [0.5, 2]
  - id: words
    type: multi-select
    title: Words
    defaultValue: [a, 2]
  - id: flag
    type: boolean
    title: Flag
    defaultValue: true
`))
	require.NoError(t, err)
	require.Equal(t, Numbers(1, 2, 3), *s.Questions[0].DefaultValue)
	require.Equal(t, Numbers(0.5, 2), *s.Questions[1].DefaultValue)
	require.Equal(t, Strings("a", "2"), *s.Questions[2].DefaultValue)
	require.Equal(t, Bool(true), *s.Questions[3].DefaultValue)

	_, err = ParseSchemaYAML([]byte(`
id: bad
title: Bad
questions:
  - id: q
    type: multi-select
    title: Q
    defaultValue: [yes, [no]]
`))
	require.Error(t, err)
}

func TestAnswerFrom(t *testing.T) {
	got, err := AnswerFrom([]int{3, 4})
	require.NoError(t, err)
	require.Equal(t, Numbers(3, 4), got)

	got, err = AnswerFrom(json.Number("7.5"))
	require.NoError(t, err)
	require.Equal(t, Number(7.5), got)

	got, err = AnswerFrom(nil)
	require.NoError(t, err)
	require.True(t, got.IsZero())

	_, err = AnswerFrom(struct{}{})
	require.Error(t, err)
}
