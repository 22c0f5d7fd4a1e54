package formflow

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSchemaBuilder_BuildsQuestionsInOrder(t *testing.T) {
	schema := NewForm("survey", "Survey").
		Version("v2").
		Text("name", "Name", Required(), Placeholder("Jane"), Description("Full name")).
		Select("color", "Favourite colour", Choices(Choice("Red", "red"), Choice("Blue", "blue")), Default(String("blue"))).
		Rating("score", "Score", Range(1, 5)).
		Boolean("ok", "All good?").
		MultiSelect("tags", "Tags", Length(1, 2)).
		Statement("end", "Thanks").
		AutoReload(0).
		MustBuild()

	require.Equal(t, "survey", schema.ID)
	require.Equal(t, "v2", schema.Version)
	require.True(t, schema.AutoReload)
	require.Equal(t, 5000, schema.ReloadDelayMillis())

	ids := make([]string, 0, len(schema.Questions))
	for _, q := range schema.Questions {
		ids = append(ids, q.ID)
	}
	require.Equal(t, []string{"name", "color", "score", "ok", "tags", "end"}, ids)

	name := schema.Questions[0]
	require.True(t, name.IsRequired())
	require.Equal(t, "Jane", name.Placeholder)
	require.Equal(t, "Full name", name.Description)

	color := schema.Questions[1]
	require.Len(t, color.Options, 2)
	require.Equal(t, String("blue"), *color.DefaultValue)

	score := schema.Questions[2]
	require.Equal(t, 1.0, *score.Validation.Min)
	require.Equal(t, 5.0, *score.Validation.Max)
	require.False(t, score.IsRequired())
}

func TestSchemaBuilder_Logic(t *testing.T) {
	schema := NewForm("f", "F").
		Number("age", "Age").
		Text("adult", "Adult").
		Text("minor", "Minor").
		JumpIf("age", When("age", OpLessThan, Number(18)), "minor").
		SubmitIf("age", When("age", OpGreaterThan, Number(99)), When("age", OpNotEquals, Number(100))).
		MustBuild()

	logic := schema.Questions[0].Logic
	require.Len(t, logic, 2)
	require.Equal(t, "minor", logic[0].Action.TargetID)
	require.Len(t, logic[1].Conditions, 2)
}

func TestSchemaBuilder_LogicOnUnknownQuestionPanics(t *testing.T) {
	require.Panics(t, func() {
		NewForm("f", "F").JumpIf("nope", When("x", OpEquals, String("y")), "z")
	})
}

func TestSchemaBuilder_DuplicateIDsFailBuild(t *testing.T) {
	_, err := NewForm("f", "F").Text("a", "A").Text("a", "again").Build()
	require.ErrorIs(t, err, ErrInvalidSchema)

	require.Panics(t, func() {
		NewForm("f", "F").Text("a", "A").Text("a", "again").MustBuild()
	})
}

func TestSchemaBuilder_BuildCopiesQuestions(t *testing.T) {
	b := NewForm("f", "F").Text("a", "A")
	first := b.MustBuild()
	b.Text("b", "B")
	require.Len(t, first.Questions, 1)
}

func TestSchemaBuilder_ThemeAndI18n(t *testing.T) {
	schema := NewForm("f", "F").
		Text("a", "A", Required()).
		Theme(Theme{PrimaryColor: "#000"}).
		I18n(I18n{Required: "Obligatoire"}).
		MustBuild()

	require.Equal(t, "#000", schema.Theme.PrimaryColor)
	require.Equal(t, "Obligatoire", schema.RequiredMessage())
}
