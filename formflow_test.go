package formflow

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadSchemaFile_JSONAndYAMLAgree(t *testing.T) {
	fromJSON, err := LoadSchemaFile(filepath.Join("testdata", "signup.json"))
	require.NoError(t, err)
	fromYAML, err := LoadSchemaFile(filepath.Join("testdata", "signup.yaml"))
	require.NoError(t, err)

	require.Equal(t, fromJSON, fromYAML)
	require.Equal(t, "signup", fromJSON.ID)
	require.Len(t, fromJSON.Questions, 4)
	require.Equal(t, "Please answer", fromJSON.RequiredMessage())
	require.Equal(t, 1500, fromJSON.ReloadDelayMillis())

	cond := fromJSON.Questions[1].Logic[0].Conditions[0]
	require.Equal(t, OpLessThan, cond.Operator)
	require.Equal(t, Number(18), cond.Value)
}

func TestLoadSchemaFile_Errors(t *testing.T) {
	_, err := LoadSchemaFile(filepath.Join("testdata", "missing.json"))
	require.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "form.toml")
	require.NoError(t, os.WriteFile(path, []byte("id = 'x'"), 0o600))
	_, err = LoadSchemaFile(path)
	require.ErrorIs(t, err, ErrInvalidSchema)

	bad := filepath.Join(t.TempDir(), "form.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o600))
	_, err = LoadSchemaFile(bad)
	require.Error(t, err)
}

func TestLoadedSchemaDrivesEngine(t *testing.T) {
	ctx := context.Background()
	schema, err := LoadSchemaFile(filepath.Join("testdata", "signup.json"))
	require.NoError(t, err)

	var got Answers
	eng, err := NewEngineWithConfig(ctx, schema, func(ctx context.Context, a Answers) error {
		got = a
		return nil
	}, EngineConfig{Logger: discardLogger()})
	require.NoError(t, err)

	eng.NextStep(ctx)
	require.Equal(t, "Please answer", eng.State().Errors["name"])

	eng.SetAnswer(ctx, "name", String("Ann"))
	eng.NextStep(ctx)
	q, ok := eng.CurrentQuestion()
	require.True(t, ok)
	require.Equal(t, "How old are you, Ann?", Interpolate(q.Title, eng.State().Answers))

	eng.SetAnswer(ctx, "age", Number(16))
	eng.NextStep(ctx)
	require.Equal(t, "bye", eng.State().CurrentStepID, "under-18 answers jump to the end")

	eng.NextStep(ctx)
	require.True(t, eng.State().Completed)
	require.Equal(t, Answers{"name": String("Ann"), "age": Number(16)}, got)
}

func TestCheckAnswer(t *testing.T) {
	schema := NewForm("f", "F").
		Number("age", "Age", Required(), Range(0, 120)).
		Email("email", "Email").
		Text("code", "Code", Pattern(`^[A-Z]{3}$`), Length(3, 3)).
		Text("even", "Even", Custom(ValidatorFunc(func(v AnswerValue) error {
			if n := len(v.String()); n%2 != 0 {
				return errors.New("Must have an even length")
			}
			return nil
		}))).
		MustBuild()

	q := func(id string) *Question {
		qq, ok := schema.Question(id)
		require.True(t, ok)
		return qq
	}

	require.Equal(t, "This field is required", CheckAnswer(schema, q("age"), AnswerValue{}))
	require.Equal(t, "Must be at most 120", CheckAnswer(schema, q("age"), Number(150)))
	require.Empty(t, CheckAnswer(schema, q("age"), Number(30)))
	require.Equal(t, "Please enter a valid email address", CheckAnswer(schema, q("email"), String("nope")))
	require.Empty(t, CheckAnswer(schema, q("email"), AnswerValue{}), "optional and empty")
	require.Equal(t, "Invalid format", CheckAnswer(schema, q("code"), String("abc")))
	require.Equal(t, "Must have an even length", CheckAnswer(schema, q("even"), String("abc")))
}
