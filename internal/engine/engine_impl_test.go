package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/petrijr/formflow/pkg/api"
)

func ptr[T any](v T) *T { return &v }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// submitRecorder captures every invocation of the submit callback.
type submitRecorder struct {
	mu    sync.Mutex
	calls []api.Answers
	err   error
}

func (r *submitRecorder) submit(ctx context.Context, answers api.Answers) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, answers)
	return r.err
}

func (r *submitRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func newTestEngine(t *testing.T, schema *api.FormSchema, rec *submitRecorder, cfg Config) api.Engine {
	t.Helper()
	if cfg.Logger == nil {
		cfg.Logger = discardLogger()
	}
	var fn api.SubmitFunc
	if rec != nil {
		fn = rec.submit
	}
	eng, err := NewEngineWithConfig(context.Background(), schema, fn, cfg)
	require.NoError(t, err)
	return eng
}

func linearSchema(ids ...string) *api.FormSchema {
	s := &api.FormSchema{ID: "linear", Title: "Linear"}
	for _, id := range ids {
		s.Questions = append(s.Questions, api.Question{
			ID:         id,
			Type:       api.QuestionText,
			Title:      id,
			Validation: &api.ValidationRules{Required: true},
		})
	}
	return s
}

func nameAgeSchema() *api.FormSchema {
	return &api.FormSchema{
		ID:    "profile",
		Title: "Profile",
		Questions: []api.Question{
			{ID: "name", Type: api.QuestionText, Title: "Name", Validation: &api.ValidationRules{Required: true}},
			{ID: "age", Type: api.QuestionNumber, Title: "Age", Validation: &api.ValidationRules{Min: ptr(0.0), Max: ptr(120.0)}},
		},
	}
}

func TestNewEngineStartsOnFirstQuestion(t *testing.T) {
	eng := newTestEngine(t, linearSchema("a", "b"), nil, Config{})

	st := eng.State()
	require.Equal(t, "a", st.CurrentStepID)
	require.Empty(t, st.Answers)
	require.Empty(t, st.History)
	require.Empty(t, st.Errors)
	require.False(t, st.Completed)
	require.False(t, st.Submitting)
	require.False(t, eng.CanGoBack())

	q, ok := eng.CurrentQuestion()
	require.True(t, ok)
	require.Equal(t, "a", q.ID)
}

func TestNewEngineRejectsDuplicateIDs(t *testing.T) {
	schema := linearSchema("a", "a")

	_, err := NewEngine(schema, nil)
	require.Error(t, err)
	require.True(t, errors.Is(err, api.ErrInvalidSchema))
	require.True(t, errors.Is(err, api.ErrDuplicateQuestionID))
}

func TestNewEngineRejectsEmptyID(t *testing.T) {
	schema := linearSchema("a", "")

	_, err := NewEngine(schema, nil)
	require.ErrorIs(t, err, api.ErrEmptyQuestionID)
}

func TestNewEngineRejectsNilSchema(t *testing.T) {
	_, err := NewEngine(nil, nil)
	require.ErrorIs(t, err, api.ErrInvalidSchema)
}

func TestLinearTraversalVisitsEveryQuestionOnce(t *testing.T) {
	ctx := context.Background()
	ids := []string{"q1", "q2", "q3", "q4"}
	rec := &submitRecorder{}
	eng := newTestEngine(t, linearSchema(ids...), rec, Config{})

	var visited []string
	for !eng.State().Completed {
		cur := eng.State().CurrentStepID
		visited = append(visited, cur)
		eng.SetAnswer(ctx, cur, api.String("answer "+cur))
		eng.NextStep(ctx)
		require.LessOrEqual(t, len(visited), len(ids), "traversal did not terminate")
	}

	require.Equal(t, ids, visited)
	require.Equal(t, 1, rec.count())
	require.Len(t, rec.calls[0], len(ids))
	require.False(t, eng.State().Submitting)
}

func TestPrevStepOnEmptyHistoryIsNoop(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t, linearSchema("a", "b"), nil, Config{})
	eng.SetAnswer(ctx, "a", api.String("x"))

	before := eng.State()
	eng.PrevStep(ctx)
	require.Equal(t, before, eng.State())
}

func TestNextThenPrevRestoresStep(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t, linearSchema("a", "b", "c"), nil, Config{})

	eng.SetAnswer(ctx, "a", api.String("1"))
	eng.NextStep(ctx)
	eng.SetAnswer(ctx, "b", api.String("2"))

	before := eng.State()
	eng.NextStep(ctx)
	require.Equal(t, "c", eng.State().CurrentStepID)

	eng.PrevStep(ctx)
	after := eng.State()
	require.Equal(t, before.CurrentStepID, after.CurrentStepID)
	require.Len(t, after.History, len(before.History))
	require.Equal(t, "2", after.Answers["b"].String(), "answers survive back navigation")
}

func TestRequiredGate(t *testing.T) {
	ctx := context.Background()

	t.Run("non-empty answer passes", func(t *testing.T) {
		eng := newTestEngine(t, linearSchema("a", "b"), nil, Config{})
		eng.SetAnswer(ctx, "a", api.String("x"))
		eng.NextStep(ctx)

		st := eng.State()
		require.NotContains(t, st.Errors, "a")
		require.Equal(t, "b", st.CurrentStepID)
	})

	for name, v := range map[string]api.AnswerValue{
		"empty string": api.String(""),
		"empty array":  api.Strings(),
		"missing":      {},
	} {
		t.Run(name+" blocks", func(t *testing.T) {
			eng := newTestEngine(t, linearSchema("a", "b"), nil, Config{})
			if !v.IsZero() {
				eng.SetAnswer(ctx, "a", v)
			}
			eng.NextStep(ctx)

			st := eng.State()
			require.Equal(t, api.DefaultRequiredMessage, st.Errors["a"])
			require.Equal(t, "a", st.CurrentStepID)
			require.Empty(t, st.History)
		})
	}
}

func TestRequiredMessageFromI18n(t *testing.T) {
	ctx := context.Background()
	schema := linearSchema("a")
	schema.I18n = &api.I18n{Required: "Pflichtfeld"}
	eng := newTestEngine(t, schema, nil, Config{})

	eng.NextStep(ctx)
	require.Equal(t, "Pflichtfeld", eng.State().Errors["a"])
}

func TestSetAnswerClearsError(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t, linearSchema("a"), nil, Config{})

	eng.NextStep(ctx)
	require.Contains(t, eng.State().Errors, "a")

	eng.SetAnswer(ctx, "a", api.String(""))
	require.NotContains(t, eng.State().Errors, "a", "SetAnswer clears the error without validating")
}

func TestSetAnswerUnknownQuestionIgnored(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t, linearSchema("a"), nil, Config{})

	eng.SetAnswer(ctx, "nope", api.String("x"))
	require.NotContains(t, eng.State().Answers, "nope")
}

func TestLogicJumpAndFallback(t *testing.T) {
	ctx := context.Background()
	schema := func() *api.FormSchema {
		return &api.FormSchema{
			ID: "branch",
			Questions: []api.Question{
				{
					ID:   "q1",
					Type: api.QuestionText,
					Logic: []api.QuestionLogic{{
						Conditions: []api.LogicCondition{{FieldID: "q1", Operator: api.OpEquals, Value: api.String("yes")}},
						Action:     api.LogicAction{Type: api.ActionJumpTo, TargetID: "q3"},
					}},
				},
				{ID: "q2", Type: api.QuestionText},
				{ID: "q3", Type: api.QuestionText},
			},
		}
	}

	t.Run("match jumps", func(t *testing.T) {
		eng := newTestEngine(t, schema(), nil, Config{})
		eng.SetAnswer(ctx, "q1", api.String("yes"))
		eng.NextStep(ctx)

		st := eng.State()
		require.Equal(t, "q3", st.CurrentStepID)
		require.Equal(t, []string{"q1"}, st.History)
	})

	t.Run("no match falls back", func(t *testing.T) {
		eng := newTestEngine(t, schema(), nil, Config{})
		eng.SetAnswer(ctx, "q1", api.String("no"))
		eng.NextStep(ctx)
		require.Equal(t, "q2", eng.State().CurrentStepID)
	})
}

func TestLogicSubmitAction(t *testing.T) {
	ctx := context.Background()
	schema := linearSchema("a", "b")
	schema.Questions[0].Logic = []api.QuestionLogic{{
		Conditions: []api.LogicCondition{{FieldID: "a", Operator: api.OpEquals, Value: api.String("done")}},
		Action:     api.LogicAction{Type: api.ActionSubmit},
	}}
	rec := &submitRecorder{}
	eng := newTestEngine(t, schema, rec, Config{})

	eng.SetAnswer(ctx, "a", api.String("done"))
	eng.NextStep(ctx)

	require.True(t, eng.State().Completed)
	require.Equal(t, 1, rec.count())
}

func TestLogicUnknownTargetIsSkipped(t *testing.T) {
	ctx := context.Background()
	schema := linearSchema("a", "b", "c")
	schema.Questions[0].Logic = []api.QuestionLogic{
		{Action: api.LogicAction{Type: api.ActionJumpTo, TargetID: "missing"}},
		{Action: api.LogicAction{Type: api.ActionJumpTo, TargetID: "c"}},
	}
	eng := newTestEngine(t, schema, nil, Config{})

	eng.SetAnswer(ctx, "a", api.String("x"))
	eng.NextStep(ctx)
	require.Equal(t, "c", eng.State().CurrentStepID)
}

func TestJumpToStep(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t, linearSchema("a", "b", "c"), nil, Config{})

	eng.JumpToStep(ctx, "missing")
	require.Equal(t, "a", eng.State().CurrentStepID)
	require.Empty(t, eng.State().History)

	eng.JumpToStep(ctx, "c")
	st := eng.State()
	require.Equal(t, "c", st.CurrentStepID)
	require.Equal(t, []string{"a"}, st.History)

	eng.PrevStep(ctx)
	require.Equal(t, "a", eng.State().CurrentStepID)
}

func TestSubmitFormDoesNotComplete(t *testing.T) {
	ctx := context.Background()
	rec := &submitRecorder{}
	eng := newTestEngine(t, linearSchema("a", "b"), rec, Config{})

	eng.SubmitForm(ctx)

	st := eng.State()
	require.False(t, st.Completed)
	require.Equal(t, "a", st.CurrentStepID)
	require.Equal(t, 1, rec.count())
	require.Empty(t, rec.calls[0], "snapshot only covers answered questions")
}

func TestSubmitCallbackErrorIsNotReturned(t *testing.T) {
	ctx := context.Background()
	rec := &submitRecorder{err: errors.New("backend down")}
	eng := newTestEngine(t, linearSchema("a"), rec, Config{})

	eng.SetAnswer(ctx, "a", api.String("x"))
	eng.NextStep(ctx)

	st := eng.State()
	require.True(t, st.Completed)
	require.False(t, st.Submitting)
	require.Equal(t, 1, rec.count())
}

func TestSubmittingWhileCallbackRuns(t *testing.T) {
	ctx := context.Background()
	var eng api.Engine
	var during api.FormState
	fn := func(ctx context.Context, answers api.Answers) error {
		during = eng.State()
		return nil
	}

	var err error
	eng, err = NewEngineWithConfig(ctx, linearSchema("a"), fn, Config{Logger: discardLogger()})
	require.NoError(t, err)

	eng.SetAnswer(ctx, "a", api.String("x"))
	eng.NextStep(ctx)

	require.True(t, during.Submitting)
	require.True(t, during.Completed)
	require.False(t, eng.State().Submitting)
}

func TestSubmitSnapshotIsIsolated(t *testing.T) {
	ctx := context.Background()
	rec := &submitRecorder{}
	eng := newTestEngine(t, linearSchema("a"), rec, Config{})

	eng.SetAnswer(ctx, "a", api.String("x"))
	eng.SubmitForm(ctx)
	rec.calls[0]["a"] = api.String("mutated")

	require.Equal(t, "x", eng.State().Answers["a"].String())
}

func TestCompletedFormIgnoresAnswersAndNavigation(t *testing.T) {
	ctx := context.Background()
	rec := &submitRecorder{}
	eng := newTestEngine(t, linearSchema("a", "b"), rec, Config{})

	eng.SetAnswer(ctx, "a", api.String("1"))
	eng.NextStep(ctx)
	eng.SetAnswer(ctx, "b", api.String("2"))
	eng.NextStep(ctx)
	require.True(t, eng.State().Completed)

	before := eng.State()
	eng.SetAnswer(ctx, "b", api.String("changed"))
	eng.NextStep(ctx)
	eng.PrevStep(ctx)
	eng.JumpToStep(ctx, "a")
	require.Equal(t, before, eng.State())
	require.Equal(t, 1, rec.count(), "callback fires once per completion")

	eng.SubmitForm(ctx)
	require.Equal(t, 2, rec.count(), "manual submit still works after completion")
}

func TestResetAfterCompletion(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t, linearSchema("a", "b"), &submitRecorder{}, Config{})

	eng.SetAnswer(ctx, "a", api.String("1"))
	eng.NextStep(ctx)
	eng.SetAnswer(ctx, "b", api.String("2"))
	eng.NextStep(ctx)
	require.True(t, eng.State().Completed)

	eng.ResetForm(ctx)
	st := eng.State()
	require.Equal(t, "a", st.CurrentStepID)
	require.Empty(t, st.Answers)
	require.Empty(t, st.History)
	require.Empty(t, st.Errors)
	require.False(t, st.Completed)
}

func TestRegisterError(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t, linearSchema("a", "b"), nil, Config{})

	eng.RegisterError(ctx, "a", ptr("Too short"))
	require.Equal(t, "Too short", eng.State().Errors["a"])

	eng.RegisterError(ctx, "a", nil)
	require.NotContains(t, eng.State().Errors, "a")

	eng.RegisterError(ctx, "ghost", ptr("x"))
	require.NotContains(t, eng.State().Errors, "ghost")
}

func TestProgress(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t, linearSchema("a", "b", "c", "d"), nil, Config{})

	require.InDelta(t, 0, eng.Progress(), 1e-9)

	eng.SetAnswer(ctx, "a", api.String("x"))
	eng.NextStep(ctx)
	require.InDelta(t, 25, eng.Progress(), 1e-9)

	eng.JumpToStep(ctx, "d")
	require.InDelta(t, 75, eng.Progress(), 1e-9)

	eng.SetAnswer(ctx, "d", api.String("x"))
	eng.NextStep(ctx)
	require.InDelta(t, 100, eng.Progress(), 1e-9)
}

func TestEmptySchema(t *testing.T) {
	ctx := context.Background()
	rec := &submitRecorder{}
	eng := newTestEngine(t, &api.FormSchema{ID: "empty"}, rec, Config{})

	st := eng.State()
	require.Equal(t, "", st.CurrentStepID)
	require.False(t, st.Completed)
	require.InDelta(t, 0, eng.Progress(), 1e-9)
	_, ok := eng.CurrentQuestion()
	require.False(t, ok)

	eng.NextStep(ctx)
	require.True(t, eng.State().Completed)
	require.Equal(t, 1, rec.count())
}

func TestNameAgeScenario(t *testing.T) {
	ctx := context.Background()
	rec := &submitRecorder{}
	eng := newTestEngine(t, nameAgeSchema(), rec, Config{})

	eng.SetAnswer(ctx, "name", api.String(""))
	eng.NextStep(ctx)
	st := eng.State()
	require.Equal(t, "name", st.CurrentStepID)
	require.Equal(t, api.DefaultRequiredMessage, st.Errors["name"])

	eng.SetAnswer(ctx, "name", api.String("Ana"))
	eng.NextStep(ctx)
	st = eng.State()
	require.Equal(t, "age", st.CurrentStepID)
	require.Equal(t, []string{"name"}, st.History)

	eng.SetAnswer(ctx, "age", api.Number(200))
	eng.NextStep(ctx)
	require.True(t, eng.State().Completed)

	require.Equal(t, 1, rec.count())
	require.Equal(t, api.Answers{"name": api.String("Ana"), "age": api.Number(200)}, rec.calls[0])
}

func TestStrictModeBlocksOutOfRange(t *testing.T) {
	ctx := context.Background()
	rec := &submitRecorder{}
	eng := newTestEngine(t, nameAgeSchema(), rec, Config{Mode: api.ValidationStrict})

	eng.SetAnswer(ctx, "name", api.String("Ana"))
	eng.NextStep(ctx)
	eng.SetAnswer(ctx, "age", api.Number(200))
	eng.NextStep(ctx)

	st := eng.State()
	require.False(t, st.Completed)
	require.Equal(t, "age", st.CurrentStepID)
	require.Equal(t, "Must be at most 120", st.Errors["age"])
	require.Zero(t, rec.count())

	eng.SetAnswer(ctx, "age", api.Number(42))
	eng.NextStep(ctx)
	require.True(t, eng.State().Completed)
}

func TestStateIsACopy(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t, linearSchema("a", "b"), nil, Config{})
	eng.SetAnswer(ctx, "a", api.String("x"))

	st := eng.State()
	st.Answers["a"] = api.String("mutated")
	st.Errors["a"] = "mutated"
	st.History = append(st.History, "b")

	fresh := eng.State()
	require.Equal(t, "x", fresh.Answers["a"].String())
	require.Empty(t, fresh.Errors)
	require.Empty(t, fresh.History)
}

func TestSchemaMutationAfterConstruction(t *testing.T) {
	ctx := context.Background()
	schema := linearSchema("a", "b")
	eng := newTestEngine(t, schema, nil, Config{})

	schema.Questions[1].ID = "renamed"

	eng.SetAnswer(ctx, "a", api.String("x"))
	eng.NextStep(ctx)
	require.Equal(t, "b", eng.State().CurrentStepID)
}

func TestConcurrentOperations(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t, linearSchema("a", "b", "c"), &submitRecorder{}, Config{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				cur := eng.State().CurrentStepID
				eng.SetAnswer(ctx, cur, api.String("x"))
				eng.NextStep(ctx)
				eng.PrevStep(ctx)
				_ = eng.Progress()
			}
		}()
	}
	wg.Wait()

	st := eng.State()
	require.True(t, st.Completed || st.CurrentStepID != "")
}
