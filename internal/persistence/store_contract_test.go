package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/petrijr/formflow/pkg/api"
)

var baseTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func sampleSubmission(id, formID, sessionID string, offset time.Duration) *api.Submission {
	return &api.Submission{
		ID:          id,
		FormID:      formID,
		FormVersion: "v1",
		SessionID:   sessionID,
		Answers: api.Answers{
			"name":   api.String("Ana"),
			"age":    api.Number(200),
			"agree":  api.Bool(true),
			"colors": api.Strings("red", "blue"),
			"scores": api.Numbers(1, 2.5),
		},
		SubmittedAt: baseTime.Add(offset),
	}
}

// runSubmissionStoreContract exercises the behaviour every SubmissionStore
// backend must share. The store must be empty.
func runSubmissionStoreContract(t *testing.T, store SubmissionStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("save and get", func(t *testing.T) {
		sub := sampleSubmission("s-1", "contact", "sess-1", 0)
		require.NoError(t, store.SaveSubmission(ctx, sub))

		got, err := store.GetSubmission(ctx, "s-1")
		require.NoError(t, err)
		require.Equal(t, sub.ID, got.ID)
		require.Equal(t, sub.FormID, got.FormID)
		require.Equal(t, sub.FormVersion, got.FormVersion)
		require.Equal(t, sub.SessionID, got.SessionID)
		require.True(t, sub.SubmittedAt.Equal(got.SubmittedAt), "submitted at %v, got %v", sub.SubmittedAt, got.SubmittedAt)
		require.Equal(t, sub.Answers, got.Answers)
	})

	t.Run("save is an upsert", func(t *testing.T) {
		sub := sampleSubmission("s-2", "contact", "sess-2", time.Second)
		require.NoError(t, store.SaveSubmission(ctx, sub))

		sub.Answers["name"] = api.String("Bo")
		require.NoError(t, store.SaveSubmission(ctx, sub))

		got, err := store.GetSubmission(ctx, "s-2")
		require.NoError(t, err)
		require.Equal(t, "Bo", got.Answers["name"].String())

		all, err := store.ListSubmissions(ctx, SubmissionFilter{FormID: "contact"})
		require.NoError(t, err)
		require.Len(t, all, 2)
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := store.GetSubmission(ctx, "does-not-exist")
		require.True(t, errors.Is(err, ErrSubmissionNotFound), "expected ErrSubmissionNotFound, got %v", err)
	})

	t.Run("invalid submission", func(t *testing.T) {
		err := store.SaveSubmission(ctx, &api.Submission{ID: "x"})
		require.ErrorIs(t, err, ErrInvalidSubmission)
	})

	t.Run("list filters and order", func(t *testing.T) {
		require.NoError(t, store.SaveSubmission(ctx, sampleSubmission("s-4", "survey", "sess-4", 4*time.Second)))
		require.NoError(t, store.SaveSubmission(ctx, sampleSubmission("s-3", "survey", "sess-3", 3*time.Second)))
		require.NoError(t, store.SaveSubmission(ctx, sampleSubmission("s-5", "survey", "sess-3", 3*time.Second)))

		all, err := store.ListSubmissions(ctx, SubmissionFilter{})
		require.NoError(t, err)
		require.Equal(t, []string{"s-1", "s-2", "s-3", "s-5", "s-4"}, submissionIDs(all))

		survey, err := store.ListSubmissions(ctx, SubmissionFilter{FormID: "survey"})
		require.NoError(t, err)
		require.Equal(t, []string{"s-3", "s-5", "s-4"}, submissionIDs(survey))

		session, err := store.ListSubmissions(ctx, SubmissionFilter{FormID: "survey", SessionID: "sess-3"})
		require.NoError(t, err)
		require.Equal(t, []string{"s-3", "s-5"}, submissionIDs(session))

		limited, err := store.ListSubmissions(ctx, SubmissionFilter{FormID: "survey", Limit: 1})
		require.NoError(t, err)
		require.Equal(t, []string{"s-3"}, submissionIDs(limited))

		none, err := store.ListSubmissions(ctx, SubmissionFilter{FormID: "unknown"})
		require.NoError(t, err)
		require.Empty(t, none)
	})
}

func submissionIDs(subs []*api.Submission) []string {
	out := make([]string, len(subs))
	for i, s := range subs {
		out[i] = s.ID
	}
	return out
}
