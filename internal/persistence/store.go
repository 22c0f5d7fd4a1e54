package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/petrijr/formflow/pkg/api"
)

var (
	// ErrSubmissionNotFound is returned when a submission is not found.
	ErrSubmissionNotFound = errors.New("submission not found")

	// ErrInvalidSubmission is returned when a submission lacks an id or form id.
	ErrInvalidSubmission = errors.New("invalid submission")
)

// SubmissionFilter is used to select submissions from the store.
// Empty strings mean "no filter" for that field; Limit <= 0 means no limit.
type SubmissionFilter struct {
	FormID    string
	SessionID string
	Limit     int
}

// SubmissionStore handles storage of completed answer snapshots.
//
// SaveSubmission is an upsert keyed by Submission.ID so that redelivery of
// the same submission is harmless. ListSubmissions returns submissions
// ordered by SubmittedAt, then ID.
type SubmissionStore interface {
	SaveSubmission(ctx context.Context, sub *api.Submission) error
	GetSubmission(ctx context.Context, id string) (*api.Submission, error)
	ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]*api.Submission, error)
}

func checkSubmission(sub *api.Submission) error {
	if sub == nil {
		return ErrInvalidSubmission
	}
	if sub.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidSubmission)
	}
	if sub.FormID == "" {
		return fmt.Errorf("%w: missing form id", ErrInvalidSubmission)
	}
	return nil
}
