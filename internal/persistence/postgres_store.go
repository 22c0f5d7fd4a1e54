package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/petrijr/formflow/pkg/api"
)

// PostgresSubmissionStore is a SubmissionStore backed by PostgreSQL.
//
// It expects an *sql.DB that uses a PostgreSQL driver (for example,
// "github.com/jackc/pgx/v5/stdlib" or "github.com/lib/pq").
//
// The caller is responsible for:
//   - importing the driver for its side effects, e.g.:
//     _ "github.com/jackc/pgx/v5/stdlib"
//   - providing a DSN via sql.Open.
type PostgresSubmissionStore struct {
	db *sql.DB
}

// Ensure PostgresSubmissionStore implements SubmissionStore.
var _ SubmissionStore = (*PostgresSubmissionStore)(nil)

// NewPostgresSubmissionStore initializes the required schema in the given
// database and returns a new PostgresSubmissionStore.
func NewPostgresSubmissionStore(db *sql.DB) (*PostgresSubmissionStore, error) {
	s := &PostgresSubmissionStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresSubmissionStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS submissions (
			id TEXT PRIMARY KEY,
			form_id TEXT NOT NULL,
			form_version TEXT NOT NULL DEFAULT '',
			session_id TEXT NOT NULL DEFAULT '',
			answers TEXT NOT NULL,
			submitted_at BIGINT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_submissions_form ON submissions(form_id, submitted_at);
	`)
	if err != nil {
		return fmt.Errorf("init postgres submissions schema: %w", err)
	}
	return nil
}

func (s *PostgresSubmissionStore) SaveSubmission(ctx context.Context, sub *api.Submission) error {
	if err := checkSubmission(sub); err != nil {
		return err
	}
	answers, err := EncodeAnswers(sub.Answers)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO submissions (id, form_id, form_version, session_id, answers, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			form_id = EXCLUDED.form_id,
			form_version = EXCLUDED.form_version,
			session_id = EXCLUDED.session_id,
			answers = EXCLUDED.answers,
			submitted_at = EXCLUDED.submitted_at`,
		sub.ID,
		sub.FormID,
		sub.FormVersion,
		sub.SessionID,
		string(answers),
		sub.SubmittedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("save submission %s: %w", sub.ID, err)
	}
	return nil
}

func (s *PostgresSubmissionStore) GetSubmission(ctx context.Context, id string) (*api.Submission, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, form_id, form_version, session_id, answers, submitted_at
		FROM submissions
		WHERE id = $1`,
		id,
	)
	sub, err := scanSubmission(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}
	return sub, nil
}

func (s *PostgresSubmissionStore) ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]*api.Submission, error) {
	query := `
		SELECT id, form_id, form_version, session_id, answers, submitted_at
		FROM submissions`
	var args []any
	var clauses []string

	if filter.FormID != "" {
		args = append(args, filter.FormID)
		clauses = append(clauses, fmt.Sprintf("form_id = $%d", len(args)))
	}
	if filter.SessionID != "" {
		args = append(args, filter.SessionID)
		clauses = append(clauses, fmt.Sprintf("session_id = $%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY submitted_at ASC, id ASC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSubmissions(rows)
}
