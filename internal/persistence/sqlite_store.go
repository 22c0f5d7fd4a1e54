package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/petrijr/formflow/pkg/api"
)

// SQLiteSubmissionStore is a SubmissionStore backed by SQLite.
//
// It expects an *sql.DB that uses a SQLite driver (for example,
// "modernc.org/sqlite"). The caller is responsible for importing
// the driver, e.g.:
//
//	import _ "modernc.org/sqlite"
type SQLiteSubmissionStore struct {
	db *sql.DB
}

// Ensure SQLiteSubmissionStore implements SubmissionStore.
var _ SubmissionStore = (*SQLiteSubmissionStore)(nil)

// NewSQLiteSubmissionStore initializes the required schema in the given
// database and returns a new SQLiteSubmissionStore.
func NewSQLiteSubmissionStore(db *sql.DB) (*SQLiteSubmissionStore, error) {
	s := &SQLiteSubmissionStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteSubmissionStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS submissions (
			id TEXT PRIMARY KEY,
			form_id TEXT NOT NULL,
			form_version TEXT NOT NULL DEFAULT '',
			session_id TEXT NOT NULL DEFAULT '',
			answers TEXT NOT NULL,
			submitted_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_submissions_form ON submissions(form_id, submitted_at);
	`)
	if err != nil {
		return fmt.Errorf("init sqlite submissions schema: %w", err)
	}
	return nil
}

func (s *SQLiteSubmissionStore) SaveSubmission(ctx context.Context, sub *api.Submission) error {
	if err := checkSubmission(sub); err != nil {
		return err
	}
	answers, err := EncodeAnswers(sub.Answers)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO submissions (id, form_id, form_version, session_id, answers, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			form_id = excluded.form_id,
			form_version = excluded.form_version,
			session_id = excluded.session_id,
			answers = excluded.answers,
			submitted_at = excluded.submitted_at`,
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

func (s *SQLiteSubmissionStore) GetSubmission(ctx context.Context, id string) (*api.Submission, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, form_id, form_version, session_id, answers, submitted_at
		FROM submissions
		WHERE id = ?`,
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

func (s *SQLiteSubmissionStore) ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]*api.Submission, error) {
	query := `
		SELECT id, form_id, form_version, session_id, answers, submitted_at
		FROM submissions`
	var args []any
	var clauses []string

	if filter.FormID != "" {
		clauses = append(clauses, "form_id = ?")
		args = append(args, filter.FormID)
	}
	if filter.SessionID != "" {
		clauses = append(clauses, "session_id = ?")
		args = append(args, filter.SessionID)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY submitted_at ASC, id ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSubmissions(rows)
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row rowScanner) (*api.Submission, error) {
	var (
		sub       api.Submission
		answers   string
		submitted int64
	)
	if err := row.Scan(&sub.ID, &sub.FormID, &sub.FormVersion, &sub.SessionID, &answers, &submitted); err != nil {
		return nil, err
	}
	decoded, err := DecodeAnswers([]byte(answers))
	if err != nil {
		return nil, fmt.Errorf("submission %s: %w", sub.ID, err)
	}
	sub.Answers = decoded
	sub.SubmittedAt = time.Unix(0, submitted).UTC()
	return &sub, nil
}

func scanSubmissions(rows *sql.Rows) ([]*api.Submission, error) {
	out := []*api.Submission{}
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
