package persistence

import (
	"context"
	"database/sql"
	"time"

	"github.com/petrijr/formflow/pkg/api"
)

// SQLiteEventStore stores form session events in SQLite.
type SQLiteEventStore struct {
	db *sql.DB
}

// Ensure SQLiteEventStore implements the interfaces.
var _ EventStore = (*SQLiteEventStore)(nil)

func NewSQLiteEventStore(db *sql.DB) (*SQLiteEventStore, error) {
	s := &SQLiteEventStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteEventStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS form_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			at INTEGER NOT NULL,
			type TEXT NOT NULL,
			form_id TEXT NOT NULL DEFAULT '',
			question TEXT NOT NULL DEFAULT '',
			detail TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_form_events_session_id ON form_events(session_id, id);
	`)
	return err
}

func (s *SQLiteEventStore) AppendEvent(ctx context.Context, ev api.FormEvent) error {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO form_events (session_id, at, type, form_id, question, detail)
		VALUES (?, ?, ?, ?, ?, ?)`,
		ev.SessionID,
		at.UnixNano(),
		string(ev.Type),
		ev.FormID,
		ev.Question,
		ev.Detail,
	)
	return err
}

func (s *SQLiteEventStore) ListEvents(ctx context.Context, sessionID string) ([]api.FormEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, at, type, form_id, question, detail
		FROM form_events
		WHERE session_id = ?
		ORDER BY id ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []api.FormEvent
	for rows.Next() {
		var (
			sid      string
			atN      int64
			typ      string
			formID   string
			question string
			detail   string
		)
		if err := rows.Scan(&sid, &atN, &typ, &formID, &question, &detail); err != nil {
			return nil, err
		}
		out = append(out, api.FormEvent{
			SessionID: sid,
			At:        time.Unix(0, atN),
			Type:      api.EventType(typ),
			FormID:    formID,
			Question:  question,
			Detail:    detail,
		})
	}
	return out, rows.Err()
}
