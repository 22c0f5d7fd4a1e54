package formflow

import (
	"database/sql"

	"github.com/petrijr/formflow/internal/persistence"
	"github.com/petrijr/formflow/internal/taskqueue"
)

// NewSQLiteHost constructs a Host whose submissions, session events and
// delivery queue all live in the provided SQLite database. Store, Events and
// Queue in cfg are replaced; the remaining fields are honored.
//
// Typical usage:
//
//	db, _ := sql.Open("sqlite", "file:formflow.db?_pragma=journal_mode(WAL)")
//	host, err := formflow.NewSQLiteHost(db, formflow.HostConfig{
//	    Worker: formflow.Retry(5).WithExponentialBackoff(time.Second, 2, time.Minute).WorkerConfig(),
//	})
func NewSQLiteHost(db *sql.DB, cfg HostConfig) (*Host, error) {
	stores, err := persistence.NewSQLite(db)
	if err != nil {
		return nil, err
	}
	q, err := taskqueue.NewSQLiteQueue(db)
	if err != nil {
		return nil, err
	}

	cfg.Store = stores.Submissions
	cfg.Events = stores.Events
	cfg.Queue = q
	return NewHost(cfg), nil
}
