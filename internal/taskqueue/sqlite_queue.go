package taskqueue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLiteQueue is a persistent task queue implementation backed by SQLite.
// Tasks are claimed in not_before order, ties broken by insertion order.
type SQLiteQueue struct {
	db           *sql.DB
	pollInterval time.Duration
}

// NewSQLiteQueue initializes the delivery_tasks table in the given DB and returns a new queue.
func NewSQLiteQueue(db *sql.DB) (*SQLiteQueue, error) {
	q := &SQLiteQueue{
		db:           db,
		pollInterval: 20 * time.Millisecond,
	}
	if err := q.initSchema(); err != nil {
		return nil, err
	}
	return q, nil
}

func (q *SQLiteQueue) initSchema() error {
	_, err := q.db.Exec(`
		CREATE TABLE IF NOT EXISTS delivery_tasks (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL,
			type TEXT NOT NULL,
			submission_id TEXT NOT NULL,
			payload TEXT NOT NULL,
			not_before INTEGER NOT NULL,
			attempts INTEGER NOT NULL
		);
	`)
	return err
}

// Ensure SQLiteQueue implements Queue.
var _ Queue = (*SQLiteQueue)(nil)

func (q *SQLiteQueue) Enqueue(ctx context.Context, t Task) error {
	t = normalize(t)
	data, err := EncodeTask(t)
	if err != nil {
		return err
	}

	_, err = q.db.ExecContext(ctx, `
		INSERT INTO delivery_tasks (id, type, submission_id, payload, not_before, attempts)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID,
		string(t.Type),
		t.Payload.ID,
		string(data),
		t.NotBefore.UnixNano(),
		t.Attempts,
	)
	return err
}

func (q *SQLiteQueue) Dequeue(ctx context.Context) (*Task, error) {
	tmr := newStoppedTimer()
	defer tmr.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		payload, err := q.claim(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			if err := waitPoll(ctx, tmr, q.pollInterval); err != nil {
				return nil, err
			}
			continue
		}
		if err != nil {
			return nil, err
		}
		return DecodeTask([]byte(payload))
	}
}

// claim selects and deletes the next eligible row in one transaction.
func (q *SQLiteQueue) claim(ctx context.Context) (string, error) {
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	var (
		seq     int64
		payload string
	)
	err = tx.QueryRowContext(ctx, `
		SELECT seq, payload
		FROM delivery_tasks
		WHERE not_before <= ?
		ORDER BY not_before, seq
		LIMIT 1`, time.Now().UnixNano()).Scan(&seq, &payload)
	if err != nil {
		return "", err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM delivery_tasks WHERE seq = ?`, seq); err != nil {
		return "", fmt.Errorf("claim task %d: %w", seq, err)
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return payload, nil
}

func (q *SQLiteQueue) Len() int {
	var n int
	err := q.db.QueryRow(`SELECT COUNT(*) FROM delivery_tasks`).Scan(&n)
	if err != nil {
		return 0
	}
	return n
}
