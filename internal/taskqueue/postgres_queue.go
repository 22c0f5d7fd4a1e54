package taskqueue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// PostgresQueue implements Queue using a PostgreSQL table.
//
// Schema (created automatically if missing):
//
//	CREATE TABLE IF NOT EXISTS delivery_tasks (
//	    seq        BIGSERIAL PRIMARY KEY,
//	    id         TEXT NOT NULL,
//	    payload    TEXT NOT NULL,
//	    not_before TIMESTAMPTZ NOT NULL
//	);
//
// Concurrent workers claim rows with FOR UPDATE SKIP LOCKED.
type PostgresQueue struct {
	db           *sql.DB
	pollInterval time.Duration
}

// NewPostgresQueue creates the required schema if needed and returns a Queue.
func NewPostgresQueue(db *sql.DB) (*PostgresQueue, error) {
	q := &PostgresQueue{db: db, pollInterval: 100 * time.Millisecond}
	if err := q.initSchema(); err != nil {
		return nil, err
	}
	return q, nil
}

// Ensure PostgresQueue implements Queue.
var _ Queue = (*PostgresQueue)(nil)

func (q *PostgresQueue) initSchema() error {
	_, err := q.db.Exec(`
		CREATE TABLE IF NOT EXISTS delivery_tasks (
			seq        BIGSERIAL PRIMARY KEY,
			id         TEXT NOT NULL,
			payload    TEXT NOT NULL,
			not_before TIMESTAMPTZ NOT NULL
		);
	`)
	return err
}

// Enqueue inserts a task into the queue.
func (q *PostgresQueue) Enqueue(ctx context.Context, t Task) error {
	t = normalize(t)
	data, err := EncodeTask(t)
	if err != nil {
		return err
	}

	_, err = q.db.ExecContext(ctx, `
		INSERT INTO delivery_tasks (id, payload, not_before)
		VALUES ($1, $2, $3)
	`, t.ID, string(data), t.NotBefore.UTC())
	return err
}

// Dequeue blocks (with polling) until a task is available or ctx is cancelled.
func (q *PostgresQueue) Dequeue(ctx context.Context) (*Task, error) {
	tmr := newStoppedTimer()
	defer tmr.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		id, payload, err := q.claim(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			if err := waitPoll(ctx, tmr, q.pollInterval); err != nil {
				return nil, err
			}
			continue
		}
		if err != nil {
			return nil, err
		}

		task, err := DecodeTask([]byte(payload))
		if err != nil {
			return nil, fmt.Errorf("decode task %q failed: %w", id, err)
		}
		return task, nil
	}
}

func (q *PostgresQueue) claim(ctx context.Context) (string, string, error) {
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return "", "", err
	}
	defer func() { _ = tx.Rollback() }()

	var (
		seq     int64
		id      string
		payload string
	)
	err = tx.QueryRowContext(ctx, `
		SELECT seq, id, payload
		FROM delivery_tasks
		WHERE not_before <= $1
		ORDER BY not_before, seq
		FOR UPDATE SKIP LOCKED
		LIMIT 1
	`, time.Now().UTC()).Scan(&seq, &id, &payload)
	if err != nil {
		return "", "", err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM delivery_tasks WHERE seq = $1`, seq); err != nil {
		return "", "", err
	}
	if err := tx.Commit(); err != nil {
		return "", "", err
	}
	return id, payload, nil
}

// Len returns an approximate number of queued tasks.
func (q *PostgresQueue) Len() int {
	var n int
	if err := q.db.QueryRow(`SELECT COUNT(*) FROM delivery_tasks`).Scan(&n); err != nil {
		slog.Warn("postgres queue len failed", slog.Any("error", err))
		return 0
	}
	return n
}
