// Command formflow runs form schemas in the terminal and inspects their
// stored submissions.
//
// Usage:
//
//	formflow run -file signup.yaml [-db formflow.db | -pg postgres://...]
//	formflow lint -file signup.yaml
//	formflow submissions -db formflow.db [-form signup] [-limit 20]
//	formflow submissions -pg postgres://... [-form signup]
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/petrijr/formflow"
	"github.com/petrijr/formflow/pkg/lint"
)

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch os.Args[1] {
	case "run":
		err = runCmd(ctx, os.Args[2:], os.Stdin, os.Stdout)
	case "lint":
		err = lintCmd(os.Args[2:], os.Stdout)
	case "submissions":
		err = submissionsCmd(ctx, os.Args[2:], os.Stdout)
	case "-h", "--help", "help":
		usage(os.Stdout)
		return
	default:
		usage(os.Stderr)
		os.Exit(2)
	}

	if err != nil {
		var fail lintFailure
		if !errors.As(err, &fail) {
			fmt.Fprintln(os.Stderr, "formflow:", err)
		}
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, `usage:
  formflow run -file <schema.json|yaml> [-db <sqlite file> | -pg <dsn>] [-strict] [-v]
  formflow lint -file <schema.json|yaml>
  formflow submissions (-db <sqlite file> | -pg <dsn>) [-form <id>] [-session <id>] [-limit n]`)
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

func openPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// newPostgresHost keeps submissions and delivery tasks in Postgres. Session
// events stay in memory.
func newPostgresHost(db *sql.DB, cfg formflow.HostConfig) (*formflow.Host, error) {
	store, err := formflow.NewPostgresSubmissionStore(db)
	if err != nil {
		return nil, err
	}
	queue, err := formflow.NewPostgresQueue(db)
	if err != nil {
		return nil, err
	}
	cfg.Store = store
	cfg.Queue = queue
	cfg.Events = formflow.NewInMemoryEventStore()
	return formflow.NewHost(cfg), nil
}

func runCmd(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	file := fs.String("file", "", "schema file (.json, .yaml)")
	dbPath := fs.String("db", "", "SQLite database for submissions; in-memory when empty")
	pgDSN := fs.String("pg", "", "Postgres DSN for submissions")
	strict := fs.Bool("strict", false, "enforce every validation rule on Next")
	verbose := fs.Bool("v", false, "log engine diagnostics")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return errors.New("run: -file is required")
	}
	if *dbPath != "" && *pgDSN != "" {
		return errors.New("run: -db and -pg are mutually exclusive")
	}

	schema, err := formflow.LoadSchemaFile(*file)
	if err != nil {
		return err
	}

	logger := newLogger(*verbose)
	cfg := formflow.HostConfig{
		Logger: logger,
		Worker: formflow.Retry(5).WithExponentialBackoff(100*time.Millisecond, 2, 2*time.Second).WorkerConfig(),
	}
	if *strict {
		cfg.Mode = formflow.ValidationStrict
	}

	var host *formflow.Host
	switch {
	case *dbPath != "":
		db, err := openDB(*dbPath)
		if err != nil {
			return err
		}
		defer db.Close()
		if host, err = formflow.NewSQLiteHost(db, cfg); err != nil {
			return err
		}
	case *pgDSN != "":
		db, err := openPostgres(ctx, *pgDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		if host, err = newPostgresHost(db, cfg); err != nil {
			return err
		}
	default:
		host = formflow.NewHost(cfg)
	}

	if err := host.Register(schema); err != nil {
		return err
	}
	if err := host.StartWorkers(ctx, 1); err != nil {
		return err
	}
	defer host.Stop()

	sess, err := host.OpenSession(ctx, schema.ID)
	if err != nil {
		return err
	}

	if err := newTerminal(sess, in, out).run(ctx); err != nil {
		return err
	}

	waitForDelivery(ctx, host, 5*time.Second)
	if host.Pending() > 0 {
		fmt.Fprintf(out, "%d submission(s) still queued\n", host.Pending())
	}
	return nil
}

// waitForDelivery gives the background worker a chance to drain the queue.
func waitForDelivery(ctx context.Context, host *formflow.Host, limit time.Duration) {
	deadline := time.Now().Add(limit)
	for host.Pending() > 0 && time.Now().Before(deadline) && ctx.Err() == nil {
		time.Sleep(20 * time.Millisecond)
	}
}

type lintFailure struct{}

func (lintFailure) Error() string { return "schema has errors" }

func lintCmd(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("lint", flag.ContinueOnError)
	file := fs.String("file", "", "schema file (.json, .yaml)")
	asJSON := fs.Bool("json", false, "print the result as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return errors.New("lint: -file is required")
	}

	schema, err := formflow.LoadSchemaFile(*file)
	if err != nil {
		return err
	}
	res := lint.Check(schema)

	if *asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	} else {
		for _, is := range res.Issues {
			if is.Field != "" {
				fmt.Fprintf(out, "%s: %s: %s\n", is.Severity, is.Field, is.Message)
			} else {
				fmt.Fprintf(out, "%s: %s\n", is.Severity, is.Message)
			}
		}
		if len(res.Issues) == 0 {
			fmt.Fprintln(out, "ok")
		}
	}

	if !res.Valid {
		return lintFailure{}
	}
	return nil
}

func submissionsCmd(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("submissions", flag.ContinueOnError)
	dbPath := fs.String("db", "", "SQLite database written by 'formflow run -db'")
	pgDSN := fs.String("pg", "", "Postgres DSN used by 'formflow run -pg'")
	form := fs.String("form", "", "only list submissions of this form")
	session := fs.String("session", "", "only list submissions of this session")
	limit := fs.Int("limit", 0, "maximum number of submissions")
	if err := fs.Parse(args); err != nil {
		return err
	}
	var (
		db       *sql.DB
		newStore func(*sql.DB) (formflow.SubmissionStore, error)
		err      error
	)
	switch {
	case *dbPath != "" && *pgDSN != "":
		return errors.New("submissions: -db and -pg are mutually exclusive")
	case *dbPath != "":
		db, err = openDB(*dbPath)
		newStore = formflow.NewSQLiteSubmissionStore
	case *pgDSN != "":
		db, err = openPostgres(ctx, *pgDSN)
		newStore = formflow.NewPostgresSubmissionStore
	default:
		return errors.New("submissions: -db or -pg is required")
	}
	if err != nil {
		return err
	}
	defer db.Close()

	store, err := newStore(db)
	if err != nil {
		return err
	}
	subs, err := store.ListSubmissions(ctx, formflow.SubmissionFilter{
		FormID:    *form,
		SessionID: *session,
		Limit:     *limit,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	for _, sub := range subs {
		if err := enc.Encode(sub); err != nil {
			return err
		}
	}
	return nil
}
