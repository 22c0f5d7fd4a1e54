package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	pgOnce sync.Once
	pgDSN  string
	pgErr  error
)

const (
	pgUser     = "formflow"
	pgPassword = "formflow"
	pgDatabase = "formflow_test"
)

// GetPostgresDSN starts a shared PostgreSQL container on first use and
// returns a DSN usable with the pgx database/sql driver. The test is skipped
// in -short mode.
func GetPostgresDSN(t *testing.T) string {
	t.Helper()
	SkipIfShort(t)

	pgOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
		defer cancel()

		postgresC, err := testcontainers.Run(
			ctx, "postgres:16",
			testcontainers.WithExposedPorts("5432/tcp"),
			testcontainers.WithWaitStrategy(
				wait.ForAll(
					wait.ForListeningPort("5432/tcp"),
					wait.ForLog("ready to accept connections"),
					// Actively verify SQL connectivity using the mapped host:port.
					wait.ForSQL("5432/tcp", "pgx", func(host string, port nat.Port) string {
						return dsn(host + ":" + port.Port())
					}).WithQuery("SELECT 1"),
				).WithDeadline(2*time.Minute),
			),
			testcontainers.WithEnv(map[string]string{
				"POSTGRES_USER":     pgUser,
				"POSTGRES_PASSWORD": pgPassword,
				"POSTGRES_DB":       pgDatabase,
			}),
		)
		if err != nil {
			pgErr = err
			return
		}
		register(postgresC)

		endpoint, err := postgresC.Endpoint(ctx, "")
		if err != nil {
			pgErr = err
			return
		}
		pgDSN = dsn(endpoint)
	})

	if pgErr != nil {
		t.Fatalf("start postgres container: %v", pgErr)
	}
	return pgDSN
}

func dsn(hostPort string) string {
	return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable", pgUser, pgPassword, hostPort, pgDatabase)
}
