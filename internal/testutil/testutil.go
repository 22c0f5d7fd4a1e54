// Package testutil starts shared backing services for integration tests.
//
// Containers are started once per test binary and terminated by
// TerminateAll, which packages call from TestMain.
package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/testcontainers/testcontainers-go"
)

var (
	mu         sync.Mutex
	containers []testcontainers.Container
)

func register(c testcontainers.Container) {
	mu.Lock()
	defer mu.Unlock()
	containers = append(containers, c)
}

// SkipIfShort skips container-backed tests in -short mode.
func SkipIfShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in -short mode")
	}
}

// TerminateAll stops every container started by this package.
func TerminateAll() {
	mu.Lock()
	defer mu.Unlock()
	for _, c := range containers {
		_ = c.Terminate(context.Background())
	}
	containers = nil
}
