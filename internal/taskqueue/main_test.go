package taskqueue

import (
	"os"
	"testing"

	"github.com/petrijr/formflow/internal/testutil"
)

func TestMain(m *testing.M) {
	code := m.Run()
	testutil.TerminateAll()
	os.Exit(code)
}
