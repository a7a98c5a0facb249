// Package enginewrapper opens dibi databases for tests on the backend chosen by the environment.
package enginewrapper

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/orbnauticus/dibi-go/dibi"
	"github.com/orbnauticus/dibi-go/dibi/driver"
	_ "github.com/orbnauticus/dibi-go/dibi/driver/all" // backend registration
	"github.com/orbnauticus/dibi-go/dibi/sqlengine"
	"github.com/orbnauticus/dibi-go/testutil/config"
)

const envBackend = "DIBI_BACKEND"

// Wrapper bundles a DB with the engine that backs it.
type Wrapper struct {
	Backend string
	DB      *dibi.DB
	Engine  *sqlengine.Engine
}

// Backend returns the backend named by DIBI_BACKEND, sqlite by default.
func Backend() string {
	if backend := strings.ToLower(os.Getenv(envBackend)); backend != "" {
		return backend
	}

	return "sqlite"
}

// Open connects to the backend named by DIBI_BACKEND. Tests against a server backend are
// skipped unless the integration environment is enabled. The database is closed on cleanup.
func Open(t testing.TB, options ...sqlengine.Option) *Wrapper {
	t.Helper()

	return OpenBackend(t, Backend(), options...)
}

// OpenBackend connects to backend with its test parameters.
func OpenBackend(t testing.TB, backend string, options ...sqlengine.Option) *Wrapper {
	t.Helper()

	params, ok := config.Parameters(backend)
	if !ok {
		panic(fmt.Sprintf("unsupported backend from env: %s", backend))
	}

	if backend != "sqlite" && !config.IsIntegrationTestEnvironment() {
		t.Skipf("%s tests need a database server, set DIBI_INTEGRATION to run them", backend)
	}

	d, err := driver.Open(context.Background(), backend, params, options...)
	require.NoError(t, err, "error connecting to %s in test setup", backend)

	engine, ok := d.(*sqlengine.Engine)
	require.True(t, ok, "backend %s is not backed by a sql engine", backend)

	db := dibi.New(engine)
	t.Cleanup(func() {
		_ = db.Close()
	})

	return &Wrapper{Backend: backend, DB: db, Engine: engine}
}

// UniqueTableName returns a table name no other test uses.
func UniqueTableName(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// DropTables removes the given tables at cleanup, ignoring missing ones.
func (w *Wrapper) DropTables(t testing.TB, names ...string) {
	t.Helper()

	t.Cleanup(func() {
		for _, name := range names {
			_ = w.Engine.DropTable(context.Background(), name, true)
		}
	})
}
