package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbnauticus/dibi-go/dibi"
	"github.com/orbnauticus/dibi-go/dibi/driver"
	"github.com/orbnauticus/dibi-go/dibi/driver/sqlite"
)

func Test_ConfigFromParameters_ShouldApplyDefaults(t *testing.T) {
	// act
	cfg, err := sqlite.ConfigFromParameters(driver.Parameters{})

	// assert
	require.NoError(t, err)
	assert.Equal(t, sqlite.Config{Path: sqlite.MemoryPath, Create: true, Adapter: driver.AdapterSQLDB}, cfg)
	assert.True(t, cfg.InMemory())
}

func Test_ConfigFromParameters_ShouldReadParameters(t *testing.T) {
	// act
	cfg, err := sqlite.ConfigFromParameters(driver.Parameters{"path": "/var/lib/app.db", "create": "", "adapter": "sqlx.db", "debug": "1"})

	// assert
	require.NoError(t, err)
	assert.Equal(t, sqlite.Config{Path: "/var/lib/app.db", Create: false, Adapter: driver.AdapterSQLX}, cfg)
	assert.False(t, cfg.InMemory())
}

func Test_ConfigFromParameters_ShouldRejectInvalidParameters(t *testing.T) {
	_, unknownKey := sqlite.ConfigFromParameters(driver.Parameters{"host": "localhost"})
	_, badAdapter := sqlite.ConfigFromParameters(driver.Parameters{"adapter": driver.AdapterPGXPool})

	assert.ErrorIs(t, unknownKey, dibi.ErrInvalidParameter)
	assert.ErrorIs(t, badAdapter, dibi.ErrInvalidParameter)
}

func Test_Config_DSN(t *testing.T) {
	testCases := []struct {
		name     string
		cfg      sqlite.Config
		expected string
	}{
		{name: "memory", cfg: sqlite.Config{Path: sqlite.MemoryPath, Create: true}, expected: ":memory:"},
		{name: "blank path", cfg: sqlite.Config{}, expected: ":memory:"},
		{name: "create", cfg: sqlite.Config{Path: "/data/app.db", Create: true}, expected: "file:/data/app.db?mode=rwc"},
		{name: "existing only", cfg: sqlite.Config{Path: "/data/app.db"}, expected: "file:/data/app.db?mode=rw"},
		{name: "escaped", cfg: sqlite.Config{Path: "/data//odd?name#1.db"}, expected: "file:/data/odd%3fname%231.db?mode=rw"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.cfg.DSN())
		})
	}
}

func Test_Open_ShouldCreateFileDatabases(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	path := filepath.Join(t.TempDir(), "created.db")

	for _, adapter := range []string{driver.AdapterSQLDB, driver.AdapterSQLX} {
		t.Run(adapter, func(t *testing.T) {
			// act
			engine, err := sqlite.Open(ctx, sqlite.Config{Path: path, Create: true, Adapter: adapter})
			require.NoError(t, err)
			defer func() { _ = engine.Close() }()

			table := dibi.New(engine).AddTable("notes")
			table.AddColumn("body", dibi.Text)
			require.NoError(t, table.Save(ctx, true))

			// assert
			tables, err := engine.ListTables(ctx)
			require.NoError(t, err)
			assert.Contains(t, tables, table.Name())
			assert.True(t, dibi.HasFeature(engine, dibi.FeatureTransactions))
		})
	}
}

func Test_Open_ShouldClassifyMissingDatabase(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	path := filepath.Join(t.TempDir(), "missing", "absent.db")

	// act
	_, err := sqlite.Open(ctx, sqlite.Config{Path: path})

	// assert
	require.ErrorIs(t, err, dibi.ErrNoSuchDatabase)
	var classified *dibi.Error
	require.ErrorAs(t, err, &classified)
	assert.Equal(t, path, classified.Subject)
}

func Test_Registry_ShouldOpenSqliteByName(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// act
	opened, err := driver.Open(ctx, "sqlite", driver.Parameters{"path": sqlite.MemoryPath})
	require.NoError(t, err)
	defer func() { _ = opened.Close() }()

	// assert
	assert.Equal(t, "sqlite", opened.Name())
	tables, err := opened.ListTables(ctx)
	require.NoError(t, err)
	assert.Empty(t, tables)
}

func Test_Dialect_MapType(t *testing.T) {
	dialect := sqlite.NewDialect(sqlite.MemoryPath)

	expected := map[dibi.DataType]string{
		dibi.Any:      "",
		dibi.Integer:  "INT",
		dibi.Float:    "REAL",
		dibi.Text:     "TEXT",
		dibi.Blob:     "BLOB",
		dibi.DateTime: "TIMESTAMP",
	}

	for datatype, columnType := range expected {
		mapped, err := dialect.MapType(datatype)
		require.NoError(t, err)
		assert.Equal(t, columnType, mapped, "datatype %s", datatype)
	}

	name, renamed := dialect.FunctionName(dibi.OpSum)
	assert.True(t, renamed)
	assert.Equal(t, "total", name)

	_, renamed = dialect.FunctionName(dibi.OpCount)
	assert.False(t, renamed)
}
