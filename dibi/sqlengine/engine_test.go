package sqlengine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbnauticus/dibi-go/dibi"
	"github.com/orbnauticus/dibi-go/dibi/driver/sqlite"
	"github.com/orbnauticus/dibi-go/dibi/sqlengine"
)

func openMemoryEngine(t *testing.T, options ...sqlengine.Option) *sqlengine.Engine {
	t.Helper()

	engine, err := sqlite.Open(context.Background(), sqlite.Config{Path: sqlite.MemoryPath}, options...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Close() })

	return engine
}

func givenOrdersTable(t *testing.T, db *dibi.DB) *dibi.Table {
	t.Helper()

	table := db.AddTable("orders")
	table.AddColumn("item", dibi.Text)
	table.AddColumn("quantity", dibi.Integer)
	require.NoError(t, table.Save(context.Background(), false))

	return table
}

func Test_Engine_ShouldRecordLastStatementAndValues(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	engine := openMemoryEngine(t)

	// arrange
	table := givenOrdersTable(t, dibi.New(engine))

	// act
	_, err := table.Insert(ctx, map[string]any{"quantity": "3", "item": "apple"})

	// assert
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "orders" ("item", "quantity") VALUES (?, ?)`, engine.LastStatement())
	assert.Equal(t, []any{"apple", int64(3)}, engine.LastValues())
}

func Test_Engine_CreateTable_ShouldUseDialectTypes(t *testing.T) {
	// setup
	engine := openMemoryEngine(t)

	// act
	table := dibi.New(engine).AddTable("measurements")
	table.AddColumn("label", dibi.Text)
	table.AddColumn("value", dibi.Float)
	table.AddColumn("raw", dibi.Blob)
	table.AddColumn("taken", dibi.DateTime)
	table.AddColumn("extra", dibi.Any)
	err := table.Save(context.Background(), true)

	// assert
	require.NoError(t, err)
	assert.Equal(t,
		`CREATE TABLE IF NOT EXISTS "measurements" ("label" TEXT, "value" REAL, "raw" BLOB, "taken" TIMESTAMP, "extra", "__id__" INTEGER PRIMARY KEY ASC);`,
		engine.LastStatement(),
	)
}

func Test_Engine_ShouldStoreHostileTableNamesLiterally(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	engine := openMemoryEngine(t)
	db := dibi.New(engine)

	// arrange
	victim := givenOrdersTable(t, db)
	hostile := db.AddTable(`"; DROP TABLE orders;`)
	hostile.AddColumn("x", dibi.Integer)

	// act
	err := hostile.Save(ctx, false)

	// assert
	require.NoError(t, err)
	tables, err := engine.ListTables(ctx)
	require.NoError(t, err)
	assert.Contains(t, tables, `"; DROP TABLE orders;`)
	assert.Contains(t, tables, victim.Name())
}

func Test_Engine_ShouldKeepHostileNamesOutOfDataStatements(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	engine := openMemoryEngine(t)
	db := dibi.New(engine)

	// arrange
	victim := givenOrdersTable(t, db)
	hostile := db.AddTable("t` (`v`) VALUES ('a'); DROP TABLE orders; --")
	hostile.AddColumn("v", dibi.Text)
	require.NoError(t, hostile.Save(ctx, false))

	// act
	id, insertErr := hostile.Insert(ctx, map[string]any{"v": "b"})
	rows, selectErr := hostile.SelectAll(ctx)

	// assert
	require.NoError(t, insertErr)
	require.NoError(t, selectErr)
	assert.Equal(t, int64(1), id)
	assert.Equal(t, []dibi.Row{{"b"}}, rows)
	tables, err := engine.ListTables(ctx)
	require.NoError(t, err)
	assert.Contains(t, tables, victim.Name())
	assert.Contains(t, tables, hostile.Name())
}

func Test_Engine_ShouldRoundTripRowsThroughQuotedNames(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	engine := openMemoryEngine(t)

	// arrange
	table := dibi.New(engine).AddTable(`we"ird`)
	column := table.AddColumn(`co"l`, dibi.Text)
	table.AddColumn("b`ack", dibi.Integer)
	require.NoError(t, table.Save(ctx, false))

	// act
	id, insertErr := table.Insert(ctx, map[string]any{`co"l`: "x", "b`ack": 1})
	insertStatement := engine.LastStatement()
	updated, updateErr := column.Eq("x").Update(ctx, map[string]any{`co"l`: "y", "b`ack": 2})
	row, getErr := table.Get(ctx, id)
	deleted, deleteErr := table.Delete(ctx)

	// assert
	require.NoError(t, insertErr)
	require.NoError(t, updateErr)
	require.NoError(t, getErr)
	require.NoError(t, deleteErr)
	assert.Equal(t, `INSERT INTO "we""ird" ("b`+"`"+`ack", "co""l") VALUES (?, ?)`, insertStatement)
	assert.Equal(t, int64(1), updated)
	assert.Equal(t, dibi.Row{"y", int64(2)}, row)
	assert.Equal(t, int64(1), deleted)
}

func Test_Engine_Insert_ShouldUseDefaultValuesWithoutValues(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	engine := openMemoryEngine(t)

	// arrange
	table := dibi.New(engine).AddTable("counters", dibi.WithPrimaryKey("id"))
	require.NoError(t, table.Save(ctx, false))

	// act
	first, firstErr := table.Insert(ctx, map[string]any{})
	second, secondErr := table.Insert(ctx, nil)

	// assert
	require.NoError(t, firstErr)
	require.NoError(t, secondErr)
	assert.Equal(t, int64(1), first)
	assert.Equal(t, int64(2), second)
	assert.Equal(t, `INSERT INTO "counters" DEFAULT VALUES`, engine.LastStatement())
}

func Test_Engine_ListColumns_ShouldReportSchema(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	engine := openMemoryEngine(t)

	// arrange
	givenOrdersTable(t, dibi.New(engine))

	// act
	columns, err := engine.ListColumns(ctx, "orders")
	_, missingErr := engine.ListColumns(ctx, "missing")

	// assert
	require.NoError(t, err)
	require.Len(t, columns, 3)
	assert.Equal(t, dibi.ColumnInfo{Name: "item", DatabaseType: "TEXT", DataType: dibi.Text, Nullable: true}, columns[0])
	assert.Equal(t, dibi.Integer, columns[1].DataType)
	assert.Equal(t, dibi.ImplicitPrimaryKey, columns[2].Name)
	assert.True(t, columns[2].PrimaryKey)
	assert.True(t, columns[2].AutoIncrement)
	assert.ErrorIs(t, missingErr, dibi.ErrNoSuchTable)
}

func Test_Engine_RawQueryAndExec(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	engine := openMemoryEngine(t)
	givenOrdersTable(t, dibi.New(engine))

	// act
	affected, execErr := engine.Exec(ctx, `INSERT INTO "orders" ("item") VALUES (?), (?)`, "a", "b")
	rows, queryErr := engine.Query(ctx, `SELECT count(*) FROM "orders"`)
	require.NoError(t, queryErr)
	var count int64
	require.True(t, rows.Next())
	require.NoError(t, rows.Scan(&count))
	require.NoError(t, rows.Close())

	// assert
	assert.NoError(t, execErr)
	assert.Equal(t, int64(2), affected)
	assert.Equal(t, int64(2), count)
}

func Test_Engine_ShouldClassifyNativeErrors(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	engine := openMemoryEngine(t)
	givenOrdersTable(t, dibi.New(engine))

	// act
	_, syntaxErr := engine.Exec(ctx, "SELEC 1")
	_, tableErr := engine.Query(ctx, `SELECT * FROM "nowhere"`)
	_, columnErr := engine.Query(ctx, `SELECT colour FROM "orders"`)
	_, existsErr := engine.Exec(ctx, `CREATE TABLE "orders" ("x")`)

	// assert
	assert.ErrorIs(t, syntaxErr, dibi.ErrSyntax)
	assert.ErrorIs(t, tableErr, dibi.ErrNoSuchTable)
	assert.ErrorIs(t, columnErr, dibi.ErrNoSuchColumn)
	assert.ErrorIs(t, existsErr, dibi.ErrTableAlreadyExists)

	var classified *dibi.Error
	require.ErrorAs(t, tableErr, &classified)
	assert.Equal(t, "nowhere", classified.Subject)
}

func Test_Engine_WithTransaction_ShouldCommitOnSuccess(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	engine := openMemoryEngine(t)
	table := givenOrdersTable(t, dibi.New(engine))

	// act
	err := engine.WithTransaction(ctx, func(ctx context.Context) error {
		assert.True(t, engine.InTransaction(ctx))
		_, err := table.Insert(ctx, map[string]any{"item": "apple"})
		return err
	})

	// assert
	require.NoError(t, err)
	assert.False(t, engine.InTransaction(ctx))
	count, err := table.CountRows(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func Test_Engine_WithTransaction_ShouldRollBackOnError(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	engine := openMemoryEngine(t)
	table := givenOrdersTable(t, dibi.New(engine))
	errAbort := errors.New("abort")

	// act
	err := engine.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := table.Insert(ctx, map[string]any{"item": "apple"}); err != nil {
			return err
		}
		return errAbort
	})

	// assert
	assert.ErrorIs(t, err, errAbort)
	count, err := table.CountRows(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func Test_Engine_WithTransaction_ShouldJoinOuterTransaction(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	engine := openMemoryEngine(t)
	table := givenOrdersTable(t, dibi.New(engine))
	errAbort := errors.New("abort")

	// act
	err := engine.WithTransaction(ctx, func(ctx context.Context) error {
		innerErr := engine.WithTransaction(ctx, func(ctx context.Context) error {
			_, err := table.Insert(ctx, map[string]any{"item": "inner"})
			return err
		})
		require.NoError(t, innerErr)

		return errAbort
	})

	// assert
	assert.ErrorIs(t, err, errAbort)
	count, err := table.CountRows(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count, "the inner call must not commit on its own")
}

func Test_Engine_WithTransaction_ShouldRollBackAndRepanic(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	engine := openMemoryEngine(t)
	table := givenOrdersTable(t, dibi.New(engine))

	// act
	act := func() {
		_ = engine.WithTransaction(ctx, func(ctx context.Context) error {
			_, _ = table.Insert(ctx, map[string]any{"item": "apple"})
			panic("boom")
		})
	}

	// assert
	assert.PanicsWithValue(t, "boom", act)
	count, err := table.CountRows(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func Test_Engine_ShouldReportFeatures(t *testing.T) {
	// setup
	engine := openMemoryEngine(t, sqlengine.WithFeatures("custom"))

	// act
	features := engine.Features()
	features[0] = "mutated"

	// assert
	assert.Equal(t, []dibi.Feature{dibi.FeatureTransactions, "custom"}, engine.Features())
	assert.Equal(t, "sqlite", engine.Name())
	assert.Equal(t, "sqlite", engine.Dialect().Name())
}
