package sqlengine

import (
	"context"
	"database/sql"
	"errors"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/mysql"    // dialect import
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"  // dialect import
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/orbnauticus/dibi-go/dibi"
	"github.com/orbnauticus/dibi-go/dibi/sqlengine/internal/adapters"
)

const (
	operationPing         = "ping"
	operationCreateTable  = "create_table"
	operationDropTable    = "drop_table"
	operationListTables   = "list_tables"
	operationListColumns  = "list_columns"
	operationInsert       = "insert"
	operationSelect       = "select"
	operationUpdate       = "update"
	operationDelete       = "delete"
	operationRenameTable  = "rename_table"
	operationAddColumn    = "add_column"
	operationRenameColumn = "rename_column"
	operationDropColumn   = "drop_column"
	operationQuery        = "query"
	operationExec         = "exec"
)

// ErrNilDialect is returned when an Engine is created without a Dialect.
var ErrNilDialect = errors.New("nil dialect supplied")

// Engine is a dibi.Driver that speaks SQL through a database adapter.
type Engine struct {
	db               adapters.DBAdapter
	dialect          Dialect
	builder          goqu.DialectWrapper
	features         []dibi.Feature
	temporaryTables  bool
	tableSuffix      string
	logger           dibi.Logger
	contextualLogger dibi.ContextualLogger
	metricsCollector dibi.MetricsCollector
	tracingCollector dibi.TracingCollector

	mu            sync.Mutex
	lastStatement string
	lastValues    []any
}

var (
	_ dibi.Driver        = (*Engine)(nil)
	_ dibi.TableRenamer  = (*Engine)(nil)
	_ dibi.ColumnAdder   = (*Engine)(nil)
	_ dibi.ColumnRenamer = (*Engine)(nil)
	_ dibi.ColumnDropper = (*Engine)(nil)
	_ Querier            = (*Engine)(nil)
)

// NewFromSQLDB creates an Engine using a database/sql connection pool.
func NewFromSQLDB(db *sql.DB, dialect Dialect, options ...Option) (*Engine, error) {
	if db == nil {
		return nil, dibi.ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewSQLAdapter(db), dialect, options)
}

// NewFromSQLX creates an Engine using a sqlx connection pool.
func NewFromSQLX(db *sqlx.DB, dialect Dialect, options ...Option) (*Engine, error) {
	if db == nil {
		return nil, dibi.ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewSQLXAdapter(db), dialect, options)
}

// NewFromPGXPool creates an Engine using a pgx pool.
func NewFromPGXPool(pool *pgxpool.Pool, dialect Dialect, options ...Option) (*Engine, error) {
	if pool == nil {
		return nil, dibi.ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewPGXAdapter(pool), dialect, options)
}

func newEngine(db adapters.DBAdapter, dialect Dialect, options []Option) (*Engine, error) {
	if dialect == nil {
		return nil, ErrNilDialect
	}

	e := &Engine{
		db:      db,
		dialect: dialect,
		builder: goqu.Dialect(dialect.GoquDialect()),
	}

	for _, option := range options {
		if err := option(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

func (e *Engine) Name() string {
	return e.dialect.Name()
}

func (e *Engine) Dialect() Dialect {
	return e.dialect
}

func (e *Engine) Features() []dibi.Feature {
	return slices.Clone(e.features)
}

// LastStatement returns the most recent statement sent to the database.
func (e *Engine) LastStatement() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.lastStatement
}

// LastValues returns the values bound to the most recent statement.
func (e *Engine) LastValues() []any {
	e.mu.Lock()
	defer e.mu.Unlock()

	return slices.Clone(e.lastValues)
}

// Ping verifies that the database is reachable, classifying the failure if it is not.
func (e *Engine) Ping(ctx context.Context) error {
	observer, ctx := e.startOperation(ctx, operationPing, "")

	var err error
	if pingErr := e.db.Ping(ctx); pingErr != nil {
		err = e.dialect.ClassifyError(pingErr)
	}

	return observer.finish(-1, err)
}

func (e *Engine) Close() error {
	return e.db.Close()
}

func (e *Engine) CreateTable(ctx context.Context, table *dibi.Table, forceCreate bool) error {
	observer, ctx := e.startOperation(ctx, operationCreateTable, table.Name())

	query, err := e.createTableStatement(table, forceCreate)
	if err == nil {
		err = e.write(ctx, func(ctx context.Context) error {
			_, execErr := e.exec(ctx, operationCreateTable, query, nil)
			return execErr
		})
	}

	return observer.finish(-1, err)
}

func (e *Engine) DropTable(ctx context.Context, name string, ignoreAbsence bool) error {
	return e.ddl(ctx, operationDropTable, name, e.dropTableStatement(name, ignoreAbsence))
}

func (e *Engine) RenameTable(ctx context.Context, name, newName string) error {
	return e.ddl(ctx, operationRenameTable, name, e.renameTableStatement(name, newName))
}

func (e *Engine) AddColumn(ctx context.Context, table string, column *dibi.Column) error {
	query, err := e.addColumnStatement(table, column)
	if err != nil {
		return err
	}

	return e.ddl(ctx, operationAddColumn, table, query)
}

func (e *Engine) RenameColumn(ctx context.Context, table, column, newName string) error {
	return e.ddl(ctx, operationRenameColumn, table, e.renameColumnStatement(table, column, newName))
}

func (e *Engine) DropColumn(ctx context.Context, table, column string) error {
	return e.ddl(ctx, operationDropColumn, table, e.dropColumnStatement(table, column))
}

func (e *Engine) ddl(ctx context.Context, operation, table, query string) error {
	observer, ctx := e.startOperation(ctx, operation, table)

	err := e.write(ctx, func(ctx context.Context) error {
		_, execErr := e.exec(ctx, operation, query, nil)
		return execErr
	})

	return observer.finish(-1, err)
}

func (e *Engine) ListTables(ctx context.Context) ([]string, error) {
	observer, ctx := e.startOperation(ctx, operationListTables, "")

	tables, err := e.dialect.ListTables(ctx, e)

	return tables, observer.finish(int64(len(tables)), err)
}

func (e *Engine) ListColumns(ctx context.Context, table string) ([]dibi.ColumnInfo, error) {
	observer, ctx := e.startOperation(ctx, operationListColumns, table)

	columns, err := e.dialect.ListColumns(ctx, e, table)

	return columns, observer.finish(int64(len(columns)), err)
}

// Insert adds one row and returns the generated primary key, or the last insert id reported
// by the database.
func (e *Engine) Insert(ctx context.Context, table *dibi.Table, values map[string]any) (int64, error) {
	observer, ctx := e.startOperation(ctx, operationInsert, table.Name())

	returning := e.dialect.InsertReturning() && table.PrimaryKey() != nil

	query, args, err := e.insertStatement(table, values, returning)
	if err != nil {
		return 0, observer.finishError(err)
	}

	var id int64
	err = e.write(ctx, func(ctx context.Context) error {
		if returning {
			var queryErr error
			id, queryErr = e.queryID(ctx, query, args)
			return queryErr
		}

		result, execErr := e.exec(ctx, operationInsert, query, args)
		if execErr != nil {
			return execErr
		}

		id, execErr = result.LastInsertId()
		return execErr
	})
	if err != nil {
		return 0, observer.finishError(err)
	}

	observer.finishSuccess(1)

	return id, nil
}

// insertStatement renders an INSERT with the columns in name order. Without values the
// dialect's default values form is used.
func (e *Engine) insertStatement(table *dibi.Table, values map[string]any, returning bool) (string, []any, error) {
	ds := e.builder.Insert(e.quoted(table.Name())).Prepared(true)

	if len(values) > 0 {
		names := slices.Sorted(maps.Keys(values))
		columns := make([]any, len(names))
		row := make([]any, len(names))
		for i, name := range names {
			columns[i] = e.quoted(name)
			row[i] = values[name]
		}
		ds = ds.Cols(columns...).Vals(row)
	}

	if returning {
		ds = ds.Returning(e.quoted(table.PrimaryKey().Name()))
	}

	return ds.ToSQL()
}

func (e *Engine) queryID(ctx context.Context, query string, args []any) (int64, error) {
	rows, err := e.query(ctx, operationInsert, query, args)
	if err != nil {
		return 0, err
	}
	defer func() { _ = rows.Close() }()

	var id any
	if rows.Next() {
		if err := rows.Scan(&id); err != nil {
			return 0, err
		}
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	switch v := id.(type) {
	case int64:
		return v, nil
	case int32:
		return int64(v), nil
	default:
		return 0, nil
	}
}

func (e *Engine) Select(ctx context.Context, q dibi.SelectQuery) (dibi.Rows, error) {
	observer, ctx := e.startOperation(ctx, operationSelect, tableNames(q.Tables))

	query, args, err := e.selectStatement(q)
	if err != nil {
		return nil, observer.finishError(err)
	}

	rows, err := e.query(ctx, operationSelect, query, args)
	if err != nil {
		return nil, observer.finishError(err)
	}

	observer.finishSuccess(-1)

	return rows, nil
}

func (e *Engine) selectStatement(q dibi.SelectQuery) (string, []any, error) {
	if len(q.Tables) == 0 {
		return "", nil, dibi.ErrNoTables
	}

	from := make([]any, len(q.Tables))
	for i, table := range q.Tables {
		from[i] = e.quoted(table.Name())
	}

	columns, err := e.selectColumns(q.Columns)
	if err != nil {
		return "", nil, err
	}

	ds := e.builder.From(from...).Select(columns...).Prepared(true)
	if q.Distinct {
		ds = ds.Distinct()
	}

	if q.Criteria != nil {
		where, err := e.whereExpression(q.Criteria)
		if err != nil {
			return "", nil, err
		}
		ds = ds.Where(where)
	}

	return ds.ToSQL()
}

func (e *Engine) Update(ctx context.Context, table *dibi.Table, criteria dibi.Expression, values map[string]any) (int64, error) {
	if len(values) == 0 {
		return 0, nil
	}

	observer, ctx := e.startOperation(ctx, operationUpdate, table.Name())

	query, args, err := e.updateStatement(table, criteria, values)
	if err != nil {
		return 0, observer.finishError(err)
	}

	affected, err := e.execAffected(ctx, operationUpdate, query, args)

	return affected, observer.finish(affected, err)
}

func (e *Engine) Delete(ctx context.Context, table *dibi.Table, criteria dibi.Expression) (int64, error) {
	observer, ctx := e.startOperation(ctx, operationDelete, table.Name())

	query, args, err := e.deleteStatement(table, criteria)
	if err != nil {
		return 0, observer.finishError(err)
	}

	affected, err := e.execAffected(ctx, operationDelete, query, args)

	return affected, observer.finish(affected, err)
}

func (e *Engine) updateStatement(table *dibi.Table, criteria dibi.Expression, values map[string]any) (string, []any, error) {
	ds := e.builder.Update(e.quoted(table.Name())).Set(e.assignments(values)).Prepared(true)
	if criteria != nil {
		where, err := e.whereExpression(criteria)
		if err != nil {
			return "", nil, err
		}
		ds = ds.Where(where)
	}

	return ds.ToSQL()
}

func (e *Engine) deleteStatement(table *dibi.Table, criteria dibi.Expression) (string, []any, error) {
	ds := e.builder.Delete(e.quoted(table.Name())).Prepared(true)
	if criteria != nil {
		where, err := e.whereExpression(criteria)
		if err != nil {
			return "", nil, err
		}
		ds = ds.Where(where)
	}

	return ds.ToSQL()
}

func (e *Engine) execAffected(ctx context.Context, operation, query string, args []any) (int64, error) {
	var affected int64
	err := e.write(ctx, func(ctx context.Context) error {
		result, err := e.exec(ctx, operation, query, args)
		if err != nil {
			return err
		}

		affected, err = result.RowsAffected()
		return err
	})

	return affected, err
}

// Query runs a raw query. Placeholders follow the dialect of the connection.
func (e *Engine) Query(ctx context.Context, query string, args ...any) (dibi.Rows, error) {
	return e.query(ctx, operationQuery, query, args)
}

// Exec runs a raw statement and returns the number of affected rows.
func (e *Engine) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return e.execAffected(ctx, operationExec, query, args)
}

func (e *Engine) query(ctx context.Context, operation, query string, args []any) (dibi.Rows, error) {
	e.recordStatement(query, args)

	start := time.Now()
	rows, err := e.executor(ctx).Query(ctx, query, args...)
	e.logQueryWithDuration(ctx, query, operation, time.Since(start))
	if err != nil {
		return nil, e.dialect.ClassifyError(err)
	}

	return &engineRows{DBRows: rows, dialect: e.dialect}, nil
}

func (e *Engine) exec(ctx context.Context, operation, query string, args []any) (adapters.DBResult, error) {
	e.recordStatement(query, args)

	start := time.Now()
	result, err := e.executor(ctx).Exec(ctx, query, args...)
	e.logQueryWithDuration(ctx, query, operation, time.Since(start))
	if err != nil {
		return nil, e.dialect.ClassifyError(err)
	}

	return result, nil
}

func (e *Engine) recordStatement(query string, args []any) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.lastStatement = query
	e.lastValues = args
}

// engineRows classifies errors reported while iterating.
type engineRows struct {
	adapters.DBRows
	dialect Dialect
}

func (r *engineRows) Err() error {
	if err := r.DBRows.Err(); err != nil {
		return r.dialect.ClassifyError(err)
	}

	return nil
}

func tableNames(tables []*dibi.Table) string {
	if len(tables) == 0 {
		return ""
	}

	name := tables[0].Name()
	for _, table := range tables[1:] {
		name += "," + table.Name()
	}

	return name
}
