package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	goqusqlite "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/mattn/go-sqlite3"

	"github.com/orbnauticus/dibi-go/dibi"
	"github.com/orbnauticus/dibi-go/dibi/sqlengine"
)

const (
	msgCantOpen      = "unable to open database file"
	msgNoSuchTable   = "no such table: "
	msgNoSuchColumn  = "no such column: "
	msgSyntaxError   = ": syntax error"
	msgTablePrefix   = `table "`
	msgAlreadyExists = `" already exists`
)

// goquDialect quotes identifiers like the DDL does and spells an insert without values out.
const goquDialect = "dibi-sqlite"

func init() {
	opts := goqusqlite.DialectOptions()
	opts.QuoteRune = '"'
	opts.DefaultValuesFragment = []byte(" DEFAULT VALUES")
	goqu.RegisterDialect(goquDialect, opts)
}

// Dialect is the sqlite flavour of SQL.
type Dialect struct {
	path string
}

var (
	_ sqlengine.Dialect         = (*Dialect)(nil)
	_ sqlengine.FunctionRenamer = (*Dialect)(nil)
)

// NewDialect returns the dialect for the database at path. The path names the database in errors.
func NewDialect(path string) *Dialect {
	return &Dialect{path: path}
}

func (d *Dialect) Name() string            { return "sqlite" }
func (d *Dialect) GoquDialect() string     { return goquDialect }
func (d *Dialect) IdentifierQuote() string { return `"` }
func (d *Dialect) InsertReturning() bool   { return false }

func (d *Dialect) AutoIncrementDefinition() string {
	return "INTEGER PRIMARY KEY ASC"
}

func (d *Dialect) MapType(datatype dibi.DataType) (string, error) {
	switch datatype.DatabaseType() {
	case dibi.TypeUntyped:
		return "", nil
	case dibi.TypeInt:
		return "INT", nil
	case dibi.TypeReal:
		return "REAL", nil
	case dibi.TypeText:
		return "TEXT", nil
	case dibi.TypeBlob:
		return "BLOB", nil
	case dibi.TypeDateTime:
		return "TIMESTAMP", nil
	default:
		return "", fmt.Errorf("%w: datatype %s has no sqlite type", dibi.ErrNotSupported, datatype)
	}
}

// FunctionName renders SUM as total(), which returns 0.0 instead of NULL for no rows.
func (d *Dialect) FunctionName(op dibi.Operator) (string, bool) {
	if op == dibi.OpSum {
		return "total", true
	}

	return "", false
}

func unmapType(columnType string) dibi.DataType {
	switch strings.ToUpper(columnType) {
	case "INT", "INTEGER":
		return dibi.Integer
	case "REAL":
		return dibi.Float
	case "TEXT":
		return dibi.Text
	case "BLOB":
		return dibi.Blob
	case "TIMESTAMP":
		return dibi.DateTime
	default:
		return dibi.Any
	}
}

func (d *Dialect) ClassifyError(err error) error {
	var classified *dibi.Error
	if errors.As(err, &classified) {
		return err
	}

	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}

	message := sqliteErr.Error()

	switch {
	case sqliteErr.Code == sqlite3.ErrCantOpen || strings.HasPrefix(message, msgCantOpen):
		return dibi.NewError(dibi.ErrNoSuchDatabase, d.path, err)
	case strings.HasPrefix(message, msgNoSuchTable):
		return dibi.NewError(dibi.ErrNoSuchTable, strings.TrimPrefix(message, msgNoSuchTable), err)
	case strings.HasPrefix(message, msgNoSuchColumn):
		return dibi.NewError(dibi.ErrNoSuchColumn, strings.TrimPrefix(message, msgNoSuchColumn), err)
	case strings.HasSuffix(message, msgSyntaxError):
		return dibi.NewError(dibi.ErrSyntax, "", err)
	case strings.HasPrefix(message, msgTablePrefix) && strings.HasSuffix(message, msgAlreadyExists):
		table := strings.TrimSuffix(strings.TrimPrefix(message, msgTablePrefix), msgAlreadyExists)
		return dibi.NewError(dibi.ErrTableAlreadyExists, table, err)
	default:
		return err
	}
}

func (d *Dialect) ListTables(ctx context.Context, q sqlengine.Querier) ([]string, error) {
	rows, err := q.Query(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' "+
			"UNION ALL SELECT name FROM sqlite_temp_master WHERE type='table'")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}

	return tables, rows.Err()
}

// ListColumns reads PRAGMA table_info. An empty result means the table does not exist.
func (d *Dialect) ListColumns(ctx context.Context, q sqlengine.Querier, table string) ([]dibi.ColumnInfo, error) {
	rows, err := q.Query(ctx, "PRAGMA table_info("+q.Identifier(table)+")")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var columns []dibi.ColumnInfo
	for rows.Next() {
		var (
			cid, notNull, pk int64
			name, columnType string
			defaultValue     any
		)
		if err := rows.Scan(&cid, &name, &columnType, &notNull, &defaultValue, &pk); err != nil {
			return nil, err
		}

		columns = append(columns, dibi.ColumnInfo{
			Name:          name,
			DatabaseType:  columnType,
			DataType:      unmapType(columnType),
			PrimaryKey:    pk > 0,
			AutoIncrement: pk > 0 && strings.EqualFold(columnType, "INTEGER"),
			Nullable:      notNull == 0,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(columns) == 0 {
		return nil, dibi.NewError(dibi.ErrNoSuchTable, table, nil)
	}

	return columns, nil
}
