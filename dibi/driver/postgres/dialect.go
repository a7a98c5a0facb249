package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/orbnauticus/dibi-go/dibi"
	"github.com/orbnauticus/dibi-go/dibi/sqlengine"
)

// SQLSTATE codes.
const (
	codeInvalidAuthorization = "28000"
	codeInvalidPassword      = "28P01"
	codeInvalidCatalogName   = "3D000"
	codeUndefinedTable       = "42P01"
	codeDuplicateTable       = "42P07"
	codeSyntaxError          = "42601"
	codeUndefinedColumn      = "42703"
)

const listColumnsQuery = `SELECT c.column_name, c.data_type, c.is_nullable, COALESCE(c.column_default, ''),
	EXISTS (
		SELECT 1 FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage k
			ON tc.constraint_name = k.constraint_name AND tc.table_schema = k.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'
			AND tc.table_schema = c.table_schema AND tc.table_name = c.table_name
			AND k.column_name = c.column_name
	)
FROM information_schema.columns c
WHERE c.table_schema = current_schema() AND c.table_name = $1
ORDER BY c.ordinal_position`

// Dialect is the PostgreSQL flavour of SQL.
type Dialect struct {
	database string
	user     string
}

var _ sqlengine.Dialect = (*Dialect)(nil)

// NewDialect returns the dialect for a connection as user to database. Both name the subject of errors.
func NewDialect(database, user string) *Dialect {
	return &Dialect{database: database, user: user}
}

func (d *Dialect) Name() string            { return "postgres" }
func (d *Dialect) GoquDialect() string     { return "postgres" }
func (d *Dialect) IdentifierQuote() string { return `"` }
func (d *Dialect) InsertReturning() bool   { return true }

func (d *Dialect) AutoIncrementDefinition() string {
	return "BIGSERIAL PRIMARY KEY"
}

func (d *Dialect) MapType(datatype dibi.DataType) (string, error) {
	switch datatype.DatabaseType() {
	case dibi.TypeInt:
		return "BIGINT", nil
	case dibi.TypeReal:
		return "DOUBLE PRECISION", nil
	case dibi.TypeText:
		if size := datatype.DatabaseSize(); size > 0 {
			return fmt.Sprintf("VARCHAR(%d)", size), nil
		}
		return "TEXT", nil
	case dibi.TypeBlob:
		return "BYTEA", nil
	case dibi.TypeDateTime:
		return "TIMESTAMP", nil
	default:
		return "", fmt.Errorf("%w: datatype %s did not produce a valid PostgreSQL type", dibi.ErrNotSupported, datatype)
	}
}

func unmapType(dataType string) dibi.DataType {
	switch dataType {
	case "bigint", "integer", "smallint":
		return dibi.Integer
	case "double precision", "real", "numeric":
		return dibi.Float
	case "character varying", "text", "character":
		return dibi.Text
	case "bytea":
		return dibi.Blob
	case "timestamp without time zone", "timestamp with time zone":
		return dibi.DateTime
	case "date":
		return dibi.Date
	case "uuid":
		return dibi.UUID
	case "json", "jsonb":
		return dibi.JSON
	default:
		return dibi.Any
	}
}

// relation returns the first double-quoted word of a server message.
func relation(message string) string {
	_, rest, found := strings.Cut(message, `"`)
	if !found {
		return ""
	}

	word, _, _ := strings.Cut(rest, `"`)

	return word
}

func (d *Dialect) ClassifyError(err error) error {
	var classified *dibi.Error
	if errors.As(err, &classified) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return d.classifyCode(pgErr.Code, pgErr.Message, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return d.classifyCode(string(pqErr.Code), pqErr.Message, err)
	}

	var connectErr *pgconn.ConnectError
	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &connectErr) || errors.As(err, &opErr) || errors.As(err, &dnsErr) {
		return dibi.NewError(dibi.ErrConnection, "", err)
	}

	return err
}

func (d *Dialect) classifyCode(code, message string, err error) error {
	switch code {
	case codeInvalidPassword, codeInvalidAuthorization:
		return dibi.NewError(dibi.ErrAuthentication, d.user, err)
	case codeInvalidCatalogName:
		return dibi.NewError(dibi.ErrNoSuchDatabase, d.database, err)
	case codeUndefinedTable:
		return dibi.NewError(dibi.ErrNoSuchTable, relation(message), err)
	case codeDuplicateTable:
		return dibi.NewError(dibi.ErrTableAlreadyExists, relation(message), err)
	case codeUndefinedColumn:
		return dibi.NewError(dibi.ErrNoSuchColumn, relation(message), err)
	case codeSyntaxError:
		return dibi.NewError(dibi.ErrSyntax, "", err)
	default:
		return err
	}
}

func (d *Dialect) ListTables(ctx context.Context, q sqlengine.Querier) ([]string, error) {
	rows, err := q.Query(ctx,
		"SELECT tablename FROM pg_catalog.pg_tables WHERE schemaname = current_schema() OR schemaname LIKE 'pg_temp%'")
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

// ListColumns reads information_schema. An empty result means the table does not exist.
func (d *Dialect) ListColumns(ctx context.Context, q sqlengine.Querier, table string) ([]dibi.ColumnInfo, error) {
	rows, err := q.Query(ctx, listColumnsQuery, table)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var columns []dibi.ColumnInfo
	for rows.Next() {
		var (
			name, dataType, nullable, columnDefault string
			primaryKey                              bool
		)
		if err := rows.Scan(&name, &dataType, &nullable, &columnDefault, &primaryKey); err != nil {
			return nil, err
		}

		columns = append(columns, dibi.ColumnInfo{
			Name:          name,
			DatabaseType:  dataType,
			DataType:      unmapType(dataType),
			PrimaryKey:    primaryKey,
			AutoIncrement: strings.HasPrefix(columnDefault, "nextval("),
			Nullable:      nullable == "YES",
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
