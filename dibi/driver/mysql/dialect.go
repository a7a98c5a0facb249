package mysql

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/doug-martin/goqu/v9"
	goqumysql "github.com/doug-martin/goqu/v9/dialect/mysql"
	mysqldriver "github.com/go-sql-driver/mysql"

	"github.com/orbnauticus/dibi-go/dibi"
	"github.com/orbnauticus/dibi-go/dibi/sqlengine"
)

// Server error numbers.
const (
	errDBAccessDenied    = 1044
	errAccessDenied      = 1045
	errBadDB             = 1049
	errTableExists       = 1050
	errBadTable          = 1051
	errBadField          = 1054
	errParse             = 1064
	errNoSuchTable       = 1146
	errConnectionRefused = 2003
	errUnknownHost       = 2005
	errServerGone        = 2006
)

// MySQL has no DEFAULT VALUES clause. An empty column list inserts the defaults.
const goquDialect = "dibi-mysql"

func init() {
	opts := goqumysql.DialectOptions()
	opts.DefaultValuesFragment = []byte(" () VALUES ()")
	goqu.RegisterDialect(goquDialect, opts)
}

// Dialect is the MySQL flavour of SQL.
type Dialect struct {
	database string
	user     string
}

var _ sqlengine.Dialect = (*Dialect)(nil)

// NewDialect returns the dialect for a connection as user to database. Both name the subject of errors.
func NewDialect(database, user string) *Dialect {
	return &Dialect{database: database, user: user}
}

func (d *Dialect) Name() string            { return "mysql" }
func (d *Dialect) GoquDialect() string     { return goquDialect }
func (d *Dialect) IdentifierQuote() string { return "`" }
func (d *Dialect) InsertReturning() bool   { return false }

func (d *Dialect) AutoIncrementDefinition() string {
	return "BIGINT PRIMARY KEY AUTO_INCREMENT"
}

func (d *Dialect) MapType(datatype dibi.DataType) (string, error) {
	switch datatype.DatabaseType() {
	case dibi.TypeInt:
		return "BIGINT", nil
	case dibi.TypeReal:
		return "DOUBLE", nil
	case dibi.TypeText:
		if size := datatype.DatabaseSize(); size > 0 {
			return fmt.Sprintf("VARCHAR(%d)", size), nil
		}
		return "TEXT", nil
	case dibi.TypeBlob:
		return "LONGBLOB", nil
	case dibi.TypeDateTime:
		return "DATETIME(6)", nil
	default:
		return "", fmt.Errorf("%w: datatype %s did not produce a valid MySQL type", dibi.ErrNotSupported, datatype)
	}
}

func unmapType(columnType string) dibi.DataType {
	name, _, _ := strings.Cut(strings.ToLower(columnType), "(")

	switch name {
	case "int", "bigint", "smallint", "mediumint", "tinyint":
		return dibi.Integer
	case "double", "real", "float", "decimal":
		return dibi.Float
	case "varchar", "char", "text", "mediumtext", "longtext":
		return dibi.Text
	case "blob", "mediumblob", "longblob", "varbinary", "binary":
		return dibi.Blob
	case "datetime", "timestamp":
		return dibi.DateTime
	case "date":
		return dibi.Date
	default:
		return dibi.Any
	}
}

// quoted returns the first single-quoted word of a server message.
func quoted(message string) string {
	_, rest, found := strings.Cut(message, "'")
	if !found {
		return ""
	}

	word, _, _ := strings.Cut(rest, "'")

	return word
}

func (d *Dialect) ClassifyError(err error) error {
	var classified *dibi.Error
	if errors.As(err, &classified) {
		return err
	}

	var serverErr *mysqldriver.MySQLError
	if errors.As(err, &serverErr) {
		return d.classifyServerError(serverErr, err)
	}

	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) {
		return dibi.NewError(dibi.ErrConnection, "", err)
	}

	return err
}

func (d *Dialect) classifyServerError(serverErr *mysqldriver.MySQLError, err error) error {
	switch serverErr.Number {
	case errDBAccessDenied, errAccessDenied:
		return dibi.NewError(dibi.ErrAuthentication, d.user, err)
	case errBadDB:
		return dibi.NewError(dibi.ErrNoSuchDatabase, d.database, err)
	case errNoSuchTable, errBadTable:
		table := quoted(serverErr.Message)
		table = strings.TrimPrefix(table, d.database+".")
		return dibi.NewError(dibi.ErrNoSuchTable, table, err)
	case errTableExists:
		return dibi.NewError(dibi.ErrTableAlreadyExists, quoted(serverErr.Message), err)
	case errBadField:
		return dibi.NewError(dibi.ErrNoSuchColumn, quoted(serverErr.Message), err)
	case errParse:
		return dibi.NewError(dibi.ErrSyntax, "", err)
	case errConnectionRefused, errUnknownHost, errServerGone:
		return dibi.NewError(dibi.ErrConnection, "", err)
	default:
		return err
	}
}

// ListTables runs SHOW TABLES, which does not report TEMPORARY tables.
func (d *Dialect) ListTables(ctx context.Context, q sqlengine.Querier) ([]string, error) {
	rows, err := q.Query(ctx, "SHOW TABLES")
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

func (d *Dialect) ListColumns(ctx context.Context, q sqlengine.Querier, table string) ([]dibi.ColumnInfo, error) {
	rows, err := q.Query(ctx, "DESCRIBE "+q.Identifier(table))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var columns []dibi.ColumnInfo
	for rows.Next() {
		var (
			name, columnType, null, key, extra string
			defaultValue                       any
		)
		if err := rows.Scan(&name, &columnType, &null, &key, &defaultValue, &extra); err != nil {
			return nil, err
		}

		columns = append(columns, dibi.ColumnInfo{
			Name:          name,
			DatabaseType:  columnType,
			DataType:      unmapType(columnType),
			PrimaryKey:    key == "PRI",
			AutoIncrement: strings.Contains(strings.ToLower(extra), "auto_increment"),
			Nullable:      null == "YES",
		})
	}

	return columns, rows.Err()
}
