package sqlengine

import (
	"context"

	"github.com/orbnauticus/dibi-go/dibi"
)

// Dialect captures what differs between database backends.
type Dialect interface {
	// Name identifies the backend, e.g. "sqlite".
	Name() string

	// GoquDialect is the goqu dialect used to render data manipulation statements.
	GoquDialect() string

	// IdentifierQuote is the character that delimits identifiers. Embedded quotes are doubled.
	IdentifierQuote() string

	// MapType returns the column type for a datatype, e.g. "VARCHAR(512)" for dibi.Text.
	MapType(datatype dibi.DataType) (string, error)

	// AutoIncrementDefinition is the type and constraint text of an autoincrement primary key.
	AutoIncrementDefinition() string

	// InsertReturning reports whether generated keys are read back with RETURNING.
	InsertReturning() bool

	// ClassifyError translates a native error into the dibi error taxonomy.
	// Errors without a classification are returned unchanged.
	ClassifyError(err error) error

	ListTables(ctx context.Context, q Querier) ([]string, error)
	ListColumns(ctx context.Context, q Querier, table string) ([]dibi.ColumnInfo, error)
}

// FunctionRenamer is implemented by dialects that spell an aggregate function differently.
type FunctionRenamer interface {
	FunctionName(op dibi.Operator) (string, bool)
}

// Querier is handed to a Dialect for schema introspection.
type Querier interface {
	Query(ctx context.Context, query string, args ...any) (dibi.Rows, error)
	Identifier(name string) string
}

var defaultFunctionNames = map[dibi.Operator]string{
	dibi.OpSum:     "sum",
	dibi.OpAverage: "avg",
	dibi.OpMaximum: "max",
	dibi.OpMinimum: "min",
	dibi.OpCount:   "count",
}

func functionName(d Dialect, op dibi.Operator) string {
	if renamer, ok := d.(FunctionRenamer); ok {
		if name, ok := renamer.FunctionName(op); ok {
			return name
		}
	}

	return defaultFunctionNames[op]
}
