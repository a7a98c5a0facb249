package dibi

import (
	"context"
	"slices"
)

// Feature names an optional capability of a Driver.
type Feature string

// FeatureTransactions marks drivers whose writes run inside transactions.
const FeatureTransactions Feature = "transactions"

// ColumnInfo describes a column as reported by the database schema.
type ColumnInfo struct {
	Name          string
	DatabaseType  string
	DataType      DataType
	PrimaryKey    bool
	AutoIncrement bool
	Nullable      bool
}

// SelectQuery is what a Selectable hands to its Driver.
// Columns holds *Column values or aggregate *Filter values. A nil Criteria selects every row.
type SelectQuery struct {
	Tables   []*Table
	Columns  []Expression
	Criteria Expression
	Distinct bool
}

// Rows is a forward-only cursor over a result set.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// Driver is the contract every backend implements.
//
// Drivers must translate their native errors into the sentinel errors of this package where a
// classification exists, e.g. a missing table into ErrNoSuchTable.
type Driver interface {
	Name() string
	Features() []Feature

	CreateTable(ctx context.Context, table *Table, forceCreate bool) error
	DropTable(ctx context.Context, name string, ignoreAbsence bool) error
	ListTables(ctx context.Context) ([]string, error)
	ListColumns(ctx context.Context, table string) ([]ColumnInfo, error)

	Insert(ctx context.Context, table *Table, values map[string]any) (int64, error)
	Select(ctx context.Context, query SelectQuery) (Rows, error)
	Update(ctx context.Context, table *Table, criteria Expression, values map[string]any) (int64, error)
	Delete(ctx context.Context, table *Table, criteria Expression) (int64, error)

	Close() error
}

// TableRenamer is implemented by drivers that can rename tables.
type TableRenamer interface {
	RenameTable(ctx context.Context, name, newName string) error
}

// ColumnAdder is implemented by drivers that can add columns to existing tables.
type ColumnAdder interface {
	AddColumn(ctx context.Context, table string, column *Column) error
}

// ColumnRenamer is implemented by drivers that can rename columns.
type ColumnRenamer interface {
	RenameColumn(ctx context.Context, table, column, newName string) error
}

// ColumnDropper is implemented by drivers that can remove columns from existing tables.
type ColumnDropper interface {
	DropColumn(ctx context.Context, table, column string) error
}

// HasFeature reports whether d advertises feature.
func HasFeature(d Driver, feature Feature) bool {
	return slices.Contains(d.Features(), feature)
}
