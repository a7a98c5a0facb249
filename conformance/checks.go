package conformance

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/orbnauticus/dibi-go/dibi"
)

// TableName is the table created by the checks.
const TableName = "table 1"

// Check names in execution order.
const (
	CheckCreateTable = "create_table"
	CheckListTables  = "list_tables"
	CheckListColumns = "list_columns"
	CheckInsertRows  = "insert_rows"
	CheckSelectRows  = "select_rows"
	CheckDropTable   = "drop_table"
)

// failure is an unmet expectation, as opposed to an error raised by the driver.
type failure struct {
	message string
}

func (f *failure) Error() string {
	return f.message
}

func failf(format string, args ...any) error {
	return &failure{message: fmt.Sprintf(format, args...)}
}

type check struct {
	name string
	run  func(ctx context.Context, db *dibi.DB) error
}

var checks = []check{
	{CheckCreateTable, createTable},
	{CheckListTables, listTables},
	{CheckListColumns, listColumns},
	{CheckInsertRows, insertRows},
	{CheckSelectRows, selectRows},
	{CheckDropTable, dropTable},
}

var columnNames = []string{"name", "number", "value", "binary_data", "timestamp"}

var samples = []dibi.Row{
	{
		"sample 1",
		int64(46),
		-5.498,
		[]byte("\xa8\xe2u\xf5pZ\x1c\x82R5\x01\xe7UC\x06"),
		time.Date(1900, 1, 1, 12, 15, 14, 0, time.UTC),
	},
	{
		"sample 2",
		int64(83),
		16.937,
		[]byte("3\x90&`v\x80\xec\x87\x07\xd5/\t\xc5\xac\xa3"),
		time.Date(1402, 2, 17, 4, 32, 55, 0, time.UTC),
	},
}

func status(err error) (Status, string) {
	if err == nil {
		return StatusSuccess, ""
	}

	var f *failure
	if errors.As(err, &f) {
		return StatusFailure, f.message
	}

	return StatusError, err.Error()
}

func table(db *dibi.DB) (*dibi.Table, error) {
	t, ok := db.Table(TableName)
	if !ok {
		return nil, failf("table %q is not defined", TableName)
	}

	return t, nil
}

func createTable(ctx context.Context, db *dibi.DB) error {
	t := db.AddTable(TableName)
	t.AddColumn("name", dibi.Text)
	t.AddColumn("number", dibi.Integer)
	t.AddColumn("value", dibi.Float)
	t.AddColumn("binary_data", dibi.Blob)
	t.AddColumn("timestamp", dibi.DateTime)

	return t.Save(ctx, false)
}

func listTables(ctx context.Context, db *dibi.DB) error {
	tables, err := db.Driver().ListTables(ctx)
	if err != nil {
		return err
	}

	if !slices.Contains(tables, TableName) {
		return failf("%q not in %q", TableName, tables)
	}

	return nil
}

func listColumns(ctx context.Context, db *dibi.DB) error {
	columns, err := db.Driver().ListColumns(ctx, TableName)
	if err != nil {
		return err
	}

	want := append([]string{dibi.ImplicitPrimaryKey}, columnNames...)
	if len(columns) != len(want) {
		return failf("%d columns != %d", len(columns), len(want))
	}

	for _, name := range want {
		if !slices.ContainsFunc(columns, func(c dibi.ColumnInfo) bool { return c.Name == name }) {
			return failf("column %q not listed", name)
		}
	}

	return nil
}

func insertRows(ctx context.Context, db *dibi.DB) error {
	t, err := table(db)
	if err != nil {
		return err
	}

	for i, sample := range samples {
		values := make(map[string]any, len(columnNames))
		for j, name := range columnNames {
			values[name] = sample[j]
		}

		id, err := t.Insert(ctx, values)
		if err != nil {
			return err
		}

		if want := int64(i + 1); id != want {
			return failf("sample %d id %d != %d", i+1, id, want)
		}
	}

	return nil
}

func selectRows(ctx context.Context, db *dibi.DB) error {
	t, err := table(db)
	if err != nil {
		return err
	}

	rows, err := t.SelectAll(ctx)
	if err != nil {
		return err
	}

	if diff := cmp.Diff(samples, rows); diff != "" {
		return failf("rows differ (-want +got):\n%s", diff)
	}

	return nil
}

func dropTable(ctx context.Context, db *dibi.DB) error {
	t, err := table(db)
	if err != nil {
		return err
	}

	if err := t.Drop(ctx, false); err != nil {
		return err
	}

	tables, err := db.Driver().ListTables(ctx)
	if err != nil {
		return err
	}

	if slices.Contains(tables, TableName) {
		return failf("%q still in %q", TableName, tables)
	}

	return nil
}
