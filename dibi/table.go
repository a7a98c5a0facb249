package dibi

import (
	"context"
	"fmt"
)

// ImplicitPrimaryKey is the name of the autoincrement column added to tables saved without a primary key.
const ImplicitPrimaryKey = "__id__"

// Table is a table definition bound to a DB.
type Table struct {
	db         *DB
	name       string
	columns    *Collection[*Column]
	primaryKey *Column
}

// TableOption configures a table defined with DB.AddTable.
type TableOption func(*Table)

// WithPrimaryKey adds an Integer autoincrement primary key column named name.
func WithPrimaryKey(name string) TableOption {
	return func(t *Table) {
		t.AddColumn(name, Integer, PrimaryKey(), AutoIncrement())
	}
}

func (t *Table) DB() *DB {
	return t.db
}

func (t *Table) Name() string {
	return t.name
}

func (t *Table) String() string {
	return fmt.Sprintf("Table(%q)", t.name)
}

// Columns returns the columns in definition order, implicit ones included.
func (t *Table) Columns() []*Column {
	return t.columns.Items()
}

// Column returns the column defined under name.
func (t *Table) Column(name string) (*Column, bool) {
	return t.columns.Get(name)
}

// PrimaryKey returns the primary key column or nil.
func (t *Table) PrimaryKey() *Column {
	return t.primaryKey
}

// AddColumn defines a column. If a column with the same name exists it is returned unchanged.
// A nil datatype means Any.
func (t *Table) AddColumn(name string, datatype DataType, options ...ColumnOption) *Column {
	column := t.columns.Add(newColumn(t, name, datatype, options...), false)
	if column.primaryKey {
		t.primaryKey = column
	}

	return column
}

// Save creates the table in the database. With forceCreate an existing table is left untouched
// instead of failing with ErrTableAlreadyExists.
//
// A table without a primary key receives the implicit column ImplicitPrimaryKey first.
func (t *Table) Save(ctx context.Context, forceCreate bool) error {
	if t.name == "" {
		return ErrEmptyTableName
	}

	if t.columns.Len() == 0 {
		return NewError(ErrNoColumns, t.name, nil)
	}

	if t.primaryKey == nil {
		pk := t.AddColumn(ImplicitPrimaryKey, Integer, PrimaryKey(), AutoIncrement())
		if !pk.primaryKey {
			return NewError(ErrNoPrimaryKey, t.name, nil)
		}
		pk.implicit = true
	}

	return t.db.driver.CreateTable(ctx, t, forceCreate)
}

// Drop removes the table from the database and from its DB.
// With ignoreAbsence a missing table is not an error.
func (t *Table) Drop(ctx context.Context, ignoreAbsence bool) error {
	if err := t.db.driver.DropTable(ctx, t.name, ignoreAbsence); err != nil {
		return err
	}

	if t.db.tables.Contains(t) {
		t.db.tables.Discard(t.name)
	}

	return nil
}

// Insert adds a row and returns its primary key. Values are serialized by the column datatypes.
func (t *Table) Insert(ctx context.Context, values map[string]any) (int64, error) {
	serialized, err := t.serialize(values)
	if err != nil {
		return 0, err
	}

	return t.db.driver.Insert(ctx, t, serialized)
}

// Get returns the row whose primary key equals pk, or nil if there is none.
func (t *Table) Get(ctx context.Context, pk any) (Row, error) {
	if t.primaryKey == nil {
		return nil, NewError(ErrNoPrimaryKey, t.name, nil)
	}

	selection, err := t.primaryKey.Eq(pk).Select(ctx)
	if err != nil {
		return nil, err
	}

	return selection.One()
}

// Rename changes the table name in the database and in its DB.
func (t *Table) Rename(ctx context.Context, newName string) error {
	if newName == "" {
		return ErrEmptyTableName
	}

	renamer, ok := t.db.driver.(TableRenamer)
	if !ok {
		return fmt.Errorf("%w: rename table", ErrNotSupported)
	}

	if err := renamer.RenameTable(ctx, t.name, newName); err != nil {
		return err
	}

	registered := t.db.tables.Contains(t)
	if registered {
		t.db.tables.Discard(t.name)
	}

	t.name = newName

	if registered {
		t.db.tables.Add(t, true)
	}

	return nil
}

// AppendColumn adds a column to a table that already exists in the database.
func (t *Table) AppendColumn(ctx context.Context, name string, datatype DataType, options ...ColumnOption) (*Column, error) {
	if existing, ok := t.columns.Get(name); ok {
		return existing, nil
	}

	adder, ok := t.db.driver.(ColumnAdder)
	if !ok {
		return nil, fmt.Errorf("%w: add column", ErrNotSupported)
	}

	column := newColumn(t, name, datatype, options...)
	if err := adder.AddColumn(ctx, t.name, column); err != nil {
		return nil, err
	}

	return t.AddColumn(name, datatype, options...), nil
}

// Rename changes the column name in the database and in its table.
func (c *Column) Rename(ctx context.Context, newName string) error {
	renamer, ok := c.table.db.driver.(ColumnRenamer)
	if !ok {
		return fmt.Errorf("%w: rename column", ErrNotSupported)
	}

	if err := renamer.RenameColumn(ctx, c.table.name, c.name, newName); err != nil {
		return err
	}

	c.table.columns.Discard(c.name)
	c.name = newName
	c.table.columns.Add(c, true)

	return nil
}

// Drop removes the column from the database and from its table.
func (c *Column) Drop(ctx context.Context) error {
	dropper, ok := c.table.db.driver.(ColumnDropper)
	if !ok {
		return fmt.Errorf("%w: drop column", ErrNotSupported)
	}

	if err := dropper.DropColumn(ctx, c.table.name, c.name); err != nil {
		return err
	}

	c.table.columns.Discard(c.name)
	if c.table.primaryKey == c {
		c.table.primaryKey = nil
	}

	return nil
}

func (t *Table) serialize(values map[string]any) (map[string]any, error) {
	serialized := make(map[string]any, len(values))
	for name, value := range values {
		column, ok := t.columns.Get(name)
		if !ok {
			return nil, NewError(ErrNoSuchColumn, t.name+"."+name, nil)
		}

		v, err := column.datatype.Serialize(value)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", column, err)
		}
		serialized[name] = v
	}

	return serialized, nil
}
