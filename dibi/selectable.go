package dibi

import (
	"context"
)

// Row is one result row, in the order of the selected columns.
type Row []any

// Selectable is implemented by tables, which address every row, and by filters, which address
// the rows matching their expression.
type Selectable interface {
	Select(ctx context.Context, options ...SelectOption) (*Selection, error)
	SelectAll(ctx context.Context, options ...SelectOption) ([]Row, error)
	Update(ctx context.Context, values map[string]any) (int64, error)
	Delete(ctx context.Context) (int64, error)
	CountRows(ctx context.Context) (int64, error)
}

var (
	_ Selectable = (*Table)(nil)
	_ Selectable = (*Filter)(nil)
)

type selectConfig struct {
	columns  []Expression
	distinct bool
}

// SelectOption configures a selection.
type SelectOption func(*selectConfig)

// Columns restricts the selection to the given columns or aggregate filters.
// Without it every non-implicit column of the involved tables is selected.
func Columns(columns ...Expression) SelectOption {
	return func(cfg *selectConfig) {
		cfg.columns = append(cfg.columns, columns...)
	}
}

// Distinct removes duplicate rows from the selection.
func Distinct() SelectOption {
	return func(cfg *selectConfig) {
		cfg.distinct = true
	}
}

func (t *Table) Select(ctx context.Context, options ...SelectOption) (*Selection, error) {
	return selectFrom(ctx, []*Table{t}, nil, options)
}

func (t *Table) SelectAll(ctx context.Context, options ...SelectOption) ([]Row, error) {
	selection, err := t.Select(ctx, options...)
	if err != nil {
		return nil, err
	}

	return selection.All()
}

// Update sets values on every row of the table and returns the number of affected rows.
func (t *Table) Update(ctx context.Context, values map[string]any) (int64, error) {
	serialized, err := t.serialize(values)
	if err != nil {
		return 0, err
	}

	return t.db.driver.Update(ctx, t, nil, serialized)
}

// Delete removes every row of the table and returns the number of affected rows.
func (t *Table) Delete(ctx context.Context) (int64, error) {
	return t.db.driver.Delete(ctx, t, nil)
}

func (t *Table) CountRows(ctx context.Context) (int64, error) {
	return countRows(ctx, []*Table{t}, nil)
}

func (f *Filter) Select(ctx context.Context, options ...SelectOption) (*Selection, error) {
	return selectFrom(ctx, f.Tables(), f, options)
}

func (f *Filter) SelectAll(ctx context.Context, options ...SelectOption) ([]Row, error) {
	selection, err := f.Select(ctx, options...)
	if err != nil {
		return nil, err
	}

	return selection.All()
}

// Update sets values on the matching rows. The filter must reference exactly one table.
func (f *Filter) Update(ctx context.Context, values map[string]any) (int64, error) {
	table, err := f.singleTable()
	if err != nil {
		return 0, err
	}

	serialized, err := table.serialize(values)
	if err != nil {
		return 0, err
	}

	return table.db.driver.Update(ctx, table, f, serialized)
}

// Delete removes the matching rows. The filter must reference exactly one table.
func (f *Filter) Delete(ctx context.Context) (int64, error) {
	table, err := f.singleTable()
	if err != nil {
		return 0, err
	}

	return table.db.driver.Delete(ctx, table, f)
}

func (f *Filter) CountRows(ctx context.Context) (int64, error) {
	return countRows(ctx, f.Tables(), f)
}

func (f *Filter) singleTable() (*Table, error) {
	tables := f.Tables()
	switch len(tables) {
	case 0:
		return nil, ErrNoTables
	case 1:
		return tables[0], nil
	default:
		return nil, ErrMultipleTables
	}
}

func selectFrom(ctx context.Context, tables []*Table, criteria Expression, options []SelectOption) (*Selection, error) {
	cfg := selectConfig{}
	for _, option := range options {
		option(&cfg)
	}

	if len(cfg.columns) == 0 {
		for _, table := range tables {
			for _, column := range table.Columns() {
				if !column.implicit {
					cfg.columns = append(cfg.columns, column)
				}
			}
		}
	} else {
		tables = mergeTables(tables, cfg.columns)
	}

	if len(tables) == 0 {
		return nil, ErrNoTables
	}

	rows, err := tables[0].db.driver.Select(ctx, SelectQuery{
		Tables:   tables,
		Columns:  cfg.columns,
		Criteria: criteria,
		Distinct: cfg.distinct,
	})
	if err != nil {
		return nil, err
	}

	return newSelection(cfg.columns, rows), nil
}

func mergeTables(tables []*Table, columns []Expression) []*Table {
	seen := make(map[*Table]bool, len(tables))
	merged := make([]*Table, 0, len(tables))
	for _, table := range tables {
		if !seen[table] {
			seen[table] = true
			merged = append(merged, table)
		}
	}

	for _, column := range columns {
		for _, table := range column.Tables() {
			if !seen[table] {
				seen[table] = true
				merged = append(merged, table)
			}
		}
	}

	return merged
}

func countRows(ctx context.Context, tables []*Table, criteria Expression) (int64, error) {
	if len(tables) == 0 {
		return 0, ErrNoTables
	}

	target := tables[0].primaryKey
	if target == nil {
		columns := tables[0].Columns()
		if len(columns) == 0 {
			return 0, NewError(ErrNoColumns, tables[0].name, nil)
		}
		target = columns[0]
	}

	selection, err := selectFrom(ctx, tables, criteria, []SelectOption{Columns(target.Count())})
	if err != nil {
		return 0, err
	}

	row, err := selection.One()
	if err != nil || row == nil {
		return 0, err
	}

	n, err := toInt64(row[0])
	if err != nil || n == nil {
		return 0, err
	}

	return n.(int64), nil
}
