package dibi

import (
	"errors"
	"fmt"
	"strings"
)

// Selection iterates over the rows of a select statement.
// Values are deserialized through the datatypes of the selected columns.
type Selection struct {
	columns []Expression
	types   []DataType
	rows    Rows
	current Row
	err     error
	closed  bool
}

func newSelection(columns []Expression, rows Rows) *Selection {
	types := make([]DataType, len(columns))
	for i, column := range columns {
		types[i] = resultType(column)
	}

	return &Selection{columns: columns, types: types, rows: rows}
}

// resultType picks the datatype used to deserialize values of a selected expression.
func resultType(expression Expression) DataType {
	switch e := expression.(type) {
	case *Column:
		return e.datatype
	case *Filter:
		switch e.op {
		case OpCount:
			return Integer
		case OpAverage:
			return Float
		case OpSum, OpMaximum, OpMinimum:
			if column, ok := e.args[0].(*Column); ok {
				return column.datatype
			}
		}
	}

	return Any
}

// Columns returns the selected columns.
func (s *Selection) Columns() []Expression {
	return s.columns
}

// Next advances to the next row. It returns false when the rows are exhausted or an error occurred.
// The selection is closed automatically once Next returns false.
func (s *Selection) Next() bool {
	if s.closed {
		return false
	}

	if !s.rows.Next() {
		s.fail(s.rows.Err())
		return false
	}

	raw := make([]any, len(s.columns))
	dest := make([]any, len(s.columns))
	for i := range raw {
		dest[i] = &raw[i]
	}

	if err := s.rows.Scan(dest...); err != nil {
		s.fail(err)
		return false
	}

	row := make(Row, len(raw))
	for i, value := range raw {
		v, err := s.types[i].Deserialize(value)
		if err != nil {
			s.fail(fmt.Errorf("column %s: %w", s.columns[i], err))
			return false
		}
		row[i] = v
	}

	s.current = row

	return true
}

func (s *Selection) fail(err error) {
	closeErr := s.Close()
	if err != nil || closeErr != nil {
		s.err = errors.Join(err, closeErr)
	}
}

// Row returns the current row.
func (s *Selection) Row() Row {
	return s.current
}

// Err returns the error that stopped the iteration, if any.
func (s *Selection) Err() error {
	return s.err
}

// Close releases the underlying rows. It is safe to call more than once.
func (s *Selection) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	return s.rows.Close()
}

// One returns the first row, or nil if there is none, and closes the selection.
func (s *Selection) One() (Row, error) {
	if s.Next() {
		row := s.current
		return row, s.Close()
	}

	return nil, s.err
}

// All returns every remaining row.
func (s *Selection) All() ([]Row, error) {
	var rows []Row
	for s.Next() {
		rows = append(rows, s.current)
	}

	return rows, s.err
}

func (s *Selection) String() string {
	names := make([]string, 0, len(s.columns))
	for _, column := range s.columns {
		if c, ok := column.(*Column); ok && c.implicit {
			continue
		}
		names = append(names, column.String())
	}

	return "<Selection(" + strings.Join(names, ", ") + ")>"
}
