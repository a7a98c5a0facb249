package dibi

import (
	"fmt"
	"strings"
)

// Operator identifies the node type of an expression tree.
type Operator string

// Column reference.
const OpColumn Operator = "ID"

// Logical operators.
const (
	OpAnd Operator = "AND"
	OpOr  Operator = "OR"
	OpNot Operator = "NOT"
)

// Comparisons.
const (
	OpEqual        Operator = "EQUAL"
	OpNotEqual     Operator = "NOTEQUAL"
	OpGreaterThan  Operator = "GREATERTHAN"
	OpGreaterEqual Operator = "GREATEREQUAL"
	OpLessThan     Operator = "LESSTHAN"
	OpLessEqual    Operator = "LESSEQUAL"
)

// Arithmetic.
const (
	OpAdd        Operator = "ADD"
	OpSubtract   Operator = "SUBTRACT"
	OpMultiply   Operator = "MULTIPLY"
	OpDivide     Operator = "DIVIDE"
	OpNegative   Operator = "NEGATIVE"
	OpModulo     Operator = "MODULO"
	OpLeftShift  Operator = "LEFTSHIFT"
	OpRightShift Operator = "RIGHTSHIFT"
)

// Aggregate functions.
const (
	OpSum     Operator = "SUM"
	OpAverage Operator = "AVERAGE"
	OpMaximum Operator = "MAXIMUM"
	OpMinimum Operator = "MINIMUM"
	OpCount   Operator = "COUNT"
)

// Arity returns the number of arguments the operator takes.
func (o Operator) Arity() int {
	switch o {
	case OpColumn:
		return 0
	case OpNot, OpNegative, OpSum, OpAverage, OpMaximum, OpMinimum, OpCount:
		return 1
	case OpAnd, OpOr, OpEqual, OpNotEqual, OpGreaterThan, OpGreaterEqual, OpLessThan, OpLessEqual,
		OpAdd, OpSubtract, OpMultiply, OpDivide, OpModulo, OpLeftShift, OpRightShift:
		return 2
	default:
		return -1
	}
}

// IsAggregate reports whether the operator is an aggregate function.
func (o Operator) IsAggregate() bool {
	switch o {
	case OpSum, OpAverage, OpMaximum, OpMinimum, OpCount:
		return true
	default:
		return false
	}
}

// Expression is a node of an expression tree: a *Column or a *Filter.
// Arguments of a node are Expressions or literal Go values.
type Expression interface {
	Operator() Operator
	Arguments() []any
	Tables() []*Table
	String() string
}

// operand supplies the expression builder methods shared by Column and Filter.
type operand struct {
	self Expression
}

func (o operand) Eq(value any) *Filter  { return newFilter(OpEqual, o.self, value) }
func (o operand) Ne(value any) *Filter  { return newFilter(OpNotEqual, o.self, value) }
func (o operand) Gt(value any) *Filter  { return newFilter(OpGreaterThan, o.self, value) }
func (o operand) Ge(value any) *Filter  { return newFilter(OpGreaterEqual, o.self, value) }
func (o operand) Lt(value any) *Filter  { return newFilter(OpLessThan, o.self, value) }
func (o operand) Le(value any) *Filter  { return newFilter(OpLessEqual, o.self, value) }
func (o operand) Add(value any) *Filter { return newFilter(OpAdd, o.self, value) }
func (o operand) Sub(value any) *Filter { return newFilter(OpSubtract, o.self, value) }
func (o operand) Mul(value any) *Filter { return newFilter(OpMultiply, o.self, value) }
func (o operand) Div(value any) *Filter { return newFilter(OpDivide, o.self, value) }
func (o operand) Mod(value any) *Filter { return newFilter(OpModulo, o.self, value) }
func (o operand) Shl(value any) *Filter { return newFilter(OpLeftShift, o.self, value) }
func (o operand) Shr(value any) *Filter { return newFilter(OpRightShift, o.self, value) }
func (o operand) Neg() *Filter          { return newFilter(OpNegative, o.self) }

func (o operand) And(other Expression) *Filter { return newFilter(OpAnd, o.self, other) }
func (o operand) Or(other Expression) *Filter  { return newFilter(OpOr, o.self, other) }
func (o operand) Not() *Filter                 { return newFilter(OpNot, o.self) }

func (o operand) Sum() *Filter   { return newFilter(OpSum, o.self) }
func (o operand) Avg() *Filter   { return newFilter(OpAverage, o.self) }
func (o operand) Max() *Filter   { return newFilter(OpMaximum, o.self) }
func (o operand) Min() *Filter   { return newFilter(OpMinimum, o.self) }
func (o operand) Count() *Filter { return newFilter(OpCount, o.self) }

// Filter is an operator applied to its arguments. A Filter restricts selections when used as a Selectable.
type Filter struct {
	operand
	op   Operator
	args []any
}

func newFilter(op Operator, args ...any) *Filter {
	f := &Filter{op: op, args: args}
	f.operand = operand{self: f}

	return f
}

// NewFilter builds a Filter from an operator and its arguments.
// It is needed for expressions with a literal on the left side, e.g. NewFilter(OpSubtract, 10, column).
func NewFilter(op Operator, args ...any) (*Filter, error) {
	if arity := op.Arity(); arity < 1 || arity != len(args) {
		return nil, fmt.Errorf("operator %s expects %d arguments, got %d", op, op.Arity(), len(args))
	}

	return newFilter(op, args...), nil
}

func (f *Filter) Operator() Operator { return f.op }

func (f *Filter) Arguments() []any {
	args := make([]any, len(f.args))
	copy(args, f.args)

	return args
}

// Tables returns every table referenced anywhere in the expression tree, in order of first appearance.
func (f *Filter) Tables() []*Table {
	var tables []*Table
	seen := make(map[*Table]bool)
	collectTables(f, seen, &tables)

	return tables
}

func collectTables(value any, seen map[*Table]bool, tables *[]*Table) {
	switch v := value.(type) {
	case *Column:
		if v.table != nil && !seen[v.table] {
			seen[v.table] = true
			*tables = append(*tables, v.table)
		}
	case *Filter:
		for _, arg := range v.args {
			collectTables(arg, seen, tables)
		}
	}
}

func (f *Filter) String() string {
	parts := make([]string, 0, len(f.args)+1)
	parts = append(parts, formatLiteral(string(f.op)))
	for _, arg := range f.args {
		parts = append(parts, formatLiteral(arg))
	}

	return "Filter(" + strings.Join(parts, ", ") + ")"
}

func formatLiteral(value any) string {
	switch v := value.(type) {
	case nil:
		return "NULL"
	case Expression:
		return v.String()
	case string:
		return "'" + strings.ReplaceAll(v, "'", "''") + "'"
	default:
		return fmt.Sprint(v)
	}
}

// Column is a column of a Table, usable as the leaf of an expression tree.
type Column struct {
	operand
	table         *Table
	name          string
	datatype      DataType
	primaryKey    bool
	autoIncrement bool
	implicit      bool
}

// ColumnOption configures a column added with Table.AddColumn.
type ColumnOption func(*Column)

// PrimaryKey makes the column the table's primary key.
func PrimaryKey() ColumnOption {
	return func(c *Column) {
		c.primaryKey = true
	}
}

// AutoIncrement lets the database assign increasing integer values to the column.
// Drivers render an autoincrement column as the table's integer primary key.
func AutoIncrement() ColumnOption {
	return func(c *Column) {
		c.autoIncrement = true
	}
}

func newColumn(table *Table, name string, datatype DataType, options ...ColumnOption) *Column {
	if datatype == nil {
		datatype = Any
	}

	c := &Column{table: table, name: name, datatype: datatype}
	c.operand = operand{self: c}

	for _, option := range options {
		option(c)
	}

	return c
}

func (c *Column) Table() *Table         { return c.table }
func (c *Column) Name() string          { return c.name }
func (c *Column) DataType() DataType    { return c.datatype }
func (c *Column) IsPrimaryKey() bool    { return c.primaryKey }
func (c *Column) IsAutoIncrement() bool { return c.autoIncrement }
func (c *Column) IsImplicit() bool      { return c.implicit }
func (c *Column) Operator() Operator    { return OpColumn }
func (c *Column) Arguments() []any      { return nil }

func (c *Column) Tables() []*Table {
	if c.table == nil {
		return nil
	}

	return []*Table{c.table}
}

// String renders the column as "table"."column".
func (c *Column) String() string {
	if c.table == nil {
		return fmt.Sprintf("%q", c.name)
	}

	return fmt.Sprintf("%q.%q", c.table.name, c.name)
}
