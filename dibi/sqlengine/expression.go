package sqlengine

import (
	"fmt"
	"maps"
	"slices"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/orbnauticus/dibi-go/dibi"
)

var operatorTemplates = map[dibi.Operator]string{
	dibi.OpAnd:          "(? AND ?)",
	dibi.OpOr:           "(? OR ?)",
	dibi.OpNot:          "(NOT ?)",
	dibi.OpEqual:        "(? = ?)",
	dibi.OpNotEqual:     "(? != ?)",
	dibi.OpGreaterThan:  "(? > ?)",
	dibi.OpGreaterEqual: "(? >= ?)",
	dibi.OpLessThan:     "(? < ?)",
	dibi.OpLessEqual:    "(? <= ?)",
	dibi.OpAdd:          "(? + ?)",
	dibi.OpSubtract:     "(? - ?)",
	dibi.OpMultiply:     "(? * ?)",
	dibi.OpDivide:       "(? / ?)",
	dibi.OpModulo:       "(? % ?)",
	dibi.OpLeftShift:    "(? << ?)",
	dibi.OpRightShift:   "(? >> ?)",
	dibi.OpNegative:     "(-?)",
}

func isComparison(op dibi.Operator) bool {
	switch op {
	case dibi.OpEqual, dibi.OpNotEqual, dibi.OpGreaterThan, dibi.OpGreaterEqual, dibi.OpLessThan, dibi.OpLessEqual:
		return true
	default:
		return false
	}
}

// quoted renders name as an identifier escaped by the dialect. goqu does not escape its quote
// rune inside identifiers, so the quoted name is handed over as a literal without arguments.
func (e *Engine) quoted(name string) exp.IdentifierExpression {
	return exp.NewIdentifierExpression("", "", goqu.L(e.Identifier(name)))
}

// assignments renders the SET list of an UPDATE in column name order. goqu parses the keys of
// a Record as qualified identifiers, so every assignment after the first travels in the value
// of a single update expression.
func (e *Engine) assignments(values map[string]any) exp.UpdateExpression {
	names := slices.Sorted(maps.Keys(values))

	template := "?"
	args := []any{values[names[0]]}
	for _, name := range names[1:] {
		template += ",?=?"
		args = append(args, e.quoted(name), values[name])
	}

	return e.quoted(names[0]).Set(goqu.L(template, args...))
}

// expression renders a column or filter as a goqu expression. Any other value is a literal
// and is bound to a placeholder.
func (e *Engine) expression(value any) (any, error) {
	switch v := value.(type) {
	case *dibi.Column:
		if v.Table() == nil {
			return e.quoted(v.Name()), nil
		}
		return goqu.L("?.?", e.quoted(v.Table().Name()), e.quoted(v.Name())), nil
	case *dibi.Filter:
		return e.filterExpression(v)
	case dibi.Expression:
		return nil, fmt.Errorf("%w: expression %s", dibi.ErrNotSupported, v)
	default:
		return v, nil
	}
}

func (e *Engine) filterExpression(f *dibi.Filter) (exp.LiteralExpression, error) {
	op := f.Operator()
	args := f.Arguments()

	if isComparison(op) {
		if err := serializeComparison(args); err != nil {
			return nil, err
		}
	}

	rendered := make([]any, len(args))
	for i, arg := range args {
		r, err := e.expression(arg)
		if err != nil {
			return nil, err
		}
		rendered[i] = r
	}

	switch {
	case op == dibi.OpEqual && args[1] == nil:
		return goqu.L("(? IS NULL)", rendered[0]), nil
	case op == dibi.OpEqual && args[0] == nil:
		return goqu.L("(? IS NULL)", rendered[1]), nil
	case op == dibi.OpNotEqual && args[1] == nil:
		return goqu.L("(? IS NOT NULL)", rendered[0]), nil
	case op == dibi.OpNotEqual && args[0] == nil:
		return goqu.L("(? IS NOT NULL)", rendered[1]), nil
	case op.IsAggregate():
		return goqu.L(functionName(e.dialect, op)+"(?)", rendered[0]), nil
	}

	template, ok := operatorTemplates[op]
	if !ok {
		return nil, fmt.Errorf("%w: operator %s", dibi.ErrNotSupported, op)
	}

	return goqu.L(template, rendered...), nil
}

// serializeComparison converts a literal compared with a column into its database representation.
func serializeComparison(args []any) error {
	for i, j := range [2]int{1, 0} {
		column, ok := args[i].(*dibi.Column)
		if !ok {
			continue
		}
		if _, isExpression := args[j].(dibi.Expression); isExpression || args[j] == nil {
			continue
		}

		value, err := column.DataType().Serialize(args[j])
		if err != nil {
			return fmt.Errorf("column %s: %w", column, err)
		}
		args[j] = value
	}

	return nil
}

func (e *Engine) selectColumns(columns []dibi.Expression) ([]any, error) {
	rendered := make([]any, len(columns))
	for i, column := range columns {
		r, err := e.expression(column)
		if err != nil {
			return nil, err
		}
		rendered[i] = r
	}

	return rendered, nil
}

func (e *Engine) whereExpression(criteria dibi.Expression) (exp.Expression, error) {
	rendered, err := e.expression(criteria)
	if err != nil {
		return nil, err
	}

	expression, ok := rendered.(exp.Expression)
	if !ok {
		return nil, fmt.Errorf("%w: criteria %v", dibi.ErrNotSupported, criteria)
	}

	return expression, nil
}
