package sqlengine

import (
	"strings"

	"github.com/orbnauticus/dibi-go/dibi"
)

// fragment is SQL text that may be concatenated into a statement:
// a keyword, a quoted identifier or a type mapped by the dialect.
type fragment string

// statement joins the non-empty words with single spaces and terminates the result.
func statement(words ...fragment) string {
	return string(joinWords(" ", words)) + ";"
}

// joinWords joins the non-empty words with sep.
func joinWords(sep fragment, words []fragment) fragment {
	parts := make([]string, 0, len(words))
	for _, word := range words {
		if word != "" {
			parts = append(parts, string(word))
		}
	}

	return fragment(strings.Join(parts, string(sep)))
}

func when(condition bool, word fragment) fragment {
	if condition {
		return word
	}

	return ""
}

func (e *Engine) identifier(name string) fragment {
	quote := e.dialect.IdentifierQuote()
	return fragment(quote + strings.ReplaceAll(name, quote, quote+quote) + quote)
}

// Identifier quotes name for the dialect of the engine.
func (e *Engine) Identifier(name string) string {
	return string(e.identifier(name))
}

func (e *Engine) columnDefinition(column *dibi.Column) (fragment, error) {
	if column.IsAutoIncrement() {
		return joinWords(" ", []fragment{
			e.identifier(column.Name()),
			fragment(e.dialect.AutoIncrementDefinition()),
		}), nil
	}

	columnType, err := e.dialect.MapType(column.DataType())
	if err != nil {
		return "", err
	}

	return joinWords(" ", []fragment{
		e.identifier(column.Name()),
		fragment(columnType),
		when(column.IsPrimaryKey(), "PRIMARY KEY"),
	}), nil
}

func (e *Engine) createTableStatement(table *dibi.Table, forceCreate bool) (string, error) {
	columns := table.Columns()
	if len(columns) == 0 {
		return "", dibi.NewError(dibi.ErrNoColumns, table.Name(), nil)
	}

	definitions := make([]fragment, 0, len(columns))
	for _, column := range columns {
		definition, err := e.columnDefinition(column)
		if err != nil {
			return "", err
		}
		definitions = append(definitions, definition)
	}

	return statement(
		"CREATE",
		when(e.temporaryTables, "TEMPORARY"),
		"TABLE",
		when(forceCreate, "IF NOT EXISTS"),
		e.identifier(table.Name()),
		"("+joinWords(", ", definitions)+")",
		fragment(e.tableSuffix),
	), nil
}

func (e *Engine) dropTableStatement(name string, ignoreAbsence bool) string {
	return statement("DROP TABLE", when(ignoreAbsence, "IF EXISTS"), e.identifier(name))
}

func (e *Engine) renameTableStatement(name, newName string) string {
	return statement("ALTER TABLE", e.identifier(name), "RENAME TO", e.identifier(newName))
}

func (e *Engine) addColumnStatement(table string, column *dibi.Column) (string, error) {
	definition, err := e.columnDefinition(column)
	if err != nil {
		return "", err
	}

	return statement("ALTER TABLE", e.identifier(table), "ADD COLUMN", definition), nil
}

func (e *Engine) renameColumnStatement(table, column, newName string) string {
	return statement("ALTER TABLE", e.identifier(table), "RENAME COLUMN", e.identifier(column), "TO", e.identifier(newName))
}

func (e *Engine) dropColumnStatement(table, column string) string {
	return statement("ALTER TABLE", e.identifier(table), "DROP COLUMN", e.identifier(column))
}
