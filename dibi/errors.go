package dibi

import (
	"errors"
	"fmt"
)

// Connection-level failures. Drivers classify backend errors into these kinds while connecting.
var (
	ErrConnection     = errors.New("connection error")
	ErrAuthentication = errors.New("authentication error")
	ErrNoSuchDatabase = errors.New("no such database")
)

// Schema and statement failures.
var (
	ErrNoSuchTable        = errors.New("no such table")
	ErrNoSuchColumn       = errors.New("no such column")
	ErrNoColumns          = errors.New("table has no columns")
	ErrTableAlreadyExists = errors.New("table already exists")
	ErrSyntax             = errors.New("sql syntax error")
)

// Usage failures.
var (
	ErrMultipleTables        = errors.New("can only modify one table at a time")
	ErrNoTables              = errors.New("expression does not reference any table")
	ErrNoPrimaryKey          = errors.New("table has no primary key")
	ErrNotSupported          = errors.New("operation not supported by driver")
	ErrUnknownDriver         = errors.New("unknown driver")
	ErrInvalidParameter      = errors.New("invalid driver parameter")
	ErrInvalidValue          = errors.New("invalid value for datatype")
	ErrNilDatabaseConnection = errors.New("nil database connection supplied")
	ErrEmptyTableName        = errors.New("empty table name supplied")
)

var kindNames = []struct {
	kind error
	name string
}{
	{ErrConnection, "ConnectionError"},
	{ErrAuthentication, "AuthenticationError"},
	{ErrNoSuchDatabase, "NoSuchDatabaseError"},
	{ErrNoSuchTable, "NoSuchTableError"},
	{ErrNoSuchColumn, "NoSuchColumnError"},
	{ErrNoColumns, "NoColumnsError"},
	{ErrTableAlreadyExists, "TableAlreadyExists"},
	{ErrSyntax, "SyntaxError"},
}

// Error is a classified failure. Kind is one of the sentinel errors of this package, Subject names
// the table, database or user involved and Cause keeps the original backend error.
type Error struct {
	Kind    error
	Subject string
	Cause   error
}

// NewError creates a classified error.
func NewError(kind error, subject string, cause error) *Error {
	return &Error{Kind: kind, Subject: subject, Cause: cause}
}

func (e *Error) Error() string {
	msg := e.describe()
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}

	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}

	return []error{e.Kind, e.Cause}
}

func (e *Error) describe() string {
	if e.Subject == "" {
		return e.Kind.Error()
	}

	switch e.Kind {
	case ErrNoSuchTable:
		return fmt.Sprintf("Table '%s' does not exist", e.Subject)
	case ErrNoSuchColumn:
		return fmt.Sprintf("Column '%s' does not exist", e.Subject)
	case ErrNoColumns:
		return fmt.Sprintf("Cannot create table '%s' with no columns", e.Subject)
	case ErrTableAlreadyExists:
		return fmt.Sprintf("Table '%s' already exists", e.Subject)
	case ErrNoSuchDatabase:
		return fmt.Sprintf("Database '%s' does not exist", e.Subject)
	case ErrAuthentication:
		return fmt.Sprintf("Authentication failed for user '%s'", e.Subject)
	default:
		return e.Kind.Error() + ": " + e.Subject
	}
}

// KindName returns the identifier of the classified kind of err, e.g. "NoSuchDatabaseError",
// or an empty string when err is not classified.
func KindName(err error) string {
	for _, kn := range kindNames {
		if errors.Is(err, kn.kind) {
			return kn.name
		}
	}

	return ""
}

// ErrorByName resolves a kind identifier such as "ConnectionError" to its sentinel error.
func ErrorByName(name string) (error, bool) {
	for _, kn := range kindNames {
		if kn.name == name {
			return kn.kind, true
		}
	}

	return nil, false
}
