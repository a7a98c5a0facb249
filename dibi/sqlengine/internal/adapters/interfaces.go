package adapters

import (
	"context"
	"errors"
)

// ErrLastInsertIDUnsupported is returned by results of adapters that cannot report generated keys.
var ErrLastInsertIDUnsupported = errors.New("last insert id not supported by this adapter, use RETURNING")

// Executor runs statements, either directly on a connection pool or inside a transaction.
type Executor interface {
	Query(ctx context.Context, query string, args ...any) (DBRows, error)
	Exec(ctx context.Context, query string, args ...any) (DBResult, error)
}

// DBAdapter defines the interface for database operations needed by the engine.
type DBAdapter interface {
	Executor
	Begin(ctx context.Context) (DBTx, error)
	Ping(ctx context.Context) error
	Close() error
}

// DBTx is an open transaction.
type DBTx interface {
	Executor
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// DBRows defines the interface for query result rows.
type DBRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// DBResult defines the interface for execution results.
type DBResult interface {
	RowsAffected() (int64, error)
	LastInsertId() (int64, error)
}
