package sqlengine

import (
	"context"
	"errors"
	"slices"

	"github.com/orbnauticus/dibi-go/dibi"
	"github.com/orbnauticus/dibi-go/dibi/sqlengine/internal/adapters"
)

type txKey struct{}

type txState struct {
	engine *Engine
	tx     adapters.DBTx
}

// InTransaction reports whether ctx carries an open transaction of this engine.
func (e *Engine) InTransaction(ctx context.Context) bool {
	state, ok := ctx.Value(txKey{}).(*txState)
	return ok && state.engine == e
}

func (e *Engine) executor(ctx context.Context) adapters.Executor {
	if state, ok := ctx.Value(txKey{}).(*txState); ok && state.engine == e {
		return state.tx
	}

	return e.db
}

// WithTransaction runs fn inside a transaction, committing when fn succeeds and rolling back
// when it fails. A call made while a transaction is already open joins it, so only the
// outermost call commits.
func (e *Engine) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if e.InTransaction(ctx) {
		return fn(ctx)
	}

	tx, err := e.db.Begin(ctx)
	if err != nil {
		return e.dialect.ClassifyError(err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, &txState{engine: e, tx: tx})); err != nil {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
			e.logError(ctx, logMsgRollbackFailed, rollbackErr)
			return errors.Join(err, rollbackErr)
		}

		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return e.dialect.ClassifyError(err)
	}

	return nil
}

// write runs fn in a transaction when the connection supports transactions.
func (e *Engine) write(ctx context.Context, fn func(ctx context.Context) error) error {
	if !slices.Contains(e.features, dibi.FeatureTransactions) {
		return fn(ctx)
	}

	return e.WithTransaction(ctx, fn)
}
