package sqlite

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // driver import

	"github.com/orbnauticus/dibi-go/dibi"
	"github.com/orbnauticus/dibi-go/dibi/driver"
	"github.com/orbnauticus/dibi-go/dibi/sqlengine"
)

const driverName = "sqlite3"

func init() {
	driver.Register("sqlite", func(ctx context.Context, params driver.Parameters, options ...sqlengine.Option) (dibi.Driver, error) {
		cfg, err := ConfigFromParameters(params)
		if err != nil {
			return nil, err
		}

		return Open(ctx, cfg, options...)
	})
}

// Open connects to the database described by cfg and verifies the connection.
// An in-memory database is limited to one connection, since every connection would
// otherwise see its own empty database.
func Open(ctx context.Context, cfg Config, options ...sqlengine.Option) (*sqlengine.Engine, error) {
	db, err := sql.Open(driverName, cfg.DSN())
	if err != nil {
		return nil, err
	}

	if cfg.InMemory() {
		db.SetMaxOpenConns(1)
	}

	options = append([]sqlengine.Option{sqlengine.WithFeatures(dibi.FeatureTransactions)}, options...)

	var engine *sqlengine.Engine
	switch cfg.Adapter {
	case driver.AdapterSQLX:
		engine, err = sqlengine.NewFromSQLX(sqlx.NewDb(db, driverName), NewDialect(cfg.Path), options...)
	default:
		engine, err = sqlengine.NewFromSQLDB(db, NewDialect(cfg.Path), options...)
	}
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := engine.Ping(ctx); err != nil {
		_ = engine.Close()
		return nil, err
	}

	return engine, nil
}
