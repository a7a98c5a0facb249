package postgres

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // driver import

	"github.com/orbnauticus/dibi-go/dibi"
	"github.com/orbnauticus/dibi-go/dibi/driver"
	"github.com/orbnauticus/dibi-go/dibi/sqlengine"
)

const driverName = "postgres"

func init() {
	driver.Register("postgres", func(ctx context.Context, params driver.Parameters, options ...sqlengine.Option) (dibi.Driver, error) {
		cfg, err := ConfigFromParameters(params)
		if err != nil {
			return nil, err
		}

		return Open(ctx, cfg, options...)
	})
}

// Open connects to the server described by cfg through the configured adapter and verifies
// the connection.
func Open(ctx context.Context, cfg Config, options ...sqlengine.Option) (*sqlengine.Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dialect := NewDialect(cfg.Database, cfg.User)
	options = append([]sqlengine.Option{sqlengine.WithFeatures(dibi.FeatureTransactions)}, options...)
	if cfg.Debug {
		options = append(options, sqlengine.WithTemporaryTables())
	}

	engine, err := newEngine(ctx, cfg, dialect, options)
	if err != nil {
		return nil, err
	}

	if err := engine.Ping(ctx); err != nil {
		_ = engine.Close()
		return nil, err
	}

	return engine, nil
}

func newEngine(ctx context.Context, cfg Config, dialect *Dialect, options []sqlengine.Option) (*sqlengine.Engine, error) {
	if cfg.Adapter == driver.AdapterPGXPool {
		poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
		if err != nil {
			return nil, dialect.ClassifyError(err)
		}

		// TEMPORARY tables only exist on the connection that created them.
		if cfg.Debug {
			poolConfig.MaxConns = 1
		}

		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return nil, dialect.ClassifyError(err)
		}

		engine, err := sqlengine.NewFromPGXPool(pool, dialect, options...)
		if err != nil {
			pool.Close()
			return nil, err
		}

		return engine, nil
	}

	db, err := sql.Open(driverName, cfg.DSN())
	if err != nil {
		return nil, err
	}

	if cfg.Debug {
		db.SetMaxOpenConns(1)
	}

	var engine *sqlengine.Engine
	if cfg.Adapter == driver.AdapterSQLX {
		engine, err = sqlengine.NewFromSQLX(sqlx.NewDb(db, driverName), dialect, options...)
	} else {
		engine, err = sqlengine.NewFromSQLDB(db, dialect, options...)
	}
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return engine, nil
}
