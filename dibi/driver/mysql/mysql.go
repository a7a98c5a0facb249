package mysql

import (
	"context"
	"database/sql"

	_ "github.com/go-sql-driver/mysql" // driver import
	"github.com/jmoiron/sqlx"

	"github.com/orbnauticus/dibi-go/dibi"
	"github.com/orbnauticus/dibi-go/dibi/driver"
	"github.com/orbnauticus/dibi-go/dibi/sqlengine"
)

const driverName = "mysql"

func init() {
	driver.Register("mysql", func(ctx context.Context, params driver.Parameters, options ...sqlengine.Option) (dibi.Driver, error) {
		cfg, err := ConfigFromParameters(params)
		if err != nil {
			return nil, err
		}

		return Open(ctx, cfg, options...)
	})
}

// EngineOptions returns the engine options implied by cfg: the table suffix naming the
// storage engine, temporary tables in debug mode and transactions for transactional engines.
func EngineOptions(cfg Config) []sqlengine.Option {
	options := []sqlengine.Option{sqlengine.WithTableSuffix("ENGINE=" + cfg.Engine)}

	if cfg.Transactional() {
		options = append(options, sqlengine.WithFeatures(dibi.FeatureTransactions))
	}

	if cfg.Debug {
		options = append(options, sqlengine.WithTemporaryTables())
	}

	return options
}

// Open connects to the server described by cfg and verifies the connection.
func Open(ctx context.Context, cfg Config, options ...sqlengine.Option) (*sqlengine.Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, cfg.DSN())
	if err != nil {
		return nil, err
	}

	// TEMPORARY tables only exist on the connection that created them.
	if cfg.Debug {
		db.SetMaxOpenConns(1)
	}

	options = append(EngineOptions(cfg), options...)
	dialect := NewDialect(cfg.Database, cfg.User)

	var engine *sqlengine.Engine
	switch cfg.Adapter {
	case driver.AdapterSQLX:
		engine, err = sqlengine.NewFromSQLX(sqlx.NewDb(db, driverName), dialect, options...)
	default:
		engine, err = sqlengine.NewFromSQLDB(db, dialect, options...)
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
