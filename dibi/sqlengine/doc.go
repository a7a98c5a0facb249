// Package sqlengine implements dibi.Driver on top of a SQL connection and a Dialect.
//
// The engine works with three connection types through internal adapters:
//   - *sql.DB via NewFromSQLDB
//   - *sqlx.DB via NewFromSQLX
//   - *pgxpool.Pool via NewFromPGXPool
//
// Data manipulation statements are built with goqu using prepared placeholders. Table
// definitions are composed from fragments that can only hold keywords, quoted identifiers
// and types mapped by the dialect, so user supplied names never reach the SQL text unquoted.
//
// Backend packages supply the Dialect: type mapping, error classification and schema
// introspection. Everything else, including transactions and observability, lives here.
//
// Example usage:
//
//	db, _ := sql.Open("sqlite3", ":memory:")
//	engine, err := sqlengine.NewFromSQLDB(db, dialect,
//		sqlengine.WithLogger(slog.Default()),
//		sqlengine.WithFeatures(dibi.FeatureTransactions),
//	)
package sqlengine
