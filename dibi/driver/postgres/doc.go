// Package postgres registers the "postgres" backend.
//
// The default adapter is a pgx connection pool. With adapter "sql.db" or "sqlx.db" the
// connection goes through database/sql and github.com/lib/pq instead.
//
// Parameters:
//   - database: required
//   - host, port: "localhost" and 5432 by default
//   - user, password: "postgres" and an empty password by default
//   - sslmode: "disable" by default
//   - debug: create TEMPORARY tables
//   - adapter: "pgx.pool" (default), "sql.db" or "sqlx.db"
package postgres
