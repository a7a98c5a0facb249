// Package sqlite registers the "sqlite" backend, built on github.com/mattn/go-sqlite3.
//
// Parameters:
//   - path: database file, ":memory:" by default
//   - create: create the file when missing, true by default; a blank value disables it
//   - adapter: "sql.db" (default) or "sqlx.db"
package sqlite
