// Package mysql registers the "mysql" backend, built on github.com/go-sql-driver/mysql.
//
// Parameters:
//   - database: required
//   - host, port: "localhost" and 3306 by default
//   - user, password: "root" and an empty password by default
//   - engine: storage engine for new tables, "MyISAM" by default
//   - debug: create TEMPORARY tables
//   - adapter: "sql.db" (default) or "sqlx.db"
//
// Tables created with the InnoDB or BDB engine support transactions.
package mysql
