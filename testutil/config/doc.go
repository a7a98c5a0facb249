// Package config provides database parameters for dibi integration tests.
//
// The sqlite backend always runs in memory. The mysql and postgres backends connect to the
// servers named by environment variables and only run when DIBI_INTEGRATION is set:
//
//	DIBI_MYSQL_HOST, DIBI_MYSQL_PORT, DIBI_MYSQL_DATABASE, DIBI_MYSQL_USER, DIBI_MYSQL_PASSWORD
//	DIBI_POSTGRES_HOST, DIBI_POSTGRES_PORT, DIBI_POSTGRES_DATABASE, DIBI_POSTGRES_USER, DIBI_POSTGRES_PASSWORD
//
// ADAPTER_TYPE selects the connection adapter: "sql.db", "sqlx.db" or "pgx.pool".
package config
