package config

import (
	"os"
	"slices"
	"strings"

	"github.com/orbnauticus/dibi-go/dibi/driver"
)

const (
	envIntegration = "DIBI_INTEGRATION"
	envAdapterType = "ADAPTER_TYPE"
)

// IsIntegrationTestEnvironment reports whether tests may connect to external database servers.
func IsIntegrationTestEnvironment() bool {
	switch strings.ToLower(os.Getenv(envIntegration)) {
	case "", "0", "false", "no":
		return false
	default:
		return true
	}
}

// AdapterType returns the adapter requested through ADAPTER_TYPE, or "" for the backend default.
func AdapterType() string {
	return strings.ToLower(os.Getenv(envAdapterType))
}

// SQLiteParameters opens a private in-memory database.
func SQLiteParameters() driver.Parameters {
	return withAdapter(driver.Parameters{"path": ":memory:"}, driver.AdapterSQLDB, driver.AdapterSQLX)
}

// MySQLParameters connects to the test server in debug mode, so tables are temporary.
func MySQLParameters() driver.Parameters {
	params := driver.Parameters{
		"host":            getenv("DIBI_MYSQL_HOST", "localhost"),
		"port":            getenv("DIBI_MYSQL_PORT", "3306"),
		"database":        getenv("DIBI_MYSQL_DATABASE", "dibi_test"),
		"user":            getenv("DIBI_MYSQL_USER", "root"),
		"password":        getenv("DIBI_MYSQL_PASSWORD", ""),
		"engine":          "InnoDB",
		driver.ParamDebug: "true",
	}

	return withAdapter(params, driver.AdapterSQLDB, driver.AdapterSQLX)
}

// PostgresParameters connects to the test server in debug mode.
func PostgresParameters() driver.Parameters {
	params := driver.Parameters{
		"host":            getenv("DIBI_POSTGRES_HOST", "localhost"),
		"port":            getenv("DIBI_POSTGRES_PORT", "5432"),
		"database":        getenv("DIBI_POSTGRES_DATABASE", "dibi_test"),
		"user":            getenv("DIBI_POSTGRES_USER", "postgres"),
		"password":        getenv("DIBI_POSTGRES_PASSWORD", "test"),
		driver.ParamDebug: "true",
	}

	return withAdapter(params, driver.AdapterPGXPool, driver.AdapterSQLDB, driver.AdapterSQLX)
}

// Parameters returns the test parameters of backend, or false if the backend is unknown.
func Parameters(backend string) (driver.Parameters, bool) {
	switch backend {
	case "sqlite":
		return SQLiteParameters(), true
	case "mysql":
		return MySQLParameters(), true
	case "postgres":
		return PostgresParameters(), true
	default:
		return nil, false
	}
}

// withAdapter sets the adapter from the environment when the backend supports it.
func withAdapter(params driver.Parameters, supported ...string) driver.Parameters {
	if adapter := AdapterType(); slices.Contains(supported, adapter) {
		params[driver.ParamAdapter] = adapter
	}

	return params
}

func getenv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}

	return fallback
}
