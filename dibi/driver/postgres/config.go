package postgres

import (
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/orbnauticus/dibi-go/dibi"
	"github.com/orbnauticus/dibi-go/dibi/driver"
)

const (
	paramHost     = "host"
	paramPort     = "port"
	paramDatabase = "database"
	paramUser     = "user"
	paramPassword = "password"
	paramSSLMode  = "sslmode"

	defaultHost    = "localhost"
	defaultPort    = 5432
	defaultUser    = "postgres"
	defaultSSLMode = "disable"
)

// Config describes how to connect to a PostgreSQL server.
type Config struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string
	Debug    bool
	Adapter  string
}

// ConfigFromParameters reads a Config from backend parameters.
func ConfigFromParameters(params driver.Parameters) (Config, error) {
	err := params.Validate(paramHost, paramPort, paramDatabase, paramUser, paramPassword, paramSSLMode)
	if err != nil {
		return Config{}, err
	}

	port, err := params.Int(paramPort, defaultPort)
	if err != nil {
		return Config{}, err
	}

	adapter, err := params.Adapter(driver.AdapterPGXPool, driver.AdapterPGXPool, driver.AdapterSQLDB, driver.AdapterSQLX)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Host:     params.String(paramHost, defaultHost),
		Port:     port,
		Database: params.String(paramDatabase, ""),
		User:     params.String(paramUser, defaultUser),
		Password: params.String(paramPassword, ""),
		SSLMode:  params.String(paramSSLMode, defaultSSLMode),
		Debug:    params.Bool(driver.ParamDebug, false),
		Adapter:  adapter,
	}

	return cfg, cfg.Validate()
}

// Validate checks the required database name.
func (c Config) Validate() error {
	if c.Database == "" {
		return fmt.Errorf("%w: database is required", dibi.ErrInvalidParameter)
	}

	return nil
}

// DSN returns a postgres:// connection URL understood by both pgx and lib/pq.
func (c Config) DSN() string {
	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}

	return dsn.String()
}
