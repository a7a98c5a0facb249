package mysql

import (
	"fmt"
	"net"
	"slices"
	"strconv"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"

	"github.com/orbnauticus/dibi-go/dibi"
	"github.com/orbnauticus/dibi-go/dibi/driver"
)

const (
	paramHost     = "host"
	paramPort     = "port"
	paramDatabase = "database"
	paramUser     = "user"
	paramPassword = "password"
	paramEngine   = "engine"

	defaultHost   = "localhost"
	defaultPort   = 3306
	defaultUser   = "root"
	defaultEngine = "MyISAM"
)

// Engines lists the storage engines a table can be created with.
var Engines = []string{"MyISAM", "InnoDB", "MERGE", "MEMORY", "BDB", "EXAMPLE", "FEDERATED", "ARCHIVE", "CSV", "BLACKHOLE"}

var transactionalEngines = []string{"InnoDB", "BDB"}

// Config describes how to connect to a MySQL server.
type Config struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	Engine   string
	Debug    bool
	Adapter  string
}

// ConfigFromParameters reads a Config from backend parameters.
func ConfigFromParameters(params driver.Parameters) (Config, error) {
	err := params.Validate(paramHost, paramPort, paramDatabase, paramUser, paramPassword, paramEngine)
	if err != nil {
		return Config{}, err
	}

	port, err := params.Int(paramPort, defaultPort)
	if err != nil {
		return Config{}, err
	}

	adapter, err := params.Adapter(driver.AdapterSQLDB, driver.AdapterSQLDB, driver.AdapterSQLX)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Host:     params.String(paramHost, defaultHost),
		Port:     port,
		Database: params.String(paramDatabase, ""),
		User:     params.String(paramUser, defaultUser),
		Password: params.String(paramPassword, ""),
		Engine:   params.String(paramEngine, defaultEngine),
		Debug:    params.Bool(driver.ParamDebug, false),
		Adapter:  adapter,
	}

	return cfg, cfg.Validate()
}

// Validate checks the required database name and the storage engine.
func (c Config) Validate() error {
	if c.Database == "" {
		return fmt.Errorf("%w: database is required", dibi.ErrInvalidParameter)
	}

	if !slices.Contains(Engines, c.Engine) {
		return fmt.Errorf("%w: unknown storage engine %q", dibi.ErrInvalidParameter, c.Engine)
	}

	return nil
}

// Transactional reports whether tables of the configured engine support transactions.
func (c Config) Transactional() bool {
	return slices.Contains(transactionalEngines, c.Engine)
}

// DSN returns the data source name for the mysql driver.
func (c Config) DSN() string {
	dsn := mysqldriver.NewConfig()
	dsn.User = c.User
	dsn.Passwd = c.Password
	dsn.Net = "tcp"
	dsn.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	dsn.DBName = c.Database
	dsn.ParseTime = true
	dsn.Loc = time.UTC

	return dsn.FormatDSN()
}
