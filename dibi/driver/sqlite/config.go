package sqlite

import (
	"net/url"
	"strings"

	"github.com/orbnauticus/dibi-go/dibi/driver"
)

const (
	paramPath   = "path"
	paramCreate = "create"

	// MemoryPath names a private in-memory database.
	MemoryPath = ":memory:"
)

// Config describes how to open a sqlite database.
type Config struct {
	Path    string
	Create  bool
	Adapter string
}

// ConfigFromParameters reads a Config from backend parameters.
func ConfigFromParameters(params driver.Parameters) (Config, error) {
	if err := params.Validate(paramPath, paramCreate); err != nil {
		return Config{}, err
	}

	adapter, err := params.Adapter(driver.AdapterSQLDB, driver.AdapterSQLDB, driver.AdapterSQLX)
	if err != nil {
		return Config{}, err
	}

	return Config{
		Path:    params.String(paramPath, MemoryPath),
		Create:  params.Bool(paramCreate, true),
		Adapter: adapter,
	}, nil
}

// InMemory reports whether the database lives in memory only.
func (c Config) InMemory() bool {
	return c.Path == "" || c.Path == MemoryPath
}

// DSN returns the data source name for the sqlite3 driver.
// A file path becomes a URI opened read-write, and also created when Create is set.
func (c Config) DSN() string {
	if c.InMemory() {
		return MemoryPath
	}

	path := strings.NewReplacer("?", "%3f", "#", "%23").Replace(c.Path)
	for strings.Contains(path, "//") {
		path = strings.ReplaceAll(path, "//", "/")
	}

	mode := "rw"
	if c.Create {
		mode += "c"
	}

	return "file:" + path + "?" + url.Values{"mode": {mode}}.Encode()
}
