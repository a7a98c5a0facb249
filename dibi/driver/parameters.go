package driver

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/orbnauticus/dibi-go/dibi"
)

// Parameters common to every backend.
const (
	ParamAdapter = "adapter"
	ParamDebug   = "debug"
)

// Parameters holds the connection parameters of a backend, keyed by lower-case name.
type Parameters map[string]string

// String returns the value of key, or fallback when key is absent.
func (p Parameters) String(key, fallback string) string {
	if value, ok := p[key]; ok {
		return value
	}

	return fallback
}

// Int returns the value of key as an integer, or fallback when key is absent or blank.
func (p Parameters) Int(key string, fallback int) (int, error) {
	value, ok := p[key]
	if !ok || strings.TrimSpace(value) == "" {
		return fallback, nil
	}

	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not an integer", dibi.ErrInvalidParameter, key, value)
	}

	return n, nil
}

// Bool returns the value of key as a flag, or fallback when key is absent.
// A blank value and "0", "false", "no" or "off" are false, anything else is true.
func (p Parameters) Bool(key string, fallback bool) bool {
	value, ok := p[key]
	if !ok {
		return fallback
	}

	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "0", "false", "no", "off":
		return false
	default:
		return true
	}
}

// Validate rejects keys that are neither in allowed nor common to every backend.
func (p Parameters) Validate(allowed ...string) error {
	var unknown []string
	for key := range p {
		if key == ParamAdapter || key == ParamDebug || slices.Contains(allowed, key) {
			continue
		}
		unknown = append(unknown, key)
	}

	if len(unknown) > 0 {
		slices.Sort(unknown)
		return fmt.Errorf("%w: unknown %s", dibi.ErrInvalidParameter, strings.Join(unknown, ", "))
	}

	return nil
}

// Clone returns a copy that can be modified independently.
func (p Parameters) Clone() Parameters {
	clone := make(Parameters, len(p))
	for key, value := range p {
		clone[key] = value
	}

	return clone
}

// Connection adapters selectable with the adapter parameter.
const (
	AdapterSQLDB   = "sql.db"
	AdapterSQLX    = "sqlx.db"
	AdapterPGXPool = "pgx.pool"
)

// Adapter returns the adapter parameter, checked against supported. Blank means fallback.
func (p Parameters) Adapter(fallback string, supported ...string) (string, error) {
	adapter := strings.TrimSpace(p.String(ParamAdapter, ""))
	if adapter == "" {
		return fallback, nil
	}

	if !slices.Contains(supported, adapter) {
		return "", fmt.Errorf("%w: adapter %q", dibi.ErrInvalidParameter, adapter)
	}

	return adapter, nil
}
