package driver

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/orbnauticus/dibi-go/dibi"
	"github.com/orbnauticus/dibi-go/dibi/sqlengine"
)

// Factory connects to a backend. Options configure the SQL engine that backs the driver.
type Factory func(ctx context.Context, params Parameters, options ...sqlengine.Option) (dibi.Driver, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a backend available under name. It panics if name is registered twice
// or factory is nil.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if factory == nil {
		panic("driver: Register factory is nil for " + name)
	}
	if _, dup := registry[name]; dup {
		panic("driver: Register called twice for " + name)
	}

	registry[name] = factory
}

// Lookup returns the factory registered under name.
func Lookup(name string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	factory, ok := registry[name]

	return factory, ok
}

// Names returns the registered backend names in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)

	return names
}

// Open connects to the backend registered under name.
func Open(ctx context.Context, name string, params Parameters, options ...sqlengine.Option) (dibi.Driver, error) {
	factory, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", dibi.ErrUnknownDriver, name)
	}

	return factory(ctx, params, options...)
}
