// Package driver is the registry of database backends.
//
// Backends register a Factory under their name from an init function. Import
// github.com/orbnauticus/dibi-go/dibi/driver/all to register every backend, then open one
// with the parameters of a fixture section:
//
//	d, err := driver.Open(ctx, "sqlite", driver.Parameters{"path": ":memory:"})
package driver
