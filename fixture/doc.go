// Package fixture reads the connection scenarios used by the conformance runner.
//
// A fixture file is INI-like. An unqualified section holds the default parameters of a
// backend and every [backend:variant] section overrides some of them to provoke a failure,
// named by the reserved key "this raises":
//
//	[sqlite]
//	path = :memory:
//
//	[sqlite:file not found]
//	path = /bad/path/to/database.sqlite
//	this raises = NoSuchDatabaseError
//
// Keys of a [DEFAULT] section apply to every section.
package fixture
