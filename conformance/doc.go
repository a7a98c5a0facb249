// Package conformance runs the fixture scenarios against the registered backends.
//
// A scenario that expects a failure passes when opening the backend fails with the expected
// kind of error. A scenario that expects success must connect and then pass a sequence of
// checks: create a table, list it, list its columns, insert and read back rows, and drop it.
//
// The Report of a run carries the exit code of the conformance CLI: 2 if any scenario or
// check errored, otherwise 1 if any failed, otherwise 0.
package conformance
