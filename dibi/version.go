package dibi

// Package metadata.
const (
	Name    = "dibi"
	Version = "0.2"
)

// FullName returns the package name joined with its version, e.g. "dibi-0.2".
func FullName() string {
	return Name + "-" + Version
}
