package main

import (
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/ini.v1"

	"github.com/orbnauticus/dibi-go/dibi/driver"
	"github.com/orbnauticus/dibi-go/fixture"
	"github.com/orbnauticus/dibi-go/testutil/config"
)

const (
	OutputDir  = "test"                 // The directory to put the fixture file into - should be fine as is.
	OutputFile = "test_parameters.conf" // The fixture file read by the conformance runner.

	header = `# Connection scenarios for the conformance runner.
# Every [backend:variant] section is merged over [backend] and must fail with
# the kind named by "this raises".
# Generated from the DIBI_* environment by testutil/cmd/generate.

`
)

// Backends lists the backends written to the fixture file, in file order.
var Backends = []string{"sqlite", "mysql", "postgres"}

type variant struct {
	name   string
	params driver.Parameters
	raises fixture.Outcome
}

// variants returns the failure scenarios of backend.
func variants(backend string) []variant {
	if backend == "sqlite" {
		return []variant{
			{
				name:   "file not found",
				params: driver.Parameters{"path": "/bad/path/to/database.sqlite", "create": ""},
				raises: fixture.OutcomeNoSuchDatabase,
			},
		}
	}

	return []variant{
		{
			name:   "authentication error",
			params: driver.Parameters{"password": "not the real password"},
			raises: fixture.OutcomeAuthentication,
		},
		{
			name:   "bad database",
			params: driver.Parameters{"database": "no_such_database"},
			raises: fixture.OutcomeNoSuchDatabase,
		},
		{
			name:   "connection refused",
			params: driver.Parameters{"host": "127.0.0.1", "port": "1"},
			raises: fixture.OutcomeConnection,
		},
	}
}

func main() {
	if err := GenerateFixtureFile(); err != nil {
		panic(fmt.Sprintf("Error generating fixture file: %v\n", err))
	}
}

func GenerateFixtureFile() error {
	projectRoot, err := findProjectRoot()
	if err != nil {
		return fmt.Errorf("failed to find project root: %w", err)
	}

	outputDir := filepath.Join(projectRoot, OutputDir)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(filepath.Join(outputDir, OutputFile))
	if err != nil {
		return fmt.Errorf("failed to create fixture file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return writeFixture(file)
}

func writeFixture(w io.Writer) error {
	f, err := buildFixture()
	if err != nil {
		return err
	}

	if _, err := io.WriteString(w, header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write sections: %w", err)
	}

	return nil
}

func buildFixture() (*ini.File, error) {
	f := ini.Empty()

	for _, backend := range Backends {
		params, ok := config.Parameters(backend)
		if !ok {
			return nil, fmt.Errorf("no test parameters for backend %q", backend)
		}

		if err := addSection(f, backend, params, fixture.OutcomeSuccess); err != nil {
			return nil, err
		}

		for _, v := range variants(backend) {
			if err := addSection(f, backend+":"+v.name, v.params, v.raises); err != nil {
				return nil, err
			}
		}
	}

	return f, nil
}

func addSection(f *ini.File, name string, params driver.Parameters, raises fixture.Outcome) error {
	section, err := f.NewSection(name)
	if err != nil {
		return fmt.Errorf("failed to add section [%s]: %w", name, err)
	}

	for _, key := range slices.Sorted(maps.Keys(params)) {
		if _, err := section.NewKey(key, params[key]); err != nil {
			return fmt.Errorf("failed to add key %s to [%s]: %w", key, name, err)
		}
	}

	if raises.IsFailure() {
		if _, err := section.NewKey(fixture.KeyRaises, string(raises)); err != nil {
			return fmt.Errorf("failed to add expectation to [%s]: %w", name, err)
		}
	}

	return nil
}

func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	// Walk up the directory tree looking for go.mod
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached the root directory
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("could not find project root (no go.mod found)")
}
