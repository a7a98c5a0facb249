package fixture_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbnauticus/dibi-go/dibi"
	"github.com/orbnauticus/dibi-go/dibi/driver"
	"github.com/orbnauticus/dibi-go/fixture"
)

const sample = `
[DEFAULT]
debug = 1

[sqlite]
path = :memory:

[sqlite:no create]
path = /missing/db.sqlite
create =
this raises = NoSuchDatabaseError

[sqlite:file not found]
path = /bad/path/to/database.sqlite
This Raises = NoSuchDatabaseError

[mysql]
host = localhost
database = shop

[mysql:connection refused]
port: 1
this raises = ConnectionError

[postgres:orphan]
host = nowhere
`

func Test_Parse_ShouldMergeSectionsIntoScenarios(t *testing.T) {
	// act
	f, err := fixture.Parse([]byte(sample))

	// assert
	require.NoError(t, err)
	assert.Equal(t, []string{"sqlite", "mysql", "postgres"}, f.Backends())

	expected := []fixture.Scenario{
		{
			Backend:    "sqlite",
			Parameters: driver.Parameters{"debug": "1", "path": ":memory:"},
			Expect:     fixture.OutcomeSuccess,
		},
		{
			Backend:    "sqlite",
			Variant:    "file not found",
			Parameters: driver.Parameters{"debug": "1", "path": "/bad/path/to/database.sqlite"},
			Expect:     fixture.OutcomeNoSuchDatabase,
		},
		{
			Backend:    "sqlite",
			Variant:    "no create",
			Parameters: driver.Parameters{"debug": "1", "path": "/missing/db.sqlite", "create": ""},
			Expect:     fixture.OutcomeNoSuchDatabase,
		},
	}
	if diff := cmp.Diff(expected, f.Scenarios("sqlite")); diff != "" {
		t.Errorf("sqlite scenarios mismatch (-want +got):\n%s", diff)
	}

	mysqlScenarios := f.Scenarios("mysql")
	require.Len(t, mysqlScenarios, 2)
	assert.Equal(t, "mysql(connection refused)", mysqlScenarios[1].Name())
	assert.Equal(t, driver.Parameters{"debug": "1", "host": "localhost", "database": "shop", "port": "1"}, mysqlScenarios[1].Parameters)
	assert.Equal(t, fixture.OutcomeConnection, mysqlScenarios[1].Expect)

	assert.Empty(t, f.Scenarios("postgres"), "variants without a base section are ignored")
	assert.Len(t, f.AllScenarios(), 5)
}

func Test_Parse_ShouldKeepValuesVerbatim(t *testing.T) {
	// arrange
	data := `
# comment
[mysql]
; comment
user = a#b;c
password = "quoted pw"
engine = InnoDB \
host = localhost
`

	// act
	f, err := fixture.Parse([]byte(data))

	// assert
	require.NoError(t, err)
	scenarios := f.Scenarios("mysql")
	require.Len(t, scenarios, 1)
	expected := driver.Parameters{
		"user":     "a#b;c",
		"password": `"quoted pw"`,
		"engine":   `InnoDB \`,
		"host":     "localhost",
	}
	if diff := cmp.Diff(expected, scenarios[0].Parameters); diff != "" {
		t.Errorf("parameters mismatch (-want +got):\n%s", diff)
	}
}

func Test_Scenarios_ShouldReturnIndependentParameters(t *testing.T) {
	// arrange
	f, err := fixture.Parse([]byte(sample))
	require.NoError(t, err)

	// act
	f.Scenarios("sqlite")[0].Parameters["path"] = "/changed"

	// assert
	assert.Equal(t, ":memory:", f.Scenarios("sqlite")[0].Parameters["path"])
}

func Test_Parse_ShouldRejectUnknownOutcomes(t *testing.T) {
	// act
	_, err := fixture.Parse([]byte("[sqlite]\npath = :memory:\n\n[sqlite:weird]\nthis raises = SomethingElse\n"))

	// assert
	assert.ErrorIs(t, err, fixture.ErrUnknownOutcome)
	assert.Contains(t, err.Error(), "[sqlite:weird]")
}

func Test_Parse_ShouldRejectSectionsWithoutBackend(t *testing.T) {
	// act
	_, err := fixture.Parse([]byte("[:variant]\npath = x\n"))

	// assert
	assert.ErrorIs(t, err, fixture.ErrMalformedFixture)
}

func Test_Load_ShouldUseTheFirstReadableFile(t *testing.T) {
	// setup
	dir := t.TempDir()
	path := filepath.Join(dir, "params.conf")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	// act
	f, err := fixture.Load(filepath.Join(dir, "absent.conf"), path)

	// assert
	require.NoError(t, err)
	assert.Contains(t, f.Backends(), "mysql")
}

func Test_Load_ShouldFailWithoutReadableFiles(t *testing.T) {
	// act
	_, err := fixture.Load(filepath.Join(t.TempDir(), "absent.conf"))

	// assert
	assert.ErrorIs(t, err, fixture.ErrNoFixtureFile)
}

func Test_Load_ShouldParseTheRepositoryFixture(t *testing.T) {
	// act
	f, err := fixture.Load("../test/test_parameters.conf")

	// assert
	require.NoError(t, err)
	assert.Contains(t, f.Backends(), "sqlite")
	for _, scenario := range f.AllScenarios() {
		assert.Equal(t, scenario.Variant != "", scenario.Expect.IsFailure(), scenario.Name())
	}
}

func Test_Outcome(t *testing.T) {
	outcome, err := fixture.ParseOutcome("AuthenticationError")
	require.NoError(t, err)

	assert.True(t, outcome.IsFailure())
	assert.True(t, outcome.Matches(dibi.NewError(dibi.ErrAuthentication, "app", nil)))
	assert.False(t, outcome.Matches(dibi.ErrConnection))
	assert.False(t, outcome.Matches(nil))
	assert.Equal(t, "AuthenticationError", outcome.String())

	assert.True(t, fixture.OutcomeSuccess.Matches(nil))
	assert.False(t, fixture.OutcomeSuccess.Matches(dibi.ErrConnection))
	assert.Equal(t, "success", fixture.OutcomeSuccess.String())
	assert.NoError(t, fixture.OutcomeSuccess.Err())

	_, err = fixture.ParseOutcome("")
	assert.ErrorIs(t, err, fixture.ErrUnknownOutcome)
}
