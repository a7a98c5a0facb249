package conformance_test

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbnauticus/dibi-go/conformance"
	"github.com/orbnauticus/dibi-go/dibi"
	_ "github.com/orbnauticus/dibi-go/dibi/driver/sqlite" // backend registration
	"github.com/orbnauticus/dibi-go/dibi/sqlengine"
	"github.com/orbnauticus/dibi-go/fixture"
	"github.com/orbnauticus/dibi-go/testutil/spies"
)

func givenFixture(t *testing.T, text string) *fixture.Fixture {
	t.Helper()

	missing := filepath.Join(t.TempDir(), "missing")
	f, err := fixture.Parse([]byte(strings.ReplaceAll(text, "$MISSING", missing)))
	require.NoError(t, err)

	return f
}

const sqliteScenarios = `
[sqlite]
path = :memory:

[sqlite:file not found]
path = $MISSING/absent.db
this raises = NoSuchDatabaseError

[sqlite:wrong kind]
path = $MISSING/absent.db
this raises = AuthenticationError

[sqlite:not raised]
path = :memory:
this raises = ConnectionError

[mysql]
database = never_opened
`

func Test_Runner_ShouldRunEveryScenarioOfTheSelectedBackends(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logHandler := spies.NewLogHandlerSpy(false)

	// arrange
	runner, err := conformance.NewRunner(
		givenFixture(t, sqliteScenarios),
		conformance.WithBackends("sqlite"),
		conformance.WithParallelism(4),
		conformance.WithLogger(slog.New(logHandler)),
	)
	require.NoError(t, err)

	// act
	report, err := runner.Run(ctx)

	// assert
	require.NoError(t, err)
	assert.Equal(t, dibi.FullName(), report.Name)
	require.Len(t, report.Results, 4)

	succeeded := report.Results[0]
	assert.Equal(t, "sqlite", succeeded.Scenario)
	assert.Equal(t, conformance.StatusSuccess, succeeded.Status, succeeded.Checks)
	require.Len(t, succeeded.Checks, 6)
	for _, check := range succeeded.Checks {
		assert.Equal(t, conformance.StatusSuccess, check.Status, "%s: %s", check.Name, check.Message)
	}
	assert.Equal(t, conformance.CheckCreateTable, succeeded.Checks[0].Name)
	assert.Equal(t, conformance.CheckDropTable, succeeded.Checks[5].Name)

	raised := report.Results[1]
	assert.Equal(t, "sqlite(file not found)", raised.Scenario)
	assert.Equal(t, conformance.StatusSuccess, raised.Status)
	assert.Empty(t, raised.Checks)

	notRaised := report.Results[2]
	assert.Equal(t, "sqlite(not raised)", notRaised.Scenario)
	assert.Equal(t, conformance.StatusFailure, notRaised.Status)
	assert.Equal(t, "ConnectionError not raised", notRaised.Message)

	wrongKind := report.Results[3]
	assert.Equal(t, conformance.StatusFailure, wrongKind.Status)
	assert.Contains(t, wrongKind.Message, "expected AuthenticationError, got NoSuchDatabaseError")

	assert.Equal(t, conformance.Summary{Total: 4, Succeeded: 2, Failed: 2}, report.Summary())
	assert.Equal(t, conformance.ExitFailures, report.ExitCode())
	assert.True(t, logHandler.HasInfoLog("scenario finished").WithAttr("status", "success").WithDurationMS().Assert())
}

func Test_Runner_ShouldReportUnexpectedErrors(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// arrange
	runner, err := conformance.NewRunner(
		givenFixture(t, "[sqlite]\npath = $MISSING/absent.db\n"),
		conformance.WithBackends("sqlite"),
	)
	require.NoError(t, err)

	// act
	report, err := runner.Run(ctx)

	// assert
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, conformance.StatusError, report.Results[0].Status)
	assert.Contains(t, report.Results[0].Message, "does not exist")
	assert.Equal(t, conformance.ExitErrors, report.ExitCode())
}

func Test_Runner_ShouldPassEngineOptionsToTheBackends(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	metrics := spies.NewMetricsCollectorSpy(true)

	// arrange
	runner, err := conformance.NewRunner(
		givenFixture(t, "[sqlite]\npath = :memory:\n"),
		conformance.WithBackends("sqlite"),
		conformance.WithEngineOptions(sqlengine.WithMetrics(metrics)),
	)
	require.NoError(t, err)

	// act
	report, err := runner.Run(ctx)

	// assert
	require.NoError(t, err)
	assert.Equal(t, conformance.ExitSuccess, report.ExitCode())
	assert.Equal(t, 2, metrics.HasValueRecordForMetric("dibi_rows_affected").WithOperation("insert").Count())
}

func Test_Runner_ShouldStopWhenTheContextIsCancelled(t *testing.T) {
	// setup
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// arrange
	runner, err := conformance.NewRunner(givenFixture(t, sqliteScenarios), conformance.WithBackends("sqlite"))
	require.NoError(t, err)

	// act
	report, err := runner.Run(ctx)

	// assert
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, report)
}

func Test_NewRunner_ShouldRejectInvalidOptions(t *testing.T) {
	f := givenFixture(t, sqliteScenarios)

	_, unknownBackend := conformance.NewRunner(f, conformance.WithBackends("sqlite", "oracle"))
	_, noParallelism := conformance.NewRunner(f, conformance.WithParallelism(0))

	assert.ErrorIs(t, unknownBackend, dibi.ErrUnknownDriver)
	assert.ErrorIs(t, noParallelism, conformance.ErrInvalidParallelism)
}

func Test_Runner_Scenarios_ShouldSkipBackendsWithoutSections(t *testing.T) {
	// arrange
	runner, err := conformance.NewRunner(givenFixture(t, "[sqlite]\npath = :memory:\n"))
	require.NoError(t, err)

	// act
	scenarios := runner.Scenarios()

	// assert
	require.Len(t, scenarios, 1)
	assert.Equal(t, "sqlite", scenarios[0].Backend)
}
