package conformance

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/orbnauticus/dibi-go/dibi"
	"github.com/orbnauticus/dibi-go/dibi/driver"
	"github.com/orbnauticus/dibi-go/dibi/sqlengine"
	"github.com/orbnauticus/dibi-go/fixture"
)

// ErrInvalidParallelism is returned for a parallelism below one.
var ErrInvalidParallelism = errors.New("parallelism must be at least 1")

// Runner runs fixture scenarios against registered backends.
type Runner struct {
	fixture       *fixture.Fixture
	backends      []string
	parallelism   int
	logger        *slog.Logger
	engineOptions []sqlengine.Option
}

// Option configures a Runner.
type Option func(*Runner) error

// WithBackends restricts the run to the named backends. Every name must be registered.
func WithBackends(names ...string) Option {
	return func(r *Runner) error {
		for _, name := range names {
			if _, ok := driver.Lookup(name); !ok {
				return fmt.Errorf("%w: %q", dibi.ErrUnknownDriver, name)
			}
		}

		r.backends = names

		return nil
	}
}

// WithParallelism sets how many scenarios run at the same time.
func WithParallelism(n int) Option {
	return func(r *Runner) error {
		if n < 1 {
			return ErrInvalidParallelism
		}

		r.parallelism = n

		return nil
	}
}

// WithLogger sets the logger that receives scenario and check progress.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) error {
		r.logger = logger
		return nil
	}
}

// WithEngineOptions passes options to the engine of every opened backend.
func WithEngineOptions(options ...sqlengine.Option) Option {
	return func(r *Runner) error {
		r.engineOptions = append(r.engineOptions, options...)
		return nil
	}
}

// NewRunner creates a Runner for the scenarios of f.
func NewRunner(f *fixture.Fixture, options ...Option) (*Runner, error) {
	r := &Runner{
		fixture:     f,
		backends:    driver.Names(),
		parallelism: 1,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		if err := option(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Scenarios returns the scenarios the runner will run, ordered by backend name.
func (r *Runner) Scenarios() []fixture.Scenario {
	backends := slices.Clone(r.backends)
	slices.Sort(backends)
	backends = slices.Compact(backends)

	var scenarios []fixture.Scenario
	for _, backend := range backends {
		scenarios = append(scenarios, r.fixture.Scenarios(backend)...)
	}

	return scenarios
}

// Run executes every scenario. Results keep the order of Scenarios regardless of parallelism.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	scenarios := r.Scenarios()
	results := make([]Result, len(scenarios))

	var g errgroup.Group
	g.SetLimit(r.parallelism)

	for i, scenario := range scenarios {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			results[i] = r.runScenario(ctx, scenario)

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Report{Name: dibi.FullName(), Results: results}, nil
}

func (r *Runner) runScenario(ctx context.Context, scenario fixture.Scenario) Result {
	logger := r.logger.With("scenario", scenario.Name())
	start := time.Now()

	result := Result{
		Scenario: scenario.Name(),
		Backend:  scenario.Backend,
		Variant:  scenario.Variant,
		Expect:   scenario.Expect.String(),
	}

	logger.Info("opening backend", "expect", result.Expect)

	d, err := driver.Open(ctx, scenario.Backend, scenario.Parameters, r.engineOptions...)

	switch {
	case scenario.Expect.IsFailure():
		result.Status, result.Message = expectFailure(scenario.Expect, d, err)
	case err != nil:
		result.Status, result.Message = StatusError, err.Error()
	default:
		result.Checks = r.runChecks(ctx, logger, dibi.New(d))
		result.Status = StatusSuccess
		for _, c := range result.Checks {
			result.Status = result.Status.worse(c.Status)
		}
	}

	result.DurationMS = float64(time.Since(start).Microseconds()) / 1000

	logger.Info("scenario finished", "status", result.Status, "duration_ms", result.DurationMS)

	return result
}

func expectFailure(expect fixture.Outcome, d dibi.Driver, err error) (Status, string) {
	if err == nil {
		_ = d.Close()
		return StatusFailure, fmt.Sprintf("%s not raised", expect)
	}

	if !expect.Matches(err) {
		kind := dibi.KindName(err)
		if kind == "" {
			kind = "unclassified error"
		}
		return StatusFailure, fmt.Sprintf("expected %s, got %s: %v", expect, kind, err)
	}

	return StatusSuccess, ""
}

// runChecks runs every check against a freshly opened driver and closes it afterwards.
// A leftover table of an earlier run is dropped first.
func (r *Runner) runChecks(ctx context.Context, logger *slog.Logger, db *dibi.DB) []CheckResult {
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn("closing backend failed", "error", err)
		}
	}()

	if err := db.Driver().DropTable(ctx, TableName, true); err != nil {
		logger.Warn("dropping leftover table failed", "error", err)
	}

	results := make([]CheckResult, 0, len(checks))
	for _, c := range checks {
		checkLogger := logger.With("check", c.name)

		s, message := status(c.run(ctx, db))
		results = append(results, CheckResult{Name: c.name, Status: s, Message: message})

		if s == StatusSuccess {
			checkLogger.Debug("check passed")
		} else {
			checkLogger.Error("check did not pass", "status", s, "message", message)
		}
	}

	return results
}
