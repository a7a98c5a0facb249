package cli

import (
	"github.com/spf13/cobra"

	"github.com/orbnauticus/dibi-go/conformance"
	"github.com/orbnauticus/dibi-go/dibi/sqlengine"
	"github.com/orbnauticus/dibi-go/fixture"
	"github.com/orbnauticus/dibi-go/internal/logging"
)

type runFlags struct {
	configFile  string
	fixtures    []string
	backends    []string
	parallelism int
	format      string
}

func newRunCommand() *cobra.Command {
	flags := runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the fixture scenarios against the registered backends",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.resolve(cmd)
			if err != nil {
				return err
			}

			f, err := fixture.Load(cfg.Fixtures...)
			if err != nil {
				return configError("loading fixture", err)
			}

			options := []conformance.Option{
				conformance.WithParallelism(cfg.Parallelism),
				conformance.WithLogger(logging.Logger),
				conformance.WithEngineOptions(sqlengine.WithLogger(logging.Logger)),
			}
			if len(cfg.Backends) > 0 {
				options = append(options, conformance.WithBackends(cfg.Backends...))
			}

			runner, err := conformance.NewRunner(f, options...)
			if err != nil {
				return configError("configuring runner", err)
			}

			report, err := runner.Run(cmd.Context())
			if err != nil {
				return &ExitError{Code: conformance.ExitErrors, Message: "run interrupted", Cause: err}
			}

			if err := report.Write(cmd.OutOrStdout(), cfg.Format); err != nil {
				return configError("writing report", err)
			}

			if code := report.ExitCode(); code != conformance.ExitSuccess {
				return &ExitError{Code: code, Message: "conformance run did not pass"}
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&flags.configFile, "config-file", "", "TOML run configuration")
	cmd.Flags().StringSliceVarP(&flags.fixtures, "fixture", "f", nil, "Fixture files, the first readable one is used")
	cmd.Flags().StringSliceVarP(&flags.backends, "backend", "b", nil, "Run only these backends")
	cmd.Flags().IntVarP(&flags.parallelism, "parallelism", "p", 1, "Number of scenarios run at the same time")
	cmd.Flags().StringVar(&flags.format, "format", conformance.FormatText, "Report format: text, json or yaml")

	return cmd
}

// resolve merges the configuration file with the flags. Flags that were set win.
func (f runFlags) resolve(cmd *cobra.Command) (RunConfig, error) {
	cfg := RunConfig{Parallelism: 1, Format: conformance.FormatText}

	if f.configFile != "" {
		fileCfg, err := LoadRunConfig(f.configFile)
		if err != nil {
			return RunConfig{}, err
		}

		cfg.Fixtures = fileCfg.Fixtures
		cfg.Backends = fileCfg.Backends
		if fileCfg.Parallelism > 0 {
			cfg.Parallelism = fileCfg.Parallelism
		}
		if fileCfg.Format != "" {
			cfg.Format = fileCfg.Format
		}
	}

	if cmd.Flags().Changed("fixture") {
		cfg.Fixtures = f.fixtures
	}
	if cmd.Flags().Changed("backend") {
		cfg.Backends = f.backends
	}
	if cmd.Flags().Changed("parallelism") {
		cfg.Parallelism = f.parallelism
	}
	if cmd.Flags().Changed("format") {
		cfg.Format = f.format
	}

	switch cfg.Format {
	case conformance.FormatText, conformance.FormatJSON, conformance.FormatYAML:
	default:
		return RunConfig{}, configError("unknown report format "+cfg.Format, nil)
	}

	return cfg, nil
}
