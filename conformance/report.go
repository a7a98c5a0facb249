package conformance

import (
	"fmt"
	"io"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"
)

// Status is the result of a scenario or a check.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	StatusError   Status = "error"
)

// Exit codes of a run.
const (
	ExitSuccess  = 0
	ExitFailures = 1
	ExitErrors   = 2
)

// Report formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

func (s Status) worse(other Status) Status {
	rank := map[Status]int{StatusSuccess: 0, StatusFailure: 1, StatusError: 2}
	if rank[other] > rank[s] {
		return other
	}

	return s
}

// CheckResult is the outcome of one check of a scenario.
type CheckResult struct {
	Name    string `json:"name" yaml:"name"`
	Status  Status `json:"status" yaml:"status"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

// Result is the outcome of one scenario.
type Result struct {
	Scenario   string        `json:"scenario" yaml:"scenario"`
	Backend    string        `json:"backend" yaml:"backend"`
	Variant    string        `json:"variant,omitempty" yaml:"variant,omitempty"`
	Expect     string        `json:"expect" yaml:"expect"`
	Status     Status        `json:"status" yaml:"status"`
	Message    string        `json:"message,omitempty" yaml:"message,omitempty"`
	DurationMS float64       `json:"duration_ms" yaml:"duration_ms"`
	Checks     []CheckResult `json:"checks,omitempty" yaml:"checks,omitempty"`
}

// Summary counts the scenarios by status.
type Summary struct {
	Total     int `json:"total" yaml:"total"`
	Succeeded int `json:"succeeded" yaml:"succeeded"`
	Failed    int `json:"failed" yaml:"failed"`
	Errors    int `json:"errors" yaml:"errors"`
}

// Report collects the results of a run in scenario order.
type Report struct {
	Name    string   `json:"name" yaml:"name"`
	Results []Result `json:"results" yaml:"results"`
}

// Summary counts the results by status.
func (r *Report) Summary() Summary {
	s := Summary{Total: len(r.Results)}
	for _, result := range r.Results {
		switch result.Status {
		case StatusSuccess:
			s.Succeeded++
		case StatusFailure:
			s.Failed++
		case StatusError:
			s.Errors++
		}
	}

	return s
}

// ExitCode returns ExitErrors if any result errored, ExitFailures if any failed and ExitSuccess otherwise.
func (r *Report) ExitCode() int {
	s := r.Summary()

	switch {
	case s.Errors > 0:
		return ExitErrors
	case s.Failed > 0:
		return ExitFailures
	default:
		return ExitSuccess
	}
}

// Write renders the report in format.
func (r *Report) Write(w io.Writer, format string) error {
	switch strings.ToLower(format) {
	case "", FormatText:
		return r.WriteText(w)
	case FormatJSON:
		return r.WriteJSON(w)
	case FormatYAML:
		return r.WriteYAML(w)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// WriteText renders a human readable report.
func (r *Report) WriteText(w io.Writer) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s conformance\n", r.Name)

	for _, result := range r.Results {
		fmt.Fprintf(&b, "%s: %s", result.Scenario, result.Status)
		if result.Expect != "" && result.Expect != "success" {
			fmt.Fprintf(&b, " (expected %s)", result.Expect)
		}
		if result.Message != "" {
			fmt.Fprintf(&b, ": %s", result.Message)
		}
		b.WriteString("\n")

		for _, check := range result.Checks {
			fmt.Fprintf(&b, "  %s: %s", check.Name, check.Status)
			if check.Message != "" {
				fmt.Fprintf(&b, ": %s", check.Message)
			}
			b.WriteString("\n")
		}
	}

	s := r.Summary()
	fmt.Fprintf(&b, "%d scenarios: %d succeeded, %d failed, %d errors\n", s.Total, s.Succeeded, s.Failed, s.Errors)

	_, err := io.WriteString(w, b.String())

	return err
}

type reportDocument struct {
	Name     string   `json:"name" yaml:"name"`
	Results  []Result `json:"results" yaml:"results"`
	Summary  Summary  `json:"summary" yaml:"summary"`
	ExitCode int      `json:"exit_code" yaml:"exit_code"`
}

func (r *Report) document() reportDocument {
	return reportDocument{Name: r.Name, Results: r.Results, Summary: r.Summary(), ExitCode: r.ExitCode()}
}

// WriteJSON renders the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	data, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(r.document(), "", "  ")
	if err != nil {
		return err
	}

	_, err = w.Write(append(data, '\n'))

	return err
}

// WriteYAML renders the report as YAML.
func (r *Report) WriteYAML(w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)

	if err := encoder.Encode(r.document()); err != nil {
		return err
	}

	return encoder.Close()
}
