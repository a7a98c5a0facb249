package fixture

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/orbnauticus/dibi-go/dibi/driver"
)

// KeyRaises names the expected failure of a section.
const KeyRaises = "this raises"

// DefaultPaths are searched by Load when no path is given.
var DefaultPaths = []string{"test/test_parameters.conf", "test_parameters.conf"}

var (
	ErrUnknownOutcome   = errors.New("unknown expected outcome")
	ErrMalformedFixture = errors.New("malformed fixture")
	ErrNoFixtureFile    = errors.New("no readable fixture file")
)

// loadOptions keep values verbatim: no inline comments, no quote stripping and no line continuation.
var loadOptions = ini.LoadOptions{
	IgnoreInlineComment:     true,
	InsensitiveKeys:         true,
	AllowBooleanKeys:        true,
	KeyValueDelimiters:      "=:",
	PreserveSurroundedQuote: true,
	IgnoreContinuation:      true,
}

// Scenario is one way of opening a backend together with its expected outcome.
type Scenario struct {
	Backend    string
	Variant    string
	Parameters driver.Parameters
	Expect     Outcome
}

// Name returns "backend(variant)", or just the backend for the default scenario.
func (s Scenario) Name() string {
	if s.Variant == "" {
		return s.Backend
	}

	return s.Backend + "(" + s.Variant + ")"
}

// Fixture holds the scenarios of a parsed fixture file.
type Fixture struct {
	backends  []string
	scenarios map[string][]Scenario
}

// Load parses the first readable file of paths, or of DefaultPaths when none are given.
func Load(paths ...string) (*Fixture, error) {
	if len(paths) == 0 {
		paths = DefaultPaths
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		f, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}

		return f, nil
	}

	return nil, fmt.Errorf("%w: tried %s", ErrNoFixtureFile, strings.Join(paths, ", "))
}

type section struct {
	backend string
	variant string
	values  map[string]string
}

// Parse reads fixture data.
func Parse(data []byte) (*Fixture, error) {
	file, err := ini.LoadSources(loadOptions, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedFixture, err)
	}

	defaults := file.Section(ini.DefaultSection).KeysHash()

	f := &Fixture{scenarios: make(map[string][]Scenario)}
	bases := make(map[string]map[string]string)
	var variants []section

	for _, sec := range file.Sections() {
		if sec.Name() == ini.DefaultSection {
			continue
		}

		backend, variant, _ := strings.Cut(sec.Name(), ":")
		if backend == "" {
			return nil, fmt.Errorf("%w: section [%s] names no backend", ErrMalformedFixture, sec.Name())
		}

		if !slices.Contains(f.backends, backend) {
			f.backends = append(f.backends, backend)
		}

		if variant == "" {
			bases[backend] = sec.KeysHash()
			continue
		}

		variants = append(variants, section{backend: backend, variant: variant, values: sec.KeysHash()})
	}

	for _, backend := range f.backends {
		base, ok := bases[backend]
		if !ok {
			continue
		}

		scenario, err := newScenario(backend, "", defaults, base, nil)
		if err != nil {
			return nil, err
		}
		scenarios := []Scenario{scenario}

		for _, v := range variants {
			if v.backend != backend {
				continue
			}

			scenario, err := newScenario(backend, v.variant, defaults, base, v.values)
			if err != nil {
				return nil, err
			}
			scenarios = append(scenarios, scenario)
		}

		slices.SortStableFunc(scenarios, func(a, b Scenario) int {
			return strings.Compare(a.Variant, b.Variant)
		})

		f.scenarios[backend] = scenarios
	}

	return f, nil
}

// newScenario merges the layers in order. The expected outcome is taken from the merged
// parameters, so a variant inherits the outcome declared by its base section.
func newScenario(backend, variant string, layers ...map[string]string) (Scenario, error) {
	params := make(driver.Parameters)
	for _, layer := range layers {
		maps.Copy(params, layer)
	}

	expect := OutcomeSuccess
	if raises, ok := params[KeyRaises]; ok {
		delete(params, KeyRaises)

		outcome, err := ParseOutcome(strings.TrimSpace(raises))
		if err != nil {
			return Scenario{}, fmt.Errorf("section [%s]: %w", sectionName(backend, variant), err)
		}
		expect = outcome
	}

	return Scenario{Backend: backend, Variant: variant, Parameters: params, Expect: expect}, nil
}

func sectionName(backend, variant string) string {
	if variant == "" {
		return backend
	}

	return backend + ":" + variant
}

// Backends returns the backend names in order of first appearance.
func (f *Fixture) Backends() []string {
	return slices.Clone(f.backends)
}

// Scenarios returns the default scenario of backend followed by its variants sorted by name.
// It is empty when the backend has no unqualified section.
func (f *Fixture) Scenarios(backend string) []Scenario {
	scenarios := f.scenarios[backend]
	out := make([]Scenario, len(scenarios))
	for i, s := range scenarios {
		out[i] = s
		out[i].Parameters = s.Parameters.Clone()
	}

	return out
}

// AllScenarios returns the scenarios of every backend, backend by backend.
func (f *Fixture) AllScenarios() []Scenario {
	var all []Scenario
	for _, backend := range f.backends {
		all = append(all, f.Scenarios(backend)...)
	}

	return all
}
