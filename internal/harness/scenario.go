package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/telomere/internal/config"
	"github.com/roach88/telomere/internal/engine"
)

// Scenario is a scripted engine session.
type Scenario struct {
	// Name identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario checks.
	Description string `yaml:"description"`

	// Config holds the engine settings. Seed defaults to 1.
	Config config.Config `yaml:"config,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Assertions are evaluated after the last step.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one scenario action. Exactly one of Send, AdvanceMs, Drain and
// Expect is set.
type Step struct {
	// Send is a message line such as "euclid 3 8" or "bang".
	Send string `yaml:"send,omitempty"`

	// Error is the error code Send must fail with.
	Error string `yaml:"error,omitempty"`

	// AdvanceMs moves the clock forward, running due callbacks.
	AdvanceMs *float64 `yaml:"advance_ms,omitempty"`

	// Drain runs up to this many pending callbacks, moving the clock to
	// each one's due time.
	Drain *int `yaml:"drain,omitempty"`

	// Expect checks engine state at this point.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause lists state to check. Unset fields are not checked.
type ExpectClause struct {
	// Count is the last value sent to the count outlet.
	Count *int `yaml:"count,omitempty"`

	// Pattern is compared position by position within 1e-6.
	Pattern *[]float64 `yaml:"pattern,omitempty"`

	// State is idle, recording or playing.
	State string `yaml:"state,omitempty"`

	Recording *bool    `yaml:"recording,omitempty"`
	Tempo     *float64 `yaml:"tempo,omitempty"`
	Grid      *int     `yaml:"grid,omitempty"`

	// Pending is the number of scheduled callbacks.
	Pending *int `yaml:"pending,omitempty"`
}

// Assertion validates the trace or the journal.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Kind is the outlet (trace_contains, trace_count, journal_count).
	Kind engine.OutletKind `yaml:"kind,omitempty"`

	// Value narrows trace_contains to events with this value.
	Value *float64 `yaml:"value,omitempty"`

	// Count is the expected number of events.
	Count int `yaml:"count,omitempty"`

	// Kinds is the expected order (trace_order).
	Kinds []engine.OutletKind `yaml:"kinds,omitempty"`

	// Expect is checked against the final state (final_state).
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertJournalCount  = "journal_count"
	AssertFinalState    = "final_state"
)

var validStates = map[string]bool{
	engine.StateIdle.String():      true,
	engine.StateRecording.String(): true,
	engine.StatePlaying.String():   true,
}

var validKinds = map[engine.OutletKind]bool{
	engine.KindPosition: true,
	engine.KindBang:     true,
	engine.KindCount:    true,
	engine.KindStatus:   true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict decoding catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.Validate("config", &scenario.Config); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadDir loads every *.yaml scenario in dir, sorted by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if strings.ContainsAny(s.Name, `/\`) {
		return fmt.Errorf("name %q must not contain path separators", s.Name)
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, s *Step) error {
	set := 0
	if s.Send != "" {
		set++
	}
	if s.AdvanceMs != nil {
		set++
		if *s.AdvanceMs < 0 {
			return fmt.Errorf("steps[%d]: advance_ms must be non-negative", index)
		}
	}
	if s.Drain != nil {
		set++
		if *s.Drain <= 0 {
			return fmt.Errorf("steps[%d]: drain must be positive", index)
		}
	}
	if s.Expect != nil {
		set++
		if err := validateExpect(s.Expect); err != nil {
			return fmt.Errorf("steps[%d].expect: %w", index, err)
		}
	}

	if set != 1 {
		return fmt.Errorf("steps[%d]: exactly one of send, advance_ms, drain, expect is required", index)
	}
	if s.Error != "" && s.Send == "" {
		return fmt.Errorf("steps[%d]: error is only valid with send", index)
	}
	return nil
}

func validateExpect(e *ExpectClause) error {
	if e.State != "" && !validStates[e.State] {
		return fmt.Errorf("unknown state %q", e.State)
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains, AssertTraceCount, AssertJournalCount:
		if !validKinds[a.Kind] {
			return fmt.Errorf("assertions[%d]: %s requires a valid kind, got %q", index, a.Type, a.Kind)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertTraceOrder:
		if len(a.Kinds) == 0 {
			return fmt.Errorf("assertions[%d]: kinds list is required for trace_order", index)
		}
		for _, k := range a.Kinds {
			if !validKinds[k] {
				return fmt.Errorf("assertions[%d]: unknown kind %q", index, k)
			}
		}
	case AssertFinalState:
		if a.Expect == nil {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
		if err := validateExpect(a.Expect); err != nil {
			return fmt.Errorf("assertions[%d].expect: %w", index, err)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
