package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/comboseq/internal/engine"
	"github.com/roach88/comboseq/internal/ir"
)

// Scenario defines a conformance test scenario: an asset, a scripted list
// of input frames and assertions over the emitted calls.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Asset is the path to a .cue file or directory holding the asset.
	// Relative paths are resolved against the scenario file location.
	Asset string `yaml:"asset"`

	// AssetName selects one asset when the path defines several.
	AssetName string `yaml:"asset_name,omitempty"`

	// ResetScope overrides the asset's reset scope ("branch" or "node").
	ResetScope string `yaml:"reset_scope,omitempty"`

	// Session is an optional fixed session ID.
	// If empty, defaults to "test-session" for deterministic golden comparison.
	Session string `yaml:"session,omitempty"`

	// Frames are fed to the engine in order.
	Frames []ir.Frame `yaml:"frames"`

	// Assertions validate the final trace and active set.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates the trace or the final active set.
type Assertion struct {
	// Type specifies the assertion type:
	// - "event_contains": Check a call with Class (and Phase/Index/Frame if set) exists
	// - "event_order": Check Classes appear in order
	// - "event_count": Check Class appears exactly Count times
	// - "active_states": Check the final active set equals States
	// - "expr": Evaluate Expr against the trace
	Type string `yaml:"type"`

	// Class is the event class (used by event_contains, event_count).
	Class string `yaml:"class,omitempty"`

	// Phase optionally narrows event_contains to enter, pass or reset.
	Phase string `yaml:"phase,omitempty"`

	// Index optionally narrows event_contains to one state.
	Index *int `yaml:"index,omitempty"`

	// Frame optionally narrows event_contains to one frame (1-based).
	Frame int64 `yaml:"frame,omitempty"`

	// Classes is the expected class order (used by event_order).
	Classes []string `yaml:"classes,omitempty"`

	// Count is the expected number of occurrences (used by event_count).
	Count int `yaml:"count,omitempty"`

	// States is the expected active set (used by active_states).
	States []int `yaml:"states,omitempty"`

	// Expr is an expr-lang boolean expression (used by expr).
	Expr string `yaml:"expr,omitempty"`
}

// Assertion type constants.
const (
	AssertEventContains = "event_contains"
	AssertEventOrder    = "event_order"
	AssertEventCount    = "event_count"
	AssertActiveStates  = "active_states"
	AssertExpr          = "expr"
)

// LoadScenario reads and parses a scenario YAML file. The asset path is
// resolved relative to the scenario file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the asset path relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	// Resolve asset path relative to base path BEFORE validation
	if scenario.Asset != "" && !filepath.IsAbs(scenario.Asset) && basePath != "" {
		scenario.Asset = filepath.Join(basePath, scenario.Asset)
	}

	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	if _, err := os.Stat(scenario.Asset); os.IsNotExist(err) {
		return nil, fmt.Errorf("invalid scenario: asset not found: %s", scenario.Asset)
	}

	return scenario, nil
}

// ParseScenario decodes scenario YAML without touching the filesystem.
func ParseScenario(data []byte) (*Scenario, error) {
	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Asset == "" {
		return fmt.Errorf("asset is required")
	}

	if err := engine.ValidateResetScope(s.ResetScope); err != nil {
		return fmt.Errorf("reset_scope: %w", err)
	}

	if len(s.Frames) == 0 {
		return fmt.Errorf("frames list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, f := range s.Frames {
		if f.DeltaTime < 0 {
			return fmt.Errorf("frames[%d]: dt must be non-negative", i)
		}
		for name, ev := range f.Actions {
			if !ev.Valid() {
				return fmt.Errorf("frames[%d].actions.%s: unknown event %q", i, name, ev)
			}
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertEventContains:
		if a.Class == "" {
			return fmt.Errorf("assertions[%d]: class is required for event_contains", index)
		}
		switch ir.EventPhase(a.Phase) {
		case "", ir.PhaseEnter, ir.PhasePass, ir.PhaseReset:
		default:
			return fmt.Errorf("assertions[%d]: unknown phase %q", index, a.Phase)
		}
	case AssertEventOrder:
		if len(a.Classes) == 0 {
			return fmt.Errorf("assertions[%d]: classes list is required for event_order", index)
		}
	case AssertEventCount:
		if a.Class == "" {
			return fmt.Errorf("assertions[%d]: class is required for event_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for event_count", index)
		}
	case AssertActiveStates:
		// An empty list asserts that nothing is active.
	case AssertExpr:
		if a.Expr == "" {
			return fmt.Errorf("assertions[%d]: expr is required for expr", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
