package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/comboseq/internal/ir"
)

// goldenDir holds the package's own golden traces.
const goldenDir = "testdata/golden"

// snapshot is the golden form of a run. Elapsed time is left out: it only
// restates the scenario's dt values and adds float noise.
type snapshot struct {
	ScenarioName string        `json:"scenario_name"`
	SessionID    string        `json:"session_id,omitempty"`
	Trace        []goldenEvent `json:"trace"`
	Active       []int         `json:"active"`
}

type goldenEvent struct {
	Frame        int64            `json:"frame"`
	Phase        ir.EventPhase    `json:"phase"`
	EventClass   ir.EventClass    `json:"event_class"`
	Index        int              `json:"index"`
	Object       any              `json:"object,omitempty"`
	Context      string           `json:"context,omitempty"`
	ResetSources []ir.ResetSource `json:"reset_sources,omitempty"`
}

// MarshalSnapshot renders a result as canonical golden JSON.
func MarshalSnapshot(scenarioName string, result *Result) ([]byte, error) {
	snap := snapshot{
		ScenarioName: scenarioName,
		SessionID:    result.SessionID,
		Trace:        make([]goldenEvent, len(result.Trace)),
		Active:       append([]int{}, result.Active...),
	}
	for i, ev := range result.Trace {
		snap.Trace[i] = goldenEvent{
			Frame:        ev.Frame,
			Phase:        ev.Phase,
			EventClass:   ev.EventClass,
			Index:        ev.Index,
			Object:       ev.Object,
			Context:      ev.Context,
			ResetSources: ev.ResetSources,
		}
	}
	return ir.MarshalCanonical(snap)
}

// WriteGolden stores the result's snapshot at path, creating its directory.
func WriteGolden(path, scenarioName string, result *Result) error {
	data, err := MarshalSnapshot(scenarioName, result)
	if err != nil {
		return fmt.Errorf("golden %s: %w", scenarioName, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("golden %s: %w", scenarioName, err)
	}
	return os.WriteFile(path, data, 0o644)
}

// MatchGolden reports whether the snapshot stored at path equals the
// result's snapshot byte for byte.
func MatchGolden(path, scenarioName string, result *Result) (bool, error) {
	want, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("golden %s: %w", scenarioName, err)
	}
	got, err := MarshalSnapshot(scenarioName, result)
	if err != nil {
		return false, fmt.Errorf("golden %s: %w", scenarioName, err)
	}
	return bytes.Equal(want, got), nil
}

// RunWithGolden runs a scenario and checks its trace against
// testdata/golden/<name>.golden. Pass -update to rewrite the file.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()
	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden checks an existing result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()
	data, err := MarshalSnapshot(scenarioName, result)
	if err != nil {
		return err
	}
	goldie.New(t,
		goldie.WithFixtureDir(goldenDir),
		goldie.WithNameSuffix(".golden"),
	).Assert(t, scenarioName, data)
	return nil
}
