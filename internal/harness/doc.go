// Package harness provides conformance testing for input sequence assets.
//
// The harness loads a compiled asset, feeds it a scripted list of input
// frames through a recording engine, and checks the emitted calls against
// assertions and golden traces.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	asset: ../assets/hadouken.cue
//	asset_name: hadouken        # optional when the file holds one asset
//	reset_scope: branch         # optional override
//	frames:
//	  - dt: 0.016
//	    actions: { Down: pressed }
//	  - dt: 0.016
//	    axes: { lx: 0.8 }
//	  - dt: 0
//	    resets: [{ object: menu, context: pause }]
//	assertions:
//	  - type: event_contains
//	    class: hadouken.pass
//	  - type: event_order
//	    classes: [down.enter, forward.enter, hadouken.pass]
//	  - type: event_count
//	    class: down.reset
//	    count: 0
//	  - type: active_states
//	    states: [1]
//	  - type: expr
//	    expr: 'count(events, {.phase == "pass"}) == 3'
//
// # Assertion Types
//
//   - event_contains: A call with the class (and optional phase, index or frame) was emitted
//   - event_order: Classes appear in the given order (not necessarily adjacent)
//   - event_count: A class was emitted exactly N times
//   - active_states: The active set after the last frame, in insertion order
//   - expr: A boolean expr-lang expression over events, active and frames
//
// # Deterministic Testing
//
// Every scenario runs against a fresh in-memory SQLite store with a fixed
// session ID, and the recorded session is replayed before assertions run.
// A replay whose calls differ from the recording fails the scenario.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/press_release.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
