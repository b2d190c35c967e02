// Package harness provides a conformance testing framework for input
// sequence assets.
package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/comboseq/internal/compiler"
	"github.com/roach88/comboseq/internal/engine"
	"github.com/roach88/comboseq/internal/ir"
	"github.com/roach88/comboseq/internal/store"
	"github.com/roach88/comboseq/internal/testutil"
)

// Harness is the test execution engine.
// It runs one scenario with a deterministic frame clock and session ID.
type Harness struct {
	store    *store.Store
	engine   *engine.Engine
	recorder *store.Recorder
	clock    *testutil.FrameClock
	logger   *slog.Logger
}

// Run loads the scenario's asset and executes the scenario.
func Run(scenario *Scenario) (*Result, error) {
	asset, err := LoadScenarioAsset(scenario)
	if err != nil {
		return nil, err
	}
	return RunAsset(scenario, asset)
}

// LoadScenarioAsset compiles and validates the asset a scenario refers to.
func LoadScenarioAsset(scenario *Scenario) (*ir.Asset, error) {
	loaded, errs := compiler.LoadAssets(scenario.Asset, compiler.LoadModeFailFast)
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to load asset: %w", errs[0])
	}

	var asset *ir.Asset
	switch {
	case scenario.AssetName != "":
		asset = loaded.Asset(scenario.AssetName)
		if asset == nil {
			return nil, fmt.Errorf("asset %q not found in %s", scenario.AssetName, scenario.Asset)
		}
	case len(loaded.Assets) == 1:
		asset = loaded.Assets[0]
	default:
		return nil, fmt.Errorf("%s defines %d assets: set asset_name", scenario.Asset, len(loaded.Assets))
	}

	if verrs := compiler.Validate(asset); len(verrs) > 0 {
		return nil, fmt.Errorf("asset %s is invalid: %w", asset.Name, verrs[0])
	}
	return asset, nil
}

// RunAsset executes a scenario against an already compiled asset.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory database and a recording engine
// 2. Feed every frame, collecting the trace
// 3. Replay the recorded session and fail on any digest mismatch
// 4. Evaluate assertions
func RunAsset(scenario *Scenario, asset *ir.Asset) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	opts := []engine.EngineOption{engine.WithLogger(logger)}
	if scenario.ResetScope != "" {
		opts = append(opts, engine.WithResetScope(engine.ResetScope(scenario.ResetScope)))
	}
	eng := engine.New(asset, opts...)

	ctx := context.Background()
	rec, err := store.NewRecorder(ctx, st, eng, asset, testutil.NewFixedSessionGenerator(scenario.Session))
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	h := &Harness{
		store:    st,
		engine:   eng,
		recorder: rec,
		clock:    testutil.NewFrameClock(0),
		logger:   logger,
	}

	result := NewResult()
	result.SessionID = rec.Session().ID
	if err := h.executeFrames(ctx, scenario.Frames, result); err != nil {
		return nil, fmt.Errorf("failed to execute frames: %w", err)
	}

	if err := h.verifyReplay(ctx, asset, result); err != nil {
		return nil, err
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

func (h *Harness) executeFrames(ctx context.Context, frames []ir.Frame, result *Result) error {
	for i, f := range frames {
		_, dt := h.clock.Next(f.DeltaTime)
		f.DeltaTime = dt

		calls, _, err := h.recorder.Apply(ctx, f)
		if err != nil {
			return fmt.Errorf("frame %d: %w", i+1, err)
		}
		result.AddCalls(h.engine.Frame(), h.clock.Elapsed(), calls)
	}

	result.Frames = len(frames)
	result.Active = h.engine.ActiveIndices()
	if result.Active == nil {
		result.Active = []int{}
	}
	return nil
}

// verifyReplay re-runs the recorded session on a fresh engine.
func (h *Harness) verifyReplay(ctx context.Context, asset *ir.Asset, result *Result) error {
	replay, err := h.store.ReplaySession(ctx, result.SessionID, asset, engine.WithLogger(h.logger))
	if err != nil {
		return fmt.Errorf("failed to replay session: %w", err)
	}
	if !replay.Deterministic() {
		result.AddError(fmt.Sprintf("replay diverged from recording at frames %v", replay.Mismatches))
	}
	return nil
}
