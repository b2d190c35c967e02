package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/comboseq/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update    bool   // regenerate golden files
	Filter    string // scenario filter (glob pattern)
	GoldenDir string // golden file directory (default: <scenario dir>/golden)
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios>...",
		Short: "Run conformance harness",
		Long: `Run conformance scenarios using the harness framework.

Each argument is a scenario file or a directory searched for .yaml files.
Scenarios feed scripted frames through their asset, verify the recorded
session replays identically and check assertions over the emitted calls.
When a golden file exists the trace must also match it.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  comboseq test ./scenarios
  comboseq test ./scenarios --filter "hadouken*"
  comboseq test ./scenarios --update
  comboseq test ./scenarios/press_release.yaml --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	cmd.Flags().StringVar(&opts.GoldenDir, "golden-dir", "", "golden file directory (default: <scenario dir>/golden)")

	return cmd
}

func runTests(opts *TestOptions, paths []string, cmd *cobra.Command) error {
	files, err := collectScenarios(paths, opts.Filter)
	if err != nil {
		return err
	}

	result := TestResult{Scenarios: make([]ScenarioResult, 0, len(files)), Total: len(files)}
	if len(files) == 0 {
		if opts.Format == "json" {
			return outputTestJSON(cmd, result)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No scenarios found.")
		return nil
	}

	for _, file := range files {
		sr, note := checkScenario(file, opts)
		if opts.Format != "json" {
			printScenario(cmd.OutOrStdout(), sr, note)
		}
		result.Scenarios = append(result.Scenarios, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if opts.Format == "json" {
		return outputTestJSON(cmd, result)
	}
	return outputTestText(cmd, result)
}

// collectScenarios expands the arguments into scenario files. Files named
// directly are always kept; the filter applies to directory walks.
func collectScenarios(paths []string, filter string) ([]string, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("scenario path not found: %s", path))
		case err != nil:
			return nil, WrapExitError(ExitCommandError, "failed to access scenarios", err)
		case !info.IsDir():
			files = append(files, path)
			continue
		}
		found, err := findScenarioFiles(path, filter)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to find scenarios", err)
		}
		files = append(files, found...)
	}
	return files, nil
}

// findScenarioFiles walks dir for .yaml and .yml files whose base name
// matches the glob filter.
func findScenarioFiles(dir, filter string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			ok, err := filepath.Match(filter, strings.TrimSuffix(d.Name(), ext))
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !ok {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

// checkScenario runs one scenario file. The note, when set, is printed
// under the scenario line in text mode instead of the errors.
func checkScenario(file string, opts *TestOptions) (ScenarioResult, string) {
	scenario, err := harness.LoadScenario(file)
	if err != nil {
		sr := failed(filepath.Base(file), fmt.Sprintf("failed to load scenario: %v", err))
		return sr, fmt.Sprintf("Load error: %v", err)
	}

	result, err := harness.Run(scenario)
	if err != nil {
		return failed(scenario.Name, fmt.Sprintf("execution failed: %v", err)),
			fmt.Sprintf("Execution error: %v", err)
	}

	golden := goldenFilePath(opts, file, scenario.Name)
	if opts.Update {
		if err := harness.WriteGolden(golden, scenario.Name, result); err != nil {
			return failed(scenario.Name, fmt.Sprintf("failed to update golden file: %v", err)),
				fmt.Sprintf("Golden update error: %v", err)
		}
		return ScenarioResult{Name: scenario.Name, Pass: true}, "golden updated"
	}

	if _, err := os.Stat(golden); err == nil {
		match, err := harness.MatchGolden(golden, scenario.Name, result)
		if err != nil {
			return failed(scenario.Name, fmt.Sprintf("golden comparison failed: %v", err)),
				fmt.Sprintf("Golden comparison error: %v", err)
		}
		if !match {
			return failed(scenario.Name, "trace does not match golden file"),
				"Golden file mismatch (run with --update to regenerate)"
		}
	}

	if !result.Pass {
		return failed(scenario.Name, result.Errors...), ""
	}
	return ScenarioResult{Name: scenario.Name, Pass: true}, ""
}

func failed(name string, errs ...string) ScenarioResult {
	return ScenarioResult{Name: name, Errors: errs}
}

func printScenario(w io.Writer, sr ScenarioResult, note string) {
	switch {
	case sr.Pass && note != "":
		fmt.Fprintf(w, "✓ %s (%s)\n", sr.Name, note)
	case sr.Pass:
		fmt.Fprintf(w, "✓ %s\n", sr.Name)
	case note != "":
		fmt.Fprintf(w, "✗ %s\n  %s\n", sr.Name, note)
	default:
		fmt.Fprintf(w, "✗ %s\n", sr.Name)
		for _, e := range sr.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}
}

// goldenFilePath returns where a scenario's golden trace lives:
// <golden-dir>/<name>.golden, defaulting to a golden/ directory beside the
// scenario file.
func goldenFilePath(opts *TestOptions, scenarioFile, name string) string {
	dir := opts.GoldenDir
	if dir == "" {
		dir = filepath.Join(filepath.Dir(scenarioFile), "golden")
	}
	return filepath.Join(dir, name+".golden")
}

// outputTestJSON writes the run summary; any failed scenario fails the command.
func outputTestJSON(cmd *cobra.Command, result TestResult) error {
	f := &OutputFormatter{Format: "json", Writer: cmd.OutOrStdout()}
	if result.Failed == 0 {
		return f.Success(result)
	}
	msg := fmt.Sprintf("%d scenario(s) failed", result.Failed)
	if err := f.Fail("E_TEST_FAILED", msg, result); err != nil {
		return err
	}
	return NewExitError(ExitFailure, msg)
}

// outputTestText outputs the test result as text.
func outputTestText(cmd *cobra.Command, result TestResult) error {
	w := cmd.OutOrStdout()

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}

	fmt.Fprintln(w, "✓ All scenarios passed")
	return nil
}
