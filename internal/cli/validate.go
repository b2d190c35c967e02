package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/comboseq/internal/compiler"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Strict bool // treat pass-through warnings as errors
}

// AssetReport holds validation results for one asset.
type AssetReport struct {
	Name     string                     `json:"name"`
	States   int                        `json:"states"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
	Warnings []compiler.CycleWarning    `json:"warnings,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid      bool                       `json:"valid"`
	Assets     []AssetReport              `json:"assets"`
	LoadErrors []compiler.ValidationError `json:"load_errors,omitempty"`
}

// errorCount is the number of errors across load and assets.
func (r *ValidationResult) errorCount() int {
	n := len(r.LoadErrors)
	for _, a := range r.Assets {
		n += len(a.Errors)
	}
	return n
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <asset-path>",
		Short: "Validate sequence assets",
		Long: `Compile and validate every asset in a .cue file or directory.

Reports structural errors (dangling indices, bad parents, inconsistent
action kinds, unknown events) and warns about loops of empty input
states, which pass straight through on entry.

Exit codes:
  0 - All assets valid
  1 - Validation failed
  2 - Command error (path not found, CUE syntax error, etc.)

Examples:
  comboseq validate ./assets
  comboseq validate ./assets/hadouken.cue --format json
  comboseq validate ./assets --strict`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail on pass-through loop warnings")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	// Collect every compile error so one run reports all broken assets
	loadResult, loadErrors := compiler.LoadAssets(path, compiler.LoadModeCollectAll)

	// Handle load errors (path not found, no files, CUE syntax, etc.)
	if loadResult == nil && len(loadErrors) > 0 {
		return outputValidateError(formatter, loadErrorCode(loadErrors[0]), loadErrors[0].Error(), nil)
	}

	formatter.Verbosef("Found %d CUE file(s) in %s", loadResult.FileCount, path)

	result := ValidationResult{Valid: true, Assets: make([]AssetReport, 0, len(loadResult.Assets))}

	for _, err := range loadErrors {
		var loadErr *compiler.LoadError
		if errors.As(err, &loadErr) {
			result.LoadErrors = append(result.LoadErrors, compiler.ValidationError{
				Field:   "load",
				Message: loadErr.Message,
				Code:    loadErr.Code,
				Line:    getLineFromPos(loadErr),
			})
			continue
		}
		result.LoadErrors = append(result.LoadErrors, compiler.ValidationError{
			Field:   "load",
			Message: err.Error(),
			Code:    compiler.ErrCodeGeneric,
		})
	}

	for _, asset := range loadResult.Assets {
		formatter.Verbosef("Validating asset: %s", asset.Name)
		report := AssetReport{
			Name:     asset.Name,
			States:   len(asset.States),
			Errors:   compiler.Validate(asset),
			Warnings: compiler.AnalyzePassThrough(asset),
		}
		result.Assets = append(result.Assets, report)
	}

	for _, a := range result.Assets {
		if len(a.Errors) > 0 || (opts.Strict && len(a.Warnings) > 0) {
			result.Valid = false
		}
	}
	if len(result.LoadErrors) > 0 {
		result.Valid = false
	}

	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// getLineFromPos extracts the line number of a load error, or 0.
func getLineFromPos(err *compiler.LoadError) int {
	if err.Pos.IsValid() {
		return err.Pos.Line()
	}
	return 0
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.JSON() {
		return formatter.Success(result)
	}

	w := formatter.Writer
	for _, a := range result.Assets {
		fmt.Fprintf(w, "✓ %s (%d states)\n", a.Name, a.States)
		for _, warn := range a.Warnings {
			fmt.Fprintf(w, "  %s: %s\n", warn.Level, warn.Message)
		}
	}
	fmt.Fprintln(w, "✓ All assets valid")
	return nil
}

// outputValidateError outputs a single command-level error.
func outputValidateError(formatter *OutputFormatter, code, message string, details interface{}) error {
	_ = formatter.Error(code, message, details)
	// Load failures are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs a failed validation result.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	count := result.errorCount()
	failure := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", count))

	if formatter.JSON() {
		if err := formatter.Fail(firstErrorCode(result), failure.Message, result); err != nil {
			return err
		}
		return failure
	}

	// Text format
	w := formatter.Writer
	fmt.Fprintln(w, "✗ Validation failed")
	fmt.Fprintln(w)

	for _, err := range result.LoadErrors {
		printValidationError(formatter, err)
	}
	for _, a := range result.Assets {
		if len(a.Errors) == 0 && len(a.Warnings) == 0 {
			fmt.Fprintf(w, "✓ %s (%d states)\n", a.Name, a.States)
			continue
		}
		fmt.Fprintf(w, "asset %s\n", a.Name)
		for _, err := range a.Errors {
			printValidationError(formatter, err)
		}
		for _, warn := range a.Warnings {
			fmt.Fprintf(w, "  %s: %s\n", warn.Level, warn.Message)
		}
	}

	return failure
}

func printValidationError(formatter *OutputFormatter, err compiler.ValidationError) {
	if err.Line > 0 {
		fmt.Fprintf(formatter.Writer, "  line %d\n", err.Line)
	}
	fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n", err.Code, err.Field, err.Message)
}

// firstErrorCode returns the code of the first error, or W001 when only
// strict-mode warnings failed the run.
func firstErrorCode(result ValidationResult) string {
	if len(result.LoadErrors) > 0 {
		return result.LoadErrors[0].Code
	}
	for _, a := range result.Assets {
		if len(a.Errors) > 0 {
			return a.Errors[0].Code
		}
	}
	return "W001"
}
