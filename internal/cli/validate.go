package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/txvar/internal/harness"
)

// ValidationResult holds validation results for one or more scenario files.
type ValidationResult struct {
	Valid bool             `json:"valid"`
	Files []FileValidation `json:"files"`
}

// FileValidation holds the schema errors for one file.
type FileValidation struct {
	Path   string                `json:"path"`
	Valid  bool                  `json:"valid"`
	Errors []harness.SchemaError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario.yaml>...",
		Short: "Validate scenario files without executing them",
		Long: `Validate scenario files against the scenario schema.

Checks YAML structure, op names, type names, and expect clauses without
executing anything. Faster than a run for authoring feedback.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	result := ValidationResult{Valid: true}
	for _, path := range paths {
		formatter.VerboseLog("validating %s", path)

		errs, err := harness.ValidateScenarioFile(path)
		if err != nil {
			_ = formatter.Error(ErrCodeBadFile, fmt.Sprintf("failed to validate %s", path), err.Error())
			return WrapExitError(ExitCommandError, "failed to validate scenario", err)
		}

		// The CUE schema checks shape; the loader checks what the schema
		// cannot, like strict field names on nested structs.
		if len(errs) == 0 {
			if _, err := harness.LoadScenario(path); err != nil {
				errs = append(errs, harness.SchemaError{Message: err.Error()})
			}
		}

		fv := FileValidation{Path: path, Valid: len(errs) == 0, Errors: errs}
		if !fv.Valid {
			result.Valid = false
		}
		result.Files = append(result.Files, fv)
	}

	if opts.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		outputValidateText(cmd, result)
	}

	if !result.Valid {
		return NewExitError(ExitFailure, "validation failed")
	}
	return nil
}

func outputValidateText(cmd *cobra.Command, result ValidationResult) {
	w := cmd.OutOrStdout()
	for _, fv := range result.Files {
		if fv.Valid {
			fmt.Fprintf(w, "ok    %s\n", fv.Path)
			continue
		}
		fmt.Fprintf(w, "FAIL  %s\n", fv.Path)
		for _, e := range fv.Errors {
			fmt.Fprintf(w, "      %s\n", e.Error())
		}
	}
}
