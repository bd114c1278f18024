package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/txvar/internal/harness"
	"github.com/roach88/txvar/internal/trace"
)

// RunCmdOptions holds flags for the run command.
type RunCmdOptions struct {
	*RootOptions
	Database string
	Token    string

	// Tokens overrides the run token generator (for testing).
	Tokens trace.TokenGenerator
}

// ScenarioResult summarizes one executed scenario.
type ScenarioResult struct {
	Name     string   `json:"name"`
	Pass     bool     `json:"pass"`
	Steps    int      `json:"steps"`
	RunToken string   `json:"run_token,omitempty"`
	Errors   []string `json:"errors,omitempty"`
}

// RunSummary is the run command's output payload.
type RunSummary struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunCmdOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>...",
		Short: "Execute scenario files against a fresh session",
		Long: `Execute one or more scenario files. Each scenario runs in a fresh
session; expect clauses validate observed values and error codes.

With --db, every executed operation is recorded into the trace database
so the run can be replayed later with "txvar replay".

Examples:
  txvar run scenarios/rollback.yaml
  txvar run --db ./trace.db scenarios/*.yaml
  txvar run --db ./trace.db --token run-1 scenarios/rollback.yaml`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to trace database (record runs)")
	cmd.Flags().StringVar(&opts.Token, "token", "", "fixed run token (single scenario only)")

	return cmd
}

func runScenarios(opts *RunCmdOptions, paths []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: logLevel}))

	if opts.Token != "" && len(paths) > 1 {
		return NewExitError(ExitCommandError, "--token requires exactly one scenario")
	}

	var recorder *trace.Trace
	if opts.Database != "" {
		tr, err := trace.Open(opts.Database)
		if err != nil {
			_ = formatter.Error(ErrCodeDatabase, "failed to open trace database", err.Error())
			return WrapExitError(ExitCommandError, "failed to open trace database", err)
		}
		defer tr.Close()
		recorder = tr
	}

	tokens := opts.Tokens
	if tokens == nil && opts.Token != "" {
		tokens = trace.NewFixedGenerator(opts.Token)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	summary := RunSummary{}
	for _, path := range paths {
		res, err := runOneScenario(ctx, path, recorder, tokens, logger, formatter)
		if err != nil {
			return err
		}
		summary.Scenarios = append(summary.Scenarios, *res)
		if res.Pass {
			summary.Passed++
		} else {
			summary.Failed++
		}
	}

	if opts.Format == "json" {
		if err := formatter.Success(summary); err != nil {
			return err
		}
	} else {
		outputRunText(cmd, summary, opts.Verbose)
	}

	if summary.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenario(s) failed", summary.Failed, len(paths)))
	}
	return nil
}

func runOneScenario(ctx context.Context, path string, recorder *trace.Trace, tokens trace.TokenGenerator, logger *slog.Logger, formatter *OutputFormatter) (*ScenarioResult, error) {
	if _, err := os.Stat(path); err != nil {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("scenario file not found: %s", path), nil)
		return nil, WrapExitError(ExitCommandError, "scenario file not found", err)
	}

	// Schema validation first so shape errors come with paths, not panics
	// halfway through a run.
	schemaErrs, err := harness.ValidateScenarioFile(path)
	if err != nil {
		_ = formatter.Error(ErrCodeBadFile, fmt.Sprintf("failed to validate %s", path), err.Error())
		return nil, WrapExitError(ExitCommandError, "failed to validate scenario", err)
	}
	if len(schemaErrs) > 0 {
		_ = formatter.Error(ErrCodeSchema, fmt.Sprintf("scenario %s violates schema", path), schemaErrs)
		return nil, NewExitError(ExitFailure, fmt.Sprintf("scenario %s violates schema", path))
	}

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		_ = formatter.Error(ErrCodeBadFile, fmt.Sprintf("failed to load %s", path), err.Error())
		return nil, WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	formatter.VerboseLog("running scenario %s (%d steps)", scenario.Name, len(scenario.Steps))
	logger.Debug("scenario start", "name", scenario.Name, "steps", len(scenario.Steps))

	result, err := harness.RunWithOptions(ctx, scenario, harness.RunOptions{
		Recorder: recorder,
		Tokens:   tokens,
		Logger:   logger,
	})
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, fmt.Sprintf("scenario %s failed to execute", scenario.Name), err.Error())
		return nil, WrapExitError(ExitFailure, "scenario failed to execute", err)
	}

	return &ScenarioResult{
		Name:     scenario.Name,
		Pass:     result.Pass,
		Steps:    len(result.Trace),
		RunToken: result.RunToken,
		Errors:   result.Errors,
	}, nil
}

func outputRunText(cmd *cobra.Command, summary RunSummary, verbose bool) {
	w := cmd.OutOrStdout()
	for _, sc := range summary.Scenarios {
		mark := "PASS"
		if !sc.Pass {
			mark = "FAIL"
		}
		fmt.Fprintf(w, "%s  %s (%d steps)\n", mark, sc.Name, sc.Steps)
		if sc.RunToken != "" && verbose {
			fmt.Fprintf(w, "      run token: %s\n", sc.RunToken)
		}
		for _, e := range sc.Errors {
			fmt.Fprintf(w, "      %s\n", e)
		}
	}
	fmt.Fprintf(w, "\n%d passed, %d failed\n", summary.Passed, summary.Failed)
}
