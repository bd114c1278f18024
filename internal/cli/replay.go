package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/txvar/internal/trace"
)

// ReplayCmdOptions holds flags for the replay command.
type ReplayCmdOptions struct {
	*RootOptions
	Database string
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayCmdOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <run-token>",
		Short: "Replay a recorded run and check determinism",
		Long: `Replay a recorded run from the trace database into a fresh session
and compare every outcome against the recording.

A deterministic replay reproduces every recorded outcome and read value.
Divergences indicate either trace corruption or a behavior change.

Examples:
  txvar replay --db ./trace.db run-1
  txvar replay --db ./trace.db 01890a5d-ac96-774b-bcce-b302099a8057 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to trace database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runReplay(opts *ReplayCmdOptions, token string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	tr, err := trace.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, "failed to open trace database", err.Error())
		return WrapExitError(ExitCommandError, "failed to open trace database", err)
	}
	defer tr.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	ops, err := tr.ReadRun(ctx, token)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, "failed to read run", err.Error())
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}
	if len(ops) == 0 {
		_ = formatter.Error(ErrCodeUnknownRun, fmt.Sprintf("no ops recorded for run %s", token), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("no ops recorded for run %s", token))
	}

	formatter.VerboseLog("replaying %d op(s) for run %s", len(ops), token)

	result, err := tr.ReplayRun(ctx, token)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, "replay failed", err.Error())
		return WrapExitError(ExitFailure, "replay failed", err)
	}

	if opts.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		outputReplayText(cmd, result)
	}

	if !result.Deterministic() {
		return NewExitError(ExitFailure,
			fmt.Sprintf("replay diverged at %d op(s)", len(result.Divergences)))
	}
	return nil
}

func outputReplayText(cmd *cobra.Command, result *trace.ReplayResult) {
	w := cmd.OutOrStdout()
	if result.Deterministic() {
		fmt.Fprintf(w, "Replay of %s: deterministic (%d steps)\n", result.Token, result.Steps)
		return
	}

	fmt.Fprintf(w, "Replay of %s: %d divergence(s) in %d steps\n", result.Token, len(result.Divergences), result.Steps)
	for _, d := range result.Divergences {
		name := d.Name
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(w, "  [%d] %s %s: recorded %s, replayed %s\n", d.Seq, d.Kind, name, d.Want, d.Got)
	}
}
