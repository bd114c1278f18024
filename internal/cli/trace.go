package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/txvar/internal/trace"
	"github.com/roach88/txvar/internal/value"
)

// TraceCmdOptions holds flags for the trace command.
type TraceCmdOptions struct {
	*RootOptions
	Database string
	Run      string
}

// TraceOpView is one recorded op rendered for output.
type TraceOpView struct {
	Seq     int64  `json:"seq"`
	Op      string `json:"op"`
	Name    string `json:"name,omitempty"`
	Value   string `json:"value,omitempty"`
	Result  string `json:"result,omitempty"`
	Depth   int    `json:"depth,omitempty"`
	Txn     uint64 `json:"txn,omitempty"`
	Outcome string `json:"outcome"`
}

// RunView is one recorded run rendered for output.
type RunView struct {
	Token     string `json:"token"`
	Scenario  string `json:"scenario,omitempty"`
	CreatedAt string `json:"created_at"`
	OpCount   int    `json:"op_count"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceCmdOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect recorded runs",
		Long: `List recorded runs, or dump the ops of a single run.

Without --run, lists every run in the trace database, newest first.
With --run, prints the run's ops in sequence order.

Examples:
  txvar trace --db ./trace.db
  txvar trace --db ./trace.db --run run-1
  txvar trace --db ./trace.db --run run-1 --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to trace database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Run, "run", "", "run token to dump")

	return cmd
}

func runTrace(opts *TraceCmdOptions, cmd *cobra.Command) error {
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

	if opts.Run == "" {
		return listRuns(ctx, tr, formatter, cmd)
	}
	return dumpRun(ctx, tr, opts.Run, formatter, cmd)
}

func listRuns(ctx context.Context, tr *trace.Trace, formatter *OutputFormatter, cmd *cobra.Command) error {
	runs, err := tr.ListRuns(ctx)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, "failed to list runs", err.Error())
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	views := make([]RunView, 0, len(runs))
	for _, r := range runs {
		views = append(views, RunView{
			Token:     r.Token,
			Scenario:  r.Scenario,
			CreatedAt: r.CreatedAt,
			OpCount:   r.OpCount,
		})
	}

	if formatter.Format == "json" {
		return formatter.Success(views)
	}

	w := cmd.OutOrStdout()
	if len(views) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	for _, v := range views {
		scenario := v.Scenario
		if scenario == "" {
			scenario = "-"
		}
		fmt.Fprintf(w, "%s  %s  %d op(s)  %s\n", v.Token, scenario, v.OpCount, v.CreatedAt)
	}
	return nil
}

func dumpRun(ctx context.Context, tr *trace.Trace, token string, formatter *OutputFormatter, cmd *cobra.Command) error {
	ops, err := tr.ReadRun(ctx, token)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, "failed to read run", err.Error())
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}
	if len(ops) == 0 {
		_ = formatter.Error(ErrCodeUnknownRun, fmt.Sprintf("no ops recorded for run %s", token), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("no ops recorded for run %s", token))
	}

	views := make([]TraceOpView, 0, len(ops))
	for _, op := range ops {
		v := TraceOpView{
			Seq:     op.Seq,
			Op:      string(op.Kind),
			Name:    op.Name,
			Depth:   op.Depth,
			Txn:     op.TxnID,
			Outcome: op.Outcome,
		}
		if op.Value != nil {
			v.Value = value.Format(op.Value)
		}
		if op.Result != nil {
			v.Result = value.Format(op.Result)
		}
		views = append(views, v)
	}

	if formatter.Format == "json" {
		return formatter.Success(views)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Run %s (%d ops)\n", token, len(views))
	for _, v := range views {
		line := fmt.Sprintf("  [%d] %s", v.Seq, v.Op)
		if v.Name != "" {
			line += " " + v.Name
		}
		if v.Value != "" {
			line += " " + v.Value
		}
		if v.Result != "" {
			line += " -> " + v.Result
		}
		if v.Depth > 0 {
			line += fmt.Sprintf(" @%d", v.Depth)
		}
		if v.Outcome != trace.OutcomeOK {
			line += " [" + v.Outcome + "]"
		}
		fmt.Fprintln(w, line)
	}
	return nil
}
