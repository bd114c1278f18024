package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/txvar/internal/testutil"
	"github.com/roach88/txvar/internal/trace"
	"github.com/roach88/txvar/internal/txn"
	"github.com/roach88/txvar/internal/value"
	"github.com/roach88/txvar/internal/vars"
)

// Harness executes one scenario against a fresh session.
type Harness struct {
	mgr    *txn.Manager
	store  *vars.Store
	clock  *testutil.SeqClock
	logger *slog.Logger

	recorder *trace.Trace
	runToken string
}

// RunOptions configures scenario execution.
type RunOptions struct {
	// Recorder, when non-nil, records every executed op into the trace
	// journal so the run can be replayed later.
	Recorder *trace.Trace

	// Tokens generates the run token when recording. Defaults to UUIDv7
	// tokens; tests supply a FixedGenerator for determinism.
	Tokens trace.TokenGenerator

	// Logger receives per-step progress at debug level. Defaults to a
	// discarding logger so test output stays quiet.
	Logger *slog.Logger
}

// Run executes a scenario without recording. Each scenario runs in a fresh
// session for isolation.
func Run(scenario *Scenario) (*Result, error) {
	return RunWithOptions(context.Background(), scenario, RunOptions{})
}

// RunWithOptions executes a scenario with explicit recording and logging.
//
// Structural failures (a savepoint with no open transaction, a malformed
// scalar) abort the run with an error. Store-level failures are part of the
// behavior under test: they become outcome codes checked against the step's
// expect clause.
func RunWithOptions(ctx context.Context, scenario *Scenario, opts RunOptions) (*Result, error) {
	mgr := txn.NewManager()

	var storeOpts []vars.Option
	if scenario.Capacity != nil {
		storeOpts = append(storeOpts, vars.WithEstimatedVars(*scenario.Capacity))
	}
	store, err := vars.New(mgr, storeOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	h := &Harness{
		mgr:      mgr,
		store:    store,
		clock:    testutil.NewSeqClock(),
		logger:   logger,
		recorder: opts.Recorder,
	}

	result := NewResult()

	if h.recorder != nil {
		tokens := opts.Tokens
		if tokens == nil {
			tokens = trace.UUIDv7Generator{}
		}
		h.runToken = tokens.Generate()
		if err := h.recorder.CreateRun(ctx, h.runToken, scenario.Name); err != nil {
			return nil, fmt.Errorf("failed to create run: %w", err)
		}
		result.RunToken = h.runToken
	}

	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Op, err)
		}
	}

	mgr.EndSession()
	return result, nil
}

// executeStep runs one step, appends its trace event, records it if a
// recorder is attached, and checks the expect clause.
func (h *Harness) executeStep(ctx context.Context, i int, step Step, result *Result) error {
	seq := h.clock.Next()

	switch step.Op {
	case StepBegin, StepSavepoint, StepRollbackTo, StepRelease, StepCommit, StepAbort:
		return h.executeLifecycle(ctx, seq, step, result)
	case StepSet, StepSetSession:
		return h.executeWrite(ctx, i, seq, step, result)
	case StepGet, StepGetSession:
		return h.executeRead(ctx, i, seq, step, result)
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
}

func (h *Harness) executeLifecycle(ctx context.Context, seq int64, step Step, result *Result) error {
	var (
		depth int
		txnID uint64
	)

	switch step.Op {
	case StepBegin:
		tx, err := h.mgr.Begin()
		if err != nil {
			return err
		}
		txnID = uint64(tx.ID())

	case StepSavepoint:
		tx := h.mgr.Active()
		if tx == nil {
			return fmt.Errorf("savepoint outside transaction")
		}
		d, err := tx.Savepoint()
		if err != nil {
			return err
		}
		depth = d
		txnID = uint64(tx.ID())

	case StepRollbackTo, StepRelease:
		tx := h.mgr.Active()
		if tx == nil {
			return fmt.Errorf("%s outside transaction", step.Op)
		}
		depth = step.Depth
		if depth == 0 {
			depth = tx.Depth()
		}
		txnID = uint64(tx.ID())
		var err error
		if step.Op == StepRollbackTo {
			err = tx.RollbackTo(depth)
		} else {
			err = tx.Release(depth)
		}
		if err != nil {
			return err
		}

	case StepCommit, StepAbort:
		tx := h.mgr.Active()
		if tx == nil {
			return fmt.Errorf("%s outside transaction", step.Op)
		}
		depth = tx.Depth()
		txnID = uint64(tx.ID())
		var err error
		if step.Op == StepCommit {
			err = tx.Commit()
		} else {
			err = tx.Abort()
		}
		if err != nil {
			return err
		}
	}

	result.AddEvent(TraceEvent{
		Seq:     seq,
		Op:      step.Op,
		Depth:   depth,
		Txn:     txnID,
		Outcome: trace.OutcomeOK,
	})
	h.logger.Debug("lifecycle step", "seq", seq, "op", step.Op, "depth", depth, "txn", txnID)

	return h.record(ctx, trace.Op{
		Seq:     seq,
		Kind:    trace.OpKind(step.Op),
		Depth:   depth,
		TxnID:   txnID,
		Outcome: trace.OutcomeOK,
	})
}

func (h *Harness) executeWrite(ctx context.Context, i int, seq int64, step Step, result *Result) error {
	v, err := convertValue(step.Value, step.Type)
	if err != nil {
		return fmt.Errorf("value: %w", err)
	}

	var (
		stored  value.Value
		wErr    error
		session = step.Op == StepSetSession
	)
	if session {
		stored, wErr = h.store.SetSession(step.Name, v)
	} else {
		stored, wErr = h.store.Set(step.Name, v)
	}
	outcome := trace.ClassifyWrite(wErr)

	depth, txnID := h.position()
	ev := TraceEvent{
		Seq:     seq,
		Op:      step.Op,
		Name:    step.Name,
		Depth:   depth,
		Txn:     txnID,
		Outcome: outcome,
	}
	if v != nil {
		ev.Value = value.Format(v)
	}
	result.AddEvent(ev)
	h.logger.Debug("write step", "seq", seq, "op", step.Op, "name", step.Name, "outcome", outcome)

	h.checkExpect(i, step, outcome, stored, result)

	return h.record(ctx, trace.Op{
		Seq:     seq,
		Kind:    trace.OpKind(step.Op),
		Name:    step.Name,
		Value:   v,
		Depth:   depth,
		TxnID:   txnID,
		Outcome: outcome,
	})
}

func (h *Harness) executeRead(ctx context.Context, i int, seq int64, step Step, result *Result) error {
	def, err := convertValue(step.Default, step.DefaultType)
	if err != nil {
		return fmt.Errorf("default: %w", err)
	}

	var (
		got  value.Value
		rErr error
	)
	if step.Op == StepGetSession {
		got, rErr = h.store.GetSession(step.Name, def)
	} else {
		got, rErr = h.store.Get(step.Name, def)
	}
	outcome, res := trace.ClassifyRead(got, rErr)

	depth, txnID := h.position()
	ev := TraceEvent{
		Seq:     seq,
		Op:      step.Op,
		Name:    step.Name,
		Depth:   depth,
		Txn:     txnID,
		Outcome: outcome,
	}
	if def != nil {
		ev.Value = value.Format(def)
	}
	if res != nil {
		ev.Result = value.Format(res)
	}
	result.AddEvent(ev)
	h.logger.Debug("read step", "seq", seq, "op", step.Op, "name", step.Name, "outcome", outcome)

	h.checkExpect(i, step, outcome, res, result)

	return h.record(ctx, trace.Op{
		Seq:     seq,
		Kind:    trace.OpKind(step.Op),
		Name:    step.Name,
		Value:   def,
		Result:  res,
		Depth:   depth,
		TxnID:   txnID,
		Outcome: outcome,
	})
}

// checkExpect validates one step's outcome against its expect clause.
func (h *Harness) checkExpect(i int, step Step, outcome string, res value.Value, result *Result) {
	e := step.Expect
	if e == nil {
		if outcome != trace.OutcomeOK && outcome != trace.OutcomeNull {
			result.AddError("steps[%d] (%s %s): unexpected outcome %s", i, step.Op, step.Name, outcome)
		}
		return
	}

	if e.Error != "" {
		if outcome != e.Error {
			result.AddError("steps[%d] (%s %s): outcome %s, want error %s", i, step.Op, step.Name, outcome, e.Error)
		}
		return
	}
	if outcome != trace.OutcomeOK && outcome != trace.OutcomeNull {
		result.AddError("steps[%d] (%s %s): unexpected outcome %s", i, step.Op, step.Name, outcome)
		return
	}

	if e.IsNull {
		if res == nil || !res.IsNull() {
			result.AddError("steps[%d] (%s %s): got %s, want null", i, step.Op, step.Name, value.Format(res))
		}
		return
	}

	if e.Value != nil || e.Type != "" {
		want, err := convertValue(e.Value, e.Type)
		if err != nil {
			result.AddError("steps[%d] (%s %s): bad expect value: %v", i, step.Op, step.Name, err)
			return
		}
		if !value.Equal(res, want) {
			result.AddError("steps[%d] (%s %s): got %s, want %s",
				i, step.Op, step.Name, value.Format(res), value.Format(want))
		}
	}
}

// position reports the depth and transaction id an op ran at, zero when no
// transaction is open.
func (h *Harness) position() (int, uint64) {
	tx := h.mgr.Active()
	if tx == nil {
		return 0, 0
	}
	return tx.Depth(), uint64(tx.ID())
}

func (h *Harness) record(ctx context.Context, op trace.Op) error {
	if h.recorder == nil {
		return nil
	}
	op.RunToken = h.runToken
	if err := h.recorder.AppendOp(ctx, op); err != nil {
		return fmt.Errorf("failed to record op: %w", err)
	}
	return nil
}
