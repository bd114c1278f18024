package trace

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/txvar/internal/txn"
	"github.com/roach88/txvar/internal/value"
	"github.com/roach88/txvar/internal/vars"
)

// Divergence records one replayed op whose outcome differed from the
// recording.
type Divergence struct {
	Seq  int64  `json:"seq"`
	Kind OpKind `json:"kind"`
	Name string `json:"name,omitempty"`
	Want string `json:"want"`
	Got  string `json:"got"`
}

// ReplayResult summarizes a replay of a recorded run.
type ReplayResult struct {
	Token       string       `json:"token"`
	Steps       int          `json:"steps"`
	Divergences []Divergence `json:"divergences,omitempty"`
}

// Deterministic reports whether the replay reproduced every recorded outcome.
func (r *ReplayResult) Deterministic() bool {
	return len(r.Divergences) == 0
}

// ReplayRun reads a run's ops and replays them (see ReplayOps).
func (t *Trace) ReplayRun(ctx context.Context, token string) (*ReplayResult, error) {
	ops, err := t.ReadRun(ctx, token)
	if err != nil {
		return nil, err
	}
	res, err := ReplayOps(ops)
	if err != nil {
		return nil, err
	}
	res.Token = token
	return res, nil
}

// ReplayOps replays recorded ops into a fresh session and compares every
// outcome against the recording. Lifecycle ops that cannot be applied at
// all (a savepoint with no transaction, say) indicate a corrupt trace and
// fail the replay outright rather than counting as divergences.
func ReplayOps(ops []Op) (*ReplayResult, error) {
	mgr := txn.NewManager()
	store, err := vars.New(mgr)
	if err != nil {
		return nil, err
	}

	result := &ReplayResult{}
	for _, op := range ops {
		result.Steps++

		outcome, got, err := apply(mgr, store, op)
		if err != nil {
			return nil, fmt.Errorf("replay op seq %d (%s): %w", op.Seq, op.Kind, err)
		}

		if outcome != op.Outcome {
			result.Divergences = append(result.Divergences, Divergence{
				Seq:  op.Seq,
				Kind: op.Kind,
				Name: op.Name,
				Want: op.Outcome,
				Got:  outcome,
			})
			continue
		}
		if isRead(op.Kind) && !value.Equal(got, op.Result) {
			result.Divergences = append(result.Divergences, Divergence{
				Seq:  op.Seq,
				Kind: op.Kind,
				Name: op.Name,
				Want: value.Format(op.Result),
				Got:  value.Format(got),
			})
		}
	}

	return result, nil
}

// apply executes one op against the session and classifies its outcome.
// Store-level errors become outcome codes (they are part of the recorded
// behavior); lifecycle errors are returned as real errors.
func apply(mgr *txn.Manager, store *vars.Store, op Op) (outcome string, result value.Value, err error) {
	switch op.Kind {
	case OpBegin:
		_, err = mgr.Begin()
		return OutcomeOK, nil, err

	case OpSavepoint:
		tx := mgr.Active()
		if tx == nil {
			return "", nil, errors.New("savepoint outside transaction")
		}
		_, err = tx.Savepoint()
		return OutcomeOK, nil, err

	case OpRollbackTo:
		tx := mgr.Active()
		if tx == nil {
			return "", nil, errors.New("rollback_to outside transaction")
		}
		return OutcomeOK, nil, tx.RollbackTo(op.Depth)

	case OpRelease:
		tx := mgr.Active()
		if tx == nil {
			return "", nil, errors.New("release outside transaction")
		}
		return OutcomeOK, nil, tx.Release(op.Depth)

	case OpCommit:
		tx := mgr.Active()
		if tx == nil {
			return "", nil, errors.New("commit outside transaction")
		}
		return OutcomeOK, nil, tx.Commit()

	case OpAbort:
		tx := mgr.Active()
		if tx == nil {
			return "", nil, errors.New("abort outside transaction")
		}
		return OutcomeOK, nil, tx.Abort()

	case OpSet:
		_, serr := store.Set(op.Name, op.Value)
		return ClassifyWrite(serr), nil, nil

	case OpSetSession:
		_, serr := store.SetSession(op.Name, op.Value)
		return ClassifyWrite(serr), nil, nil

	case OpGet:
		got, serr := store.Get(op.Name, op.Value)
		o, r := ClassifyRead(got, serr)
		return o, r, nil

	case OpGetSession:
		got, serr := store.GetSession(op.Name, op.Value)
		o, r := ClassifyRead(got, serr)
		return o, r, nil

	default:
		return "", nil, fmt.Errorf("unknown op kind %q", op.Kind)
	}
}

// ClassifyWrite maps a set's error into an outcome code.
func ClassifyWrite(err error) string {
	if err == nil {
		return OutcomeOK
	}
	return errorOutcome(err)
}

// ClassifyRead maps a get's result and error into an outcome code and the
// value to record.
func ClassifyRead(got value.Value, err error) (string, value.Value) {
	if err != nil {
		return errorOutcome(err), nil
	}
	if got != nil && got.IsNull() {
		return OutcomeNull, got
	}
	return OutcomeOK, got
}

func errorOutcome(err error) string {
	var se *vars.StoreError
	if errors.As(err, &se) {
		return string(se.Code)
	}
	return "ERROR"
}

func isRead(k OpKind) bool {
	return k == OpGet || k == OpGetSession
}
