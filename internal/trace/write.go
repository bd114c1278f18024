package trace

import (
	"context"
	"fmt"
)

// CreateRun registers a run token before its ops are appended.
// Uses ON CONFLICT(token) DO NOTHING for idempotency - re-registering an
// existing run is silently ignored.
func (t *Trace) CreateRun(ctx context.Context, token, scenario string) error {
	_, err := t.db.ExecContext(ctx, `
		INSERT INTO runs (token, scenario)
		VALUES (?, ?)
		ON CONFLICT(token) DO NOTHING
	`, token, scenario)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

// AppendOp inserts one operation record.
// Uses ON CONFLICT(run_token, seq) DO NOTHING for idempotency - writing the
// same (run, seq) twice is silently ignored.
//
// Note: the run referenced by op.RunToken must exist (foreign key constraint).
func (t *Trace) AppendOp(ctx context.Context, op Op) error {
	valueType, valueJSON, err := encodeValue(op.Value)
	if err != nil {
		return fmt.Errorf("append op: %w", err)
	}
	resultType, resultJSON, err := encodeValue(op.Result)
	if err != nil {
		return fmt.Errorf("append op: %w", err)
	}

	_, err = t.db.ExecContext(ctx, `
		INSERT INTO ops
		(run_token, seq, kind, name, value_type, value_json, result_type, result_json, depth, txn_id, outcome)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_token, seq) DO NOTHING
	`,
		op.RunToken,
		op.Seq,
		string(op.Kind),
		op.Name,
		valueType,
		valueJSON,
		resultType,
		resultJSON,
		op.Depth,
		op.TxnID,
		op.Outcome,
	)
	if err != nil {
		return fmt.Errorf("append op: %w", err)
	}

	return nil
}
