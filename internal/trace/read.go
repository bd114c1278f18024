package trace

import (
	"context"
	"database/sql"
	"fmt"
)

// ReadRun returns every op of a run in seq order.
// An unknown run token yields an empty, non-nil slice.
func (t *Trace) ReadRun(ctx context.Context, token string) ([]Op, error) {
	rows, err := t.db.QueryContext(ctx, `
		SELECT run_token, seq, kind, name, value_type, value_json,
		       result_type, result_json, depth, txn_id, outcome
		FROM ops
		WHERE run_token = ?
		ORDER BY seq ASC
	`, token)
	if err != nil {
		return nil, fmt.Errorf("read run: %w", err)
	}
	defer rows.Close()

	ops := []Op{}
	for rows.Next() {
		op, err := scanOp(rows)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ops: %w", err)
	}

	return ops, nil
}

// ListRuns returns every recorded run with its op count, newest first.
func (t *Trace) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := t.db.QueryContext(ctx, `
		SELECT r.token, r.scenario, r.created_at, COUNT(o.id)
		FROM runs r
		LEFT JOIN ops o ON o.run_token = r.token
		GROUP BY r.token
		ORDER BY r.created_at DESC, r.token DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.Token, &r.Scenario, &r.CreatedAt, &r.OpCount); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}

// LastSeq returns the highest seq recorded for a run, or 0 for none.
// Used to resume a recording clock from the correct position.
func (t *Trace) LastSeq(ctx context.Context, token string) (int64, error) {
	var seq int64
	err := t.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM ops WHERE run_token = ?
	`, token).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq, nil
}

// scanOp reads one op row.
func scanOp(rows *sql.Rows) (Op, error) {
	var (
		op         Op
		kind       string
		valueType  string
		valueJSON  sql.NullString
		resultType string
		resultJSON sql.NullString
	)
	err := rows.Scan(
		&op.RunToken,
		&op.Seq,
		&kind,
		&op.Name,
		&valueType,
		&valueJSON,
		&resultType,
		&resultJSON,
		&op.Depth,
		&op.TxnID,
		&op.Outcome,
	)
	if err != nil {
		return Op{}, fmt.Errorf("scan op: %w", err)
	}
	op.Kind = OpKind(kind)

	op.Value, err = decodeValue(valueType, valueJSON)
	if err != nil {
		return Op{}, fmt.Errorf("scan op seq %d: %w", op.Seq, err)
	}
	op.Result, err = decodeValue(resultType, resultJSON)
	if err != nil {
		return Op{}, fmt.Errorf("scan op seq %d: %w", op.Seq, err)
	}

	return op, nil
}
