package trace

import (
	"github.com/roach88/txvar/internal/value"
)

// OpKind identifies the recorded operation.
type OpKind string

const (
	OpBegin      OpKind = "begin"
	OpSavepoint  OpKind = "savepoint"
	OpRollbackTo OpKind = "rollback_to"
	OpRelease    OpKind = "release"
	OpCommit     OpKind = "commit"
	OpAbort      OpKind = "abort"
	OpSet        OpKind = "set"
	OpGet        OpKind = "get"
	OpSetSession OpKind = "set_session"
	OpGetSession OpKind = "get_session"
)

// Outcome values. Reads that return a typed null record "null"; everything
// else that succeeds records "ok". Error outcomes use the store error code
// verbatim (e.g. "TYPE_MISMATCH").
const (
	OutcomeOK   = "ok"
	OutcomeNull = "null"
)

// Op is one recorded operation within a run.
//
// Value carries the written value for set operations and the supplied
// default for gets; Result carries what a get returned. Depth is the
// nesting depth the operation ran at (for rollback_to and release it is
// the target savepoint depth).
type Op struct {
	RunToken string
	Seq      int64
	Kind     OpKind
	Name     string
	Value    value.Value
	Result   value.Value
	Depth    int
	TxnID    uint64
	Outcome  string
}

// Run identifies one recorded session.
type Run struct {
	Token     string
	Scenario  string
	CreatedAt string
	OpCount   int
}
