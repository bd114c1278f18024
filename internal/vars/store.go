package vars

import (
	"fmt"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/txvar/internal/txn"
	"github.com/roach88/txvar/internal/value"
)

// DefaultEstimatedVars is the default initial variable table capacity.
const DefaultEstimatedVars = 1024

// MaxEstimatedVars bounds the estimated-variables tunable.
const MaxEstimatedVars = 65535

// Store holds a session's variables: the transactional table (scoped to one
// top-level transaction, versioned, rolled back on savepoint abort) and the
// session table (overwrite-in-place, transaction-independent).
//
// A Store is owned by a single execution context. All mutation happens on
// the goroutine that owns the transaction manager; lifecycle events arrive
// synchronously on the same goroutine, so no locking is needed.
type Store struct {
	mgr     *txn.Manager
	estVars int

	// Transactional table, bound to tabTxn. Recreated lazily when a write
	// observes a different active transaction id.
	tab    *table
	tabTxn txn.ID

	// Session table, created lazily on first session-scoped write.
	session *table

	// registered tracks the lazy observer registration for the current
	// transaction; the manager drops registrations at transaction end.
	registered bool
}

// Option configures a Store.
type Option func(*Store) error

// WithEstimatedVars sets the estimated initial variable count used to size
// new tables. Valid range 0 to MaxEstimatedVars; takes effect on the next
// table creation, so on the next transaction.
func WithEstimatedVars(n int) Option {
	return func(s *Store) error {
		if n < 0 || n > MaxEstimatedVars {
			return fmt.Errorf("estimated variable count %d out of range [0, %d]", n, MaxEstimatedVars)
		}
		s.estVars = n
		return nil
	}
}

// New creates a Store bound to a transaction manager.
func New(mgr *txn.Manager, opts ...Option) (*Store, error) {
	s := &Store{
		mgr:     mgr,
		estVars: DefaultEstimatedVars,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Set stores a value under name in the transactional table and returns the
// stored value (the owned copy, for variable-length payloads).
//
// The write is attributed to the active savepoint depth. A write from a
// deeper scope than the current top version pushes a new version; a write
// at the same or a shallower depth overwrites the top version in place.
func (s *Store) Set(name string, v value.Value) (value.Value, error) {
	name, err := checkName(name)
	if err != nil {
		return nil, err
	}
	if value.TypeOf(v) == value.TypeInvalid {
		return nil, newUnknownTypeError(name, "value")
	}

	tx := s.mgr.Active()
	if tx == nil {
		return nil, newNoTransactionError(name)
	}

	// Lazy, idempotent lifecycle registration: workloads that never touch
	// transactional variables pay nothing per transaction.
	if !s.registered {
		s.mgr.Register(s)
		s.registered = true
	}

	// A different transaction id invalidates the whole table; its backing
	// storage died with the transaction that owned it.
	if s.tab == nil || s.tabTxn != tx.ID() {
		s.tab = newTable(s.estVars)
		s.tabTxn = tx.ID()
	}

	return s.tab.write(name, tx.Arena(), v, tx.Depth()), nil
}

// Get reads name from the transactional table. An absent table or name is
// not an error: the caller-supplied default comes back instead. The default
// also declares the expected type; a stored non-null value of a different
// type fails with a type mismatch. A stored null is returned as a typed
// null without a type check.
func (s *Store) Get(name string, def value.Value) (value.Value, error) {
	name, err := checkName(name)
	if err != nil {
		return nil, err
	}
	want := value.TypeOf(def)
	if want == value.TypeInvalid {
		return nil, newUnknownTypeError(name, "default value")
	}

	tx := s.mgr.Active()
	if tx == nil || s.tab == nil || s.tabTxn != tx.ID() {
		return def, nil
	}

	cur := s.tab.lookup(name)
	if cur == nil {
		return def, nil
	}
	if cur.null {
		return value.NewNull(cur.typ), nil
	}
	if cur.typ != want {
		return nil, newTypeMismatchError(name, want, cur.typ)
	}
	return cur.payload, nil
}

// SetSession stores a value under name in the session table, overwriting
// any previous version in place. Session variables survive transaction
// boundaries and are never rolled back.
func (s *Store) SetSession(name string, v value.Value) (value.Value, error) {
	name, err := checkName(name)
	if err != nil {
		return nil, err
	}
	if value.TypeOf(v) == value.TypeInvalid {
		return nil, newUnknownTypeError(name, "value")
	}

	if s.session == nil {
		s.session = newTable(s.estVars)
	}
	return s.session.overwrite(name, s.mgr.SessionArena(), v), nil
}

// GetSession reads name from the session table with the same default and
// type-mismatch semantics as Get.
func (s *Store) GetSession(name string, def value.Value) (value.Value, error) {
	name, err := checkName(name)
	if err != nil {
		return nil, err
	}
	want := value.TypeOf(def)
	if want == value.TypeInvalid {
		return nil, newUnknownTypeError(name, "default value")
	}

	if s.session == nil {
		return def, nil
	}
	cur := s.session.lookup(name)
	if cur == nil {
		return def, nil
	}
	if cur.null {
		return value.NewNull(cur.typ), nil
	}
	if cur.typ != want {
		return nil, newTypeMismatchError(name, want, cur.typ)
	}
	return cur.payload, nil
}

// SubAbort implements txn.Observer: a savepoint at depth aborted, so every
// version written at that depth or deeper is popped.
func (s *Store) SubAbort(depth int) {
	if s.tab == nil {
		return
	}
	s.tab.rollback(depth)
}

// TxnEnd implements txn.Observer: the top-level transaction concluded, so
// the whole table is dropped. Commit and abort are identical here; either
// way the next transactional write recreates an empty table. The manager
// has already dropped our registration, so the next write re-registers.
func (s *Store) TxnEnd(txn.ID, bool) {
	s.tab = nil
	s.tabTxn = 0
	s.registered = false
}

// Len returns the number of live transactional variables, for diagnostics.
func (s *Store) Len() int {
	if s.tab == nil {
		return 0
	}
	return s.tab.len()
}

// SessionLen returns the number of live session variables, for diagnostics.
func (s *Store) SessionLen() int {
	if s.session == nil {
		return 0
	}
	return s.session.len()
}

// checkName validates and canonicalizes a variable name. Names are
// NFC-normalized so visually identical spellings address the same slot.
func checkName(name string) (string, error) {
	if name == "" {
		return "", newNullNameError()
	}
	return norm.NFC.String(name), nil
}
