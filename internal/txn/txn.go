// Package txn models the host transaction lifecycle the variable store
// hangs off of: top-level transaction ids, savepoint depths, scoped arenas,
// and synchronous lifecycle event dispatch to registered observers.
//
// Single-owner model: a Manager belongs to one session / execution context.
// All dispatch is synchronous and runs on the caller's goroutine, so no
// locking is needed anywhere in this package.
package txn

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/txvar/internal/arena"
)

// ID identifies a top-level transaction. Ids are monotonic per Manager
// and never reused, so a table bound to an expired ID can detect staleness.
type ID uint64

// Lifecycle errors.
var (
	// ErrActiveTxn is returned by Begin when a transaction is already open.
	ErrActiveTxn = errors.New("transaction already active")

	// ErrTxnDone is returned when operating on a committed or aborted transaction.
	ErrTxnDone = errors.New("transaction already concluded")
)

// Observer receives transaction lifecycle events.
//
// Both methods are invoked synchronously, inline with the lifecycle
// transition, on the goroutine that owns the Manager.
type Observer interface {
	// SubAbort fires when the savepoint at depth aborts. Every write made at
	// that depth or deeper must be considered revoked.
	SubAbort(depth int)

	// TxnEnd fires when the top-level transaction concludes, whether by
	// commit or abort. The transaction arena is released immediately after.
	TxnEnd(id ID, committed bool)
}

// Manager owns the transaction state of one session: the active top-level
// transaction, the session arena, and the observer registrations.
type Manager struct {
	sessionID    string
	sessionArena *arena.Arena
	nextID       ID
	cur          *Txn
	observers    []Observer
}

// NewManager creates a manager with a fresh session scope.
// The session id is a UUIDv7 so sessions sort by creation time in traces.
func NewManager() *Manager {
	return &Manager{
		sessionID:    uuid.Must(uuid.NewV7()).String(),
		sessionArena: arena.New("session"),
		nextID:       1,
	}
}

// SessionID returns the session's token.
func (m *Manager) SessionID() string {
	return m.sessionID
}

// SessionArena returns the arena released only at session end.
func (m *Manager) SessionArena() *arena.Arena {
	return m.sessionArena
}

// Begin opens a new top-level transaction at depth 0.
func (m *Manager) Begin() (*Txn, error) {
	if m.cur != nil {
		return nil, ErrActiveTxn
	}
	t := &Txn{
		id:    m.nextID,
		mgr:   m,
		arena: arena.New("txn"),
	}
	m.nextID++
	m.cur = t
	return t, nil
}

// Active returns the open transaction, or nil when none is active.
func (m *Manager) Active() *Txn {
	return m.cur
}

// Register adds an observer for lifecycle events. Registration is
// idempotent: an observer already registered is not added again.
// All registrations are dropped when the enclosing transaction concludes,
// so observers that want events for the next transaction re-register.
func (m *Manager) Register(o Observer) {
	for _, existing := range m.observers {
		if existing == o {
			return
		}
	}
	m.observers = append(m.observers, o)
}

// Deregister removes an observer. Removing an unregistered observer is a no-op.
func (m *Manager) Deregister(o Observer) {
	for i, existing := range m.observers {
		if existing == o {
			m.observers = append(m.observers[:i], m.observers[i+1:]...)
			return
		}
	}
}

// EndSession releases the session arena. The manager must not be used after.
func (m *Manager) EndSession() {
	m.sessionArena.Release()
}

// end concludes the active transaction: observers are notified, then
// dropped, then the transaction arena is released in bulk.
func (m *Manager) end(t *Txn, committed bool) {
	for _, o := range m.observers {
		o.TxnEnd(t.id, committed)
	}
	m.observers = nil
	t.arena.Release()
	m.cur = nil
}

// Txn is one top-level transaction. Depth 0 is the transaction itself;
// each savepoint pushes one level deeper.
type Txn struct {
	id    ID
	depth int
	arena *arena.Arena
	mgr   *Manager
	done  bool
}

// ID returns the top-level transaction id.
func (t *Txn) ID() ID {
	return t.id
}

// Depth returns the current nesting depth (0 = top level).
func (t *Txn) Depth() int {
	return t.depth
}

// Arena returns the transaction-scoped arena, released in bulk at end.
func (t *Txn) Arena() *arena.Arena {
	return t.arena
}

// Savepoint enters a nested scope and returns its depth.
func (t *Txn) Savepoint() (int, error) {
	if t.done {
		return 0, ErrTxnDone
	}
	t.depth++
	return t.depth, nil
}

// RollbackTo aborts the savepoint at depth and everything nested inside it.
// Observers see a single SubAbort(depth); the >= comparison on their side
// covers the deeper levels. Afterwards the transaction continues at depth-1.
func (t *Txn) RollbackTo(depth int) error {
	if t.done {
		return ErrTxnDone
	}
	if depth < 1 || depth > t.depth {
		return fmt.Errorf("no savepoint at depth %d (current depth %d)", depth, t.depth)
	}
	for _, o := range t.mgr.observers {
		o.SubAbort(depth)
	}
	t.depth = depth - 1
	return nil
}

// Release ends the savepoint at depth without aborting it: writes made
// inside it survive, attributed to the depths they were recorded at.
func (t *Txn) Release(depth int) error {
	if t.done {
		return ErrTxnDone
	}
	if depth < 1 || depth > t.depth {
		return fmt.Errorf("no savepoint at depth %d (current depth %d)", depth, t.depth)
	}
	t.depth = depth - 1
	return nil
}

// Commit concludes the transaction successfully.
func (t *Txn) Commit() error {
	if t.done {
		return ErrTxnDone
	}
	t.done = true
	t.mgr.end(t, true)
	return nil
}

// Abort concludes the transaction unsuccessfully. Observers receive the
// same TxnEnd event as for commit; variable state is discarded either way.
func (t *Txn) Abort() error {
	if t.done {
		return ErrTxnDone
	}
	t.done = true
	t.mgr.end(t, false)
	return nil
}
