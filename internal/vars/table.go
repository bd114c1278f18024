package vars

import (
	"strings"

	"github.com/roach88/txvar/internal/arena"
	"github.com/roach88/txvar/internal/value"
)

// versionValue is one immutable version of a variable: its type, null flag,
// payload, the nesting depth it was written at, and the version it shadows.
//
// INVARIANT: depths along the previous chain are non-increasing from the
// current version downward.
type versionValue struct {
	typ      value.TypeID
	null     bool
	payload  value.Value
	depth    int
	previous *versionValue
}

// variable is a named slot owning a LIFO chain of versions.
// The first version is embedded so creating a variable costs a single
// allocation; current points at the embedded version until the chain grows.
type variable struct {
	name    string
	current *versionValue
	initial versionValue
}

// table maps names to variables. A transactional table is bound to one
// top-level transaction id and discarded wholesale when that id expires;
// a session table lives until session end.
type table struct {
	vars map[string]*variable
}

func newTable(capacity int) *table {
	return &table{
		vars: make(map[string]*variable, capacity),
	}
}

// write applies the versioning rule for a write at depth:
//
//   - new variable: the embedded version becomes current at the write depth
//   - current version shallower than the write depth: push a new version
//     shadowing it, so the deeper scope's write is independently revocable
//   - same or shallower depth: overwrite current in place. Writes at one
//     depth collapse into a single version; only the last one is kept.
func (t *table) write(name string, a *arena.Arena, v value.Value, depth int) value.Value {
	stored := clonePayload(a, v)
	typ := value.TypeOf(v)

	vr, found := t.vars[name]
	cur := (*versionValue)(nil)
	switch {
	case !found:
		vr = &variable{name: name}
		vr.current = &vr.initial
		cur = vr.current
		t.vars[name] = vr
	case vr.current.depth < depth:
		cur = &versionValue{previous: vr.current}
		vr.current = cur
	default:
		cur = vr.current
	}

	cur.typ = typ
	cur.null = v.IsNull()
	cur.payload = stored
	cur.depth = depth
	return stored
}

// overwrite replaces the single live version unconditionally.
// Session tables use this: no chain, no rollback, no history.
func (t *table) overwrite(name string, a *arena.Arena, v value.Value) value.Value {
	stored := clonePayload(a, v)

	vr, found := t.vars[name]
	if !found {
		vr = &variable{name: name}
		vr.current = &vr.initial
		t.vars[name] = vr
	}
	cur := vr.current
	cur.typ = value.TypeOf(v)
	cur.null = v.IsNull()
	cur.payload = stored
	cur.depth = 0
	return stored
}

// lookup returns the current version of name, or nil when absent.
func (t *table) lookup(name string) *versionValue {
	vr, ok := t.vars[name]
	if !ok {
		return nil
	}
	return vr.current
}

// rollback discards every version written at abortDepth or deeper.
//
// Variables whose whole chain belonged to the aborting scope are removed:
// they did not exist before it. Otherwise current becomes the first
// surviving version, restoring the state visible just before the scope
// was entered. Popped versions are not freed individually; their storage
// belongs to the transaction arena.
func (t *table) rollback(abortDepth int) {
	for name, vr := range t.vars {
		cur := vr.current
		for cur != nil && cur.depth >= abortDepth {
			cur = cur.previous
		}
		if cur == nil {
			delete(t.vars, name)
			continue
		}
		if cur != vr.current {
			vr.current = cur
		}
	}
}

// len returns the number of live variables.
func (t *table) len() int {
	return len(t.vars)
}

// clonePayload copies a variable-length payload into storage owned by the
// table's scope. Bytes are copied into the arena; Go strings are immutable,
// so cloning the string is enough for exclusive ownership. By-value
// payloads are copied inline by assignment.
func clonePayload(a *arena.Arena, v value.Value) value.Value {
	switch x := v.(type) {
	case value.Bytes:
		return value.Bytes(a.Copy(x))
	case value.Text:
		return value.Text(strings.Clone(string(x)))
	default:
		return v
	}
}
