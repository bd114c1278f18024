// Package vars implements the transaction-scoped versioned variable store.
//
// Variables live in a table bound to one top-level transaction. Every write
// is attributed to the savepoint depth it happened at; a write from a deeper
// scope pushes a new version onto the variable's chain so that aborting the
// scope can pop it, while repeated writes at one depth collapse into a
// single version. When the transaction manager reports a savepoint abort,
// the store pops every version at or below the aborting depth; when the
// transaction ends, the whole table is dropped.
//
// Session variables are the simpler sibling: one live version per name,
// overwritten in place, living until session end, never rolled back.
package vars
