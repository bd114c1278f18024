// Package harness executes scenario files against a fresh variable store
// session and validates the observed outcomes.
//
// A scenario is a YAML file describing an ordered list of lifecycle and
// variable operations with optional expect clauses. The harness runs every
// step against a real txn.Manager and vars.Store, classifies each outcome
// with the same rules the trace recorder uses, and collects a deterministic
// trace suitable for golden file comparison.
//
// Scenarios are validated twice: structurally on load (strict YAML decoding
// plus required-field checks) and against the embedded CUE schema for
// shape and enum errors with positions.
package harness
