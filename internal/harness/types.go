package harness

import "fmt"

// TraceEvent is one executed step in a scenario trace. Values are rendered
// as strings so the trace serializes deterministically for golden files.
type TraceEvent struct {
	Seq     int64  `json:"seq"`
	Op      string `json:"op"`
	Name    string `json:"name,omitempty"`
	Value   string `json:"value,omitempty"`
	Result  string `json:"result,omitempty"`
	Depth   int    `json:"depth,omitempty"`
	Txn     uint64 `json:"txn,omitempty"`
	Outcome string `json:"outcome"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: every expect clause matched and no
	// step failed unexpectedly.
	Pass bool `json:"pass"`

	// RunToken is the recorded run's token, set only when recording.
	RunToken string `json:"run_token,omitempty"`

	// Trace contains every executed step in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains expectation failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result to accumulate into.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records an expectation failure and marks the result failed.
func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}

// AddEvent appends a trace event.
func (r *Result) AddEvent(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
