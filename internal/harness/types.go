package harness

import "github.com/roach88/pagesel/internal/ir"

// TraceEvent records one executed step and the list state it left behind.
type TraceEvent struct {
	Step       int            `json:"step"`
	Action     string         `json:"action"`
	Args       map[string]any `json:"args,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	Page       int            `json:"page"`
	Total      int            `json:"total"`
	Mode       ir.Mode        `json:"mode"`
	Selected   int            `json:"selected"`
	Descriptor ir.Descriptor  `json:"descriptor"`
	Error      string         `json:"error,omitempty"`

	// HeaderChecked and HeaderIndeterminate are the loaded page's header
	// checkbox state.
	HeaderChecked       bool `json:"header_checked"`
	HeaderIndeterminate bool `json:"header_indeterminate"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace contains one event per step, mount included.
	Trace []TraceEvent `json:"trace"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Final is the descriptor after the last step.
	Final ir.Descriptor `json:"final"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a step to the trace.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
