package harness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/pagesel/internal/ir"
	"github.com/roach88/pagesel/internal/queryir"
	"github.com/roach88/pagesel/internal/session"
	"github.com/roach88/pagesel/internal/store"
)

// AssertionContext is what assertions may inspect besides the trace.
type AssertionContext struct {
	Ctx     context.Context
	Store   *store.Store
	Session *session.Controller
}

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %v -> %s selected=%d total=%d\n",
				ev.Step, ev.Action, ev.Args, ev.Mode, ev.Selected, ev.Total)
		}
	}
	return buf.String()
}

// EvaluateAssertions runs every assertion and returns the failure
// messages. An empty slice means all passed.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(result, a, actx); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %s", i, err.Error()))
		}
	}
	return errs
}

func evaluateAssertion(result *Result, a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertSelected:
		return assertMembership(result.Trace, a, actx, true)
	case AssertNotSelected:
		return assertMembership(result.Trace, a, actx, false)
	case AssertCount:
		return assertCount(result.Trace, a, actx)
	case AssertMode:
		return assertMode(result.Trace, a, actx)
	case AssertDescriptor:
		return assertDescriptor(result.Trace, a, actx)
	case AssertPageState:
		return assertPageState(result.Trace, a, actx)
	case AssertResolved:
		return assertResolved(result.Trace, actx)
	case AssertTraceCount:
		return assertTraceCount(result.Trace, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertMembership checks records addressed by id or index. A record the
// collection knows is asked about with both of its coordinates.
func assertMembership(trace []TraceEvent, a Assertion, actx *AssertionContext, want bool) error {
	sel := actx.Session.State()

	var wrong []string
	for _, id := range a.IDs {
		row := ir.Row{ID: ir.RecordID(id), Index: ir.UnknownIndex}
		rec, err := actx.Store.Lookup(actx.Ctx, row.ID)
		switch {
		case err == nil:
			row.Index = rec.Position
		case !errors.Is(err, store.ErrNotFound):
			return err
		}
		if sel.IsSelected(row) != want {
			wrong = append(wrong, "id "+id)
		}
	}
	for _, idx := range a.Indices {
		row := ir.Row{Index: idx}
		page, err := actx.Store.FetchRange(actx.Ctx, idx, 1)
		if err != nil {
			return err
		}
		if len(page.Records) == 1 {
			row.ID = page.Records[0].ID
		}
		if sel.IsSelected(row) != want {
			wrong = append(wrong, fmt.Sprintf("index %d", idx))
		}
	}

	if len(wrong) == 0 {
		return nil
	}
	state := "selected"
	if !want {
		state = "not selected"
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: state + ": " + strings.Join(append(prefixed("id ", a.IDs), indexList(a.Indices)...), ", "),
		Actual:   "wrong state for " + strings.Join(wrong, ", "),
		Trace:    trace,
	}
}

func assertCount(trace []TraceEvent, a Assertion, actx *AssertionContext) error {
	got := actx.Session.State().SelectedCount()
	if got == *a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertCount,
		Expected: fmt.Sprintf("%d selected", *a.Count),
		Actual:   fmt.Sprintf("%d selected", got),
		Trace:    trace,
	}
}

func assertMode(trace []TraceEvent, a Assertion, actx *AssertionContext) error {
	sel := actx.Session.State()
	if sel.Mode() != ir.Mode(a.Mode) {
		return &AssertionError{
			Type:     AssertMode,
			Expected: a.Mode,
			Actual:   string(sel.Mode()),
			Trace:    trace,
		}
	}
	if a.RangeCount != nil && sel.RangeCount() != *a.RangeCount {
		return &AssertionError{
			Type:     AssertMode,
			Expected: fmt.Sprintf("range count %d", *a.RangeCount),
			Actual:   fmt.Sprintf("range count %d", sel.RangeCount()),
			Trace:    trace,
		}
	}
	return nil
}

// assertDescriptor compares canonical encodings, so key order and list
// formatting in the scenario do not matter.
func assertDescriptor(trace []TraceEvent, a Assertion, actx *AssertionContext) error {
	want, err := ir.MarshalCanonical(a.Descriptor)
	if err != nil {
		return fmt.Errorf("descriptor: expected value: %w", err)
	}
	got, err := ir.MarshalCanonical(actx.Session.Descriptor().Normalize().Canonical())
	if err != nil {
		return fmt.Errorf("descriptor: %w", err)
	}
	if bytes.Equal(want, got) {
		return nil
	}
	return &AssertionError{
		Type:     AssertDescriptor,
		Expected: string(want),
		Actual:   string(got),
		Trace:    trace,
	}
}

func assertPageState(trace []TraceEvent, a Assertion, actx *AssertionContext) error {
	rows := actx.Session.Rows()
	sel := actx.Session.State()

	full := sel.PageFullySelected(rows)
	indeterminate := sel.PageIndeterminate(rows)
	if (a.FullySelected == nil || *a.FullySelected == full) &&
		(a.Indeterminate == nil || *a.Indeterminate == indeterminate) {
		return nil
	}
	return &AssertionError{
		Type:     AssertPageState,
		Expected: fmt.Sprintf("fully_selected=%s indeterminate=%s", optBool(a.FullySelected), optBool(a.Indeterminate)),
		Actual:   fmt.Sprintf("fully_selected=%t indeterminate=%t", full, indeterminate),
		Trace:    trace,
	}
}

// assertResolved evaluates the final descriptor against the store and
// compares the match count with the engine's.
func assertResolved(trace []TraceEvent, actx *AssertionContext) error {
	sel := actx.Session.State()
	res, err := actx.Store.Resolve(actx.Ctx, sel.Descriptor(), 0)
	if err != nil {
		return err
	}
	if res.Count != sel.SelectedCount() {
		return &AssertionError{
			Type:     AssertResolved,
			Expected: fmt.Sprintf("store resolves %d records", sel.SelectedCount()),
			Actual:   fmt.Sprintf("store resolves %d records", res.Count),
			Trace:    trace,
		}
	}

	// The SQL result must agree with the predicate evaluated record by record.
	matched, err := matchingIDs(actx, res.Descriptor, res.Total)
	if err != nil {
		return err
	}
	if slices.Equal(matched, res.IDs) {
		return nil
	}
	return &AssertionError{
		Type:     AssertResolved,
		Expected: fmt.Sprintf("predicate matches %v", matched),
		Actual:   fmt.Sprintf("store resolves %v", res.IDs),
		Trace:    trace,
	}
}

// matchingIDs evaluates the lowered descriptor against every record.
func matchingIDs(actx *AssertionContext, d ir.Descriptor, total int) ([]ir.RecordID, error) {
	ids := []ir.RecordID{}
	if total == 0 {
		return ids, nil
	}
	page, err := actx.Store.FetchRange(actx.Ctx, 0, total)
	if err != nil {
		return nil, err
	}
	pred := queryir.FromDescriptor(d)
	for _, rec := range page.Records {
		if queryir.Matches(pred, rec.ID, rec.Position) {
			ids = append(ids, rec.ID)
		}
	}
	return ids, nil
}

func assertTraceCount(trace []TraceEvent, a Assertion) error {
	n := 0
	for _, ev := range trace {
		if ev.Action == a.Action {
			n++
		}
	}
	if n == *a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceCount,
		Expected: fmt.Sprintf("%s appears %d times", a.Action, *a.Count),
		Actual:   fmt.Sprintf("%s appears %d times", a.Action, n),
		Trace:    trace,
	}
}

func prefixed(prefix string, ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = prefix + s
	}
	return out
}

func indexList(ns []int) []string {
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = fmt.Sprintf("index %d", n)
	}
	return out
}

func optBool(b *bool) string {
	if b == nil {
		return "any"
	}
	return fmt.Sprintf("%t", *b)
}
