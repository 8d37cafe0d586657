package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/roach88/pagesel/internal/fetch"
	"github.com/roach88/pagesel/internal/ir"
	"github.com/roach88/pagesel/internal/selection"
	"github.com/roach88/pagesel/internal/session"
	"github.com/roach88/pagesel/internal/store"
	"github.com/roach88/pagesel/internal/testutil"
)

// ActionMount is the trace action of the initial page load.
const ActionMount = "mount"

// Harness is the scenario execution engine.
// It runs one scenario against a fresh store with a deterministic clock and
// request ids.
type Harness struct {
	store  *store.Store
	source *faultySource
	ctrl   *session.Controller
	clock  *testutil.StepClock
	logger *slog.Logger
}

// Option configures a run.
type Option func(*runOptions)

type runOptions struct {
	logger *slog.Logger
}

// WithLogger routes session and loader logs to logger. Runs are silent by
// default.
func WithLogger(logger *slog.Logger) Option {
	return func(o *runOptions) { o.logger = logger }
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Create and seed a fresh in-memory store
//  2. Mount a session on page 0
//  3. Execute steps, checking expect clauses
//  4. Evaluate assertions against the final state and trace
//
// A failed expect clause or assertion marks the result as failed. An
// error is returned only when the scenario cannot be executed at all.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	o := runOptions{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	if err := st.Seed(ctx, scenario.Total); err != nil {
		return nil, fmt.Errorf("failed to seed store: %w", err)
	}

	src := &faultySource{store: st}
	h := &Harness{
		store:  st,
		source: src,
		ctrl: session.New(src, scenario.PageSize,
			session.WithLogger(o.logger),
			session.WithRequestIDs(testutil.NewSequenceGenerator(scenario.RequestPrefix))),
		clock:  testutil.NewStepClock(),
		logger: o.logger.With("scenario", scenario.Name),
	}
	defer h.ctrl.Close()

	result := NewResult()
	mountErr, err := h.fetchStep(h.ctrl.Mount(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to mount: %w", err)
	}
	result.AddTrace(h.event(ActionMount, nil, mountErr))

	for i, step := range scenario.Steps {
		fetchErr, err := h.execute(ctx, step)
		if err != nil {
			return nil, fmt.Errorf("steps[%d] %s: %w", i, step.Do, err)
		}
		ev := h.event(step.Do, stepArgs(step), fetchErr)
		result.AddTrace(ev)

		if step.Expect != nil {
			for _, msg := range checkExpect(i, step, ev) {
				result.AddError(msg)
			}
		}
	}

	result.Final = h.ctrl.Descriptor()

	actx := &AssertionContext{
		Ctx:     ctx,
		Store:   st,
		Session: h.ctrl,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	h.logger.Debug("scenario finished", "pass", result.Pass, "steps", len(scenario.Steps))
	return result, nil
}

// resize grows or shrinks the collection at its end. Removed records take
// their ids with them; appended records continue the seeded numbering.
func (h *Harness) resize(ctx context.Context, total int) error {
	current, err := h.store.Count(ctx)
	if err != nil {
		return err
	}
	if total < current {
		removed, err := h.store.Truncate(ctx, total)
		if err != nil {
			return err
		}
		h.logger.Debug("collection truncated", "removed", removed, "total", total)
		return nil
	}

	records := make([]ir.Record, 0, total-current)
	for i := current; i < total; i++ {
		id := strconv.Itoa(i + 1)
		records = append(records, ir.Record{ID: ir.RecordID(id), Label: "Record " + id})
	}
	if len(records) == 0 {
		return nil
	}
	if _, err := h.store.AppendRecords(ctx, records); err != nil {
		return err
	}
	h.logger.Debug("collection grown", "added", len(records), "total", total)
	return nil
}

// execute runs one step. A fetch failure is returned as the first value
// and does not stop the scenario.
func (h *Harness) execute(ctx context.Context, step Step) (*fetch.Error, error) {
	switch step.Do {
	case StepGotoPage:
		return h.fetchStep(h.ctrl.GoToPage(ctx, *step.Page))
	case StepRetry:
		return h.fetchStep(h.ctrl.Retry(ctx))
	case StepResize:
		if err := h.resize(ctx, *step.Total); err != nil {
			return nil, err
		}
		return h.fetchStep(h.ctrl.Refresh(ctx))
	case StepFailNext:
		h.source.failNext()
	case StepToggle:
		h.ctrl.Toggle(h.rowFor(step))
	case StepSelectPage:
		h.ctrl.SelectPage()
	case StepDeselectPage:
		h.ctrl.DeselectPage()
	case StepToggleHeader:
		h.ctrl.ToggleHeader()
	case StepSyncPage:
		h.ctrl.Apply(selection.SyncPageCmd{Rows: h.ctrl.Rows(), Selected: *step.Selected})
	case StepBulkSelect:
		h.ctrl.BulkSelect(*step.Count)
	case StepSelectAll:
		h.ctrl.SelectAll()
	case StepClear:
		h.ctrl.Clear()
	case StepUpdateTotal:
		h.ctrl.Apply(selection.UpdateTotalCmd{Total: *step.Total})
	default:
		return nil, fmt.Errorf("unknown step %q", step.Do)
	}
	return nil, nil
}

// fetchStep separates fetch failures, which scenarios may expect, from
// errors that abort the run.
func (h *Harness) fetchStep(err error) (*fetch.Error, error) {
	if err == nil {
		return nil, nil
	}
	var fe *fetch.Error
	if errors.As(err, &fe) {
		return fe, nil
	}
	return nil, err
}

// rowFor addresses a toggle the way a list does: through the loaded page
// when the record is on it, by the lone coordinate otherwise.
func (h *Harness) rowFor(step Step) ir.Row {
	for _, r := range h.ctrl.Rows() {
		if step.ID != "" && r.ID == ir.RecordID(step.ID) {
			return r
		}
		if step.ID == "" && r.Index == *step.Index {
			return r
		}
	}
	row := ir.Row{ID: ir.RecordID(step.ID), Index: ir.UnknownIndex}
	if step.Index != nil {
		row.Index = *step.Index
	}
	return row
}

// event captures the state after a step.
func (h *Harness) event(action string, args map[string]any, fetchErr *fetch.Error) TraceEvent {
	snap := h.ctrl.Fetch()
	sel := h.ctrl.State()
	rows := h.ctrl.Rows()
	ev := TraceEvent{
		Step:       h.clock.Tick(),
		Action:     action,
		Args:       args,
		RequestID:  snap.RequestID,
		Page:       snap.Loaded.Page,
		Total:      sel.Total(),
		Mode:       sel.Mode(),
		Selected:   sel.SelectedCount(),
		Descriptor: sel.Descriptor(),

		HeaderChecked:       sel.PageFullySelected(rows),
		HeaderIndeterminate: sel.PageIndeterminate(rows),
	}
	if fetchErr != nil {
		ev.Error = string(fetchErr.Kind)
	}
	return ev
}

// stepArgs lists the fields a step set, for the trace.
func stepArgs(step Step) map[string]any {
	args := map[string]any{}
	if step.ID != "" {
		args["id"] = step.ID
	}
	if step.Index != nil {
		args["index"] = *step.Index
	}
	if step.Page != nil {
		args["page"] = *step.Page
	}
	if step.Count != nil {
		args["count"] = *step.Count
	}
	if step.Total != nil {
		args["total"] = *step.Total
	}
	if step.Selected != nil {
		args["selected"] = *step.Selected
	}
	if len(args) == 0 {
		return nil
	}
	return args
}

// checkExpect compares a step's expect clause with the traced state.
func checkExpect(index int, step Step, ev TraceEvent) []string {
	var errs []string
	exp := step.Expect
	if exp.Count != nil && *exp.Count != ev.Selected {
		errs = append(errs, fmt.Sprintf("steps[%d] %s: expected count %d, got %d", index, step.Do, *exp.Count, ev.Selected))
	}
	if exp.Mode != "" && ir.Mode(exp.Mode) != ev.Mode {
		errs = append(errs, fmt.Sprintf("steps[%d] %s: expected mode %s, got %s", index, step.Do, exp.Mode, ev.Mode))
	}
	if exp.FullySelected != nil && *exp.FullySelected != ev.HeaderChecked {
		errs = append(errs, fmt.Sprintf("steps[%d] %s: expected fully_selected %t, got %t", index, step.Do, *exp.FullySelected, ev.HeaderChecked))
	}
	if exp.Indeterminate != nil && *exp.Indeterminate != ev.HeaderIndeterminate {
		errs = append(errs, fmt.Sprintf("steps[%d] %s: expected indeterminate %t, got %t", index, step.Do, *exp.Indeterminate, ev.HeaderIndeterminate))
	}
	switch {
	case exp.Error == "":
	case exp.Error == "none" && ev.Error != "":
		errs = append(errs, fmt.Sprintf("steps[%d] %s: expected no fetch error, got %s", index, step.Do, ev.Error))
	case exp.Error != "none" && exp.Error != ev.Error:
		errs = append(errs, fmt.Sprintf("steps[%d] %s: expected fetch error %s, got %q", index, step.Do, exp.Error, ev.Error))
	}
	return errs
}

// faultySource serves pages from the store, failing on demand.
type faultySource struct {
	store *store.Store

	mu       sync.Mutex
	failures int
}

func (s *faultySource) failNext() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures++
}

// FetchPage implements fetch.Source.
func (s *faultySource) FetchPage(ctx context.Context, req ir.PageRequest) (ir.Page, error) {
	s.mu.Lock()
	if s.failures > 0 {
		s.failures--
		s.mu.Unlock()
		return ir.Page{}, &fetch.Error{Kind: fetch.KindServerStatus, Status: 503, Message: "injected failure"}
	}
	s.mu.Unlock()
	return s.store.FetchPage(ctx, req)
}
