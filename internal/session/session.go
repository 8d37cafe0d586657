// Package session drives one paginated, selectable record list: it joins a
// fetch.Loader to a selection.State and exposes the commands and queries a
// presenter needs.
//
// The loader and the selection state sit behind separate locks. The only
// value crossing between them is the collection total, applied with
// UpdateTotal after the loader has released its lock, and only from the
// newest accepted page.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/pagesel/internal/fetch"
	"github.com/roach88/pagesel/internal/ir"
	"github.com/roach88/pagesel/internal/selection"
)

// DefaultPageSize is used when a non-positive page size is configured.
const DefaultPageSize = 12

// ErrNotOnPage is returned when a record id is not on the loaded page.
var ErrNotOnPage = errors.New("record is not on the current page")

// Controller is the state of one list view.
//
// Thread-safety: all methods are safe for concurrent use.
type Controller struct {
	loader   *fetch.Loader
	logger   *slog.Logger
	pageSize int

	mu          sync.Mutex
	sel         selection.State
	appliedGen  uint64
	commandsRun int
}

// Option configures a Controller.
type Option func(*options)

type options struct {
	logger *slog.Logger
	ids    fetch.RequestIDGenerator
}

// WithLogger sets the logger used by the controller and its loader.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithRequestIDs sets the loader's request id generator.
func WithRequestIDs(ids fetch.RequestIDGenerator) Option {
	return func(o *options) { o.ids = ids }
}

// New creates a controller over source. Nothing is fetched until Mount.
func New(source fetch.Source, pageSize int, opts ...Option) *Controller {
	o := options{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	return &Controller{
		loader:   fetch.NewLoader(source, fetch.WithLogger(o.logger), fetch.WithRequestIDs(o.ids)),
		logger:   o.logger,
		pageSize: pageSize,
		sel:      selection.New(0),
	}
}

// PageSize returns the configured page size.
func (c *Controller) PageSize() int {
	return c.pageSize
}

// Mount loads the first page.
func (c *Controller) Mount(ctx context.Context) error {
	return c.GoToPage(ctx, 0)
}

// GoToPage loads a page, superseding any in-flight load. A negative page
// loads page 0.
func (c *Controller) GoToPage(ctx context.Context, page int) error {
	res, err := c.loader.Load(ctx, ir.PageRequest{Page: max(page, 0), PageSize: c.pageSize})
	if err != nil {
		return err
	}
	c.applyTotal(res)
	return nil
}

// Retry re-issues the last page request.
func (c *Controller) Retry(ctx context.Context) error {
	res, err := c.loader.Retry(ctx)
	if err != nil {
		return err
	}
	c.applyTotal(res)
	return nil
}

// Refresh reloads the current page.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.GoToPage(ctx, c.loader.Snapshot().Request.Page)
}

// applyTotal forwards the total of an accepted page. Results from a load
// older than one already applied are ignored.
func (c *Controller) applyTotal(res fetch.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if res.Generation < c.appliedGen {
		return
	}
	c.appliedGen = res.Generation
	if res.Page.TotalRecords != c.sel.Total() {
		c.logger.Info("collection total changed",
			"request_id", res.RequestID,
			"from", c.sel.Total(),
			"to", res.Page.TotalRecords)
	}
	c.sel = c.sel.UpdateTotal(res.Page.TotalRecords)
}

// Close abandons any in-flight page load; its caller gets
// fetch.ErrSuperseded. Loaded records and the selection are kept.
func (c *Controller) Close() {
	c.loader.Cancel()
}

// Apply runs one selection command against the current state. A nil
// command is a no-op.
func (c *Controller) Apply(cmd selection.Command) {
	if cmd == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sel = selection.Apply(c.sel, cmd)
	c.commandsRun++
	c.logger.Debug("selection command applied",
		"command", cmd.Name(),
		"mode", c.sel.Mode(),
		"selected", c.sel.SelectedCount())
}

// Rows returns the loaded page as rows with absolute indices.
func (c *Controller) Rows() []ir.Row {
	snap := c.loader.Snapshot()
	return ir.PageRows(snap.Records, snap.Loaded.Offset())
}

// Toggle flips one row.
func (c *Controller) Toggle(r ir.Row) {
	c.Apply(selection.ToggleCmd{Row: r})
}

// ToggleRecord flips the record with the given id on the loaded page.
func (c *Controller) ToggleRecord(id ir.RecordID) error {
	for _, r := range c.Rows() {
		if r.ID == id {
			c.Toggle(r)
			return nil
		}
	}
	return fmt.Errorf("toggle %q: %w", id, ErrNotOnPage)
}

// SelectPage selects every row of the loaded page.
func (c *Controller) SelectPage() {
	c.Apply(selection.SelectPageCmd{Rows: c.Rows()})
}

// DeselectPage deselects every row of the loaded page.
func (c *Controller) DeselectPage() {
	c.Apply(selection.DeselectPageCmd{Rows: c.Rows()})
}

// ToggleHeader is the page checkbox: a fully selected page is deselected,
// anything else is selected.
func (c *Controller) ToggleHeader() {
	rows := c.Rows()
	if c.State().PageFullySelected(rows) {
		c.Apply(selection.DeselectPageCmd{Rows: rows})
		return
	}
	c.Apply(selection.SelectPageCmd{Rows: rows})
}

// BulkSelect selects the first n records.
func (c *Controller) BulkSelect(n int) {
	c.Apply(selection.BulkSelectCmd{Count: n})
}

// SelectAll selects every record.
func (c *Controller) SelectAll() {
	c.Apply(selection.SelectAllCmd{})
}

// Clear deselects everything.
func (c *Controller) Clear() {
	c.Apply(selection.ClearCmd{})
}

// State returns the current selection state. States are values; the copy
// never changes.
func (c *Controller) State() selection.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sel
}

// Fetch returns the loader's state.
func (c *Controller) Fetch() fetch.Snapshot {
	return c.loader.Snapshot()
}

// Descriptor returns the wire form of the current selection.
func (c *Controller) Descriptor() ir.Descriptor {
	return c.State().Descriptor()
}
