package selection

import "github.com/roach88/pagesel/internal/ir"

// Command is a closed set of selection commands.
// Only types in this package implement it.
type Command interface {
	// Name identifies the command in traces.
	Name() string

	command()
}

// ToggleCmd flips one record.
type ToggleCmd struct {
	Row ir.Row
}

// SelectPageCmd selects every row of a page.
type SelectPageCmd struct {
	Rows []ir.Row
}

// DeselectPageCmd deselects every row of a page.
type DeselectPageCmd struct {
	Rows []ir.Row
}

// SyncPageCmd drives every row of a page to Selected.
type SyncPageCmd struct {
	Rows     []ir.Row
	Selected bool
}

// BulkSelectCmd selects the first Count records.
type BulkSelectCmd struct {
	Count int
}

// SelectAllCmd selects every record.
type SelectAllCmd struct{}

// ClearCmd deselects everything.
type ClearCmd struct{}

// UpdateTotalCmd reports a new collection size.
type UpdateTotalCmd struct {
	Total int
}

func (ToggleCmd) Name() string       { return "toggle" }
func (SelectPageCmd) Name() string   { return "select_page" }
func (DeselectPageCmd) Name() string { return "deselect_page" }
func (SyncPageCmd) Name() string     { return "sync_page" }
func (BulkSelectCmd) Name() string   { return "bulk_select" }
func (SelectAllCmd) Name() string    { return "select_all" }
func (ClearCmd) Name() string        { return "clear" }
func (UpdateTotalCmd) Name() string  { return "update_total" }

func (ToggleCmd) command()       {}
func (SelectPageCmd) command()   {}
func (DeselectPageCmd) command() {}
func (SyncPageCmd) command()     {}
func (BulkSelectCmd) command()   {}
func (SelectAllCmd) command()    {}
func (ClearCmd) command()        {}
func (UpdateTotalCmd) command()  {}

// Apply maps (state, command) to the next state.
// A nil command returns s unchanged.
func Apply(s State, c Command) State {
	switch cmd := c.(type) {
	case ToggleCmd:
		return s.Toggle(cmd.Row)
	case SelectPageCmd:
		return s.SelectPage(cmd.Rows)
	case DeselectPageCmd:
		return s.DeselectPage(cmd.Rows)
	case SyncPageCmd:
		return s.SyncPage(cmd.Rows, cmd.Selected)
	case BulkSelectCmd:
		return s.BulkSelect(cmd.Count)
	case SelectAllCmd:
		return s.SelectAll()
	case ClearCmd:
		return s.Clear()
	case UpdateTotalCmd:
		return s.UpdateTotal(cmd.Total)
	default:
		return s
	}
}
