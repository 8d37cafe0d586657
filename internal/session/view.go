package session

import "github.com/roach88/pagesel/internal/ir"

// RowView is one rendered row.
type RowView struct {
	ID       ir.RecordID `json:"id"`
	Index    int         `json:"index"`
	Label    string      `json:"label,omitempty"`
	Selected bool        `json:"selected"`
}

// View is everything a presenter needs to draw the list.
type View struct {
	Page                int       `json:"page"`
	PageSize            int       `json:"page_size"`
	PageCount           int       `json:"page_count"`
	TotalRecords        int       `json:"total_records"`
	Loading             bool      `json:"loading"`
	Error               string    `json:"error,omitempty"`
	Rows                []RowView `json:"rows"`
	HeaderChecked       bool      `json:"header_checked"`
	HeaderIndeterminate bool      `json:"header_indeterminate"`
	Mode                ir.Mode   `json:"mode"`
	SelectedCount       int       `json:"selected_count"`
}

// View renders the current page and selection.
func (c *Controller) View() View {
	snap := c.loader.Snapshot()
	sel := c.State()
	rows := ir.PageRows(snap.Records, snap.Loaded.Offset())

	v := View{
		Page:                snap.Loaded.Page,
		PageSize:            c.pageSize,
		PageCount:           ir.PageCount(snap.TotalRecords, c.pageSize),
		TotalRecords:        snap.TotalRecords,
		Loading:             snap.Loading,
		Rows:                make([]RowView, len(rows)),
		HeaderChecked:       sel.PageFullySelected(rows),
		HeaderIndeterminate: sel.PageIndeterminate(rows),
		Mode:                sel.Mode(),
		SelectedCount:       sel.SelectedCount(),
	}
	if snap.Err != nil {
		v.Error = snap.Err.UserMessage()
	}
	for i, r := range rows {
		v.Rows[i] = RowView{
			ID:       r.ID,
			Index:    r.Index,
			Label:    snap.Records[i].Label,
			Selected: sel.IsSelected(r),
		}
	}
	return v
}
