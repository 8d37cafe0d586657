package ir

// RecordID is the stable identity of a record supplied by the record source.
type RecordID string

// UnknownIndex marks a Row whose absolute index has not been observed.
const UnknownIndex = -1

// Record is a single record as supplied by a record source.
// The engine consumes only ID; Position and Label are carried for presenters
// and for backend resolution.
type Record struct {
	ID       RecordID `json:"id"`
	Position int      `json:"position"`
	Label    string   `json:"label,omitempty"`
}

// Row ties a record id to its absolute index in collection order.
// Either coordinate may be unknown: ID == "" or Index == UnknownIndex.
type Row struct {
	ID    RecordID `json:"id,omitempty"`
	Index int      `json:"index"`
}

// HasID reports whether the row carries a record id.
func (r Row) HasID() bool {
	return r.ID != ""
}

// HasIndex reports whether the row carries an absolute index.
func (r Row) HasIndex() bool {
	return r.Index >= 0
}

// PageRequest addresses one page of the collection.
type PageRequest struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// Offset returns the absolute index of the first record on the page.
func (p PageRequest) Offset() int {
	if p.Page < 0 || p.PageSize <= 0 {
		return 0
	}
	return p.Page * p.PageSize
}

// Page is one page of records plus the collection total reported alongside it.
type Page struct {
	Records      []Record `json:"records"`
	TotalRecords int      `json:"totalRecords"`
}

// PageRows derives the rows of a page from its records and absolute offset.
// Returns an empty slice (not nil) for an empty page.
func PageRows(records []Record, offset int) []Row {
	rows := make([]Row, len(records))
	for i, rec := range records {
		rows[i] = Row{ID: rec.ID, Index: offset + i}
	}
	return rows
}

// PageCount returns how many pages of pageSize cover total records.
func PageCount(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
