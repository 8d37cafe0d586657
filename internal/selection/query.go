package selection

import "github.com/roach88/pagesel/internal/ir"

// IsSelected reports whether a record is selected.
//
// Precedence: excludedIds, includedIds, excludedIndices, includedIndices,
// then the mode's default. A missing coordinate is filled in from the
// identity cache before the checks run.
func (s State) IsSelected(r ir.Row) bool {
	r = s.resolve(r)
	if r.HasID() {
		if _, ok := s.ov.excludedIDs[r.ID]; ok {
			return false
		}
		if _, ok := s.ov.includedIDs[r.ID]; ok {
			return true
		}
	}
	if r.HasIndex() {
		if _, ok := s.ov.excludedIndices[r.Index]; ok {
			return false
		}
		if _, ok := s.ov.includedIndices[r.Index]; ok {
			return true
		}
	}
	return s.baseSelected(r.Index)
}

// SelectedCount returns how many records are selected without enumerating
// the collection. Cost is proportional to the number of stored overrides.
func (s State) SelectedCount() int {
	total := max(s.total, 0)

	var n int
	switch s.Mode() {
	case ir.ModeRange:
		n = min(s.param, total)
		n -= s.countDistinct(s.ov.excludedIDs, s.ov.excludedIndices, true)
		n += s.countDistinct(s.ov.includedIDs, s.ov.includedIndices, false)
	case ir.ModeAll:
		n = total
		n -= s.countDistinct(s.ov.excludedIDs, s.ov.excludedIndices, true)
	default:
		n = s.countDistinct(s.ov.includedIDs, s.ov.includedIndices, false)
	}

	return min(max(n, 0), total)
}

// countDistinct counts the records named by an id set and an index set whose
// default membership equals base, deduplicating ids that resolve to an index
// already counted. An id with no known index counts once. Indices at or past
// the total are inert.
func (s State) countDistinct(ids idSet, indices indexSet, base bool) int {
	total := max(s.total, 0)
	seen := make(map[int]struct{}, len(indices))

	n := 0
	for idx := range indices {
		if idx >= total || s.baseSelected(idx) != base {
			continue
		}
		seen[idx] = struct{}{}
		n++
	}
	for id := range ids {
		idx, known := s.ids.indexByID[id]
		if !known {
			if s.baseSelected(ir.UnknownIndex) == base {
				n++
			}
			continue
		}
		if idx >= total || s.baseSelected(idx) != base {
			continue
		}
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		n++
	}
	return n
}

// PageFullySelected reports whether a non-empty page has every row selected.
func (s State) PageFullySelected(rows []ir.Row) bool {
	if len(rows) == 0 {
		return false
	}
	for _, r := range rows {
		if !s.IsSelected(r) {
			return false
		}
	}
	return true
}

// PageIndeterminate reports whether a page has at least one selected and at
// least one unselected row.
func (s State) PageIndeterminate(rows []ir.Row) bool {
	var selected, unselected bool
	for _, r := range rows {
		if s.IsSelected(r) {
			selected = true
		} else {
			unselected = true
		}
		if selected && unselected {
			return true
		}
	}
	return false
}
