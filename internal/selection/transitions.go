package selection

import "github.com/roach88/pagesel/internal/ir"

// Toggle flips the effective membership of one record.
//
// The row's id/index pair is recorded in the identity cache first: a toggle
// is the command that reliably ties both coordinates of one record together.
func (s State) Toggle(r ir.Row) State {
	next := s.clone()
	next.observe(r)
	next.setMembership(r, !next.IsSelected(r))
	return next
}

// SelectPage selects every row of a page. On NONE it promotes to EXPLICIT.
func (s State) SelectPage(rows []ir.Row) State {
	return s.SyncPage(rows, true)
}

// DeselectPage deselects every row of a page.
func (s State) DeselectPage(rows []ir.Row) State {
	return s.SyncPage(rows, false)
}

// SyncPage drives every row of a page to the given membership, applying the
// same minimality rule as Toggle per row.
func (s State) SyncPage(rows []ir.Row, selected bool) State {
	next := s.clone()
	for _, r := range rows {
		next.observe(r)
		next.setMembership(r, selected)
	}
	return next
}

// BulkSelect selects exactly the first count records and nothing else.
//
// count is clamped to [0, total]. Zero clears the selection; anything else
// switches to RANGE and discards every prior override.
func (s State) BulkSelect(count int) State {
	next := s.clone()
	count = min(max(count, 0), next.total)
	next.resetOverrides()
	if count == 0 {
		next.mode = ir.ModeNone
		next.param = 0
		return next
	}
	next.mode = ir.ModeRange
	next.param = count
	return next
}

// SelectAll selects every record, discarding prior overrides.
func (s State) SelectAll() State {
	next := s.clone()
	next.resetOverrides()
	next.mode = ir.ModeAll
	next.param = next.total
	return next
}

// Clear returns to NONE with no overrides.
func (s State) Clear() State {
	next := s.clone()
	next.resetOverrides()
	next.mode = ir.ModeNone
	next.param = 0
	return next
}

// UpdateTotal records a new collection size reported by the record source.
//
// RANGE is clamped to the new total and ALL follows it. Overrides and the
// identity cache are left untouched.
func (s State) UpdateTotal(total int) State {
	next := s.clone()
	next.total = max(total, 0)
	switch next.mode {
	case ir.ModeRange:
		next.param = min(next.param, next.total)
	case ir.ModeAll:
		next.param = next.total
	}
	return next
}

// setMembership drives one record to the wanted membership while keeping the
// override sets minimal: an override is stored only when the mode's default
// disagrees with the wanted membership, and the opposite override is always
// dropped.
func (s *State) setMembership(r ir.Row, selected bool) {
	r = s.resolve(r)
	if !r.HasID() && !r.HasIndex() {
		return
	}

	base := s.baseSelected(r.Index)
	if selected {
		s.dropExcluded(r)
		if base {
			s.dropIncluded(r)
			return
		}
		if s.mode == ir.ModeNone {
			s.mode = ir.ModeExplicit
		}
		s.addIncluded(r)
		return
	}

	s.dropIncluded(r)
	if base {
		s.addExcluded(r)
		return
	}
	s.dropExcluded(r)
}

// addIncluded stores an inclusion, id-keyed whenever the id is known.
func (s *State) addIncluded(r ir.Row) {
	if r.HasID() {
		s.ov.includedIDs[r.ID] = struct{}{}
		if r.HasIndex() {
			delete(s.ov.includedIndices, r.Index)
		}
		return
	}
	s.ov.includedIndices[r.Index] = struct{}{}
}

// addExcluded stores an exclusion, id-keyed whenever the id is known.
func (s *State) addExcluded(r ir.Row) {
	if r.HasID() {
		s.ov.excludedIDs[r.ID] = struct{}{}
		if r.HasIndex() {
			delete(s.ov.excludedIndices, r.Index)
		}
		return
	}
	s.ov.excludedIndices[r.Index] = struct{}{}
}

func (s *State) dropIncluded(r ir.Row) {
	if r.HasID() {
		delete(s.ov.includedIDs, r.ID)
	}
	if r.HasIndex() {
		delete(s.ov.includedIndices, r.Index)
	}
}

func (s *State) dropExcluded(r ir.Row) {
	if r.HasID() {
		delete(s.ov.excludedIDs, r.ID)
	}
	if r.HasIndex() {
		delete(s.ov.excludedIndices, r.Index)
	}
}
