package selection

import (
	"slices"

	"github.com/roach88/pagesel/internal/ir"
)

// Descriptor projects the state onto its minimal wire form.
//
//	NONE      bare mode
//	EXPLICIT  includedIds (+ includedIndices for never-resolved positions)
//	RANGE     rangeCount + effective exclusions + inclusions past the range
//	ALL       effective exclusions
//
// Overrides made inert by a clamped range are left out.
func (s State) Descriptor() ir.Descriptor {
	d := ir.Descriptor{Mode: s.Mode()}
	switch d.Mode {
	case ir.ModeExplicit:
		d.IncludedIDs = s.effectiveIDs(s.ov.includedIDs, false)
		d.IncludedIndices = s.effectiveIndices(s.ov.includedIndices, false)
	case ir.ModeRange:
		d.RangeCount = ir.IntPtr(s.param)
		d.IncludedIDs = s.effectiveIDs(s.ov.includedIDs, false)
		d.IncludedIndices = s.effectiveIndices(s.ov.includedIndices, false)
		d.ExcludedIDs = s.effectiveIDs(s.ov.excludedIDs, true)
		d.ExcludedIndices = s.effectiveIndices(s.ov.excludedIndices, true)
	case ir.ModeAll:
		d.ExcludedIDs = s.effectiveIDs(s.ov.excludedIDs, true)
		d.ExcludedIndices = s.effectiveIndices(s.ov.excludedIndices, true)
	}
	return d
}

// effectiveIDs returns the sorted ids whose default membership equals base,
// or nil when there are none.
func (s State) effectiveIDs(ids idSet, base bool) []ir.RecordID {
	var out []ir.RecordID
	for id := range ids {
		idx, known := s.ids.indexByID[id]
		if !known {
			idx = ir.UnknownIndex
		}
		if s.baseSelected(idx) == base {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

func (s State) effectiveIndices(indices indexSet, base bool) []int {
	var out []int
	for idx := range indices {
		if s.baseSelected(idx) == base {
			out = append(out, idx)
		}
	}
	slices.Sort(out)
	return out
}

// DescriptorSelects reconstructs membership of one row from a descriptor
// alone, with the same precedence IsSelected uses. Rows should carry both
// coordinates; a descriptor has no identity cache to fill the gaps.
func DescriptorSelects(d ir.Descriptor, r ir.Row) bool {
	r = normalizeRow(r)
	if r.HasID() {
		if slices.Contains(d.ExcludedIDs, r.ID) {
			return false
		}
		if slices.Contains(d.IncludedIDs, r.ID) {
			return true
		}
	}
	if r.HasIndex() {
		if slices.Contains(d.ExcludedIndices, r.Index) {
			return false
		}
		if slices.Contains(d.IncludedIndices, r.Index) {
			return true
		}
	}
	switch d.Mode {
	case ir.ModeAll:
		return true
	case ir.ModeRange:
		return d.RangeCount != nil && r.HasIndex() && r.Index < *d.RangeCount
	default:
		return false
	}
}
