package selection

import (
	"maps"
	"slices"

	"github.com/roach88/pagesel/internal/ir"
)

type idSet map[ir.RecordID]struct{}

type indexSet map[int]struct{}

// overrides holds the records whose membership deviates from the base mode.
type overrides struct {
	includedIDs     idSet
	includedIndices indexSet
	excludedIDs     idSet
	excludedIndices indexSet
}

// identityCache maps absolute indices to record ids and back.
// Entries are only added or refreshed, never removed.
type identityCache struct {
	indexByID map[ir.RecordID]int
	idByIndex map[int]ir.RecordID
}

// State is the complete selection state of one collection.
//
// The zero value is a NONE selection over an empty collection; use New to
// start from a known total.
type State struct {
	mode  ir.Mode
	param int
	total int
	ov    overrides
	ids   identityCache
}

// New creates a NONE selection over a collection of total records.
func New(total int) State {
	return State{
		mode:  ir.ModeNone,
		total: max(total, 0),
	}
}

// Mode returns the base selection mode.
func (s State) Mode() ir.Mode {
	if s.mode == "" {
		return ir.ModeNone
	}
	return s.mode
}

// Param returns the mode parameter: the range count for RANGE, the total at
// selection time for ALL (kept in step with UpdateTotal), 0 otherwise.
func (s State) Param() int {
	return s.param
}

// RangeCount returns the number of leading records RANGE selects by default,
// or 0 in any other mode.
func (s State) RangeCount() int {
	if s.Mode() != ir.ModeRange {
		return 0
	}
	return s.param
}

// Total returns the collection size last reported to the engine.
func (s State) Total() int {
	return s.total
}

// Observed returns how many ids have a known absolute index.
func (s State) Observed() int {
	return len(s.ids.indexByID)
}

// Overrides is a sorted snapshot of the override sets, for traces and tests.
type Overrides struct {
	IncludedIDs     []ir.RecordID `json:"included_ids,omitempty"`
	IncludedIndices []int         `json:"included_indices,omitempty"`
	ExcludedIDs     []ir.RecordID `json:"excluded_ids,omitempty"`
	ExcludedIndices []int         `json:"excluded_indices,omitempty"`
}

// Empty reports whether no override of any kind is stored.
func (o Overrides) Empty() bool {
	return len(o.IncludedIDs) == 0 && len(o.IncludedIndices) == 0 &&
		len(o.ExcludedIDs) == 0 && len(o.ExcludedIndices) == 0
}

// Overrides returns a sorted copy of the stored override sets.
func (s State) Overrides() Overrides {
	return Overrides{
		IncludedIDs:     sortedIDs(s.ov.includedIDs),
		IncludedIndices: sortedIndices(s.ov.includedIndices),
		ExcludedIDs:     sortedIDs(s.ov.excludedIDs),
		ExcludedIndices: sortedIndices(s.ov.excludedIndices),
	}
}

// clone deep-copies every set so the receiver stays untouched by mutation
// of the result.
func (s State) clone() State {
	next := s
	next.mode = s.Mode()
	next.ov = overrides{
		includedIDs:     cloneIDs(s.ov.includedIDs),
		includedIndices: cloneIndices(s.ov.includedIndices),
		excludedIDs:     cloneIDs(s.ov.excludedIDs),
		excludedIndices: cloneIndices(s.ov.excludedIndices),
	}
	next.ids = identityCache{
		indexByID: maps.Clone(s.ids.indexByID),
		idByIndex: maps.Clone(s.ids.idByIndex),
	}
	if next.ids.indexByID == nil {
		next.ids.indexByID = make(map[ir.RecordID]int)
	}
	if next.ids.idByIndex == nil {
		next.ids.idByIndex = make(map[int]ir.RecordID)
	}
	return next
}

func cloneIDs(set idSet) idSet {
	out := make(idSet, len(set))
	for id := range set {
		out[id] = struct{}{}
	}
	return out
}

func cloneIndices(set indexSet) indexSet {
	out := make(indexSet, len(set))
	for idx := range set {
		out[idx] = struct{}{}
	}
	return out
}

// resetOverrides drops every override. The identity cache survives.
func (s *State) resetOverrides() {
	s.ov = overrides{
		includedIDs:     make(idSet),
		includedIndices: make(indexSet),
		excludedIDs:     make(idSet),
		excludedIndices: make(indexSet),
	}
}

// observe records the id/index correspondence of a row carrying both.
// A later observation of the same id at a new index wins.
func (s *State) observe(r ir.Row) {
	r = normalizeRow(r)
	if !r.HasID() || !r.HasIndex() {
		return
	}
	s.ids.indexByID[r.ID] = r.Index
	s.ids.idByIndex[r.Index] = r.ID
}

// resolve fills in whichever coordinate of r the identity cache knows.
func (s State) resolve(r ir.Row) ir.Row {
	r = normalizeRow(r)
	if !r.HasID() && r.HasIndex() {
		if id, ok := s.ids.idByIndex[r.Index]; ok {
			r.ID = id
		}
	}
	if r.HasID() && !r.HasIndex() {
		if idx, ok := s.ids.indexByID[r.ID]; ok {
			r.Index = idx
		}
	}
	return r
}

func normalizeRow(r ir.Row) ir.Row {
	if r.Index < 0 {
		r.Index = ir.UnknownIndex
	}
	return r
}

// baseSelected reports the mode's default membership for an absolute index.
// An unknown index is never inside a range.
func (s State) baseSelected(index int) bool {
	switch s.Mode() {
	case ir.ModeAll:
		return true
	case ir.ModeRange:
		return index >= 0 && index < s.param
	default:
		return false
	}
}

func sortedIDs(set idSet) []ir.RecordID {
	out := make([]ir.RecordID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func sortedIndices(set indexSet) []int {
	out := make([]int, 0, len(set))
	for idx := range set {
		out = append(out, idx)
	}
	slices.Sort(out)
	return out
}
