package ir

import "slices"

// Descriptor is the minimal external form of a selection, handed to a bulk
// operation backend instead of an exhaustive id list.
//
// Only the fields relevant to Mode are set; absent fields mean "no override
// of that kind". Lists are sorted ascending.
type Descriptor struct {
	Mode            Mode       `json:"mode"`
	RangeCount      *int       `json:"rangeCount,omitempty"`
	IncludedIDs     []RecordID `json:"includedIds,omitempty"`
	IncludedIndices []int      `json:"includedIndices,omitempty"`
	ExcludedIDs     []RecordID `json:"excludedIds,omitempty"`
	ExcludedIndices []int      `json:"excludedIndices,omitempty"`
}

// IntPtr returns a pointer to n. Used to build RANGE descriptors.
func IntPtr(n int) *int {
	return &n
}

// Normalize returns a copy with every list sorted ascending, duplicates
// removed, and empty lists set to nil.
func (d Descriptor) Normalize() Descriptor {
	if d.RangeCount != nil {
		d.RangeCount = IntPtr(*d.RangeCount)
	}
	d.IncludedIDs = compactSorted(d.IncludedIDs)
	d.IncludedIndices = compactSorted(d.IncludedIndices)
	d.ExcludedIDs = compactSorted(d.ExcludedIDs)
	d.ExcludedIndices = compactSorted(d.ExcludedIndices)
	return d
}

func compactSorted[T RecordID | int](in []T) []T {
	if len(in) == 0 {
		return nil
	}
	out := slices.Clone(in)
	slices.Sort(out)
	return slices.Compact(out)
}

// Canonical converts the descriptor to a plain map suitable for
// MarshalCanonical. Empty lists are omitted, matching the JSON encoding.
func (d Descriptor) Canonical() map[string]any {
	out := map[string]any{
		"mode": string(d.Mode),
	}
	if d.RangeCount != nil {
		out["rangeCount"] = *d.RangeCount
	}
	if len(d.IncludedIDs) > 0 {
		out["includedIds"] = idList(d.IncludedIDs)
	}
	if len(d.IncludedIndices) > 0 {
		out["includedIndices"] = intList(d.IncludedIndices)
	}
	if len(d.ExcludedIDs) > 0 {
		out["excludedIds"] = idList(d.ExcludedIDs)
	}
	if len(d.ExcludedIndices) > 0 {
		out["excludedIndices"] = intList(d.ExcludedIndices)
	}
	return out
}

func idList(ids []RecordID) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

func intList(ns []int) []any {
	out := make([]any, len(ns))
	for i, n := range ns {
		out[i] = n
	}
	return out
}
