package queryir

import (
	"slices"

	"github.com/roach88/pagesel/internal/ir"
)

// FromDescriptor lowers a descriptor to the predicate selecting exactly the
// records it names. Empty override lists drop out, so NONE lowers to False
// and a bare ALL to True.
func FromDescriptor(d ir.Descriptor) Predicate {
	d = d.Normalize()

	var base Predicate = False{}
	switch d.Mode {
	case ir.ModeAll:
		base = True{}
	case ir.ModeRange:
		if d.RangeCount != nil {
			base = PositionBelow{N: *d.RangeCount}
		}
	}

	p := or(positionIn(d.IncludedIndices), base)
	p = and(not(positionIn(d.ExcludedIndices)), p)
	p = or(idIn(d.IncludedIDs), p)
	return and(not(idIn(d.ExcludedIDs)), p)
}

func idIn(ids []ir.RecordID) Predicate {
	if len(ids) == 0 {
		return False{}
	}
	return IDIn{IDs: slices.Clone(ids)}
}

func positionIn(positions []int) Predicate {
	if len(positions) == 0 {
		return False{}
	}
	return PositionIn{Positions: slices.Clone(positions)}
}

func not(p Predicate) Predicate {
	switch q := p.(type) {
	case True:
		return False{}
	case False:
		return True{}
	case Not:
		return q.Predicate
	default:
		return Not{Predicate: p}
	}
}

func and(a, b Predicate) Predicate {
	switch {
	case isFalse(a) || isFalse(b):
		return False{}
	case isTrue(a):
		return b
	case isTrue(b):
		return a
	default:
		return And{Predicates: []Predicate{a, b}}
	}
}

func or(a, b Predicate) Predicate {
	switch {
	case isTrue(a) || isTrue(b):
		return True{}
	case isFalse(a):
		return b
	case isFalse(b):
		return a
	default:
		return Or{Predicates: []Predicate{a, b}}
	}
}

func isTrue(p Predicate) bool {
	_, ok := p.(True)
	return ok
}

func isFalse(p Predicate) bool {
	_, ok := p.(False)
	return ok
}

// Matches evaluates p against one record. A nil predicate matches.
func Matches(p Predicate, id ir.RecordID, position int) bool {
	switch q := p.(type) {
	case nil, True:
		return true
	case False:
		return false
	case IDIn:
		return slices.Contains(q.IDs, id)
	case PositionIn:
		return slices.Contains(q.Positions, position)
	case PositionBelow:
		return position >= 0 && position < q.N
	case Not:
		return !Matches(q.Predicate, id, position)
	case And:
		for _, sub := range q.Predicates {
			if !Matches(sub, id, position) {
				return false
			}
		}
		return true
	case Or:
		for _, sub := range q.Predicates {
			if Matches(sub, id, position) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
