// Package selection implements the selection-state engine for paginated
// collections.
//
// The engine tracks which records of a virtual collection are selected
// without ever holding a per-record flag. State is a base mode plus four
// override sets:
//
//	mode        NONE | EXPLICIT | RANGE(n) | ALL
//	included    ids and indices selected despite the mode
//	excluded    ids and indices deselected despite the mode
//
// Memory is proportional to the records a user has touched; every untouched
// record is classified in O(1) by the mode alone.
//
// ARCHITECTURE:
//
// Explicit state passing:
// State is a value. Every command returns a new State and leaves its receiver
// unchanged; queries take the State plus arguments. There is no package-level
// state and nothing here is safe or unsafe for concurrency by itself - the
// owner serializes access (see internal/session).
//
// Dual keying:
// Individual gestures arrive keyed by record id, bulk gestures by absolute
// index. Both key spaces have their own override sets and are bridged by an
// identity cache filled whenever a command carries both coordinates of a row.
// Membership checks ids first because ids are the stable identity:
//
//	excludedIds -> includedIds -> excludedIndices -> includedIndices -> mode
//
// INVARIANTS:
//   - A record is never in an included and an excluded set at the same time
//   - An override is only stored while it deviates from the mode's default
//   - NONE never carries overrides; ALL never carries inclusions
//   - EXPLICIT never carries exclusions
//   - Leaving NONE by hand goes to EXPLICIT; only Clear and BulkSelect(0) return to NONE
//   - 0 <= SelectedCount() <= total for every reachable state
//
// UpdateTotal is the one command that leaves overrides as they are: overrides
// pointing past the new total or outside a clamped range become inert and are
// ignored by the queries.
package selection
