// Package queryir is the backend-neutral query form of a selection.
//
// A descriptor names a selection by mode and overrides; a backend needs a
// filter over its record table. FromDescriptor lowers one into the other,
// keeping IsSelected's precedence:
//
//	excludedIds  >  includedIds  >  excludedIndices  >  includedIndices  >  mode default
//
// which, as a boolean formula over a record (id, position), is
//
//	NOT id∈excludedIds AND (id∈includedIds OR (NOT position∈excludedIndices AND
//	    (position∈includedIndices OR default(position))))
//
// Query and Predicate are sealed: only types in this package implement them,
// so backends can switch over them exhaustively.
//
//	switch p := pred.(type) {
//	case IDIn:
//	case PositionIn:
//	...
//	}
//
// Matches evaluates a predicate in memory. It is the reference the SQL
// backend is tested against.
package queryir
