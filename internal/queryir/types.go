package queryir

import "github.com/roach88/pagesel/internal/ir"

// Query is a sealed interface over the queries a record backend answers.
type Query interface {
	queryNode()
}

// Predicate is a sealed interface over record filters.
type Predicate interface {
	predicateNode()
}

// Select lists matching records in collection order.
//
//	SELECT <columns> FROM <from> WHERE <filter> ORDER BY position, id LIMIT <limit>
type Select struct {
	From    string    // Record table
	Columns []string  // Explicit column list
	Filter  Predicate // nil matches every record
	Limit   int       // 0 means no limit
}

func (Select) queryNode() {}

// Count counts matching records.
type Count struct {
	From   string
	Filter Predicate
}

func (Count) queryNode() {}

// True matches every record.
type True struct{}

func (True) predicateNode() {}

// False matches no record.
type False struct{}

func (False) predicateNode() {}

// IDIn matches records whose id is in IDs. An empty list matches nothing.
type IDIn struct {
	IDs []ir.RecordID
}

func (IDIn) predicateNode() {}

// PositionIn matches records whose position is in Positions.
type PositionIn struct {
	Positions []int
}

func (PositionIn) predicateNode() {}

// PositionBelow matches the first N records: position < N.
type PositionBelow struct {
	N int
}

func (PositionBelow) predicateNode() {}

// Not negates a predicate.
type Not struct {
	Predicate Predicate
}

func (Not) predicateNode() {}

// And matches when all predicates match. Empty is always true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Or matches when any predicate matches. Empty is always false.
type Or struct {
	Predicates []Predicate
}

func (Or) predicateNode() {}
