package queryir

import (
	"fmt"
	"regexp"
)

// ValidationResult lists the problems found in a query.
type ValidationResult struct {
	// Valid is true when Problems is empty.
	Valid bool

	Problems []string
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks that a query is well formed: table and column names are
// plain identifiers, id lists hold no empty id, and positions and limits are
// non-negative. Validate is pure.
func Validate(query Query) ValidationResult {
	v := &validator{
		problems: []string{},
	}
	v.validateQuery(query)

	return ValidationResult{
		Valid:    len(v.problems) == 0,
		Problems: v.problems,
	}
}

type validator struct {
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validateQuery(q Query) {
	switch query := q.(type) {
	case nil:
		v.addProblem("nil query")
	case Select:
		v.validateTable(query.From)
		if len(query.Columns) == 0 {
			v.addProblem("select needs an explicit column list")
		}
		for _, col := range query.Columns {
			if !identifier.MatchString(col) {
				v.addProblem("column %q is not an identifier", col)
			}
		}
		if query.Limit < 0 {
			v.addProblem("negative limit %d", query.Limit)
		}
		v.validatePredicate(query.Filter)
	case Count:
		v.validateTable(query.From)
		v.validatePredicate(query.Filter)
	default:
		v.addProblem("unknown query type %T", q)
	}
}

func (v *validator) validateTable(name string) {
	if !identifier.MatchString(name) {
		v.addProblem("table %q is not an identifier", name)
	}
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case nil, True, False:
	case IDIn:
		for _, id := range pred.IDs {
			if id == "" {
				v.addProblem("empty record id in id list")
			}
		}
	case PositionIn:
		for _, pos := range pred.Positions {
			if pos < 0 {
				v.addProblem("negative position %d", pos)
			}
		}
	case PositionBelow:
		if pred.N < 0 {
			v.addProblem("negative range bound %d", pred.N)
		}
	case Not:
		if pred.Predicate == nil {
			v.addProblem("negation of nil predicate")
		}
		v.validatePredicate(pred.Predicate)
	case And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	case Or:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	default:
		v.addProblem("unknown predicate type %T", p)
	}
}
