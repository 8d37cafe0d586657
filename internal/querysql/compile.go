package querysql

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/pagesel/internal/queryir"
)

// SQLCompiler compiles queryir queries to parameterized SQLite.
//
// Every Select orders by position with an id tiebreak under COLLATE BINARY.
// Values are always bound as parameters; list membership binds one JSON
// array and expands it with json_each, so list length never hits SQLite's
// variable limit.
type SQLCompiler struct{}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// Compile converts a query to (sql, params). The query is validated first.
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	if q == nil {
		return "", nil, fmt.Errorf("cannot compile nil query")
	}
	if result := queryir.Validate(q); !result.Valid {
		return "", nil, fmt.Errorf("invalid query: %s", strings.Join(result.Problems, "; "))
	}

	switch query := q.(type) {
	case queryir.Select:
		return c.compileSelect(query)
	case queryir.Count:
		return c.compileCount(query)
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

func (c *SQLCompiler) compileSelect(q queryir.Select) (string, []any, error) {
	where, params, err := c.compileWhere(q.Filter)
	if err != nil {
		return "", nil, err
	}

	sql := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s",
		strings.Join(q.Columns, ", "),
		q.From,
		where,
		stableOrderKey)

	if q.Limit > 0 {
		sql += " LIMIT ?"
		params = append(params, int64(q.Limit))
	}
	return sql, params, nil
}

func (c *SQLCompiler) compileCount(q queryir.Count) (string, []any, error) {
	where, params, err := c.compileWhere(q.Filter)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("SELECT COUNT(*) FROM %s%s", q.From, where), params, nil
}

func (c *SQLCompiler) compileWhere(p queryir.Predicate) (string, []any, error) {
	if p == nil {
		return "", nil, nil
	}
	sql, params, err := c.compilePredicate(p)
	if err != nil {
		return "", nil, fmt.Errorf("compile filter: %w", err)
	}
	return " WHERE " + sql, params, nil
}

// stableOrderKey is collection order. COLLATE BINARY keeps the id tiebreak
// identical across SQLite builds.
const stableOrderKey = "position ASC, id ASC COLLATE BINARY"

func (c *SQLCompiler) compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case nil, queryir.True:
		return "1 = 1", nil, nil
	case queryir.False:
		return "1 = 0", nil, nil
	case queryir.IDIn:
		if len(pred.IDs) == 0 {
			return "1 = 0", nil, nil
		}
		return jsonIn("id", pred.IDs)
	case queryir.PositionIn:
		if len(pred.Positions) == 0 {
			return "1 = 0", nil, nil
		}
		return jsonIn("position", pred.Positions)
	case queryir.PositionBelow:
		return "position < ?", []any{int64(pred.N)}, nil
	case queryir.Not:
		sql, params, err := c.compilePredicate(pred.Predicate)
		if err != nil {
			return "", nil, err
		}
		return "NOT (" + sql + ")", params, nil
	case queryir.And:
		return c.compileJunction(pred.Predicates, " AND ", "1 = 1")
	case queryir.Or:
		return c.compileJunction(pred.Predicates, " OR ", "1 = 0")
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (c *SQLCompiler) compileJunction(preds []queryir.Predicate, op, empty string) (string, []any, error) {
	if len(preds) == 0 {
		return empty, nil, nil
	}

	var sqlParts []string
	var allParams []any
	for _, pred := range preds {
		sql, params, err := c.compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		sqlParts = append(sqlParts, sql)
		allParams = append(allParams, params...)
	}
	return "(" + strings.Join(sqlParts, op) + ")", allParams, nil
}

// jsonIn binds a list as one JSON array parameter.
func jsonIn(column string, values any) (string, []any, error) {
	data, err := json.Marshal(values)
	if err != nil {
		return "", nil, fmt.Errorf("encode %s list: %w", column, err)
	}
	return column + " IN (SELECT value FROM json_each(?))", []any{string(data)}, nil
}
