package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pagesel/internal/ir"
	"github.com/roach88/pagesel/internal/queryir"
)

var recordColumns = []string{"id", "position", "label"}

func TestCompile_SelectAll(t *testing.T) {
	compiler := NewSQLCompiler()

	sql, params, err := compiler.Compile(queryir.Select{From: "records", Columns: recordColumns})
	require.NoError(t, err)

	assert.Equal(t, "SELECT id, position, label FROM records ORDER BY position ASC, id ASC COLLATE BINARY", sql)
	assert.Empty(t, params)
}

func TestCompile_SelectWithLimit(t *testing.T) {
	compiler := NewSQLCompiler()

	sql, params, err := compiler.Compile(queryir.Select{
		From:    "records",
		Columns: []string{"id"},
		Filter:  queryir.PositionBelow{N: 50},
		Limit:   10,
	})
	require.NoError(t, err)

	assert.Equal(t, "SELECT id FROM records WHERE position < ? ORDER BY position ASC, id ASC COLLATE BINARY LIMIT ?", sql)
	assert.Equal(t, []any{int64(50), int64(10)}, params)
}

func TestCompile_ListsAreParameterized(t *testing.T) {
	compiler := NewSQLCompiler()

	sql, params, err := compiler.Compile(queryir.Count{
		From: "records",
		Filter: queryir.And{Predicates: []queryir.Predicate{
			queryir.Not{Predicate: queryir.IDIn{IDs: []ir.RecordID{"7", "o'brien"}}},
			queryir.Or{Predicates: []queryir.Predicate{
				queryir.PositionIn{Positions: []int{3, 9}},
				queryir.PositionBelow{N: 2},
			}},
		}},
	})
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT COUNT(*) FROM records WHERE (NOT (id IN (SELECT value FROM json_each(?))) AND "+
			"(position IN (SELECT value FROM json_each(?)) OR position < ?))",
		sql)
	assert.NotContains(t, sql, "brien")
	assert.Equal(t, []any{`["7","o'brien"]`, `[3,9]`, int64(2)}, params)
}

func TestCompile_Constants(t *testing.T) {
	compiler := NewSQLCompiler()

	tests := []struct {
		name   string
		filter queryir.Predicate
		where  string
	}{
		{"true", queryir.True{}, " WHERE 1 = 1"},
		{"false", queryir.False{}, " WHERE 1 = 0"},
		{"empty and", queryir.And{}, " WHERE 1 = 1"},
		{"empty or", queryir.Or{}, " WHERE 1 = 0"},
		{"empty id list", queryir.IDIn{}, " WHERE 1 = 0"},
		{"empty position list", queryir.PositionIn{}, " WHERE 1 = 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, params, err := compiler.Compile(queryir.Count{From: "records", Filter: tt.filter})
			require.NoError(t, err)
			assert.Equal(t, "SELECT COUNT(*) FROM records"+tt.where, sql)
			assert.Empty(t, params)
		})
	}
}

func TestCompile_FromDescriptor(t *testing.T) {
	compiler := NewSQLCompiler()
	d := ir.Descriptor{Mode: ir.ModeAll, ExcludedIDs: []ir.RecordID{"7"}}

	sql, params, err := compiler.Compile(queryir.Count{From: "records", Filter: queryir.FromDescriptor(d)})
	require.NoError(t, err)

	assert.Equal(t, "SELECT COUNT(*) FROM records WHERE NOT (id IN (SELECT value FROM json_each(?)))", sql)
	assert.Equal(t, []any{`["7"]`}, params)
}

func TestCompile_Rejects(t *testing.T) {
	compiler := NewSQLCompiler()

	_, _, err := compiler.Compile(nil)
	assert.Error(t, err)

	_, _, err = compiler.Compile(queryir.Select{From: "records"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid query")

	_, _, err = compiler.Compile(queryir.Count{From: "records x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "table")
}
