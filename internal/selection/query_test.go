package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/pagesel/internal/ir"
)

func TestIsSelected_Precedence(t *testing.T) {
	// Hand-built conflicting overrides exercise the lookup order directly.
	s := New(10).clone()
	s.mode = ir.ModeExplicit
	s.ov.includedIDs["a"] = struct{}{}
	s.ov.excludedIDs["a"] = struct{}{}
	s.ov.includedIndices[3] = struct{}{}
	s.ov.excludedIndices[3] = struct{}{}
	s.ov.includedIDs["b"] = struct{}{}
	s.ov.excludedIndices[4] = struct{}{}

	assert.False(t, s.IsSelected(ir.Row{ID: "a", Index: 0}), "excluded id beats included id")
	assert.False(t, s.IsSelected(ir.Row{Index: 3}), "excluded index beats included index")
	assert.True(t, s.IsSelected(ir.Row{ID: "b", Index: 4}), "included id beats excluded index")
}

func TestIsSelected_UnknownIndexNeverInRange(t *testing.T) {
	s := New(100).BulkSelect(50)

	assert.False(t, s.IsSelected(ir.Row{ID: "nowhere", Index: ir.UnknownIndex}))
	assert.False(t, s.IsSelected(ir.Row{ID: "nowhere", Index: -7}))
	assert.True(t, s.IsSelected(ir.Row{ID: "nowhere", Index: 0}))
}

func TestIsSelected_EmptyRow(t *testing.T) {
	assert.False(t, New(10).IsSelected(ir.Row{Index: ir.UnknownIndex}))
	assert.True(t, New(10).SelectAll().IsSelected(ir.Row{Index: ir.UnknownIndex}))
}

func TestIsSelected_CacheResolvesIndexOverride(t *testing.T) {
	// An index-keyed inclusion is found when the row arrives with only its id.
	s := New(100).Toggle(ir.Row{Index: 9})
	s = s.clone()
	s.observe(ir.Row{ID: "ten", Index: 9})

	assert.True(t, s.IsSelected(ir.Row{ID: "ten", Index: ir.UnknownIndex}))
}

func TestSelectedCount_ByMode(t *testing.T) {
	tests := []struct {
		name  string
		state State
		want  int
	}{
		{"none", New(10), 0},
		{"explicit", New(10).Toggle(row(1)).Toggle(row(2)), 2},
		{"range", New(10).BulkSelect(4), 4},
		{"range with overrides", New(10).BulkSelect(4).Toggle(row(0)).Toggle(row(9)), 4},
		{"all", New(10).SelectAll(), 10},
		{"all with exclusions", New(10).SelectAll().Toggle(row(0)).Toggle(row(1)), 8},
		{"empty collection", New(0).SelectAll(), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.SelectedCount())
		})
	}
}

func TestSelectedCount_DeduplicatesIDAndIndex(t *testing.T) {
	// One record excluded both by index and, later, by id.
	s := New(10).SelectAll().Toggle(ir.Row{Index: 2})
	s = s.clone()
	s.observe(ir.Row{ID: "3", Index: 2})
	s.ov.excludedIDs["3"] = struct{}{}

	assert.Equal(t, 9, s.SelectedCount())
}

func TestSelectedCount_WithinBounds(t *testing.T) {
	s := New(5).Toggle(row(0)).Toggle(row(1)).Toggle(row(2)).UpdateTotal(1)

	assert.Equal(t, 1, s.SelectedCount())

	s = New(5).SelectAll().DeselectPage(pageRows(0, 5, 5)).UpdateTotal(2)
	assert.Equal(t, 0, s.SelectedCount())
}

func TestPageFullySelected_EmptyPage(t *testing.T) {
	s := New(10).SelectAll()

	assert.False(t, s.PageFullySelected(nil))
	assert.False(t, s.PageIndeterminate(nil))
}

func TestPageIndeterminate_AtMostOneFlag(t *testing.T) {
	rows := pageRows(0, 10, 30)
	states := []State{
		New(30),
		New(30).SelectAll(),
		New(30).BulkSelect(5),
		New(30).Toggle(row(0)),
		New(30).SelectPage(rows),
	}

	for _, s := range states {
		full, mixed := s.PageFullySelected(rows), s.PageIndeterminate(rows)
		assert.False(t, full && mixed)
	}
}

func TestPageFullySelected_EnumeratedCheck(t *testing.T) {
	rows := pageRows(2, 10, 100)

	s := New(100).BulkSelect(30)
	assert.True(t, s.PageFullySelected(rows))

	s = New(100).BulkSelect(25)
	assert.True(t, s.PageIndeterminate(rows))

	s = New(100).BulkSelect(20)
	assert.False(t, s.PageFullySelected(rows))
	assert.False(t, s.PageIndeterminate(rows))
}
