package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pagesel/internal/fetch"
	"github.com/roach88/pagesel/internal/ir"
	"github.com/roach88/pagesel/internal/store"
	"github.com/roach88/pagesel/internal/testutil"
)

func seededStore(t *testing.T, n int) *store.Store {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Seed(context.Background(), n))
	return st
}

func mounted(t *testing.T, src fetch.Source, pageSize int) *Controller {
	t.Helper()
	c := New(src, pageSize, WithRequestIDs(testutil.NewSequenceGenerator("req")))
	require.NoError(t, c.Mount(context.Background()))
	return c
}

func TestMount_AppliesTotal(t *testing.T) {
	c := mounted(t, seededStore(t, 1000), 12)

	assert.Equal(t, 1000, c.State().Total())
	assert.Len(t, c.Rows(), 12)
	assert.Equal(t, ir.Row{ID: "1", Index: 0}, c.Rows()[0])
}

func TestNew_DefaultPageSize(t *testing.T) {
	c := New(seededStore(t, 1), 0)
	assert.Equal(t, DefaultPageSize, c.PageSize())
}

func TestSelectAllThenExcludeOne(t *testing.T) {
	c := mounted(t, seededStore(t, 1000), 12)

	c.SelectAll()
	require.NoError(t, c.ToggleRecord("7"))

	s := c.State()
	assert.Equal(t, 999, s.SelectedCount())
	assert.False(t, s.IsSelected(ir.Row{ID: "7", Index: 6}))
	assert.Equal(t, ir.Descriptor{Mode: ir.ModeAll, ExcludedIDs: []ir.RecordID{"7"}}, c.Descriptor())
}

func TestBulkSelectThenCollectionShrinks(t *testing.T) {
	ctx := context.Background()
	st := seededStore(t, 1000)
	c := mounted(t, st, 12)

	c.BulkSelect(50)
	require.Equal(t, 50, c.State().SelectedCount())

	_, err := st.Truncate(ctx, 30)
	require.NoError(t, err)
	require.NoError(t, c.Refresh(ctx))

	s := c.State()
	assert.Equal(t, ir.ModeRange, s.Mode())
	assert.Equal(t, 30, s.RangeCount())
	assert.Equal(t, 30, s.SelectedCount())
}

func TestToggleTwoRecords(t *testing.T) {
	c := mounted(t, seededStore(t, 1000), 12)

	require.NoError(t, c.ToggleRecord("1"))
	require.NoError(t, c.ToggleRecord("2"))

	s := c.State()
	assert.Equal(t, ir.ModeExplicit, s.Mode())
	assert.Equal(t, 2, s.SelectedCount())
	assert.Equal(t, []ir.RecordID{"1", "2"}, c.Descriptor().IncludedIDs)
}

func TestToggleRecord_NotOnPage(t *testing.T) {
	c := mounted(t, seededStore(t, 100), 12)

	err := c.ToggleRecord("50")
	assert.True(t, errors.Is(err, ErrNotOnPage))
	assert.Equal(t, ir.ModeNone, c.State().Mode())
}

func TestSelectPageThenDeselectOne(t *testing.T) {
	c := mounted(t, seededStore(t, 1000), 12)

	c.SelectPage()
	v := c.View()
	assert.True(t, v.HeaderChecked)
	assert.False(t, v.HeaderIndeterminate)
	assert.Equal(t, 12, v.SelectedCount)

	require.NoError(t, c.ToggleRecord("5"))
	v = c.View()
	assert.False(t, v.HeaderChecked)
	assert.True(t, v.HeaderIndeterminate)
	assert.False(t, v.Rows[4].Selected)
	assert.True(t, v.Rows[5].Selected)
}

func TestSelectionSurvivesNavigation(t *testing.T) {
	ctx := context.Background()
	c := mounted(t, seededStore(t, 100), 10)

	c.SelectPage()
	require.NoError(t, c.GoToPage(ctx, 3))
	assert.False(t, c.View().HeaderChecked)
	require.NoError(t, c.ToggleRecord("35"))

	require.NoError(t, c.GoToPage(ctx, 0))
	v := c.View()
	assert.True(t, v.HeaderChecked)
	assert.Equal(t, 11, v.SelectedCount)
	assert.Equal(t, 0, v.Page)
}

func TestToggleHeader(t *testing.T) {
	c := mounted(t, seededStore(t, 30), 10)

	c.ToggleHeader()
	assert.True(t, c.View().HeaderChecked)

	c.ToggleHeader()
	v := c.View()
	assert.False(t, v.HeaderChecked)
	assert.False(t, v.HeaderIndeterminate)
	assert.Equal(t, 0, v.SelectedCount)
}

func TestView(t *testing.T) {
	c := mounted(t, seededStore(t, 25), 10)
	require.NoError(t, c.GoToPage(context.Background(), 2))
	c.BulkSelect(22)

	v := c.View()
	assert.Equal(t, 2, v.Page)
	assert.Equal(t, 10, v.PageSize)
	assert.Equal(t, 3, v.PageCount)
	assert.Equal(t, 25, v.TotalRecords)
	assert.Equal(t, ir.ModeRange, v.Mode)
	assert.Equal(t, 22, v.SelectedCount)
	assert.True(t, v.HeaderIndeterminate)
	require.Len(t, v.Rows, 5)
	assert.Equal(t, RowView{ID: "21", Index: 20, Label: "Record 21", Selected: true}, v.Rows[0])
	assert.Equal(t, RowView{ID: "23", Index: 22, Label: "Record 23", Selected: false}, v.Rows[2])
	assert.Empty(t, v.Error)
}

// flakySource fails the next n calls with a server error.
type flakySource struct {
	mu    sync.Mutex
	inner fetch.Source
	fail  int
}

func (f *flakySource) FetchPage(ctx context.Context, req ir.PageRequest) (ir.Page, error) {
	f.mu.Lock()
	if f.fail > 0 {
		f.fail--
		f.mu.Unlock()
		return ir.Page{}, &fetch.Error{Kind: fetch.KindServerStatus, Status: 500}
	}
	f.mu.Unlock()
	return f.inner.FetchPage(ctx, req)
}

func TestRetryAfterFailure(t *testing.T) {
	ctx := context.Background()
	src := &flakySource{inner: seededStore(t, 40)}
	c := mounted(t, src, 10)
	c.SelectAll()

	src.mu.Lock()
	src.fail = 1
	src.mu.Unlock()

	err := c.GoToPage(ctx, 1)
	require.Error(t, err)

	v := c.View()
	assert.Equal(t, "The server failed to load records (HTTP 500).", v.Error)
	assert.Equal(t, 0, v.Page, "previous page stays on screen")
	assert.Equal(t, 40, v.SelectedCount, "selection is untouched by a failed load")

	require.NoError(t, c.Retry(ctx))
	v = c.View()
	assert.Empty(t, v.Error)
	assert.Equal(t, 1, v.Page)
	assert.Equal(t, ir.RecordID("11"), v.Rows[0].ID)
}

func TestApplyTotal_IgnoresOlderGeneration(t *testing.T) {
	c := New(seededStore(t, 5), 5)

	c.applyTotal(fetch.Result{Page: ir.Page{TotalRecords: 50}, Generation: 2})
	c.applyTotal(fetch.Result{Page: ir.Page{TotalRecords: 7}, Generation: 1})

	assert.Equal(t, 50, c.State().Total())
}

func TestConcurrentCommandsAndNavigation(t *testing.T) {
	ctx := context.Background()
	c := mounted(t, seededStore(t, 200), 10)

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			err := c.GoToPage(ctx, i)
			if err != nil {
				assert.ErrorIs(t, err, fetch.ErrSuperseded)
			}
		}()
		go func() {
			defer wg.Done()
			c.Toggle(ir.Row{ID: ir.RecordID("x"), Index: 150 + i})
			_ = c.View()
		}()
	}
	wg.Wait()

	assert.Equal(t, 200, c.State().Total())
	assert.LessOrEqual(t, c.State().SelectedCount(), 200)
}

func TestApply_NilCommand(t *testing.T) {
	c := mounted(t, seededStore(t, 10), 5)
	c.SelectAll()

	c.Apply(nil)

	assert.Equal(t, ir.ModeAll, c.State().Mode())
	assert.Equal(t, 10, c.State().SelectedCount())
}

// blockingSource holds every request until its context is cancelled.
type blockingSource struct {
	started chan struct{}
}

func (b *blockingSource) FetchPage(ctx context.Context, req ir.PageRequest) (ir.Page, error) {
	b.started <- struct{}{}
	<-ctx.Done()
	return ir.Page{}, ctx.Err()
}

func TestClose_AbandonsInFlightLoad(t *testing.T) {
	src := &blockingSource{started: make(chan struct{}, 1)}
	c := New(src, 10)

	done := make(chan error, 1)
	go func() { done <- c.Mount(context.Background()) }()
	<-src.started

	c.Close()

	err := <-done
	assert.ErrorIs(t, err, fetch.ErrSuperseded)
	v := c.View()
	assert.False(t, v.Loading)
	assert.Empty(t, v.Error)
	assert.Equal(t, 0, c.State().Total())
}

func TestClose_Idle(t *testing.T) {
	c := mounted(t, seededStore(t, 10), 5)

	c.Close()

	assert.Len(t, c.Rows(), 5)
	require.NoError(t, c.GoToPage(context.Background(), 1))
	assert.Equal(t, ir.RecordID("6"), c.Rows()[0].ID)
}
