package cli

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pagesel/internal/server"
	"github.com/roach88/pagesel/internal/session"
	"github.com/roach88/pagesel/internal/store"
)

func TestList_Text(t *testing.T) {
	db := seededDB(t, 30)

	out, _, err := execute(t, "list", "--db", db, "--page", "2", "--page-size", "12")
	require.NoError(t, err)
	assert.Contains(t, out, "[ ] Page 3 of 3 (30 records, 0 selected)")
	assert.Contains(t, out, "Record 25")
	assert.Contains(t, out, "Record 30")
	assert.NotContains(t, out, "Record 24\n")
}

func TestList_PastEnd(t *testing.T) {
	db := seededDB(t, 5)

	out, _, err := execute(t, "list", "--db", db, "--page", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "(no records on this page)")
}

func TestList_NegativePage(t *testing.T) {
	_, _, err := execute(t, "list", "--page", "-1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestList_FromServer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Seed(t.Context(), 20))

	ts := httptest.NewServer(server.NewRouter(server.NewHandlers(st, server.Config{}, nil)))
	t.Cleanup(ts.Close)

	out, _, err := execute(t, "list", "--server", ts.URL, "--page", "1", "--page-size", "5", "--format", "json")
	require.NoError(t, err)

	var view session.View
	decodeData(t, out, &view)
	assert.Equal(t, 1, view.Page)
	assert.Equal(t, 4, view.PageCount)
	assert.Equal(t, 20, view.TotalRecords)
	require.Len(t, view.Rows, 5)
	assert.Equal(t, 5, view.Rows[0].Index)
	assert.Equal(t, "6", string(view.Rows[0].ID))
}

func TestList_ServerUnreachable(t *testing.T) {
	ts := httptest.NewServer(nil)
	url := ts.URL
	ts.Close()

	out, _, err := execute(t, "list", "--server", url)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Unable to reach the server")
}
