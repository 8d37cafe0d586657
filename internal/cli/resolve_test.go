package cli

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pagesel/internal/ir"
	"github.com/roach88/pagesel/internal/server"
	"github.com/roach88/pagesel/internal/store"
)

func TestResolve_Local(t *testing.T) {
	db := seededDB(t, 100)
	desc := writeFile(t, "sel.json", `{"mode":"RANGE","rangeCount":10,"excludedIds":["3"]}`)

	out, _, err := execute(t, "resolve", desc, "--db", db, "--format", "json")
	require.NoError(t, err)

	var res ResolveResult
	decodeData(t, out, &res)
	assert.Equal(t, ir.ModeRange, res.Mode)
	assert.Equal(t, 100, res.Total)
	assert.Equal(t, 9, res.Count)
	assert.Equal(t, []ir.RecordID{"1", "2", "4", "5", "6", "7", "8", "9", "10"}, res.IDs)
	require.NotNil(t, res.FirstSeen)
	assert.True(t, *res.FirstSeen)

	// The second resolution of the same descriptor is already logged.
	out, _, err = execute(t, "resolve", desc, "--db", db, "--format", "json")
	require.NoError(t, err)
	var again ResolveResult
	decodeData(t, out, &again)
	assert.Equal(t, res.Fingerprint, again.Fingerprint)
	require.NotNil(t, again.FirstSeen)
	assert.False(t, *again.FirstSeen)
}

func TestResolve_TextTruncated(t *testing.T) {
	db := seededDB(t, 50)
	desc := writeFile(t, "sel.json", `{"mode":"ALL"}`)

	out, _, err := execute(t, "resolve", desc, "--db", db, "--limit", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "(ALL)")
	assert.Contains(t, out, "Selects 50 of 50 records")
	assert.Contains(t, out, "  1\n  2\n")
	assert.Contains(t, out, "... 48 more")
}

func TestResolve_InvalidDescriptor(t *testing.T) {
	db := seededDB(t, 5)
	desc := writeFile(t, "sel.json", `{"mode":"NONE","includedIds":["1"]}`)

	out, _, err := execute(t, "resolve", desc, "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "E_INVALID_DESCRIPTOR")
}

func TestResolve_MissingFile(t *testing.T) {
	_, _, err := execute(t, "resolve", "/nonexistent/sel.json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestResolve_Remote(t *testing.T) {
	gin.SetMode(gin.TestMode)
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Seed(context.Background(), 20))

	ts := httptest.NewServer(server.NewRouter(server.NewHandlers(st, server.Config{}, nil)))
	t.Cleanup(ts.Close)

	desc := writeFile(t, "sel.json", `{"mode":"EXPLICIT","includedIds":["20","4"]}`)
	out, _, err := execute(t, "resolve", desc, "--server", ts.URL, "--format", "json")
	require.NoError(t, err)

	var res ResolveResult
	decodeData(t, out, &res)
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, []ir.RecordID{"4", "20"}, res.IDs)
	assert.Nil(t, res.FirstSeen)

	logged, err := st.ReadResolution(context.Background(), res.Fingerprint)
	require.NoError(t, err)
	assert.Equal(t, 2, logged.Count)
}
