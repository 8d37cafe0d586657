package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pagesel/internal/ir"
)

func TestTrace_Text(t *testing.T) {
	out, _, err := execute(t, "trace", filepath.Join(scenariosDir, "explicit_toggles.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "Scenario: explicit_toggles")
	assert.Contains(t, out, "[1] mount")
	assert.Contains(t, out, "[2] toggle")
	assert.Contains(t, out, `descriptor {"includedIds":["1","2"],"mode":"EXPLICIT"}`)
	assert.Contains(t, out, "Final: EXPLICIT, 2 selected")
	assert.NotContains(t, out, "Assertions failed")
}

func TestTrace_JSON(t *testing.T) {
	out, _, err := execute(t, "trace", filepath.Join(scenariosDir, "explicit_toggles.yaml"), "--format", "json")
	require.NoError(t, err)

	var res TraceResult
	decodeData(t, out, &res)
	assert.True(t, res.Pass)
	require.Len(t, res.Timeline, 3)
	assert.Equal(t, "mount", res.Timeline[0].Action)
	assert.Equal(t, 3, res.Stats.Steps)
	assert.Equal(t, 2, res.Stats.ByAction["toggle"])
	assert.Equal(t, ir.ModeExplicit, res.Stats.FinalMode)
	assert.Equal(t, 2, res.Stats.FinalSelected)
	assert.Zero(t, res.Stats.FetchFailures)
}

func TestTrace_ActionFilter(t *testing.T) {
	out, _, err := execute(t, "trace", filepath.Join(scenariosDir, "explicit_toggles.yaml"), "--action", "toggle", "--format", "json")
	require.NoError(t, err)

	var res TraceResult
	decodeData(t, out, &res)
	require.Len(t, res.Timeline, 2)
	for _, ev := range res.Timeline {
		assert.Equal(t, "toggle", ev.Action)
	}
	// Stats cover the whole run.
	assert.Equal(t, 3, res.Stats.Steps)
}

func TestTrace_FetchFailures(t *testing.T) {
	out, _, err := execute(t, "trace", filepath.Join(scenariosDir, "retry_after_failure.yaml"), "--format", "json")
	require.NoError(t, err)

	var res TraceResult
	decodeData(t, out, &res)
	assert.Positive(t, res.Stats.FetchFailures)
	assert.Greater(t, res.Stats.Requests, 1)
}

func TestTrace_FailingScenario(t *testing.T) {
	path := writeFile(t, "wrong_count.yaml", failingScenario)

	out, _, err := execute(t, "trace", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Assertions failed:")
}

func TestTrace_InvalidScenario(t *testing.T) {
	path := writeFile(t, "bad.yaml", "name: bad\nsteps: [}\n")

	_, _, err := execute(t, "trace", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
