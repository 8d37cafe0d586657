package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalScenario = `
name: minimal
description: one toggle
total: 5
steps:
  - do: toggle
    id: "1"
assertions:
  - type: count
    count: 1
`

func TestParseScenario_Minimal(t *testing.T) {
	s, err := ParseScenario([]byte(minimalScenario))
	require.NoError(t, err)

	assert.Equal(t, "minimal", s.Name)
	assert.Equal(t, 5, s.Total)
	assert.Equal(t, 0, s.PageSize)
	require.Len(t, s.Steps, 1)
	assert.Equal(t, StepToggle, s.Steps[0].Do)
	assert.Equal(t, "1", s.Steps[0].ID)
	require.Len(t, s.Assertions, 1)
	require.NotNil(t, s.Assertions[0].Count)
	assert.Equal(t, 1, *s.Assertions[0].Count)
}

func TestParseScenario_RejectsUnknownFields(t *testing.T) {
	_, err := ParseScenario([]byte(minimalScenario + "assertion: []\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Validation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing name",
			yaml: "description: d\ntotal: 1\nsteps: [{do: clear}]\nassertions: [{type: resolved}]\n",
			want: "name is required",
		},
		{
			name: "missing description",
			yaml: "name: n\ntotal: 1\nsteps: [{do: clear}]\nassertions: [{type: resolved}]\n",
			want: "description is required",
		},
		{
			name: "negative total",
			yaml: "name: n\ndescription: d\ntotal: -1\nsteps: [{do: clear}]\nassertions: [{type: resolved}]\n",
			want: "total must be non-negative",
		},
		{
			name: "no steps",
			yaml: "name: n\ndescription: d\ntotal: 1\nassertions: [{type: resolved}]\n",
			want: "steps list is required",
		},
		{
			name: "no assertions",
			yaml: "name: n\ndescription: d\ntotal: 1\nsteps: [{do: clear}]\n",
			want: "assertions list is required",
		},
		{
			name: "unknown step",
			yaml: "name: n\ndescription: d\ntotal: 1\nsteps: [{do: jump}]\nassertions: [{type: resolved}]\n",
			want: `unknown step "jump"`,
		},
		{
			name: "toggle without target",
			yaml: "name: n\ndescription: d\ntotal: 1\nsteps: [{do: toggle}]\nassertions: [{type: resolved}]\n",
			want: "toggle requires id or index",
		},
		{
			name: "goto without page",
			yaml: "name: n\ndescription: d\ntotal: 1\nsteps: [{do: goto_page}]\nassertions: [{type: resolved}]\n",
			want: "goto_page requires a non-negative page",
		},
		{
			name: "resize without total",
			yaml: "name: n\ndescription: d\ntotal: 1\nsteps: [{do: resize}]\nassertions: [{type: resolved}]\n",
			want: "resize requires a non-negative total",
		},
		{
			name: "sync_page without selected",
			yaml: "name: n\ndescription: d\ntotal: 1\nsteps: [{do: sync_page}]\nassertions: [{type: resolved}]\n",
			want: "sync_page requires selected",
		},
		{
			name: "bad expect mode",
			yaml: "name: n\ndescription: d\ntotal: 1\nsteps: [{do: clear, expect: {mode: SOME}}]\nassertions: [{type: resolved}]\n",
			want: "invalid selection mode",
		},
		{
			name: "unknown assertion",
			yaml: "name: n\ndescription: d\ntotal: 1\nsteps: [{do: clear}]\nassertions: [{type: vibes}]\n",
			want: `unknown assertion type "vibes"`,
		},
		{
			name: "selected without targets",
			yaml: "name: n\ndescription: d\ntotal: 1\nsteps: [{do: clear}]\nassertions: [{type: selected}]\n",
			want: "selected requires ids or indices",
		},
		{
			name: "trace_count without action",
			yaml: "name: n\ndescription: d\ntotal: 1\nsteps: [{do: clear}]\nassertions: [{type: trace_count, count: 1}]\n",
			want: "trace_count requires action and count",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenario_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalScenario), 0o644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "minimal", s.Name)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}
