package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "pagesel", cmd.Use)
	assert.Contains(t, cmd.Long, "descriptor")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"seed", "serve", "list", "resolve", "validate", "test", "trace"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)
}

func TestInvalidFormat(t *testing.T) {
	_, _, err := execute(t, "validate", "--format", "xml", "x.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestConfigFile(t *testing.T) {
	db := seededDB(t, 5)
	cfg := writeFile(t, "pagesel.yaml", "database: "+db+"\npage_size: 2\n")

	out, _, err := execute(t, "list", "--config", cfg, "--format", "json")
	require.NoError(t, err)

	var view struct {
		PageSize     int `json:"page_size"`
		TotalRecords int `json:"total_records"`
		Rows         []struct {
			ID string `json:"id"`
		} `json:"rows"`
	}
	decodeData(t, out, &view)
	assert.Equal(t, 2, view.PageSize)
	assert.Equal(t, 5, view.TotalRecords)
	assert.Len(t, view.Rows, 2)
}

func TestConfigFile_Invalid(t *testing.T) {
	cfg := writeFile(t, "pagesel.yaml", "page_sise: 2\n")

	_, _, err := execute(t, "seed", "--config", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
