package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns what it printed.
func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := NewRootCommand()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func kb(name string) string {
	return filepath.Join("testdata", "kb", name)
}

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := NewRootCommand()

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"query", "check", "compile", "test"}, names)
}

func TestRootCommand_InvalidFormat(t *testing.T) {
	_, _, err := execute(t, "check", kb("family.pl"), "--format", "xml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestRootCommand_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prolly.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output:\n  format: json\n  limit: 1\n"), 0644))

	stdout, _, err := execute(t, "query", kb("family.pl"), "-q", "(parent, X, alicia)", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, `"status":"ok"`)
	assert.Contains(t, stdout, `"count":1`)
	assert.Contains(t, stdout, `"limited":true`)
}

func TestRootCommand_FlagBeatsConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prolly.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output:\n  format: json\n"), 0644))

	stdout, _, err := execute(t, "query", kb("family.pl"), "-q", "(mother, mary, alicia)", "--config", path, "--format", "text")
	require.NoError(t, err)
	assert.Equal(t, "true\n", stdout)
}

func TestRootCommand_BadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prolly.yaml")
	require.NoError(t, os.WriteFile(path, []byte("resolver:\n  max_steps: -1\n"), 0644))

	_, _, err := execute(t, "check", kb("family.pl"), "--config", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestRootCommand_VerboseLogsToStderr(t *testing.T) {
	stdout, stderr, err := execute(t, "query", kb("family.pl"), "-q", "(mother, mary, X)", "-v")
	require.NoError(t, err)
	assert.Contains(t, stdout, "X = alicia")
	assert.Contains(t, stderr, "Loaded 8 clause(s) from 1 path(s)")
}
