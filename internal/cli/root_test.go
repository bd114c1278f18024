package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeCommand runs the root command with args and captures output.
func executeCommand(args ...string) (string, string, error) {
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := NewRootCommand()

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Contains(t, names, "run")
	assert.Contains(t, names, "validate")
	assert.Contains(t, names, "replay")
	assert.Contains(t, names, "trace")
	assert.Contains(t, names, "version")
}

func TestRootCommand_RejectsInvalidFormat(t *testing.T) {
	_, _, err := executeCommand("--format", "xml", "trace", "--db", "x.db")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestRootCommand_Help(t *testing.T) {
	out, _, err := executeCommand("--help")
	require.NoError(t, err)
	assert.Contains(t, out, "txvar")
	assert.Contains(t, out, "run")
}
