package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/txvar/internal/trace"
)

const passingScenario = `name: cli-pass
description: Exercises a passing scenario through the CLI.
steps:
  - op: begin
  - op: set
    name: x
    value: 10
  - op: get
    name: x
    default: 0
    expect:
      value: 10
  - op: commit
`

const failingScenario = `name: cli-fail
description: Expect clause that cannot match.
steps:
  - op: begin
  - op: set
    name: x
    value: 10
  - op: get
    name: x
    default: 0
    expect:
      value: 99
  - op: commit
`

func writeScenario(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunCommand_Pass(t *testing.T) {
	path := writeScenario(t, "pass.yaml", passingScenario)

	out, _, err := executeCommand("run", path)
	require.NoError(t, err)
	assert.Contains(t, out, "PASS  cli-pass")
	assert.Contains(t, out, "1 passed, 0 failed")
}

func TestRunCommand_FailureExitCode(t *testing.T) {
	path := writeScenario(t, "fail.yaml", failingScenario)

	out, _, err := executeCommand("run", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "FAIL  cli-fail")
}

func TestRunCommand_MissingFile(t *testing.T) {
	_, _, err := executeCommand("run", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunCommand_SchemaViolation(t *testing.T) {
	path := writeScenario(t, "bad.yaml", "name: bad\nsteps:\n  - op: frobnicate\n")

	_, _, err := executeCommand("run", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestRunCommand_RecordsRun(t *testing.T) {
	path := writeScenario(t, "pass.yaml", passingScenario)
	db := filepath.Join(t.TempDir(), "trace.db")

	_, _, err := executeCommand("run", "--db", db, "--token", "run-cli-1", path)
	require.NoError(t, err)

	tr, err := trace.Open(db)
	require.NoError(t, err)
	defer tr.Close()

	ops, err := tr.ReadRun(context.Background(), "run-cli-1")
	require.NoError(t, err)
	assert.Len(t, ops, 4)
}

func TestRunCommand_TokenRequiresSingleScenario(t *testing.T) {
	a := writeScenario(t, "a.yaml", passingScenario)
	b := writeScenario(t, "b.yaml", passingScenario)

	_, _, err := executeCommand("run", "--token", "t", a, b)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunCommand_JSONOutput(t *testing.T) {
	path := writeScenario(t, "pass.yaml", passingScenario)

	out, _, err := executeCommand("--format", "json", "run", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"status": "ok"`)
	assert.Contains(t, out, `"cli-pass"`)
}
