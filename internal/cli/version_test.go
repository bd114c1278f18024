package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand_Text(t *testing.T) {
	out, _, err := executeCommand("version")
	require.NoError(t, err)
	assert.Contains(t, out, "txvar dev")
}

func TestVersionCommand_JSON(t *testing.T) {
	out, _, err := executeCommand("--format", "json", "version")
	require.NoError(t, err)
	assert.Contains(t, out, `"version": "dev"`)
	assert.Contains(t, out, `"status": "ok"`)
}
