package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateScenarioFile_Conforms(t *testing.T) {
	errs, err := ValidateScenarioFile(filepath.Join("testdata", "savepoint-rollback.yaml"))
	require.NoError(t, err)
	assert.Empty(t, errs)
}

func TestValidateScenarioBytes_BadOp(t *testing.T) {
	errs, err := ValidateScenarioBytes([]byte(`
name: bad
steps:
  - op: frobnicate
`))
	require.NoError(t, err)
	assert.NotEmpty(t, errs)
}

func TestValidateScenarioBytes_UnknownStepField(t *testing.T) {
	errs, err := ValidateScenarioBytes([]byte(`
name: typo
steps:
  - op: begin
    dept: 1
`))
	require.NoError(t, err)
	assert.NotEmpty(t, errs)
}

func TestValidateScenarioBytes_CapacityOutOfRange(t *testing.T) {
	errs, err := ValidateScenarioBytes([]byte(`
name: big
capacity: 70000
steps:
  - op: begin
`))
	require.NoError(t, err)
	assert.NotEmpty(t, errs)
}

func TestValidateScenarioBytes_EmptyName(t *testing.T) {
	errs, err := ValidateScenarioBytes([]byte(`
name: ""
steps:
  - op: begin
`))
	require.NoError(t, err)
	assert.NotEmpty(t, errs)
}

func TestValidateScenarioBytes_BadErrorCode(t *testing.T) {
	errs, err := ValidateScenarioBytes([]byte(`
name: bad-code
steps:
  - op: get
    name: x
    default: 0
    expect:
      error: NOPE
`))
	require.NoError(t, err)
	assert.NotEmpty(t, errs)
}

func TestValidateScenarioBytes_MalformedYAML(t *testing.T) {
	_, err := ValidateScenarioBytes([]byte("name: [unclosed"))
	assert.Error(t, err)
}
