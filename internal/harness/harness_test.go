package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/txvar/internal/trace"
)

func TestRun_SavepointRollback(t *testing.T) {
	sc, err := LoadScenario("testdata/savepoint-rollback.yaml")
	require.NoError(t, err)

	result, err := Run(sc)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Len(t, result.Trace, 7)
	assert.Equal(t, "10", result.Trace[5].Result)
}

func TestRun_ExpectMismatchFails(t *testing.T) {
	sc := &Scenario{
		Name: "mismatch",
		Steps: []Step{
			{Op: StepBegin},
			{Op: StepSet, Name: "x", Value: 10},
			{Op: StepGet, Name: "x", Default: 0, Expect: &ExpectClause{Value: 99}},
			{Op: StepCommit},
		},
	}

	result, err := Run(sc)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "got 10, want 99")
}

func TestRun_ExpectedStoreError(t *testing.T) {
	sc := &Scenario{
		Name: "expected-mismatch",
		Steps: []Step{
			{Op: StepBegin},
			{Op: StepSet, Name: "x", Value: 10},
			{Op: StepGet, Name: "x", Default: "s", Expect: &ExpectClause{Error: "TYPE_MISMATCH"}},
			{Op: StepAbort},
		},
	}

	result, err := Run(sc)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_UnexpectedStoreErrorFails(t *testing.T) {
	sc := &Scenario{
		Name: "unexpected-error",
		Steps: []Step{
			{Op: StepSet, Name: "x", Value: 10},
		},
	}

	result, err := Run(sc)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "NO_TRANSACTION")
}

func TestRun_ExpectNull(t *testing.T) {
	sc := &Scenario{
		Name: "null-read",
		Steps: []Step{
			{Op: StepBegin},
			{Op: StepSet, Name: "n", Type: "int"},
			{Op: StepGet, Name: "n", Default: -1, Expect: &ExpectClause{IsNull: true}},
			{Op: StepCommit},
		},
	}

	result, err := Run(sc)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, trace.OutcomeNull, result.Trace[2].Outcome)
}

func TestRun_RollbackDefaultsToInnermost(t *testing.T) {
	sc := &Scenario{
		Name: "innermost",
		Steps: []Step{
			{Op: StepBegin},
			{Op: StepSet, Name: "x", Value: 1},
			{Op: StepSavepoint},
			{Op: StepSavepoint},
			{Op: StepSet, Name: "x", Value: 3},
			{Op: StepRollbackTo},
			{Op: StepGet, Name: "x", Default: 0, Expect: &ExpectClause{Value: 1}},
			{Op: StepCommit},
		},
	}

	result, err := Run(sc)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, 2, result.Trace[5].Depth)
}

func TestRun_StructurallyBrokenScenario(t *testing.T) {
	sc := &Scenario{
		Name: "broken",
		Steps: []Step{
			{Op: StepSavepoint},
		},
	}

	_, err := Run(sc)
	assert.Error(t, err)
}

func TestRun_CapacityOption(t *testing.T) {
	capacity := 4
	sc := &Scenario{
		Name:     "small-table",
		Capacity: &capacity,
		Steps: []Step{
			{Op: StepBegin},
			{Op: StepSet, Name: "a", Value: 1},
			{Op: StepGet, Name: "a", Default: 0, Expect: &ExpectClause{Value: 1}},
			{Op: StepCommit},
		},
	}

	result, err := Run(sc)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRunWithOptions_RecordsReplayableRun(t *testing.T) {
	tr, err := trace.Open(":memory:")
	require.NoError(t, err)
	defer tr.Close()

	sc, err := LoadScenario("testdata/savepoint-rollback.yaml")
	require.NoError(t, err)

	ctx := context.Background()
	result, err := RunWithOptions(ctx, sc, RunOptions{
		Recorder: tr,
		Tokens:   trace.NewFixedGenerator("run-0001"),
	})
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "run-0001", result.RunToken)

	ops, err := tr.ReadRun(ctx, "run-0001")
	require.NoError(t, err)
	require.Len(t, ops, len(sc.Steps))

	replay, err := tr.ReplayRun(ctx, "run-0001")
	require.NoError(t, err)
	assert.True(t, replay.Deterministic(), "divergences: %+v", replay.Divergences)
}

func TestRunWithOptions_RecordsErrorOutcomes(t *testing.T) {
	tr, err := trace.Open(":memory:")
	require.NoError(t, err)
	defer tr.Close()

	sc := &Scenario{
		Name: "recorded-errors",
		Steps: []Step{
			{Op: StepBegin},
			{Op: StepSet, Name: "x", Value: 10},
			{Op: StepGet, Name: "x", Default: "s", Expect: &ExpectClause{Error: "TYPE_MISMATCH"}},
			{Op: StepCommit},
		},
	}

	ctx := context.Background()
	result, err := RunWithOptions(ctx, sc, RunOptions{
		Recorder: tr,
		Tokens:   trace.NewFixedGenerator("run-0002"),
	})
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	ops, err := tr.ReadRun(ctx, "run-0002")
	require.NoError(t, err)
	require.Len(t, ops, 4)
	assert.Equal(t, "TYPE_MISMATCH", ops[2].Outcome)

	replay, err := tr.ReplayRun(ctx, "run-0002")
	require.NoError(t, err)
	assert.True(t, replay.Deterministic(), "divergences: %+v", replay.Divergences)
}
