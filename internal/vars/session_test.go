package vars

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/txvar/internal/txn"
	"github.com/roach88/txvar/internal/value"
)

func TestSession_RoundTrip(t *testing.T) {
	mgr := txn.NewManager()
	s, err := New(mgr)
	require.NoError(t, err)

	// Session variables need no transaction at all.
	stored, err := s.SetSession("s", value.Int(1))
	require.NoError(t, err)
	assert.Equal(t, value.Int(1), stored)

	got, err := s.GetSession("s", value.Int(0))
	require.NoError(t, err)
	assert.Equal(t, value.Int(1), got)
}

func TestSession_SurvivesTransactionBoundary(t *testing.T) {
	mgr := txn.NewManager()
	s, err := New(mgr)
	require.NoError(t, err)

	tx, err := mgr.Begin()
	require.NoError(t, err)

	_, err = s.SetSession("s", value.Int(1))
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	_, err = mgr.Begin()
	require.NoError(t, err)

	got, err := s.GetSession("s", value.Int(0))
	require.NoError(t, err)
	assert.Equal(t, value.Int(1), got, "session variables persist across transactions")
}

func TestSession_OverwriteWithoutHistory(t *testing.T) {
	mgr := txn.NewManager()
	s, err := New(mgr)
	require.NoError(t, err)

	_, err = s.SetSession("s", value.Int(1))
	require.NoError(t, err)
	_, err = s.SetSession("s", value.Int(2))
	require.NoError(t, err)

	got, err := s.GetSession("s", value.Int(0))
	require.NoError(t, err)
	assert.Equal(t, value.Int(2), got)

	cur := s.session.lookup("s")
	require.NotNil(t, cur)
	assert.Nil(t, cur.previous, "session variables never chain versions")
}

func TestSession_NotRolledBack(t *testing.T) {
	mgr := txn.NewManager()
	s, err := New(mgr)
	require.NoError(t, err)

	tx, err := mgr.Begin()
	require.NoError(t, err)

	d, err := tx.Savepoint()
	require.NoError(t, err)
	_, err = s.SetSession("s", value.Int(7))
	require.NoError(t, err)
	require.NoError(t, tx.RollbackTo(d))
	require.NoError(t, tx.Abort())

	got, err := s.GetSession("s", value.Int(0))
	require.NoError(t, err)
	assert.Equal(t, value.Int(7), got, "savepoint abort and transaction abort leave session variables alone")
}

func TestSession_SharedValidation(t *testing.T) {
	mgr := txn.NewManager()
	s, err := New(mgr)
	require.NoError(t, err)

	_, err = s.SetSession("", value.Int(1))
	assert.True(t, IsNullName(err))

	_, err = s.SetSession("s", nil)
	assert.True(t, IsUnknownType(err))

	_, err = s.GetSession("s", nil)
	assert.True(t, IsUnknownType(err))
}

func TestSession_TypeMismatch(t *testing.T) {
	mgr := txn.NewManager()
	s, err := New(mgr)
	require.NoError(t, err)

	_, err = s.SetSession("s", value.Int(1))
	require.NoError(t, err)

	_, err = s.GetSession("s", value.Text(""))
	assert.True(t, IsTypeMismatch(err))
}

func TestSession_TypedNullBypassesTypeCheck(t *testing.T) {
	mgr := txn.NewManager()
	s, err := New(mgr)
	require.NoError(t, err)

	_, err = s.SetSession("n", value.NewNull(value.TypeText))
	require.NoError(t, err)

	got, err := s.GetSession("n", value.Int(0))
	require.NoError(t, err)
	assert.Equal(t, value.NewNull(value.TypeText), got)
}

func TestSession_AbsentReturnsDefault(t *testing.T) {
	mgr := txn.NewManager()
	s, err := New(mgr)
	require.NoError(t, err)

	got, err := s.GetSession("missing", value.Bool(true))
	require.NoError(t, err)
	assert.Equal(t, value.Bool(true), got)
}

func TestSession_BytesUseSessionArena(t *testing.T) {
	mgr := txn.NewManager()
	s, err := New(mgr)
	require.NoError(t, err)

	before := mgr.SessionArena().Allocs()
	_, err = s.SetSession("b", value.Bytes{1, 2, 3})
	require.NoError(t, err)

	assert.Greater(t, mgr.SessionArena().Allocs(), before,
		"variable-length session payloads must land in the session arena")
}
