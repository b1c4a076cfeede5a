package state

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnsureStateVersionStampsFreshState(t *testing.T) {
	mgr, _ := newTestManager(t)

	_, ok, err := mgr.StateVersion()
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, mgr.EnsureStateVersion(false))
	version, ok, err := mgr.StateVersion()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, StateVersion, version)

	require.NoError(t, mgr.EnsureStateVersion(false))
}

func TestEnsureStateVersionMismatch(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.SetStateVersion(StateVersion+1))

	err := mgr.EnsureStateVersion(false)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrStateVersionMismatch))

	require.NoError(t, mgr.EnsureStateVersion(true))
}
