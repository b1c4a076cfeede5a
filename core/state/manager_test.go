package state

import (
	"testing"

	"github.com/stretchr/testify/require"

	"launchpad/native/affiliate"
	"launchpad/native/launchpad"
	"launchpad/native/token"
	"launchpad/storage"
	"launchpad/storage/trie"
)

func newTestManager(t *testing.T) (*Manager, *trie.Trie) {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	tr, err := trie.NewTrie(db, nil)
	require.NoError(t, err)
	return NewManager(tr), tr
}

func TestKVHelpers(t *testing.T) {
	mgr, _ := newTestManager(t)

	ok, err := mgr.KVGet([]byte("missing"), new(uint64))
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, mgr.KVPut([]byte("answer"), uint64(42)))
	var got uint64
	ok, err = mgr.KVGet([]byte("answer"), &got)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(42), got)

	require.NoError(t, mgr.KVAppend([]byte("list"), []byte{1}))
	require.NoError(t, mgr.KVAppend([]byte("list"), []byte{1}))
	require.NoError(t, mgr.KVAppend([]byte("list"), []byte{2}))
	list, err := mgr.KVGetList([]byte("list"))
	require.NoError(t, err)
	require.Equal(t, [][]byte{{1}, {2}}, list)

	empty, err := mgr.KVGetList([]byte("none"))
	require.NoError(t, err)
	require.NotNil(t, empty)
	require.Empty(t, empty)

	require.NoError(t, mgr.KVDelete([]byte("answer")))
	ok, err = mgr.KVGet([]byte("answer"), nil)
	require.NoError(t, err)
	require.False(t, ok)

	require.Error(t, mgr.KVPut(nil, uint64(1)))
}

func TestTokenRecordsRoundTrip(t *testing.T) {
	mgr, _ := newTestManager(t)
	mint := &token.Mint{Address: [20]byte{0x01}, Symbol: "GEN", Decimals: 9, Authority: [20]byte{0x02}, Supply: 77}

	require.NoError(t, mgr.TokenMintPut(mint))
	require.NoError(t, mgr.TokenMintPut(mint))
	stored, ok, err := mgr.TokenMintGet(mint.Address)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, mint, stored)

	mints, err := mgr.TokenMints()
	require.NoError(t, err)
	require.Equal(t, [][20]byte{mint.Address}, mints)

	owner := [20]byte{0x03}
	balance, err := mgr.TokenBalance(mint.Address, owner)
	require.NoError(t, err)
	require.Zero(t, balance)
	require.NoError(t, mgr.TokenSetBalance(mint.Address, owner, 19))
	balance, err = mgr.TokenBalance(mint.Address, owner)
	require.NoError(t, err)
	require.Equal(t, uint64(19), balance)

	withBalance := mgr.trie.Hash()
	require.NoError(t, mgr.TokenSetBalance(mint.Address, owner, 0))
	require.NotEqual(t, withBalance, mgr.trie.Hash())
	balance, err = mgr.TokenBalance(mint.Address, owner)
	require.NoError(t, err)
	require.Zero(t, balance)
}

func TestLaunchAndAffiliateRecords(t *testing.T) {
	mgr, _ := newTestManager(t)

	launch := &launchpad.Launch{
		Address:        [20]byte{0x0a},
		Authority:      [20]byte{0x0b},
		InitialPrice:   1000,
		Slope:          10,
		UnitsSold:      19,
		VestingEnabled: true,
	}
	require.NoError(t, mgr.LaunchPut(launch))
	stored, ok, err := mgr.LaunchGet(launch.Address)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, launch, stored)

	launch.UnitsSold = 20
	require.NoError(t, mgr.LaunchPut(launch))
	launches, err := mgr.Launches()
	require.NoError(t, err)
	require.Len(t, launches, 1)

	schedule := &launchpad.VestingSchedule{Launch: launch.Address, Account: [20]byte{0x0c}, Total: 100}
	require.NoError(t, mgr.VestingPut(schedule))
	gotSchedule, ok, err := mgr.VestingGet(schedule.Account)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, schedule, gotSchedule)

	record := &affiliate.Affiliate{Key: [20]byte{0x0d}, CommissionRateBps: 1000, Tier: affiliate.TierGold, HasParent: true}
	addr := [20]byte{0x0e}
	require.NoError(t, mgr.AffiliatePut(addr, record))
	gotRecord, ok, err := mgr.AffiliateGet(addr)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, record, gotRecord)

	_, ok, err = mgr.AffiliateGet([20]byte{0xff})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestGenesisMarker(t *testing.T) {
	mgr, _ := newTestManager(t)
	applied, err := mgr.GenesisApplied()
	require.NoError(t, err)
	require.False(t, applied)
	require.NoError(t, mgr.MarkGenesisApplied())
	applied, err = mgr.GenesisApplied()
	require.NoError(t, err)
	require.True(t, applied)
}
