package state

import (
	"fmt"

	"launchpad/native/token"
)

// TokenMintGet loads the metadata of mint.
func (m *Manager) TokenMintGet(addr [20]byte) (*token.Mint, bool, error) {
	return getRecord[token.Mint](m, prefixed(tokenMintPrefix, addr[:]))
}

// TokenMintPut stores mint metadata and indexes new mints.
func (m *Manager) TokenMintPut(mint *token.Mint) error {
	if mint == nil {
		return fmt.Errorf("token: nil mint")
	}
	return putIndexed(m, tokenMintPrefix, tokenMintIndexKey, mint.Address, mint)
}

// TokenMints returns every registered mint in creation order.
func (m *Manager) TokenMints() ([][20]byte, error) {
	return m.addressIndex(tokenMintIndexKey)
}

// TokenBalance returns the holdings of owner in mint.
func (m *Manager) TokenBalance(mint [20]byte, owner [20]byte) (uint64, error) {
	var amount uint64
	if _, err := m.KVGet(prefixed(tokenBalancePrefix, mint[:], owner[:]), &amount); err != nil {
		return 0, err
	}
	return amount, nil
}

// TokenSetBalance overwrites the holdings of owner in mint. Zero balances are
// removed from state.
func (m *Manager) TokenSetBalance(mint [20]byte, owner [20]byte, amount uint64) error {
	key := prefixed(tokenBalancePrefix, mint[:], owner[:])
	if amount == 0 {
		return m.KVDelete(key)
	}
	return m.KVPut(key, amount)
}
