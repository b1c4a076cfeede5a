package state

// GenesisApplied reports whether the genesis allocations were written.
func (m *Manager) GenesisApplied() (bool, error) {
	var applied bool
	ok, err := m.KVGet(genesisAppliedKey, &applied)
	if err != nil || !ok {
		return false, err
	}
	return applied, nil
}

// MarkGenesisApplied records that the genesis allocations were written.
func (m *Manager) MarkGenesisApplied() error {
	return m.KVPut(genesisAppliedKey, true)
}
