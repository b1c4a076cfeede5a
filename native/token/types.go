package token

// Mint describes an issued fungible asset. Only the mint authority can create
// new units.
type Mint struct {
	Address   [20]byte
	Symbol    string
	Decimals  uint8
	Authority [20]byte
	Supply    uint64
	CreatedAt uint64
}

// Clone returns a copy of the mint metadata.
func (m *Mint) Clone() *Mint {
	if m == nil {
		return nil
	}
	clone := *m
	return &clone
}
