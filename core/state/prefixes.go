package state

var (
	tokenMintPrefix    = []byte("token/mint/")
	tokenMintIndexKey  = []byte("token/mints")
	tokenBalancePrefix = []byte("token/balance/")
	launchPrefix       = []byte("launchpad/launch/")
	launchIndexKey     = []byte("launchpad/launches")
	vestingPrefix      = []byte("launchpad/vesting/")
	affiliatePrefix    = []byte("affiliate/record/")
	affiliateIndexKey  = []byte("affiliate/records")
	genesisAppliedKey  = []byte("genesis/applied")
	stateVersionKey    = []byte("state/version")
)

func prefixed(prefix []byte, parts ...[]byte) []byte {
	size := len(prefix)
	for _, part := range parts {
		size += len(part)
	}
	buf := make([]byte, 0, size)
	buf = append(buf, prefix...)
	for _, part := range parts {
		buf = append(buf, part...)
	}
	return buf
}
