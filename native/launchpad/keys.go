package launchpad

import "strings"

// ProgramName is the registered identity of the launchpad module.
const ProgramName = "launchpad"

var (
	launchStateSeed  = []byte("launch_state")
	paymentVaultSeed = []byte("payment_vault")
	vestingSeed      = []byte("vesting_schedule")
	mintSeed         = []byte("mint")
)

func launchSeeds(authority, mint [20]byte) [][]byte {
	return [][]byte{launchStateSeed, authority[:], mint[:]}
}

func vaultSeeds(launch [20]byte) [][]byte {
	return [][]byte{paymentVaultSeed, launch[:]}
}

func vestingSeeds(launch, beneficiary [20]byte) [][]byte {
	return [][]byte{vestingSeed, launch[:], beneficiary[:]}
}

// LaunchAddress returns the ledger address for the authority and mint pair.
// The same address is the mint authority of the launched asset.
func (e *Engine) LaunchAddress(authority, mint [20]byte) [20]byte {
	return e.program.Derive(launchSeeds(authority, mint)...)
}

// VaultAddress returns the payment vault of a launch.
func (e *Engine) VaultAddress(launch [20]byte) [20]byte {
	return e.program.Derive(vaultSeeds(launch)...)
}

// VestingAddress returns the schedule account of beneficiary in launch.
func (e *Engine) VestingAddress(launch, beneficiary [20]byte) [20]byte {
	return e.program.Derive(vestingSeeds(launch, beneficiary)...)
}

// MintAddress returns the canonical mint for an authority and symbol.
func (e *Engine) MintAddress(authority [20]byte, symbol string) [20]byte {
	normalized := strings.ToUpper(strings.TrimSpace(symbol))
	return e.program.Derive(mintSeed, authority[:], []byte(normalized))
}
