package launchpad

import "github.com/holiman/uint256"

// Vested returns the units released by the schedule at now. Nothing vests
// before the cliff; everything has vested once the duration elapsed.
func (v *VestingSchedule) Vested(now uint64) uint64 {
	if v == nil || now < v.StartTime {
		return 0
	}
	elapsed := now - v.StartTime
	if elapsed < v.Cliff {
		return 0
	}
	if v.Duration == 0 || elapsed >= v.Duration {
		return v.Total
	}
	vested := new(uint256.Int).Mul(uint256.NewInt(v.Total), uint256.NewInt(elapsed))
	vested.Div(vested, uint256.NewInt(v.Duration))
	return vested.Uint64()
}

// Claimable returns the vested units not yet released.
func (v *VestingSchedule) Claimable(now uint64) uint64 {
	vested := v.Vested(now)
	if v == nil || vested <= v.Claimed {
		return 0
	}
	return vested - v.Claimed
}
