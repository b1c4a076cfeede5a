package state

import (
	"fmt"

	"launchpad/native/launchpad"
)

// LaunchGet loads the sale ledger stored at addr.
func (m *Manager) LaunchGet(addr [20]byte) (*launchpad.Launch, bool, error) {
	return getRecord[launchpad.Launch](m, prefixed(launchPrefix, addr[:]))
}

// LaunchPut stores the sale ledger and indexes new launches.
func (m *Manager) LaunchPut(launch *launchpad.Launch) error {
	if launch == nil {
		return fmt.Errorf("launchpad: nil launch")
	}
	return putIndexed(m, launchPrefix, launchIndexKey, launch.Address, launch)
}

// Launches returns the address of every launch in creation order.
func (m *Manager) Launches() ([][20]byte, error) {
	return m.addressIndex(launchIndexKey)
}

// VestingGet loads the vesting schedule stored at addr.
func (m *Manager) VestingGet(addr [20]byte) (*launchpad.VestingSchedule, bool, error) {
	return getRecord[launchpad.VestingSchedule](m, prefixed(vestingPrefix, addr[:]))
}

// VestingPut stores a vesting schedule under its account address.
func (m *Manager) VestingPut(schedule *launchpad.VestingSchedule) error {
	if schedule == nil {
		return fmt.Errorf("launchpad: nil vesting schedule")
	}
	return m.KVPut(prefixed(vestingPrefix, schedule.Account[:]), schedule)
}
