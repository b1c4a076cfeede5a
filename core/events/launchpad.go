package events

import (
	"launchpad/core/types"
)

const (
	// TypeLaunchCreated is emitted when a sale ledger is initialised.
	TypeLaunchCreated = "launchpad.launch.created"
	// TypeLaunchPurchased is emitted for every settled purchase.
	TypeLaunchPurchased = "launchpad.launch.purchased"
	// TypeLaunchWithdrawn is emitted when the authority drains the vault.
	TypeLaunchWithdrawn = "launchpad.launch.withdrawn"
	// TypeLaunchUpdated is emitted when the authority moves the sale window
	// or payment bounds.
	TypeLaunchUpdated = "launchpad.launch.updated"
	// TypeVestingClaimed is emitted when vested units are released.
	TypeVestingClaimed = "launchpad.vesting.claimed"
)

// LaunchCreated captures the immutable curve of a new launch.
type LaunchCreated struct {
	Launch       [20]byte
	Authority    [20]byte
	Mint         [20]byte
	Vault        [20]byte
	InitialPrice uint64
	Slope        uint64
}

// EventType implements the Event interface.
func (LaunchCreated) EventType() string { return TypeLaunchCreated }

// Event converts the payload to the generic event representation.
func (e LaunchCreated) Event() *types.Event {
	return &types.Event{
		Type: TypeLaunchCreated,
		Attributes: map[string]string{
			"launch":       formatAddr(e.Launch),
			"authority":    formatAddr(e.Authority),
			"mint":         formatAddr(e.Mint),
			"vault":        formatAddr(e.Vault),
			"initialPrice": formatUint(e.InitialPrice),
			"slope":        formatUint(e.Slope),
		},
	}
}

// LaunchPurchased captures a settled purchase including the commission routed
// to the affiliate, if any.
type LaunchPurchased struct {
	Launch       [20]byte
	Buyer        [20]byte
	Units        uint64
	Cost         uint64
	UnitsSold    uint64
	Affiliate    [20]byte
	HasAffiliate bool
	Commission   uint64
	Vested       bool
}

// EventType implements the Event interface.
func (LaunchPurchased) EventType() string { return TypeLaunchPurchased }

// Event converts the payload to the generic event representation.
func (e LaunchPurchased) Event() *types.Event {
	attrs := map[string]string{
		"launch":    formatAddr(e.Launch),
		"buyer":     formatAddr(e.Buyer),
		"units":     formatUint(e.Units),
		"cost":      formatUint(e.Cost),
		"unitsSold": formatUint(e.UnitsSold),
	}
	if e.HasAffiliate {
		attrs["affiliate"] = formatAddr(e.Affiliate)
		attrs["commission"] = formatUint(e.Commission)
	}
	if e.Vested {
		attrs["vested"] = "true"
	}
	return &types.Event{Type: TypeLaunchPurchased, Attributes: attrs}
}

// LaunchWithdrawn captures a vault withdrawal.
type LaunchWithdrawn struct {
	Launch    [20]byte
	Authority [20]byte
	Amount    uint64
}

// EventType implements the Event interface.
func (LaunchWithdrawn) EventType() string { return TypeLaunchWithdrawn }

// Event converts the payload to the generic event representation.
func (e LaunchWithdrawn) Event() *types.Event {
	return &types.Event{
		Type: TypeLaunchWithdrawn,
		Attributes: map[string]string{
			"launch":    formatAddr(e.Launch),
			"authority": formatAddr(e.Authority),
			"amount":    formatUint(e.Amount),
		},
	}
}

// LaunchUpdated captures the mutable parameters after an update.
type LaunchUpdated struct {
	Launch     [20]byte
	EndTime    uint64
	MinPayment uint64
	MaxPayment uint64
}

// EventType implements the Event interface.
func (LaunchUpdated) EventType() string { return TypeLaunchUpdated }

// Event converts the payload to the generic event representation.
func (e LaunchUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypeLaunchUpdated,
		Attributes: map[string]string{
			"launch":     formatAddr(e.Launch),
			"endTime":    formatUint(e.EndTime),
			"minPayment": formatUint(e.MinPayment),
			"maxPayment": formatUint(e.MaxPayment),
		},
	}
}

// VestingClaimed captures a release from a vesting schedule.
type VestingClaimed struct {
	Launch      [20]byte
	Beneficiary [20]byte
	Amount      uint64
	Claimed     uint64
	Total       uint64
}

// EventType implements the Event interface.
func (VestingClaimed) EventType() string { return TypeVestingClaimed }

// Event converts the payload to the generic event representation.
func (e VestingClaimed) Event() *types.Event {
	return &types.Event{
		Type: TypeVestingClaimed,
		Attributes: map[string]string{
			"launch":      formatAddr(e.Launch),
			"beneficiary": formatAddr(e.Beneficiary),
			"amount":      formatUint(e.Amount),
			"claimed":     formatUint(e.Claimed),
			"total":       formatUint(e.Total),
		},
	}
}
