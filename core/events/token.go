package events

import "launchpad/core/types"

const (
	// TypeTokenMinted is emitted when new units are issued.
	TypeTokenMinted = "token.minted"
	// TypeTokenTransferred is emitted on every balance movement.
	TypeTokenTransferred = "token.transferred"
)

// TokenMinted captures an issuance performed by a mint authority.
type TokenMinted struct {
	Mint   [20]byte
	To     [20]byte
	Amount uint64
}

// EventType implements the Event interface.
func (TokenMinted) EventType() string { return TypeTokenMinted }

// Event converts the payload to the generic event representation.
func (e TokenMinted) Event() *types.Event {
	return &types.Event{
		Type: TypeTokenMinted,
		Attributes: map[string]string{
			"mint":   formatAddr(e.Mint),
			"to":     formatAddr(e.To),
			"amount": formatUint(e.Amount),
		},
	}
}

// TokenTransferred captures a balance movement between two accounts.
type TokenTransferred struct {
	Mint   [20]byte
	From   [20]byte
	To     [20]byte
	Amount uint64
}

// EventType implements the Event interface.
func (TokenTransferred) EventType() string { return TypeTokenTransferred }

// Event converts the payload to the generic event representation.
func (e TokenTransferred) Event() *types.Event {
	return &types.Event{
		Type: TypeTokenTransferred,
		Attributes: map[string]string{
			"mint":   formatAddr(e.Mint),
			"from":   formatAddr(e.From),
			"to":     formatAddr(e.To),
			"amount": formatUint(e.Amount),
		},
	}
}
